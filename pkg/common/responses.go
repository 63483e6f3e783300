package common

import (
	"encoding/json"
	"net/http"

	pkgerrors "templatehub/pkg/errors"
)

// MaxBodyBytes caps request bodies read by ParseJSONBody.
const MaxBodyBytes = 1 << 20

// Envelope is the body of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Result  interface{} `json:"result"`
}

// RespondJSON sends result in a success envelope.
func RespondJSON(w http.ResponseWriter, status int, message string, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Success: status >= 200 && status < 300,
		Message: message,
		Result:  result,
	})
}

// RespondOK is RespondJSON with status 200.
func RespondOK(w http.ResponseWriter, message string, result interface{}) {
	RespondJSON(w, http.StatusOK, message, result)
}

// ParseJSONBody decodes a JSON body of at most MaxBodyBytes into v.
// Unknown fields are rejected.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return pkgerrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}

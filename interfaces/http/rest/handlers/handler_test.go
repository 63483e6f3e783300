package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"templatehub/pkg/auth"
	pkgerrors "templatehub/pkg/errors"
)

const (
	callerID  = "65f1a2b3c4d5e6f7a8b9c001"
	otherID   = "65f1a2b3c4d5e6f7a8b9c002"
	projectID = "65f1a2b3c4d5e6f7a8b9c0aa"
)

var caller = &auth.UserContext{UserID: callerID, Username: "alice", OrgID: "65f1a2b3c4d5e6f7a8b9c0ee"}

func testErrors() *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(zap.NewNop(), false)
}

// serve routes one request through pattern so URL parameters resolve.
// A nil user sends the request unauthenticated.
func serve(method, pattern, target, body string, h http.HandlerFunc, user *auth.UserContext) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if user != nil {
		req = req.WithContext(auth.SetUserInContext(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Type    string          `json:"type"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func result(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decode(t, rec).Result, v))
}

// Package handlers adapts HTTP requests to the application services.
package handlers

import (
	"net/http"

	"templatehub/application/services"
	"templatehub/pkg/auth"
	pkgerrors "templatehub/pkg/errors"
)

// writeResult is the response body of a mirrored write.
type writeResult struct {
	ID       string                `json:"id"`
	Affected int64                 `json:"affected"`
	Mirrored bool                  `json:"mirrored"`
	Drift    *services.DriftReport `json:"drift,omitempty"`
}

func newWriteResult(res *services.MirrorResult) writeResult {
	return writeResult{ID: res.ID, Affected: res.Affected, Mirrored: res.Mirrored(), Drift: res.Drift}
}

func currentUser(r *http.Request) (*auth.UserContext, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError("authentication required")
	}
	return user, nil
}

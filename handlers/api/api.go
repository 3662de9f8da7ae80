// Package api holds the helpers shared by the /api/v1 handlers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"pattern-studio/core"
	"pattern-studio/middleware"
	"pattern-studio/patterns"
)

// PatternStoreFactory returns a pattern records client acting as the user
// who owns token.
type PatternStoreFactory func(ctx context.Context, token string) core.PatternStore

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func RespondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

// RespondPatternError translates a pattern records failure. Authentication
// and permission errors keep their status; plan restrictions also carry the
// pricing redirect. Anything else is reported as a bad gateway.
func RespondPatternError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := patterns.AsAPIError(err)
	if !ok {
		RespondError(w, r, http.StatusBadGateway, "Pattern service unavailable")
		return
	}

	status := http.StatusBadGateway
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		status = apiErr.Status
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		status = http.StatusBadRequest
	}

	logrus.WithFields(logrus.Fields{
		"status": apiErr.Status,
		"code":   apiErr.Code,
	}).Warn("Pattern records request rejected")

	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{
		Error:    apiErr.Message,
		Code:     apiErr.Code,
		Redirect: apiErr.Redirect(),
	})
}

// UserID returns the authenticated subject, answering 401 when it is missing.
func UserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.Claims(r.Context())
	if !ok {
		RespondError(w, r, http.StatusUnauthorized, "User claims not found")
		return "", false
	}
	return claims.Subject, true
}

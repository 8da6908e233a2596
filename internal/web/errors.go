package web

// errors.go maps service errors to HTTP responses. The technical error is
// logged with the request id; the client gets the user message from
// core.MapError.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JonMunkholm/docket/internal/core"
	"github.com/JonMunkholm/docket/internal/document"
	"github.com/JonMunkholm/docket/internal/logging"
	"github.com/JonMunkholm/docket/internal/sealer"
)

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

var errorStatuses = []struct {
	target error
	status int
}{
	{core.ErrInvalidParameter, http.StatusBadRequest},
	{core.ErrNoFile, http.StatusBadRequest},
	{core.ErrMissingKey, http.StatusBadRequest},
	{core.ErrInvalidImportDate, http.StatusBadRequest},
	{sealer.ErrMalformed, http.StatusBadRequest},
	{sealer.ErrInvalidKey, http.StatusForbidden},
	{core.ErrImportNotFound, http.StatusNotFound},
	{core.ErrImportBusy, http.StatusConflict},
	{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
	{document.ErrUnsupportedFormat, http.StatusUnsupportedMediaType},
	{core.ErrRateLimited, http.StatusTooManyRequests},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes its user-facing form.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	respondErrorJSON(w, msg, status)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/madmatrix/tickethub/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeEmailRequired       = "email_required"
	codeAttendeeNotFound    = "attendee_not_found"
	codeRegistryUnavailable = "registry_unavailable"
	codeUnsupportedFormat   = "unsupported_format"
	codeRenderFailed        = "render_failed"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps domain errors to their HTTP answer.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmailRequired):
		writeError(w, http.StatusBadRequest, codeEmailRequired, "email is required")
	case errors.Is(err, domain.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, codeUnsupportedFormat, "format must be png, jpeg or pdf")
	case errors.Is(err, domain.ErrAttendeeNotFound):
		writeError(w, http.StatusNotFound, codeAttendeeNotFound, "Registry Mismatch: email not found in any registry")
	case errors.Is(err, domain.ErrRegistryUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeRegistryUnavailable, "Registry Offline: could not connect to database services")
	case errors.Is(err, domain.ErrRenderFailed):
		writeError(w, http.StatusInternalServerError, codeRenderFailed, "rendering error, please retry")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, codeRegistryUnavailable, "Registry Offline: could not connect to database services")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
}

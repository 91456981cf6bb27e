package api

import (
	"encoding/json"
	"net/http"

	"oltmap/internal/errors"
)

// ErrorEnvelope is the body of every non-2xx response
type ErrorEnvelope struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"requestId"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as an error envelope. Errors without a code are reported as
// internal errors and their text is not exposed.
func (s *Server) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	message := errors.Message(err)
	if !errors.IsAppError(err) {
		code = errors.CodeInternalError
		message = "internal error"
	}

	status := errors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", r.URL.Path,
			"code", code,
			"error", err,
			"request_id", RequestIDFromContext(r.Context()),
		)
	}

	WriteJSON(w, status, ErrorEnvelope{
		Error:     ErrorBody{Code: code, Message: message},
		RequestID: RequestIDFromContext(r.Context()),
	})
}

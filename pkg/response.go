package pkg

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope of every response body.
type APIResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   any    `json:"error,omitempty"`
}

// ErrorBody is the "error" member of a failed response.
type ErrorBody struct {
	Code   string       `json:"code"`
	Fields []FieldError `json:"fields,omitempty"`
}

// JSON writes a successful response.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, APIResponse{Message: message, Data: data})
}

// Error converts err into an envelope. Internal causes are never written to
// the client; callers log them.
func Error(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	write(w, StatusOf(appErr), APIResponse{
		Message: appErr.Message,
		Error:   ErrorBody{Code: appErr.Code, Fields: appErr.Fields},
	})
}

// ErrorWithMessage writes a failure that did not originate in a service,
// such as an undecodable body or a missing bearer token.
func ErrorWithMessage(w http.ResponseWriter, status int, code, message string) {
	write(w, status, APIResponse{Message: message, Error: ErrorBody{Code: code}})
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(err *AppError) int {
	switch err.Kind {
	case KindValidation, KindConflict, KindNotFound, KindConfig:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func write(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zapponejosh/yearcal/internal/calendar"
)

// Response is the JSON envelope of every reply except rendered text.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorCode classifies a failed request.
type ErrorCode string

// Error codes
const (
	CodeBadRequest  ErrorCode = "BAD_REQUEST"
	CodeNotFound    ErrorCode = "NOT_FOUND"
	CodeRateLimited ErrorCode = "RATE_LIMITED"
	CodeInternal    ErrorCode = "INTERNAL_ERROR"
)

// Status returns the HTTP status sent with the code.
func (c ErrorCode) Status() int {
	switch c {
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Message string    `json:"message"`
	Code    ErrorCode `json:"code"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes data in a successful envelope.
func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// WriteError writes an error envelope with the status of code.
func WriteError(w http.ResponseWriter, code ErrorCode, message string) error {
	return WriteJSON(w, code.Status(), Response{
		Error: &ErrorInfo{Message: message, Code: code},
	})
}

// WriteCalendarError reports a calendar failure. A date that does not exist
// in its month is not found; every other failure is a bad request.
func WriteCalendarError(w http.ResponseWriter, err error) error {
	code := CodeBadRequest
	if errors.Is(err, calendar.ErrInvalidDate) {
		code = CodeNotFound
	}
	return WriteError(w, code, err.Error())
}

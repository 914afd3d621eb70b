package response

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope of every JSON reply
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ErrorBody is the machine-readable error payload
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON writes data inside the envelope
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

// Error writes an error envelope
func Error(w http.ResponseWriter, status int, message any) {
	write(w, status, Response{Error: message})
}

// Fail writes an error envelope with a stable code
func Fail(w http.ResponseWriter, status int, code, message string) {
	Error(w, status, ErrorBody{Code: code, Message: message})
}

func write(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

func BadRequest(w http.ResponseWriter, code, message string) {
	Fail(w, http.StatusBadRequest, code, message)
}

func Unauthorized(w http.ResponseWriter, message string) {
	Fail(w, http.StatusUnauthorized, "unauthorized", message)
}

func Forbidden(w http.ResponseWriter, message string) {
	Fail(w, http.StatusForbidden, "forbidden", message)
}

func Conflict(w http.ResponseWriter, code, message string) {
	Fail(w, http.StatusConflict, code, message)
}

func TooManyRequests(w http.ResponseWriter) {
	Fail(w, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
}

// InternalError never echoes the underlying error to the client
func InternalError(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, "internal", "internal server error")
}

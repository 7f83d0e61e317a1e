// Package dto defines the request and response shapes of the HTTP API.
// All JSON field names are camelCase.
package dto

// APIResponse is the envelope every endpoint responds with.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty" validate:"omitempty"`
	Error   any    `json:"error,omitempty" validate:"omitempty"`
}

// ErrorDetail carries a machine-readable code alongside optional context.
type ErrorDetail struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty" validate:"omitempty"`
}

// OK wraps data in a successful envelope.
func OK(message string, data any) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data}
}

// Fail wraps an error code in a failed envelope.
func Fail(message, code string, details any) APIResponse {
	return APIResponse{Success: false, Message: message, Error: ErrorDetail{Code: code, Details: details}}
}

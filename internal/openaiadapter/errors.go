package openaiadapter

import "net/http"

// Error types used by OpenAI-compatible clients to branch on failures.
const (
	ErrorTypeInvalidRequest    = "invalid_request_error"
	ErrorTypeAuthentication    = "authentication_error"
	ErrorTypePermissionDenied  = "permission_denied"
	ErrorTypeRateLimit         = "rate_limit_error"
	ErrorTypeInsufficientQuota = "insufficient_quota"
	ErrorTypeServer            = "server_error"
	ErrorTypeAPI               = "api_error"
)

// ChatCompletionError represents an OpenAI-formatted error for chat completion endpoints.
// This is the standard error structure that OpenAI clients expect.
type ChatCompletionError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}

// Error implements the error interface, returning the error message.
func (e *ChatCompletionError) Error() string {
	return e.Message
}

// ChatCompletionErrorResponse wraps ChatCompletionError in the envelope OpenAI clients
// expect: {"error": {...}}
type ChatCompletionErrorResponse struct {
	// Err is the underlying error detail. JSON tag ensures it serializes as "error".
	Err *ChatCompletionError `json:"error"`
}

// NewErrorResponse returns an error envelope with the given type and message.
func NewErrorResponse(errType, message string) *ChatCompletionErrorResponse {
	return &ChatCompletionErrorResponse{Err: &ChatCompletionError{Message: message, Type: errType}}
}

// Error implements the error interface, returning the underlying error message.
// This allows ChatCompletionErrorResponse to be used directly in error returns
// while maintaining the full OpenAI error structure for marshaling.
func (e *ChatCompletionErrorResponse) Error() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Message
}

// StatusCode maps the error type to an HTTP status code following OpenAI API conventions.
func (e *ChatCompletionErrorResponse) StatusCode() int {
	if e.Err == nil {
		return http.StatusInternalServerError
	}
	switch e.Err.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermissionDenied:
		return http.StatusForbidden
	case ErrorTypeRateLimit, ErrorTypeInsufficientQuota:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

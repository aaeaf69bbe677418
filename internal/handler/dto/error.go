package dto

// ErrorResponse is the JSON body of every non-2xx reply
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

// Fixed error strings of the public API
const (
	ErrValidationFailed = "Validation failed"
	ErrTooManyRequests  = "Too many requests"
	ErrInternalServer   = "Internal server error"
)

// RateLimitMessage is shown to clients that exceeded the window
const RateLimitMessage = "Too many requests. Please wait a moment and try again."

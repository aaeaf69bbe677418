package session

import (
	"errors"
	"net/http"
)

// Cancellation causes attached to a turn's context
var (
	ErrSuperseded = errors.New("superseded by a newer request")
	ErrCancelled  = errors.New("cancelled by user")
	ErrDisposed   = errors.New("controller disposed")
	ErrTimeout    = errors.New("request timed out")
)

// ErrEmptyMessage is returned by Send when there is neither text nor an image
var ErrEmptyMessage = errors.New("message must contain text or at least one image")

// ErrorKind 客户端可见错误的分类
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindRateLimit
	KindServer
	KindNetwork
	KindTimeout
)

var errorMessages = map[ErrorKind]string{
	KindTimeout:    "The request timed out. Please try again.",
	KindRateLimit:  "Too many requests. Please wait a moment and try again.",
	KindServer:     "A server error occurred. Please wait a moment and try again.",
	KindNetwork:    "A network error occurred. Please check your connection.",
	KindValidation: "There is a problem with your input. Please check it and try again.",
	KindUnknown:    "An error occurred. Please try again.",
}

// Message returns the fixed user-facing text for k
func (k ErrorKind) Message() string {
	if msg, ok := errorMessages[k]; ok {
		return msg
	}
	return errorMessages[KindUnknown]
}

// KindForStatus maps a relay HTTP status to an error kind
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return KindServer
	default:
		return KindUnknown
	}
}

// statusCoder is implemented by transport errors that carry an HTTP status
type statusCoder interface {
	HTTPStatus() int
}

// classify picks the error kind for a failed request. Errors without an
// HTTP status are transport failures.
func classify(err error) ErrorKind {
	var sc statusCoder
	if errors.As(err, &sc) {
		return KindForStatus(sc.HTTPStatus())
	}
	return KindNetwork
}

// Describe returns the user-facing text for a request error
func Describe(err error) string {
	return classify(err).Message()
}

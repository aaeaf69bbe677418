package domain

import (
	"errors"
	"fmt"
	"strings"
)

// 预定义的领域错误
var (
	// ErrInvalidInput 无效的输入
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream upstream completion service failure
	ErrUpstream = errors.New("upstream error")
)

// DomainError 领域错误
type DomainError struct {
	Code    string
	Message string
	Details []string
	Err     error
}

// Error implements error（用于日志和内部错误传递）
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 返回包装的错误
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewValidationError carries every violation found in a request
func NewValidationError(details []string) error {
	return &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "Validation failed",
		Details: details,
		Err:     fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(details, "; ")),
	}
}

// NewUpstreamError wraps a failure of the completion service
func NewUpstreamError(err error) error {
	return &DomainError{
		Code:    "UPSTREAM_ERROR",
		Message: "upstream service failed",
		Err:     fmt.Errorf("%w: %v", ErrUpstream, err),
	}
}

// ValidationDetails returns the itemised violations of a validation error
func ValidationDetails(err error) []string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}

// IsInvalidInput 判断是否为无效输入错误
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUpstream 判断是否为上游错误
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

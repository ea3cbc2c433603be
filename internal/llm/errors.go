package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a generation failure.
type ErrorKind string

// Error kinds.
const (
	KindConfig          ErrorKind = "config"
	KindRateLimited     ErrorKind = "rate_limited"
	KindPaymentRequired ErrorKind = "payment_required"
	KindAPI             ErrorKind = "api"
	KindTransport       ErrorKind = "transport"
	KindEmpty           ErrorKind = "empty"
	KindParse           ErrorKind = "parse"
)

// Error is a typed generation failure. Message is safe to show to users.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewConfigError reports a missing credential.
func NewConfigError(keyName string) *Error {
	return &Error{Kind: KindConfig, Message: keyName + " not configured"}
}

// NewStatusError classifies a non-2xx response.
func NewStatusError(status int, cause error) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return &Error{Kind: KindRateLimited, StatusCode: status, Message: "Rate limit exceeded, please try again later", Cause: cause}
	case http.StatusPaymentRequired:
		return &Error{Kind: KindPaymentRequired, StatusCode: status, Message: "Payment required, please add credits to workspace", Cause: cause}
	default:
		return &Error{Kind: KindAPI, StatusCode: status, Message: fmt.Sprintf("LLM API error: %d", status), Cause: cause}
	}
}

// NewTransportError wraps a failure that happened before any HTTP status was seen.
func NewTransportError(cause error) *Error {
	msg := "Unknown error"
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: KindTransport, Message: msg, Cause: cause}
}

// KindOf returns the kind of err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return ""
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.StatusCode
	}
	return 0
}

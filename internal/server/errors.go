package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a missing resource
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrCancelled indicates the client went away before the pipeline finished.
type ErrCancelled struct {
	Cause error
}

func (e *ErrCancelled) Error() string {
	return "request cancelled: " + e.Cause.Error()
}

func (e *ErrCancelled) Unwrap() error {
	return e.Cause
}

// StatusClientClosedRequest is the non-standard status logged for
// requests abandoned by the client.
const StatusClientClosedRequest = 499

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	var notFound *ErrNotFound
	var cancelled *ErrCancelled
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &cancelled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text safe to return to clients.
func publicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "Internal Server Error"
	}
	return err.Error()
}

// validationError converts validator output into an ErrValidation naming
// the first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{
			Field:   fieldName(fe.Namespace()),
			Message: fmt.Sprintf("failed on '%s'", fe.Tag()),
		}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}

// fieldName drops the struct name from a validator namespace.
func fieldName(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

package services

import (
	"net/http"

	"github.com/pkg/errors"
)

// ServiceError carries the HTTP status and client-facing message of a
// domain failure.
type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

// AsServiceError reports whether err carries a ServiceError anywhere in its
// chain.
func AsServiceError(err error) (ServiceError, bool) {
	var svcErr ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return ServiceError{}, false
}

// StatusOf is the HTTP status for err: the ServiceError status or 500.
func StatusOf(err error) int {
	if svcErr, ok := AsServiceError(err); ok {
		return svcErr.Status
	}
	return http.StatusInternalServerError
}

package booking

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service error so the HTTP layer can map it to a
// client-error category without string matching.
type ErrorKind string

const (
	KindNotFound       ErrorKind = "notFound"
	KindBadRequest     ErrorKind = "badRequest"
	KindForbidden      ErrorKind = "forbidden"
	KindConflict       ErrorKind = "conflict"
	KindAlreadyDeleted ErrorKind = "alreadyDeleted"
)

// ServiceError carries the semantic kind of a booking failure.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewNotFound(msg string) error       { return &ServiceError{Kind: KindNotFound, Message: msg} }
func NewBadRequest(msg string) error     { return &ServiceError{Kind: KindBadRequest, Message: msg} }
func NewForbidden(msg string) error      { return &ServiceError{Kind: KindForbidden, Message: msg} }
func NewConflict(msg string) error       { return &ServiceError{Kind: KindConflict, Message: msg} }
func NewAlreadyDeleted(msg string) error { return &ServiceError{Kind: KindAlreadyDeleted, Message: msg} }

// KindOf extracts the kind from err, or "" when err is not a ServiceError.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

package services

import "errors"

// ErrorKind classifies a domain error so handlers can map it to an HTTP
// status without string matching.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindForbidden
	KindValidation
	KindConflict
	KindStorage
	KindProcessing
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Forbidden(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

func StorageError(message string, err error) error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func ProcessingError(message string, err error) error {
	return &Error{Kind: KindProcessing, Message: message, Err: err}
}

// KindOf returns the kind of err, or 0 for non-domain errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

package files

import (
	"errors"
	"fmt"
)

// Validation failures. They are reported to the client and nothing is persisted.
var (
	ErrUnexpectedField  = errors.New("unexpected field")
	ErrFieldsNotAllowed = errors.New("form fields are not accepted alongside the file")
	ErrUnsupportedType  = errors.New("only Excel or PDF files are allowed")
	ErrTooManyFiles     = errors.New("only one file per request is allowed")
	ErrTooLarge         = errors.New("file exceeds the upload size limit")
	ErrMalformed        = errors.New("malformed multipart body")
)

// ErrNoFile is returned when a request carries no file at all.
var ErrNoFile = errors.New("no file was uploaded")

// Export outcomes that mean "nothing to download" rather than a failure.
var (
	ErrNoFiles      = errors.New("no files available")
	ErrNoValidFiles = errors.New("no valid files found")
)

// ValidationError wraps one of the validation sentinels.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error { return &ValidationError{Err: err} }

// IsValidation reports whether err is a client-side upload rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// PersistError is returned when the metadata insert fails after the file was
// written. The file at Path stays on disk with no record.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("record upload %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

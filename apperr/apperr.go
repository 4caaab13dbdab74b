// Package apperr defines the error taxonomy shared by services and
// handlers. Handlers map each kind to an HTTP status; services wrap
// lower-level failures into one of these kinds at the boundary where
// the failure becomes user-meaningful.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping.
type Kind int

const (
	KindValidation Kind = iota // bad or missing input
	KindNotFound               // missing user/contract/OCR file
	KindPermission             // inactive or unauthorized user
	KindDuplicate              // contract name+file collision
	KindVendor                 // OCR vendor transport or non-200 failure
	KindStorage                // database write failure
)

// Error is a classified application error.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func Permission(format string, args ...any) *Error { return newf(KindPermission, format, args...) }
func Duplicate(format string, args ...any) *Error  { return newf(KindDuplicate, format, args...) }

// Storage wraps a database failure.
func Storage(err error, format string, args ...any) *Error {
	return &Error{Kind: KindStorage, Msg: fmt.Sprintf(format, args...), Err: err}
}

// VendorError carries the OCR vendor's HTTP status and response body.
type VendorError struct {
	Status int
	Body   string
	Err    error
}

func (e *VendorError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr vendor request failed: %v", e.Err)
	}
	return fmt.Sprintf("ocr vendor returned status %d: %s", e.Status, e.Body)
}

func (e *VendorError) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == kind
}

// IsVendor reports whether err is a vendor failure.
func IsVendor(err error) bool {
	var ve *VendorError
	return errors.As(err, &ve)
}

// Package apperr defines the error kinds returned by the browse and import core.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies one failure site of the browse/import pipeline.
type Kind string

const (
	KindRootInvalid        Kind = "root_invalid"
	KindPathNotFound       Kind = "path_not_found"
	KindOutsideRoot        Kind = "outside_root"
	KindNotADirectory      Kind = "not_a_directory"
	KindNotReadable        Kind = "not_readable"
	KindScanFailed         Kind = "scan_failed"
	KindNotAFile           Kind = "not_a_file"
	KindInvalidType        Kind = "invalid_type"
	KindTypeNotAllowed     Kind = "type_not_allowed"
	KindAlreadyImported    Kind = "already_imported"
	KindCopyFailed         Kind = "copy_failed"
	KindRegistrationFailed Kind = "registration_failed"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrRootInvalid        = &Error{Kind: KindRootInvalid}
	ErrPathNotFound       = &Error{Kind: KindPathNotFound}
	ErrOutsideRoot        = &Error{Kind: KindOutsideRoot}
	ErrNotADirectory      = &Error{Kind: KindNotADirectory}
	ErrNotReadable        = &Error{Kind: KindNotReadable}
	ErrScanFailed         = &Error{Kind: KindScanFailed}
	ErrNotAFile           = &Error{Kind: KindNotAFile}
	ErrInvalidType        = &Error{Kind: KindInvalidType}
	ErrTypeNotAllowed     = &Error{Kind: KindTypeNotAllowed}
	ErrAlreadyImported    = &Error{Kind: KindAlreadyImported}
	ErrCopyFailed         = &Error{Kind: KindCopyFailed}
	ErrRegistrationFailed = &Error{Kind: KindRegistrationFailed}
)

// ErrNotFound is returned by lookups of records that do not exist.
var ErrNotFound = errors.New("not found")

// Error is a classified failure carrying a message fit for display.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Err     error
}

// New returns an Error of the given kind.
func New(kind Kind, path, msg string) *Error {
	return &Error{Kind: kind, Path: path, Message: msg}
}

// Wrap returns an Error of the given kind that keeps cause for logging.
func Wrap(kind Kind, path, msg string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the display message of err. Unclassified errors yield
// their Error() text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

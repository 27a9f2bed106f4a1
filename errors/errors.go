// Package errors provides error handling for pixelcheck.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints and details
//
// Usage:
//
//	// Wrap with context
//	if err := fetch(); err != nil {
//	    return errors.Wrap(err, "failed to fetch android design")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "check the figma token")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors shared across packages.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrInvalidDocument indicates a design file without a usable "document" root.
	// Fatal for the platform it was fetched for.
	ErrInvalidDocument = New("invalid design document")

	// ErrInvalidRequest indicates malformed caller input (bad URL, missing argument)
	ErrInvalidRequest = New("invalid request")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrOracleUnavailable indicates no oracle is configured or it failed to answer
	ErrOracleUnavailable = New("oracle unavailable")

	// ErrUnauthorized indicates a remote API rejected our credentials
	ErrUnauthorized = New("unauthorized")
)

// IsInvalidDocument checks if an error is or wraps ErrInvalidDocument
func IsInvalidDocument(err error) bool {
	return err != nil && Is(err, ErrInvalidDocument)
}

// IsInvalidRequest checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequest(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsNotFound checks if an error is or wraps ErrNotFound
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewInvalidDocumentError creates an invalid-document error with a formatted message
func NewInvalidDocumentError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidDocument, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

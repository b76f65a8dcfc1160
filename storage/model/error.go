package model

import (
	"fmt"
)

// NotFoundError is an error signaling that something was not found in the
// database
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt returns a NotFoundError from the passed format string and parameters
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// AlreadyExistsError is an error signaling that something already exists in
// the database
type AlreadyExistsError string

// Error implements the error interface
func (e AlreadyExistsError) Error() string {
	return string(e)
}

// AlreadyExistsErrorFmt returns an AlreadyExistsError from the passed format string and parameters
func AlreadyExistsErrorFmt(format string, params ...any) AlreadyExistsError {
	return AlreadyExistsError(fmt.Sprintf(format, params...))
}

// DuplicateKeyError signals that a signing key id is already registered.
// Key ids are unique across all issuers, so the error names the issuer that
// currently owns the conflicting id.
type DuplicateKeyError struct {
	KID    string
	Issuer string
}

// Error implements the error interface
func (e DuplicateKeyError) Error() string {
	if e.Issuer == "" {
		return fmt.Sprintf("key id '%s' is already registered", e.KID)
	}
	return fmt.Sprintf("key id '%s' is already registered to issuer '%s'", e.KID, e.Issuer)
}

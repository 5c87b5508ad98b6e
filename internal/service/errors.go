// Package service holds the account and session workflows behind the HTTP
// handlers: signup, signin, signout, password reset and password change.
package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials is returned for both an unknown email and a wrong
	// password so callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated covers a missing, malformed, unknown or expired session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrConflict is returned by Signup when the email is taken.
	ErrConflict = errors.New("email already registered")
	// ErrInvalidOrExpired is returned for any unusable reset code, including
	// an unknown account.
	ErrInvalidOrExpired = errors.New("invalid or expired reset code")
	// ErrWrongPassword is returned by ChangePassword when the current
	// password does not match.
	ErrWrongPassword = errors.New("current password is incorrect")
	// ErrDBUnavailable means the database was never configured.
	ErrDBUnavailable = errors.New("database not configured")
	// ErrDependency matches every *DependencyError.
	ErrDependency = errors.New("dependency failure")
)

// ValidationError describes malformed input.  Reason is a short code that
// is safe to show to clients.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, reason string) error { return &ValidationError{Field: field, Reason: reason} }

// DependencyError wraps a failed store call.  Its text is for logs only.
type DependencyError struct {
	Op  string
	Err error
}

func (e *DependencyError) Error() string         { return e.Op + ": " + e.Err.Error() }
func (e *DependencyError) Unwrap() error         { return e.Err }
func (e *DependencyError) Is(target error) bool { return target == ErrDependency }

func dependency(op string, err error) error { return &DependencyError{Op: op, Err: err} }

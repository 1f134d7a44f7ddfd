package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores when a record does not exist. Services
// translate it into a caller-facing StatusError; it never crosses the
// module boundary on its own.
var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned by Cache implementations when a key is absent.
// A miss is a normal outcome, not a failure.
var ErrCacheMiss = errors.New("cache miss")

// Status classifies caller-facing errors the way the surrounding backend
// maps them onto responses.
type Status int

const (
	StatusNotFound Status = iota
	StatusUnauthorized
	StatusBadRequest
)

// StatusError is a caller-facing error with a stable message. The messages
// are part of the subsystem contract: lockout messages deliberately
// disclose remaining attempts and duration, while credential failures stay
// indistinguishable from unknown accounts.
type StatusError struct {
	Status  Status
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func NewNotFound(msg string) *StatusError {
	return &StatusError{Status: StatusNotFound, Message: msg}
}

func NewUnauthorized(msg string) *StatusError {
	return &StatusError{Status: StatusUnauthorized, Message: msg}
}

func NewBadRequest(msg string) *StatusError {
	return &StatusError{Status: StatusBadRequest, Message: msg}
}

// NewUnauthorizedf formats a lockout-style message carrying attempt or
// duration counts.
func NewUnauthorizedf(format string, args ...any) *StatusError {
	return &StatusError{Status: StatusUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func IsNotFound(err error) bool     { return hasStatus(err, StatusNotFound) }
func IsUnauthorized(err error) bool { return hasStatus(err, StatusUnauthorized) }
func IsBadRequest(err error) bool   { return hasStatus(err, StatusBadRequest) }

func hasStatus(err error, status Status) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

var (
	ErrTenantNotFound = NewNotFound("Tenant not found")

	// ErrInvalidCredentials is shared by "no such user" and "wrong
	// password" so responses cannot be used for account enumeration.
	ErrInvalidCredentials = NewUnauthorized("Invalid email or password")

	ErrAccountNotActive    = NewUnauthorized("Account is not active")
	ErrSSOOnlyAccount      = NewUnauthorized("Please use SSO to login")
	ErrInvalidRefreshToken = NewUnauthorized("Invalid or expired refresh token")

	ErrInvalidResetToken        = NewBadRequest("Invalid or expired reset token")
	ErrInvalidVerificationToken = NewBadRequest("Invalid or expired verification token")
	ErrEmailAlreadyVerified     = NewBadRequest("Email is already verified")
	ErrNoLocalPassword          = NewBadRequest("Account does not have a local password")
)

// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Portal errors.
	ErrAuthentication = errors.New("portal authentication failed")
	ErrColumnNotFound = errors.New("quantity column not found")
	ErrFooterMissing  = errors.New("footer row missing or empty")

	// Aggregation errors.
	ErrUnmappedPrefix = errors.New("prefix has no category mapping")

	// Tracker errors.
	ErrAnchorRowNotFound = errors.New("anchor row not found")
	ErrBackupFailed      = errors.New("backup failed")
	ErrFileLocked        = errors.New("workbook file locked")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

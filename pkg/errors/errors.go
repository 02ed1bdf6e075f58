package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrDispatch      = errors.New("notification dispatch failed")
	ErrRunInProgress = errors.New("notification run already in progress")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeDispatch      = "DISPATCH_ERROR"
	ErrCodeRunInProgress = "RUN_IN_PROGRESS"
	ErrCodeDatabaseError = "DATABASE_ERROR"
	ErrCodeCacheError    = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapValidation(format string, args ...interface{}) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf(format, args...),
		ErrValidation,
	)
}

func WrapLeagueNotFound(leagueID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("League with ID %s not found", leagueID),
		ErrNotFound,
	)
}

func WrapMemberNotFound(memberID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Member with ID %s not found", memberID),
		ErrNotFound,
	)
}

func WrapMembershipNotFound(memberID, leagueID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("Member %s is not enrolled in league %s", memberID, leagueID),
		ErrNotFound,
	)
}

func WrapDispatchError(recipient string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDispatch,
		fmt.Sprintf("sending to %s failed", recipient),
		errors.Join(ErrDispatch, err),
	)
}

func WrapRunInProgress() *BusinessError {
	return NewBusinessError(
		ErrCodeRunInProgress,
		"a notification run is already in progress",
		ErrRunInProgress,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

// IsValidation reports whether err carries ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound reports whether err carries ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

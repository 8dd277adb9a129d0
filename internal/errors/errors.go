// Package errors defines biome's coded error type.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable identifier for a failure mode
type ErrorCode string

const (
	// StatFailed: a path vanished or became unreadable between event and stat
	StatFailed ErrorCode = "STAT_FAILED"
	// ScanFailed: a directory could not be read
	ScanFailed ErrorCode = "SCAN_FAILED"
	// MoveFailed: rename or copy+remove of a file failed
	MoveFailed ErrorCode = "MOVE_FAILED"
	// BackupFailed: the pre-move backup copy failed
	BackupFailed ErrorCode = "BACKUP_FAILED"
	// WatchFailed: the watch primitive reported an error for a root
	WatchFailed ErrorCode = "WATCH_FAILED"
	// NotTracked: the path has no FileNode
	NotTracked ErrorCode = "NOT_TRACKED"
	// InvalidStrategy: unknown organize strategy
	InvalidStrategy ErrorCode = "INVALID_STRATEGY"
	// InvalidArgument: malformed request
	InvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// CloakFailed: the cloaking collaborator reported failure
	CloakFailed ErrorCode = "CLOAK_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// BiomeError carries a code, a message and an optional cause.
type BiomeError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates a BiomeError. cause may be nil.
func New(code ErrorCode, message string, cause error) *BiomeError {
	return &BiomeError{Code: code, Message: message, cause: cause}
}

// Newf creates a BiomeError with a formatted message and no cause.
func Newf(code ErrorCode, format string, args ...interface{}) *BiomeError {
	return &BiomeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface
func (e *BiomeError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *BiomeError) Unwrap() error {
	return e.cause
}

// WithDetails attaches details and returns e.
func (e *BiomeError) WithDetails(details interface{}) *BiomeError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first BiomeError in err's chain, or InternalError.
func CodeOf(err error) ErrorCode {
	var be *BiomeError
	if errors.As(err, &be) {
		return be.Code
	}
	return InternalError
}

// HasCode reports whether err's chain contains a BiomeError with code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

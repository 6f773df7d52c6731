package errors

import (
	"fmt"
	"io/fs"
)

// ErrorType represents different types of errors that can occur
type ErrorType int

const (
	ErrorTypeConfig ErrorType = iota
	ErrorTypeBackendUnavailable
	ErrorTypeUnknownLocation
	ErrorTypeMalformedPath
	ErrorTypeWatcher
	ErrorTypeSecret
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfig:
		return "config"
	case ErrorTypeBackendUnavailable:
		return "backend unavailable"
	case ErrorTypeUnknownLocation:
		return "unknown location"
	case ErrorTypeMalformedPath:
		return "malformed path"
	case ErrorTypeWatcher:
		return "watcher"
	case ErrorTypeSecret:
		return "secret"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Only the Type is compared.
var (
	ErrBackendUnavailable = &AppError{Type: ErrorTypeBackendUnavailable}
	ErrUnknownLocation    = &AppError{Type: ErrorTypeUnknownLocation}
	ErrMalformedPath      = &AppError{Type: ErrorTypeMalformedPath}
)

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error in %s [%s]: %s", e.Type, e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same type. Unknown locations
// also match fs.ErrNotExist and malformed paths fs.ErrInvalid so io/fs
// walkers treat them like their native counterparts.
func (e *AppError) Is(target error) bool {
	if t, ok := target.(*AppError); ok {
		return t.Type == e.Type
	}
	switch e.Type {
	case ErrorTypeUnknownLocation:
		return target == fs.ErrNotExist
	case ErrorTypeMalformedPath:
		return target == fs.ErrInvalid
	}
	return false
}

// NewConfigError creates a new configuration error
func NewConfigError(operation, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewBackendUnavailableError records a storage source that could not be enumerated.
func NewBackendUnavailableError(operation, source, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeBackendUnavailable,
		Operation: operation,
		Path:      source,
		Message:   message,
		Err:       err,
	}
}

// NewUnknownLocationError reports a virtual path whose prefix matches no location.
func NewUnknownLocationError(operation, path string) *AppError {
	return &AppError{
		Type:      ErrorTypeUnknownLocation,
		Operation: operation,
		Path:      path,
		Message:   "no such storage location",
	}
}

// NewMalformedPathError reports a virtual path that cannot be split.
func NewMalformedPathError(operation, path, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeMalformedPath,
		Operation: operation,
		Path:      path,
		Message:   message,
	}
}

// NewWatcherError creates a new watcher error
func NewWatcherError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeWatcher,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewSecretError wraps a credential store failure.
func NewSecretError(operation, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeSecret,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

package errors

import (
	"errors"
	"io/fs"
	"testing"
)

func TestErrorTypeString(t *testing.T) {
	testCases := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeConfig, "config"},
		{ErrorTypeBackendUnavailable, "backend unavailable"},
		{ErrorTypeUnknownLocation, "unknown location"},
		{ErrorTypeMalformedPath, "malformed path"},
		{ErrorTypeWatcher, "watcher"},
		{ErrorTypeSecret, "secret"},
		{ErrorType(999), "unknown"}, // Invalid error type
	}

	for _, tc := range testCases {
		result := tc.errorType.String()
		if result != tc.expected {
			t.Errorf("For error type %v, expected '%s', got '%s'", tc.errorType, tc.expected, result)
		}
	}
}

func TestAppErrorError(t *testing.T) {
	err := NewUnknownLocationError("open", "bogus:/x")
	expected := "unknown location error in open [bogus:/x]: no such storage location"
	if err.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, err.Error())
	}

	err2 := NewConfigError("load_config", "invalid JSON", errors.New("syntax error"))
	expected2 := "config error in load_config: invalid JSON"
	if err2.Error() != expected2 {
		t.Errorf("Expected error message '%s', got '%s'", expected2, err2.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	originalErr := errors.New("dial tcp: timeout")
	appErr := NewBackendUnavailableError("enumerate", "network", "share unreachable", originalErr)

	if appErr.Unwrap() != originalErr {
		t.Errorf("Expected unwrapped error to be original error, got %v", appErr.Unwrap())
	}
	if !errors.Is(appErr, originalErr) {
		t.Error("errors.Is should reach the wrapped error")
	}

	appErr2 := NewMalformedPathError("resolve", ":/x", "empty location id")
	if appErr2.Unwrap() != nil {
		t.Errorf("Expected unwrapped error to be nil, got %v", appErr2.Unwrap())
	}
}

func TestSentinelMatching(t *testing.T) {
	unknown := NewUnknownLocationError("stat", "bogus:/x")
	if !errors.Is(unknown, ErrUnknownLocation) {
		t.Error("unknown location should match ErrUnknownLocation")
	}
	if !errors.Is(unknown, fs.ErrNotExist) {
		t.Error("unknown location should match fs.ErrNotExist")
	}
	if errors.Is(unknown, ErrMalformedPath) {
		t.Error("unknown location must not match ErrMalformedPath")
	}

	malformed := NewMalformedPathError("resolve", "a/b:/c", "separator in location id")
	if !errors.Is(malformed, ErrMalformedPath) {
		t.Error("malformed path should match ErrMalformedPath")
	}
	if !errors.Is(malformed, fs.ErrInvalid) {
		t.Error("malformed path should match fs.ErrInvalid")
	}
	if errors.Is(malformed, fs.ErrNotExist) {
		t.Error("malformed path must not match fs.ErrNotExist")
	}

	unavailable := NewBackendUnavailableError("enumerate", "card", "failed", nil)
	if !errors.Is(unavailable, ErrBackendUnavailable) {
		t.Error("backend failure should match ErrBackendUnavailable")
	}
}

func TestErrorChaining(t *testing.T) {
	originalErr := errors.New("keyring locked")
	appErr := NewSecretError("get", "cannot read credentials", originalErr)

	var appErrPtr *AppError
	if !errors.As(appErr, &appErrPtr) {
		t.Fatal("errors.As should work with AppError")
	}
	if appErrPtr.Type != ErrorTypeSecret {
		t.Error("errors.As should preserve the correct error type")
	}

	w := NewWatcherError("start", "/media", "cannot watch", nil)
	if w.Path != "/media" || w.Type != ErrorTypeWatcher {
		t.Errorf("unexpected watcher error %+v", w)
	}
}

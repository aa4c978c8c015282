package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestPerennisError_Error(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "Startup", "invalid config file", nil)
	expected := "[1001] Startup: invalid config file"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}

	cause := errors.New("file not found")
	errWithCause := New(ErrCodeConfigInvalid, "Startup", "invalid config file", cause)
	expectedWithCause := "[1001] Startup: invalid config file (cause: file not found)"
	if errWithCause.Error() != expectedWithCause {
		t.Errorf("Expected %q, got %q", expectedWithCause, errWithCause.Error())
	}
}

func TestPerennisError_Unwrap(t *testing.T) {
	cause := errors.New("file not found")
	err := New(ErrCodeSnapshotRead, "Snapshot", "cannot open", cause)

	if errors.Unwrap(err) != cause {
		t.Errorf("Expected cause %v, got %v", cause, errors.Unwrap(err))
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through PerennisError")
	}

	errNoCause := New(ErrCodeConfigInvalid, "Startup", "invalid config file", nil)
	if errors.Unwrap(errNoCause) != nil {
		t.Errorf("Expected nil cause, got %v", errors.Unwrap(errNoCause))
	}
}

func TestCodeOf(t *testing.T) {
	err := New(ErrCodeBackupFailed, "Backup", "tar failed", nil)
	wrapped := fmt.Errorf("restart aborted: %w", err)

	if got := CodeOf(wrapped); got != ErrCodeBackupFailed {
		t.Errorf("Expected code %v, got %v", ErrCodeBackupFailed, got)
	}
	if got := CodeOf(errors.New("plain")); got != ErrCodeUnknown {
		t.Errorf("Expected unknown code for plain error, got %v", got)
	}
}

// Package logging includes tests for the zap logger helpers.
package logging

import "testing"

// TestNewConsoleLogger confirms the default console logger builds and logs.
func TestNewConsoleLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true, false)
	if err != nil {
		t.Fatalf("New(true, false) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("console logger ready")
}

// TestNewJSONLogger ensures the JSON logger configuration succeeds.
func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false, true)
	if err != nil {
		t.Fatalf("New(false, true) error = %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger to be non-nil")
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("json logger ready")
}

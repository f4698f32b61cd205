package observability

import (
	"testing"

	"go.uber.org/zap"
)

// TestParseLogLevel verifies mapping of LOG_LEVEL values including defaults
// for empty and unrecognized input.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want zap.AtomicLevel
	}{
		{name: "debug", in: "DEBUG", want: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{name: "lowercase debug", in: "debug", want: zap.NewAtomicLevelAt(zap.DebugLevel)},
		{name: "warn", in: "WARN", want: zap.NewAtomicLevelAt(zap.WarnLevel)},
		{name: "error", in: "ERROR", want: zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{name: "padded", in: "  error  ", want: zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{name: "empty defaults to info", in: "", want: zap.NewAtomicLevelAt(zap.InfoLevel)},
		{name: "garbage defaults to info", in: "verbose", want: zap.NewAtomicLevelAt(zap.InfoLevel)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseLogLevel(tc.in)
			if got.Level() != tc.want.Level() {
				t.Fatalf("parseLogLevel(%q) = %v, want %v", tc.in, got.Level(), tc.want.Level())
			}
		})
	}
}

// TestNewLogger verifies the logger builds with default settings.
func TestNewLogger(t *testing.T) {
	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	if logger == nil {
		t.Fatal("NewLogger() returned nil logger")
	}
}

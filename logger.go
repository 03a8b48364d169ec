package core

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
)

// Logger is the logging surface used by the client. *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// DebugConfig selects which events are logged.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogRetries   bool
	RequestIDGen func() string
}

// DefaultDebugConfig returns a disabled config that logs requests and
// retries once enabled.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogRetries:   true,
		RequestIDGen: uuid.NewString,
	}
}

// NewSimpleLogger returns a text logger writing debug and above to stderr.
func NewSimpleLogger() Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func (d *DebugConfig) requests() bool {
	return d != nil && d.Enabled && d.LogRequests
}

func (d *DebugConfig) retries() bool {
	return d != nil && d.Enabled && d.LogRetries
}

func (d *DebugConfig) newRequestID() string {
	if d == nil || !d.Enabled || d.RequestIDGen == nil {
		return ""
	}
	return d.RequestIDGen()
}

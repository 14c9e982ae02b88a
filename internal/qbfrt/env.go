package qbfrt

import (
	"time"

	"github.com/google/uuid"
)

// Logger is the structured logger the service writes run progress to.
// Arguments are slog-style key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NopLogger drops everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}

// Clock supplies run timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// IDGenerator names runs and backups.
type IDGenerator interface {
	New() string
}

// RandomIDs hands out random UUIDs.
type RandomIDs struct{}

func (RandomIDs) New() string { return uuid.NewString() }

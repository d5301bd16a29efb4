package imgbatch

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/imgbatch/sched"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for imgbatch and all its sub-packages.
// By default, imgbatch produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by imgbatch:
//   - [slog.LevelDebug]: internal diagnostics (slot assignment, buffer sizes)
//   - [slog.LevelInfo]: important lifecycle events (renderer backend selected)
//   - [slog.LevelWarn]: non-fatal issues (per-slot load failures, CPU fallback)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	imgbatch.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	sched.SetLogger(l)

	// Propagate to the renderer backend if it supports logging.
	rendererMu.RLock()
	r := renderer
	rendererMu.RUnlock()
	if r != nil {
		propagateLogger(r, l)
	}
}

// Logger returns the current logger used by imgbatch.
// Sub-packages call this to share the same logger configuration without
// introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by renderers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a renderer if it implements the
// loggerSetter interface. Called from both SetLogger and RegisterRenderer
// to ensure the renderer always has the current logger.
func propagateLogger(r Renderer, l *slog.Logger) {
	if ls, ok := r.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

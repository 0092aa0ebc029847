// Package solverlog defines the structured-logging seam the driver loop
// writes progress and termination events through. It is intentionally a
// thin interface over go.uber.org/zap rather than a direct dependency, so
// a caller embedding the solver in a service with its own logger can
// satisfy Logger without adopting zap itself.
package solverlog

import "go.uber.org/zap"

// Field is a structured key-value pair attached to a log line.
type Field = zap.Field

// String, Int, Float64, and Bool mirror the zap constructors a
// caller uses to build Fields, so solver callers never need to import zap
// directly just to log through this interface.
var (
	String = zap.String
	Int    = zap.Int
	Float64 = zap.Float64
	Bool   = zap.Bool
)

// Logger is the severity-leveled structured logger the driver loop writes
// through. Debug carries per-iteration diagnostics (step size, primal
// weight, KKT pass count) and the stats of each termination check; Info
// carries the solve-start line and the line for a solve that ends at a
// termination check; Warn carries a failed step (a numerical error or a
// line search that used up MaxTrials), after which the solve returns
// NumericalError. The driver does not write at Error; it is part of the
// interface for callers.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a Logger that always includes the given fields, e.g. a
	// per-solve request ID threaded through every subsequent line.
	With(fields ...Field) Logger
}

// Nop returns a Logger that discards everything, for callers that don't
// want solve-time logging at all.
func Nop() Logger {
	return zapLogger{zap.NewNop()}
}

// NewZap adapts an existing *zap.Logger to the Logger interface.
func NewZap(l *zap.Logger) Logger {
	return zapLogger{l}
}

type zapLogger struct {
	l *zap.Logger
}

func (z zapLogger) Debug(msg string, fields ...Field) { z.l.Debug(msg, fields...) }
func (z zapLogger) Info(msg string, fields ...Field)  { z.l.Info(msg, fields...) }
func (z zapLogger) Warn(msg string, fields ...Field)  { z.l.Warn(msg, fields...) }
func (z zapLogger) Error(msg string, fields ...Field) { z.l.Error(msg, fields...) }

func (z zapLogger) With(fields ...Field) Logger {
	return zapLogger{z.l.With(fields...)}
}

// Copyright 2026 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package ozap adapts a zap logger to the grid logging.Logger interface.
package ozap

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/open-policy-agent/grid/logging"
)

// New returns a logger writing JSON entries at or above level to w.
func New(w io.Writer, level logging.Level) logging.Logger {
	atom := zap.NewAtomicLevelAt(toZapLevel(level))
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(w), atom)
	return Wrap(zap.New(core), &atom)
}

// Wrap this zap Logger and AtomicLevel as a logging.Logger.
func Wrap(log *zap.Logger, level *zap.AtomicLevel) logging.Logger {
	return &Wrapper{internal: log, level: level}
}

// Wrapper implements logging.Logger for a zap Logger.
type Wrapper struct {
	internal *zap.Logger
	level    *zap.AtomicLevel
}

// Debug logs at debug level.
func (w *Wrapper) Debug(f string, a ...any) {
	w.internal.Debug(fmt.Sprintf(f, a...))
}

// Info logs at info level.
func (w *Wrapper) Info(f string, a ...any) {
	w.internal.Info(fmt.Sprintf(f, a...))
}

// Error logs at error level.
func (w *Wrapper) Error(f string, a ...any) {
	w.internal.Error(fmt.Sprintf(f, a...))
}

// Warn logs at warn level.
func (w *Wrapper) Warn(f string, a ...any) {
	w.internal.Warn(fmt.Sprintf(f, a...))
}

// WithFields provides additional fields to include in log output.
func (w *Wrapper) WithFields(fields map[string]any) logging.Logger {
	return &Wrapper{
		internal: w.internal.With(toZapFields(fields)...),
		level:    w.level,
	}
}

func toZapFields(fields map[string]any) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		switch t := v.(type) {
		case error:
			zapFields = append(zapFields, zap.NamedError(k, t))
		case string:
			zapFields = append(zapFields, zap.String(k, t))
		case bool:
			zapFields = append(zapFields, zap.Bool(k, t))
		case int:
			zapFields = append(zapFields, zap.Int(k, t))
		case fmt.Stringer:
			zapFields = append(zapFields, zap.Stringer(k, t))
		default:
			zapFields = append(zapFields, zap.Any(k, v))
		}
	}
	return zapFields
}

// GetLevel returns the logger level.
func (w *Wrapper) GetLevel() logging.Level {
	switch w.level.Level() {
	case zap.ErrorLevel:
		return logging.Error
	case zap.WarnLevel:
		return logging.Warn
	case zap.DebugLevel:
		return logging.Debug
	default:
		return logging.Info
	}
}

// SetLevel sets the logger level.
func (w *Wrapper) SetLevel(l logging.Level) {
	switch l {
	case logging.Error, logging.Warn, logging.Info, logging.Debug:
		w.level.SetLevel(toZapLevel(l))
	}
}

func toZapLevel(l logging.Level) zapcore.Level {
	switch l {
	case logging.Error:
		return zap.ErrorLevel
	case logging.Warn:
		return zap.WarnLevel
	case logging.Debug:
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

// Copyright (C) 2019-2026, Cathedral Fabric Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xlog defines the narrow logging interface every component in
// this module accepts, shaped after the teacher repo's log.Logger
// (see log/nolog.go, log/noop.go): a handful of level methods plus
// With(...) for structured fields, and a no-op implementation so tests
// never need a real sink.
package xlog

import (
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Logger is the interface components depend on. Production code wires a
// Zap implementation; tests use NoOp().
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

// zapLogger adapts *zap.Logger to Logger.
type zapLogger struct{ l *zap.Logger }

// FromZap wraps an existing *zap.Logger.
func FromZap(l *zap.Logger) Logger {
	if l == nil {
		return NoOp()
	}
	return &zapLogger{l: l}
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

type noop struct{}

// NoOp returns a Logger that discards everything. Default for nil loggers.
func NoOp() Logger { return noop{} }

func (noop) Debug(string, ...zap.Field)  {}
func (noop) Info(string, ...zap.Field)   {}
func (noop) Warn(string, ...zap.Field)   {}
func (noop) Error(string, ...zap.Field)  {}
func (n noop) With(...zap.Field) Logger  { return n }

// OrNoOp returns l if non-nil, otherwise NoOp(). Every component
// constructor in this module calls this on its logger argument.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOp()
	}
	return l
}

// HumanBytes renders n as a human-readable byte count ("1.2 MB") via
// github.com/dustin/go-humanize, for storage/compaction summary log
// lines where the raw integer is hard to scan.
func HumanBytes(n uint64) zap.Field {
	return zap.String("size_human", humanize.Bytes(n))
}

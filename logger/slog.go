//go:build go1.21

package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/hlblock/hlorm/utils"
)

type slogLogger struct {
	structured
	Logger *slog.Logger
}

// NewSlogLogger wraps a log/slog logger
func NewSlogLogger(logger *slog.Logger, config Config) Interface {
	return &slogLogger{structured: newStructured(config), Logger: logger}
}

func (l *slogLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *slogLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.log(ctx, slog.LevelInfo, msg, slog.Any("data", data))
	}
}

func (l *slogLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.log(ctx, slog.LevelWarn, msg, slog.Any("data", data))
	}
}

func (l *slogLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.log(ctx, slog.LevelError, msg, slog.Any("data", data))
	}
}

// Trace logs the call fields in a "call" group
func (l *slogLogger) Trace(ctx context.Context, begin time.Time, fc func() (Operation, int64), err error) {
	elapsed := time.Since(begin)
	outcome := l.outcome(elapsed, err)
	if outcome == skipped {
		return
	}

	op, rows := fc()
	traced := l.traceFields(op, elapsed, rows)
	attrs := make([]slog.Attr, 0, len(traced)+1)
	for _, field := range traced {
		attrs = append(attrs, slog.Any(field.Key, field.Value))
	}

	level := slog.LevelInfo
	switch outcome {
	case failed:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	case slow:
		level = slog.LevelWarn
		attrs = append(attrs, slog.Duration("slow_threshold", l.SlowThreshold))
	}
	l.log(ctx, level, outcome.message(), slog.Attr{Key: "call", Value: slog.GroupValue(attrs...)})
}

func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.Logger.Enabled(ctx, level) {
		return
	}

	r := slog.NewRecord(time.Now(), level, msg, utils.CallerFrame().PC)
	r.Add(args...)
	_ = l.Logger.Handler().Handle(ctx, r)
}

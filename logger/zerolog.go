package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/hlblock/hlorm/utils"
)

// ZerologLogger writes traces as zerolog fields
type ZerologLogger struct {
	structured
	Logger zerolog.Logger
}

// NewZerologLogger wraps logger
func NewZerologLogger(logger zerolog.Logger, config Config) Interface {
	return &ZerologLogger{structured: newStructured(config), Logger: logger}
}

// NewZerologLoggerWithConfig zerolog logger writing to out, a console writer on stdout by default
func NewZerologLoggerWithConfig(config Config, out ...io.Writer) Interface {
	var writer io.Writer = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stdout
		w.TimeFormat = time.RFC3339
	})
	if len(out) > 0 {
		writer = out[0]
	}

	logger := zerolog.New(writer).Level(ZerologLevel(config.LogLevel)).With().Timestamp().Logger()
	return NewZerologLogger(logger, config)
}

func (l *ZerologLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *ZerologLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.send(ctx, l.Logger.Info().Interface("data", data), msg)
	}
}

func (l *ZerologLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.send(ctx, l.Logger.Warn().Interface("data", data), msg)
	}
}

func (l *ZerologLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.send(ctx, l.Logger.Error().Interface("data", data), msg)
	}
}

func (l *ZerologLogger) send(ctx context.Context, event *zerolog.Event, msg string) {
	event = event.Str("file", utils.FileWithLineNum())
	if ctx != nil {
		event = event.Ctx(ctx)
	}
	event.Msg(msg)
}

// Trace logs the call at info, a slow call at warn and a failed call at error
func (l *ZerologLogger) Trace(ctx context.Context, begin time.Time, fc func() (Operation, int64), err error) {
	elapsed := time.Since(begin)
	outcome := l.outcome(elapsed, err)

	var event *zerolog.Event
	switch outcome {
	case skipped:
		return
	case failed:
		event = l.Logger.Error().Err(err)
	case slow:
		event = l.Logger.Warn().Dur("slow_threshold", l.SlowThreshold)
	default:
		event = l.Logger.Info()
	}

	op, rows := fc()
	traced := l.traceFields(op, elapsed, rows)
	keyValues := make([]interface{}, 0, 2*len(traced))
	for _, field := range traced {
		keyValues = append(keyValues, field.Key, field.Value)
	}
	l.send(ctx, event.Fields(keyValues), outcome.message())
}

// ZerologLevel zerolog level of a LogLevel
func ZerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case Silent:
		return zerolog.Disabled
	case Error:
		return zerolog.ErrorLevel
	case Warn:
		return zerolog.WarnLevel
	default:
		return zerolog.InfoLevel
	}
}

package logger

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hlblock/hlorm/utils"
)

// ZapLogger writes traces as zap fields: operation, table, select, filter, order, limit, id and values
type ZapLogger struct {
	structured
	Logger *zap.Logger
}

// NewZapLogger wraps logger
func NewZapLogger(logger *zap.Logger, config Config) Interface {
	return &ZapLogger{structured: newStructured(config), Logger: logger}
}

// NewZapLoggerWithConfig builds a zap logger from zapConfig, the production config at the level of config otherwise
func NewZapLoggerWithConfig(config Config, zapConfig ...zap.Config) (Interface, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(ZapLevel(config.LogLevel))
	if len(zapConfig) > 0 {
		zapCfg = zapConfig[0]
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger, config), nil
}

func (l *ZapLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *ZapLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.Logger.Info(msg, l.caller(data)...)
	}
}

func (l *ZapLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.Logger.Warn(msg, l.caller(data)...)
	}
}

func (l *ZapLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.Logger.Error(msg, l.caller(data)...)
	}
}

func (l *ZapLogger) caller(data []interface{}) []zap.Field {
	return []zap.Field{zap.String("file", utils.FileWithLineNum()), zap.Any("data", data)}
}

// Trace logs the call at info, a slow call at warn and a failed call at error
func (l *ZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (Operation, int64), err error) {
	elapsed := time.Since(begin)
	outcome := l.outcome(elapsed, err)
	if outcome == skipped {
		return
	}

	op, rows := fc()
	traced := l.traceFields(op, elapsed, rows)
	fields := make([]zap.Field, 0, len(traced)+2)
	for _, field := range traced {
		fields = append(fields, zap.Any(field.Key, field.Value))
	}
	fields = append(fields, zap.String("file", utils.FileWithLineNum()))

	switch outcome {
	case failed:
		l.Logger.Error(outcome.message(), append(fields, zap.Error(err))...)
	case slow:
		l.Logger.Warn(outcome.message(), append(fields, zap.Duration("slow_threshold", l.SlowThreshold))...)
	default:
		l.Logger.Info(outcome.message(), fields...)
	}
}

// ZapLevel zap level of a LogLevel
func ZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case Silent:
		return zapcore.DPanicLevel
	case Error:
		return zapcore.ErrorLevel
	case Warn:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

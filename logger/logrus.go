package logger

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hlblock/hlorm/utils"
)

// LogrusLogger writes traces as logrus fields
type LogrusLogger struct {
	structured
	Logger *logrus.Logger
}

// NewLogrusLogger wraps logger
func NewLogrusLogger(logger *logrus.Logger, config Config) Interface {
	return &LogrusLogger{structured: newStructured(config), Logger: logger}
}

func (l *LogrusLogger) LogMode(level LogLevel) Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *LogrusLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Info {
		l.entry(ctx, logrus.Fields{"data": data}).Info(msg)
	}
}

func (l *LogrusLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Warn {
		l.entry(ctx, logrus.Fields{"data": data}).Warn(msg)
	}
}

func (l *LogrusLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= Error {
		l.entry(ctx, logrus.Fields{"data": data}).Error(msg)
	}
}

func (l *LogrusLogger) entry(ctx context.Context, fields logrus.Fields) *logrus.Entry {
	fields["file"] = utils.FileWithLineNum()
	entry := l.Logger.WithFields(fields)
	if ctx != nil {
		entry = entry.WithContext(ctx)
	}
	return entry
}

// Trace logs the call at info, a slow call at warn and a failed call at error
func (l *LogrusLogger) Trace(ctx context.Context, begin time.Time, fc func() (Operation, int64), err error) {
	elapsed := time.Since(begin)
	outcome := l.outcome(elapsed, err)
	if outcome == skipped {
		return
	}

	op, rows := fc()
	fields := logrus.Fields{}
	for _, field := range l.traceFields(op, elapsed, rows) {
		fields[field.Key] = field.Value
	}

	entry := l.entry(ctx, fields)
	switch outcome {
	case failed:
		entry.WithError(err).Error(outcome.message())
	case slow:
		entry.WithField("slow_threshold", l.SlowThreshold.String()).Warn(outcome.message())
	default:
		entry.Info(outcome.message())
	}
}

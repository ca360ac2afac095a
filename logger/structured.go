package logger

import (
	"errors"
	"time"
)

// Trace messages of the structured adapters
const (
	CallMessage   = "data manager call"
	SlowMessage   = "slow data manager call"
	FailedMessage = "data manager call failed"
)

type outcome int

const (
	skipped outcome = iota
	called
	slow
	failed
)

// structured settings shared by the zap, logrus, zerolog and slog adapters
type structured struct {
	LogLevel                  LogLevel
	SlowThreshold             time.Duration
	HideValues                bool
	IgnoreRecordNotFoundError bool
}

func newStructured(config Config) structured {
	return structured{
		LogLevel:                  config.LogLevel,
		SlowThreshold:             config.SlowThreshold,
		HideValues:                config.HideValues,
		IgnoreRecordNotFoundError: config.IgnoreRecordNotFoundError,
	}
}

// outcome how a call that took elapsed and ended with err is reported
func (s structured) outcome(elapsed time.Duration, err error) outcome {
	switch {
	case s.LogLevel <= Silent:
		return skipped
	case err != nil && s.LogLevel >= Error && (!s.IgnoreRecordNotFoundError || !errors.Is(err, ErrRecordNotFound)):
		return failed
	case s.SlowThreshold != 0 && elapsed > s.SlowThreshold && s.LogLevel >= Warn:
		return slow
	case s.LogLevel >= Info:
		return called
	}
	return skipped
}

func (o outcome) message() string {
	switch o {
	case failed:
		return FailedMessage
	case slow:
		return SlowMessage
	}
	return CallMessage
}

// traceFields fields of the operation followed by elapsed_ms and rows, rows is skipped when unknown
func (s structured) traceFields(op Operation, elapsed time.Duration, rows int64) []Field {
	fields := op.Fields(s.HideValues)
	fields = append(fields, Field{Key: "elapsed_ms", Value: float64(elapsed.Nanoseconds()) / 1e6})
	if rows != -1 {
		fields = append(fields, Field{Key: "rows", Value: rows})
	}
	return fields
}

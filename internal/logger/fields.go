package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldRunID is the structured log field key for the run identifier.
	FieldRunID = "run_id"
	// FieldInput is the structured log field key for the input path.
	FieldInput = "input"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches fields to logger, falling back to a no-op logger when
// logger is nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// RunFields returns the fields every log entry of a scoring run carries.
func RunFields(runID, input string) []zap.Field {
	return StringFields(
		StringField{Key: FieldRunID, Value: runID},
		StringField{Key: FieldInput, Value: input},
	)
}

// WithRun attaches the run fields to logger.
func WithRun(logger *zap.Logger, runID, input string) *zap.Logger {
	return WithFields(logger, RunFields(runID, input)...)
}

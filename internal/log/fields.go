package log

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a strongly typed log field.
type Field = zapcore.Field

// String constructs a string field.
func String(key, val string) Field {
	return zap.String(key, val)
}

// Strings constructs a field carrying a slice of strings.
func Strings(key string, vals []string) Field {
	return zap.Strings(key, vals)
}

// Int constructs an int field.
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Int64 constructs an int64 field.
func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

// Float64 constructs a float64 field.
func Float64(key string, val float64) Field {
	return zap.Float64(key, val)
}

// Bool constructs a bool field.
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Duration constructs a duration field.
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Time constructs a time field.
func Time(key string, val time.Time) Field {
	return zap.Time(key, val)
}

// Any constructs a field with an arbitrary value.
func Any(key string, val any) Field {
	return zap.Any(key, val)
}

// Cause constructs a field carrying the error that caused the event.
func Cause(err error) Field {
	return zap.NamedError("cause", err)
}

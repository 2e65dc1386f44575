package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog behind a small structured-field API.
type Logger struct {
	zl  zerolog.Logger
	buf *Buffer
}

type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("could not open log file: %w", err)
		}
		output = file
	}

	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: cfg.TimeFormat}
	}

	zl := zerolog.New(output).With().Timestamp().Logger()
	return &Logger{zl: zl}, nil
}

// WithBuffer attaches a bounded in-memory buffer that mirrors warn/error
// entries so the API layer can expose recent run diagnostics.
func (l *Logger) WithBuffer(buf *Buffer) *Logger {
	l.buf = buf
	return l
}

// Buffered returns the attached buffer, if any.
func (l *Logger) Buffered() *Buffer { return l.buf }

func (l *Logger) log(ev *zerolog.Event, level, msg string, fields []Field) {
	for _, f := range fields {
		f.AddTo(ev)
	}
	ev.Msg(msg)

	if l.buf != nil && (level == "warn" || level == "error") {
		m := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			k, v := f.KeyValue()
			m[k] = v
		}
		l.buf.Add(level, msg, m)
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(l.zl.Debug(), "debug", msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(l.zl.Info(), "info", msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(l.zl.Warn(), "warn", msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(l.zl.Error(), "error", msg, fields) }

// Field is a typed structured-logging field.
type Field interface {
	AddTo(event *zerolog.Event)
	KeyValue() (string, interface{})
}

type stringField struct {
	key, value string
}

func (f stringField) AddTo(e *zerolog.Event)          { e.Str(f.key, f.value) }
func (f stringField) KeyValue() (string, interface{}) { return f.key, f.value }

type intField struct {
	key   string
	value int
}

func (f intField) AddTo(e *zerolog.Event)          { e.Int(f.key, f.value) }
func (f intField) KeyValue() (string, interface{}) { return f.key, f.value }

type floatField struct {
	key   string
	value float64
}

func (f floatField) AddTo(e *zerolog.Event)          { e.Float64(f.key, f.value) }
func (f floatField) KeyValue() (string, interface{}) { return f.key, f.value }

type boolField struct {
	key   string
	value bool
}

func (f boolField) AddTo(e *zerolog.Event)          { e.Bool(f.key, f.value) }
func (f boolField) KeyValue() (string, interface{}) { return f.key, f.value }

type errorField struct {
	value error
}

func (f errorField) AddTo(e *zerolog.Event) { e.Err(f.value) }
func (f errorField) KeyValue() (string, interface{}) {
	if f.value == nil {
		return "error", nil
	}
	return "error", f.value.Error()
}

type anyField struct {
	key   string
	value interface{}
}

func (f anyField) AddTo(e *zerolog.Event)          { e.Interface(f.key, f.value) }
func (f anyField) KeyValue() (string, interface{}) { return f.key, f.value }

// Field constructors.

func String(key, value string) Field  { return stringField{key, value} }
func Int(key string, value int) Field { return intField{key, value} }
func Float64(key string, value float64) Field {
	return floatField{key, value}
}
func Bool(key string, value bool) Field { return boolField{key, value} }
func Error(err error) Field             { return errorField{err} }
func Any(key string, value interface{}) Field {
	return anyField{key, value}
}
func Strings(key string, value []string) Field {
	return stringField{key, strings.Join(value, ", ")}
}
func Duration(key string, value time.Duration) Field {
	return intField{key, int(value / time.Millisecond)}
}

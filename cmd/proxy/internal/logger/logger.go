package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger Logger
	initialized   bool
	once          sync.Once
)

// Logger is a zerolog logger that takes key/value pairs instead of typed
// field builders.
type Logger struct {
	zl zerolog.Logger
}

// New returns a Logger writing JSON lines to w.
func New(w io.Writer, level zerolog.Level) Logger {
	return Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Init initializes the global logger based on environment variables.
// DEBUG=true enables debug level logging, LOG_FORMAT=console switches to
// human-readable output.
func Init() {
	once.Do(func() {
		level := zerolog.InfoLevel
		if os.Getenv("DEBUG") == "true" {
			level = zerolog.DebugLevel
		}
		zerolog.TimeFieldFormat = time.RFC3339Nano

		var w io.Writer = os.Stdout
		if os.Getenv("LOG_FORMAT") == "console" {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05.000"}
		}

		ctx := zerolog.New(w).Level(level).With().Timestamp()
		if level == zerolog.DebugLevel {
			ctx = ctx.Caller()
		}
		defaultLogger = Logger{zl: ctx.Logger()}
		initialized = true
	})
}

// SetDefault replaces the global logger. Tests use it to capture output.
func SetDefault(l Logger) {
	once.Do(func() {})
	defaultLogger = l
	initialized = true
}

func global() Logger {
	if !initialized {
		Init()
	}
	return defaultLogger
}

// Debug logs at Debug level.
func Debug(msg string, args ...any) { global().Debug(msg, args...) }

// Info logs at Info level.
func Info(msg string, args ...any) { global().Info(msg, args...) }

// Warn logs at Warn level.
func Warn(msg string, args ...any) { global().Warn(msg, args...) }

// Error logs at Error level.
func Error(msg string, args ...any) { global().Error(msg, args...) }

// Fatal logs at Error level and then exits.
func Fatal(msg string, args ...any) {
	global().Error(msg, args...)
	os.Exit(1)
}

// With returns a new logger with the given attributes.
func With(args ...any) Logger { return global().With(args...) }

// With returns a child logger carrying the given attributes.
func (l Logger) With(args ...any) Logger {
	return Logger{zl: l.zl.With().Fields(normalize(args)).Logger()}
}

func (l Logger) Debug(msg string, args ...any) { l.log(l.zl.Debug(), msg, args) }
func (l Logger) Info(msg string, args ...any)  { l.log(l.zl.Info(), msg, args) }
func (l Logger) Warn(msg string, args ...any)  { l.log(l.zl.Warn(), msg, args) }
func (l Logger) Error(msg string, args ...any) { l.log(l.zl.Error(), msg, args) }

func (l Logger) log(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	e.Fields(normalize(args)).Msg(msg)
}

// normalize turns errors into strings under their key so zerolog does not
// drop them, and pads a dangling key.
func normalize(args []any) []any {
	if len(args)%2 == 1 {
		args = append(args, "!MISSING")
	}
	out := make([]any, len(args))
	for i, a := range args {
		if err, ok := a.(error); ok && i%2 == 1 {
			out[i] = err.Error()
			continue
		}
		out[i] = a
	}
	return out
}

// Package log wires a process-wide zerolog.Logger and adapts it to the
// ecs.Logger interface consumed by the scheduler and its observers.
package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/extensivelabs/ecs"
)

// Logger is the global logger instance, configured by Init.
var Logger zerolog.Logger

// Level names a configured log level.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration, typically populated from config.Config.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init (re)configures the global Logger.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}
}

func init() {
	Init(Config{Level: InfoLevel})
}

// Adapter satisfies ecs.Logger by delegating to a zerolog.Logger.
type Adapter struct {
	zl zerolog.Logger
}

// NewAdapter wraps zl as an ecs.Logger. zl is used as given; the global
// Logger is not substituted for a zero value.
func NewAdapter(zl zerolog.Logger) Adapter {
	return Adapter{zl: zl}
}

// With returns a child logger carrying an additional structured field.
func (a Adapter) With(key string, value any) ecs.Logger {
	return Adapter{zl: a.zl.With().Interface(key, value).Logger()}
}

func (a Adapter) Info(msg string, args ...any) {
	event(a.zl.Info(), args).Msg(msg)
}

func (a Adapter) Error(msg string, args ...any) {
	event(a.zl.Error(), args).Msg(msg)
}

var _ ecs.Logger = Adapter{}

func event(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}

// Package logger owns the process-wide zerolog logger. Repositories and
// middleware log through the package helpers; services and controllers get a
// zerolog.Logger injected from bootstrap.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var base zerolog.Logger

type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	InfoLevel  LogLevel = "info"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// Config selects level and output. Output defaults to stdout.
type Config struct {
	Level  LogLevel
	Pretty bool
	Output io.Writer
}

// FromSettings maps logging.level / logging.format to a Config. Any format
// other than text, console or pretty means JSON lines.
func FromSettings(level, format string) Config {
	switch strings.ToLower(format) {
	case "text", "console", "pretty":
		return Config{Level: LogLevel(strings.ToLower(level)), Pretty: true}
	}
	return Config{Level: LogLevel(strings.ToLower(level))}
}

func (l LogLevel) parse() zerolog.Level {
	lvl, err := zerolog.ParseLevel(string(l))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Configure replaces the global logger and returns it.
func Configure(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(cfg.Level.parse())

	base = zerolog.New(out).With().Timestamp().Logger()
	log.Logger = base
	return base
}

func Get() zerolog.Logger { return base }

// Component tags the global logger with a component field.
func Component(name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func Debug() *zerolog.Event { return base.Debug() }
func Info() *zerolog.Event  { return base.Info() }
func Warn() *zerolog.Event  { return base.Warn() }
func Error() *zerolog.Event { return base.Error() }

func init() {
	Configure(Config{Level: InfoLevel, Pretty: true})
}

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	stdLog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by ConfigureGlobalLogging.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var logWriter io.Writer = os.Stderr

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// stdLogWriter forwards stdlib log output (net/http server errors, for
// instance) into zerolog at debug level.
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (int, error) {
	w.logger.Debug().Str("source", "stdlog").Msg(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// ConfigureGlobalLogging sets the global level and output format. An
// unknown level falls back to info; an unknown format falls back to
// console.
func ConfigureGlobalLogging(levelStr, format string) {
	level := parseLogLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	ctx := zerolog.New(writerFor(format)).With().Timestamp()
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	log.Logger = ctx.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: log.Logger})
}

// NewLogger returns a component logger derived from the global logger, so
// it follows the configured format.
func NewLogger(component string, level zerolog.Level) zerolog.Logger {
	return log.Logger.Level(level).With().Str("component", component).Logger()
}

// NewLoggerWithWriter returns a JSON component logger writing to w.
func NewLoggerWithWriter(component string, level zerolog.Level, w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Str("component", component).Logger()
}

// SetLogWriter replaces the destination used by subsequent configuration.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

func writerFor(format string) io.Writer {
	if strings.EqualFold(format, FormatJSON) {
		return logWriter
	}
	return zerolog.ConsoleWriter{
		Out:        logWriter,
		TimeFormat: time.RFC3339,
		NoColor:    logWriter != os.Stderr,
	}
}

func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		return zerolog.InfoLevel
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to info level.")
		return zerolog.InfoLevel
	}
	return level
}

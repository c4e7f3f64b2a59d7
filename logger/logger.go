// Package logger provides package-level leveled logging for the daemon.
// It wraps zerolog so call sites stay printf-shaped; output goes to stderr
// and optionally to a size-rotated file.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// Setup configures the global logger. An empty file path logs to stderr
// only; otherwise output is duplicated to a rotated log file.
func Setup(level, file string) {
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if file != "" {
		rotated := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     14, // days
		}
		w = zerolog.MultiLevelWriter(zerolog.ConsoleWriter{Out: os.Stderr}, rotated)
	}
	log = zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel parses a level name, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func Debug(format string, v ...any) { log.Debug().Msgf(format, v...) }
func Info(format string, v ...any)  { log.Info().Msgf(format, v...) }
func Warn(format string, v ...any)  { log.Warn().Msgf(format, v...) }
func Error(format string, v ...any) { log.Error().Msgf(format, v...) }

// Fatal logs at error level and exits with code 1.
func Fatal(format string, v ...any) {
	log.Error().Msgf(format, v...)
	os.Exit(1)
}

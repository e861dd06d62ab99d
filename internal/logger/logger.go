// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger provides the process-wide structured logger. The TUI owns
// the terminal, so log output goes to a file under the hearth directory
// rather than stderr; until Setup runs, everything is discarded.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Log is the global logger instance.
var Log *Logger

// Logger wraps a zerolog.Logger with variadic key-value helpers.
type Logger struct {
	z zerolog.Logger
}

var logFile *os.File

func init() {
	z := zerolog.New(io.Discard)
	Log = &Logger{z: z}
}

// Setup points the global logger at the given file. Level is one of debug,
// info, warn, error (case-insensitive); format is "json" or "console"
// (colorless console formatting, since the sink is a file). Passing an empty
// path keeps logging disabled.
func Setup(path, level, format string) error {
	var logLevel zerolog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		logLevel = zerolog.DebugLevel
	case "WARN":
		logLevel = zerolog.WarnLevel
	case "ERROR":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if path == "" {
		Log = &Logger{z: zerolog.New(io.Discard)}
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	if logFile != nil {
		logFile.Close()
	}
	logFile = f

	var z zerolog.Logger
	if strings.ToLower(format) == "json" {
		z = zerolog.New(f).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: f, TimeFormat: time.RFC3339, NoColor: true}
		z = zerolog.New(output).With().Timestamp().Logger()
	}

	Log = &Logger{z: z}
	return nil
}

// Close flushes and closes the log file, if one is open.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// With returns a child logger tagged with a component name.
func (l *Logger) With(component string) *Logger {
	return &Logger{z: l.z.With().Str("component", component).Logger()}
}

// Info logs at Info level with variadic key-value pairs.
func (l *Logger) Info(msg string, args ...interface{}) {
	e := l.z.Info()
	addFields(e, args...)
	e.Msg(msg)
}

// Debug logs at Debug level with variadic key-value pairs.
func (l *Logger) Debug(msg string, args ...interface{}) {
	e := l.z.Debug()
	addFields(e, args...)
	e.Msg(msg)
}

// Warn logs at Warn level with variadic key-value pairs.
func (l *Logger) Warn(msg string, args ...interface{}) {
	e := l.z.Warn()
	addFields(e, args...)
	e.Msg(msg)
}

// Error logs at Error level with variadic key-value pairs.
func (l *Logger) Error(msg string, args ...interface{}) {
	e := l.z.Error()
	addFields(e, args...)
	e.Msg(msg)
}

// addFields attaches variadic key-value pairs to the event.
func addFields(e *zerolog.Event, args ...interface{}) {
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", args[i])
			}
			e.Interface(key, args[i+1])
		}
	}
}

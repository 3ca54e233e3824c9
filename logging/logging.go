/******************************************************************************
 * Copyright (c) 2025-2026 Tenebris Technologies Inc.                         *
 * Please see the LICENSE file for details                                    *
 ******************************************************************************/

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PivotLLM/DevTools/global"
)

// rank orders the levels. Unknown names rank as INFO.
func rank(level string) int {
	switch level {
	case global.LogLevelDebug:
		return 0
	case global.LogLevelWarn:
		return 2
	case global.LogLevelError:
		return 3
	case global.LogLevelFatal:
		return 4
	default:
		return 1
	}
}

func known(level string) bool {
	switch level {
	case global.LogLevelDebug, global.LogLevelInfo, global.LogLevelWarn, global.LogLevelError, global.LogLevelFatal:
		return true
	}
	return false
}

// sink is the output shared by a logger and every logger derived with Named
type sink struct {
	mu    sync.Mutex
	out   *log.Logger
	file  *os.File
	level string
}

// Logger provides leveled logging to a file. Stdout is never used because
// it carries the stdio transport.
type Logger struct {
	sink      *sink
	component string
}

// New creates a logger appending to logPath, creating its directory if needed
func New(logPath string) (*Logger, error) {
	logPath = global.ExpandHome(logPath)

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", logPath, err)
	}

	return &Logger{sink: &sink{out: log.New(f, "", 0), file: f, level: global.LogLevelInfo}}, nil
}

// NewWriter creates a logger that writes to w instead of a file
func NewWriter(w io.Writer) *Logger {
	return &Logger{sink: &sink{out: log.New(w, "", 0), level: global.LogLevelInfo}}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWriter(io.Discard)
}

// Named returns a logger tagging each line with component. It shares the
// output and level of l.
func (l *Logger) Named(component string) *Logger {
	if l.component != "" {
		component = l.component + "." + component
	}
	return &Logger{sink: l.sink, component: component}
}

// Sync flushes any buffered log data to disk
func (l *Logger) Sync() error {
	if l.sink.file == nil {
		return nil
	}
	return l.sink.file.Sync()
}

// Close closes the log file. Loggers derived with Named become unusable.
func (l *Logger) Close() error {
	if l.sink.file == nil {
		return nil
	}
	_ = l.sink.file.Sync()
	return l.sink.file.Close()
}

// SetLevel sets the minimum log level. Unknown levels are treated as INFO.
func (l *Logger) SetLevel(level string) {
	level = strings.ToUpper(strings.TrimSpace(level))
	if !known(level) {
		level = global.LogLevelInfo
	}
	l.sink.mu.Lock()
	l.sink.level = level
	l.sink.mu.Unlock()
}

// Level returns the current minimum level
func (l *Logger) Level() string {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.level
}

func (l *Logger) log(level, message string) {
	if rank(level) < rank(l.Level()) {
		return
	}
	line := fmt.Sprintf("%s [%s] [%d] ", time.Now().Format("2006-01-02 15:04:05"), level, os.Getpid())
	if l.component != "" {
		line += "(" + l.component + ") "
	}
	l.sink.out.Println(line + message)
}

// Debug logs a debug message
func (l *Logger) Debug(message string) {
	l.log(global.LogLevelDebug, message)
}

// Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(global.LogLevelDebug, fmt.Sprintf(format, args...))
}

// Info logs an info message
func (l *Logger) Info(message string) {
	l.log(global.LogLevelInfo, message)
}

// Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(global.LogLevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs a warning message
func (l *Logger) Warn(message string) {
	l.log(global.LogLevelWarn, message)
}

// Warnf logs a formatted warning message
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(global.LogLevelWarn, fmt.Sprintf(format, args...))
}

// Error logs an error message
func (l *Logger) Error(message string) {
	l.log(global.LogLevelError, message)
}

// Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(global.LogLevelError, fmt.Sprintf(format, args...))
}

// Fatal logs a fatal message, closes the log and exits
func (l *Logger) Fatal(message string) {
	l.log(global.LogLevelFatal, message)
	_ = l.Close()
	os.Exit(1)
}

// Fatalf logs a formatted fatal message and exits
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.Fatal(fmt.Sprintf(format, args...))
}

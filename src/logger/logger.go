package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured).
type Logger interface {
	Info(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
	// With returns a logger that tags every line with key=value.
	With(key string, value interface{}) Logger
}

// ConsoleLogger writes human-readable logs to stdout/stderr.
// It is safe for concurrent use; loggers derived with With share one lock.
type ConsoleLogger struct {
	mu      *sync.Mutex
	out     io.Writer
	errOut  io.Writer
	verbose bool
	fields  map[string]interface{}
}

// NewConsoleLogger creates a console logger. Debug lines are only printed when verbose is set.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(os.Stdout, os.Stderr, verbose)
}

// NewConsoleLoggerTo creates a console logger writing Info and Debug to out
// and Error to errOut.
func NewConsoleLoggerTo(out, errOut io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{mu: &sync.Mutex{}, out: out, errOut: errOut, verbose: verbose}
}

func (c *ConsoleLogger) Info(msg string, args ...interface{}) {
	c.write(c.out, "[INFO] ", msg, args)
}

func (c *ConsoleLogger) Error(msg string, args ...interface{}) {
	c.write(c.errOut, "[ERROR] ", msg, args)
}

func (c *ConsoleLogger) Debug(msg string, args ...interface{}) {
	if !c.verbose {
		return
	}
	c.write(c.out, "[DEBUG] ", msg, args)
}

// write formats the line first so each line reaches w in a single Write.
func (c *ConsoleLogger) write(w io.Writer, level, msg string, args []interface{}) {
	line := fmt.Sprintf(level+c.prefix()+msg+"\n", args...)
	c.mu.Lock()
	defer c.mu.Unlock()
	io.WriteString(w, line) // nolint: errcheck
}

func (c *ConsoleLogger) With(key string, value interface{}) Logger {
	fields := make(map[string]interface{}, len(c.fields)+1)
	for k, v := range c.fields {
		fields[k] = v
	}
	fields[key] = value
	return &ConsoleLogger{mu: c.mu, out: c.out, errOut: c.errOut, verbose: c.verbose, fields: fields}
}

// prefix renders fields sorted by key so lines are stable.
// The result is escaped for use inside a format string.
func (c *ConsoleLogger) prefix() string {
	if len(c.fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v ", k, c.fields[k])
	}
	return strings.ReplaceAll(b.String(), "%", "%%")
}

// SilentLogger discards all log messages.
// Used by the MCP server, where stdout carries the protocol.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Info(msg string, args ...interface{})      {}
func (s *SilentLogger) Error(msg string, args ...interface{})     {}
func (s *SilentLogger) Debug(msg string, args ...interface{})     {}
func (s *SilentLogger) With(key string, value interface{}) Logger { return s }

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// SyncWriter serializes writes to w. Loggers and other output sharing one
// stream, such as a report on stdout, should all write through it.
func SyncWriter(w io.Writer) io.Writer {
	return &syncWriter{w: w}
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

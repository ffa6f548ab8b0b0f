// Package logging provides the small internal logger used to report
// conditions that spec.md classifies as "logged, record skipped" (decode
// errors from a native backend) rather than surfaced as Events.
//
// It mirrors the shape of mutagen-io/mutagen's pkg/logging: a *Logger that
// is safe to use when nil (logging becomes a no-op) and colorizes
// warning/error lines with fatih/color.
package logging

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
)

// Logger writes diagnostic lines for a single Watcher instance. The zero
// value is not usable; use New. A nil *Logger is valid and
// discards everything, so components may hold a possibly-nil logger without
// a separate "no logging configured" branch.
type Logger struct {
	prefix string
	std    *log.Logger
}

// New creates a Logger that writes to os.Stderr, identified by prefix
// (typically the watched root) in its output.
func New(prefix string) *Logger {
	return &Logger{
		prefix: prefix,
		std:    log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Sublogger returns a new Logger scoped under name, following the dotted
// prefix convention of the teacher package's Sublogger.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, std: l.std}
}

func (l *Logger) output(line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	l.std.Output(3, line)
}

// Debugf logs a line with semantics equivalent to fmt.Sprintf. It is a
// no-op on a nil Logger.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil {
		return
	}
	l.output(fmt.Sprintf(format, args...))
}

// Warnf logs a yellow-highlighted warning line. It is a no-op on a nil
// Logger.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.output(color.YellowString("warning: "+format, args...))
}

// Errorf logs a red-highlighted error line. It is a no-op on a nil Logger.
func (l *Logger) Errorf(format string, args ...any) {
	if l == nil {
		return
	}
	l.output(color.RedString("error: "+format, args...))
}

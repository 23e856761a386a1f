// Package logging gives every component the same leveled, prefixed stderr
// writer the teacher's own packages use inline (fmt.Fprintf(os.Stderr, "daemon: ...")),
// without introducing a logging library the teacher itself never reaches for.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log severity low to high.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Logger writes "<ts> <level> <component>: <message>" lines to an output
// stream, dropping anything below its configured minimum level.
type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	component string
	min       Level
}

// New creates a Logger for the given component name, writing to stderr.
func New(component string) *Logger {
	return &Logger{out: os.Stderr, component: component, min: LevelInfo}
}

// SetMinLevel changes the minimum level that is written.
func (l *Logger) SetMinLevel(min Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.min = min
}

// SetOutput redirects the log stream (used by tests).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
}

// With returns a Logger for a sub-component, e.g. log.With("loader").
func (l *Logger) With(subComponent string) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &Logger{out: l.out, component: l.component + "." + subComponent, min: l.min}
}

func (l *Logger) log(level Level, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %s %s: %s\n", time.Now().UTC().Format(time.RFC3339), level, l.component, msg)
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) { l.log(LevelInfo, format, args...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) { l.log(LevelWarn, format, args...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// Package logging defines the logger capability passed into components that
// need to report recoverable problems without owning an output destination.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Logger is the minimal leveled logging surface. Components receive a Logger
// rather than reaching for a package-level singleton.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Level filters output; messages below the configured level are dropped.
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
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// writerLogger writes timestamped, level-prefixed lines to a single writer.
type writerLogger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
}

// New returns a Logger writing to w at the given minimum level.
func New(w io.Writer, level Level) Logger {
	return &writerLogger{w: w, level: level}
}

// Default returns a stderr logger at Info level.
func Default() Logger {
	return New(os.Stderr, LevelInfo)
}

func (l *writerLogger) log(level Level, format string, args ...any) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s [%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"), level, fmt.Sprintf(format, args...))
}

func (l *writerLogger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *writerLogger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *writerLogger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *writerLogger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

// nop discards everything. Useful in tests and as a safe default for
// components constructed without a logger.
type nop struct{}

func (nop) Debugf(string, ...any) {}
func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger { return nop{} }

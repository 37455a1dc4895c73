// Package report provides console reporting for the de-identification
// pipeline. The pipeline core never prints directly; it talks to a Reporter
// so that presentation stays out of the processing code and tests can run
// silently.
package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level controls which messages a Reporter emits.
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// ParseLevel converts a log-level flag value ("INFO", "WARNING", "ERROR")
// into a Level. Unknown values default to LevelError.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "INFO", "DEBUG":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarning
	default:
		return LevelError
	}
}

// Reporter receives human-facing pipeline events.
type Reporter interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Success(format string, args ...any)
	// Level returns the active threshold, so callers can gate expensive
	// output such as progress bars.
	Level() Level
}

// ANSI color codes matching the tags the tool has always printed.
const (
	colorCyan   = "\033[1;36;48m"
	colorGreen  = "\033[1;32;48m"
	colorYellow = "\033[1;33;48m"
	colorRed    = "\033[1;31;48m"
	colorEnd    = "\033[1;37;0m"
)

// Console is a Reporter that writes colored tags to a writer.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
	color bool
}

// NewConsole returns a Console reporter writing to w. Messages below level
// are dropped.
func NewConsole(w io.Writer, level Level) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{out: w, level: level, color: true}
}

// NoColor disables ANSI color output, for tests and dumb terminals.
func (c *Console) NoColor() *Console {
	c.color = false
	return c
}

func (c *Console) Level() Level { return c.level }

func (c *Console) emit(tag, color, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.color {
		fmt.Fprintf(c.out, "%s[%s]%s ", color, tag, colorEnd)
	} else {
		fmt.Fprintf(c.out, "[%s] ", tag)
	}
	fmt.Fprintf(c.out, format, args...)
	fmt.Fprintln(c.out)
}

func (c *Console) Info(format string, args ...any) {
	if c.level > LevelInfo {
		return
	}
	c.emit("INFO", colorCyan, format, args...)
}

func (c *Console) Warn(format string, args ...any) {
	if c.level > LevelWarning {
		return
	}
	c.emit("WARNING", colorYellow, format, args...)
}

func (c *Console) Error(format string, args ...any) {
	c.emit("ERROR", colorRed, format, args...)
}

// Success is always emitted; it marks the end-of-run banner.
func (c *Console) Success(format string, args ...any) {
	c.emit("SUCCESS", colorGreen, format, args...)
}

// Nop is a Reporter that discards everything.
type Nop struct{}

func (Nop) Info(string, ...any)    {}
func (Nop) Warn(string, ...any)    {}
func (Nop) Error(string, ...any)   {}
func (Nop) Success(string, ...any) {}
func (Nop) Level() Level           { return LevelError }

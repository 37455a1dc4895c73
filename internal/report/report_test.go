package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"INFO", LevelInfo},
		{"info", LevelInfo},
		{"DEBUG", LevelInfo},
		{"WARNING", LevelWarning},
		{"warn", LevelWarning},
		{"ERROR", LevelError},
		{" error ", LevelError},
		{"bogus", LevelError},
		{"", LevelError},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConsoleFiltering(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, LevelWarning).NoColor()

	c.Info("dropped")
	c.Warn("kept warning")
	c.Error("kept error")
	c.Success("kept banner")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info emitted below threshold: %q", out)
	}
	for _, want := range []string{"[WARNING] kept warning", "[ERROR] kept error", "[SUCCESS] kept banner"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestConsoleColorTags(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, LevelInfo)

	c.Info("hello %s", "world")
	out := buf.String()
	if !strings.Contains(out, "[INFO]") || !strings.Contains(out, "hello world") {
		t.Errorf("output %q", out)
	}
	if !strings.Contains(out, "\033[") {
		t.Errorf("expected ANSI codes in %q", out)
	}
}

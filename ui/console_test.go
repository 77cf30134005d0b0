package ui

import (
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// TestConsoleFilter verifies each filter level hides lower levels.
func TestConsoleFilter(t *testing.T) {
	c := newConsoleModel("ALL", 100)
	c.setSize(80, 10)
	for _, l := range []log.Level{log.DebugLevel, log.InfoLevel, log.WarnLevel, log.ErrorLevel, log.FatalLevel} {
		c.append(time.Now(), l, l.String())
	}

	tests := []struct {
		filter string
		want   int
	}{
		{"DEBUG", 5},
		{"INFO", 4},
		{"WARNING", 3},
		{"ERROR", 2},
		{"CRITICAL", 1},
		{"ALL", 5},
	}
	for _, tt := range tests {
		if got := c.cycleFilter(); got != tt.filter {
			t.Fatalf("cycleFilter = %s, want %s", got, tt.filter)
		}
		if got := len(c.visible()); got != tt.want {
			t.Errorf("%s shows %d lines, want %d", tt.filter, got, tt.want)
		}
	}
}

// TestConsoleHistoryCap verifies the oldest lines are dropped.
func TestConsoleHistoryCap(t *testing.T) {
	c := newConsoleModel("bogus", 3)
	if c.filter != "ALL" {
		t.Errorf("filter = %s, want ALL", c.filter)
	}
	for i := range 5 {
		c.logf(log.InfoLevel, "line %d", i)
	}
	if len(c.lines) != 3 {
		t.Fatalf("kept %d lines, want 3", len(c.lines))
	}
	if c.lines[0].text != "line 2" {
		t.Errorf("oldest = %q, want line 2", c.lines[0].text)
	}
}

// TestLevelName verifies console level names.
func TestLevelName(t *testing.T) {
	tests := map[log.Level]string{
		log.DebugLevel: "DEBUG",
		log.InfoLevel:  "INFO",
		log.WarnLevel:  "WARNING",
		log.ErrorLevel: "ERROR",
		log.FatalLevel: "CRITICAL",
	}
	for l, want := range tests {
		if got := levelName(l); got != want {
			t.Errorf("levelName(%d) = %s, want %s", l, got, want)
		}
	}
}

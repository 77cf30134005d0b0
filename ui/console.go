package ui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
	"github.com/muesli/reflow/wordwrap"
)

// consoleLevels maps the console filter names to the lowest level shown.
var consoleLevels = map[string]log.Level{
	"ALL":      log.DebugLevel,
	"DEBUG":    log.DebugLevel,
	"INFO":     log.InfoLevel,
	"WARNING":  log.WarnLevel,
	"ERROR":    log.ErrorLevel,
	"CRITICAL": log.FatalLevel,
}

type consoleLine struct {
	at    time.Time
	level log.Level
	text  string
}

// consoleModel is the log console below the queue.
type consoleModel struct {
	viewport viewport.Model
	lines    []consoleLine
	max      int
	filter   string
}

func newConsoleModel(filter string, maxLines int) consoleModel {
	if _, ok := consoleLevels[filter]; !ok {
		filter = "ALL"
	}
	if maxLines <= 0 {
		maxLines = 500
	}
	return consoleModel{
		viewport: viewport.New(0, 0),
		max:      maxLines,
		filter:   filter,
	}
}

func (m *consoleModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h
	m.refresh()
}

// append adds a line, dropping the oldest past the history cap.
func (m *consoleModel) append(at time.Time, level log.Level, text string) {
	if at.IsZero() {
		at = time.Now()
	}
	m.lines = append(m.lines, consoleLine{at: at, level: level, text: text})
	if len(m.lines) > m.max {
		m.lines = slices.Delete(m.lines, 0, len(m.lines)-m.max)
	}
	m.refresh()
}

func (m *consoleModel) logf(level log.Level, format string, args ...any) {
	m.append(time.Now(), level, fmt.Sprintf(format, args...))
}

// cycleFilter switches to the next filter level and returns its name.
func (m *consoleModel) cycleFilter() string {
	i := slices.Index(settings.LogLevels, m.filter)
	m.filter = settings.LogLevels[(i+1)%len(settings.LogLevels)]
	m.refresh()
	return m.filter
}

// visible returns the lines passing the current filter.
func (m consoleModel) visible() []consoleLine {
	min := consoleLevels[m.filter]
	var out []consoleLine
	for _, l := range m.lines {
		if l.level >= min {
			out = append(out, l)
		}
	}
	return out
}

func (m *consoleModel) refresh() {
	follow := m.viewport.AtBottom() || m.viewport.TotalLineCount() <= m.viewport.Height
	var b strings.Builder
	for i, l := range m.visible() {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := fmt.Sprintf("%s %-8s %s", l.at.Format("15:04:05"), levelName(l.level), l.text)
		if m.viewport.Width > 0 {
			line = wordwrap.String(line, m.viewport.Width)
		}
		b.WriteString(levelStyle(l.level).Render(line))
	}
	m.viewport.SetContent(b.String())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m consoleModel) View() string {
	return m.viewport.View()
}

// levelName renders a level with the console's names.
func levelName(l log.Level) string {
	switch {
	case l >= log.FatalLevel:
		return "CRITICAL"
	case l >= log.ErrorLevel:
		return "ERROR"
	case l >= log.WarnLevel:
		return "WARNING"
	case l >= log.InfoLevel:
		return "INFO"
	default:
		return "DEBUG"
	}
}

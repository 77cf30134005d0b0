package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const statusColumnWidth = 12

// queueModel renders the work queue as a table and tracks the cursor.
type queueModel struct {
	queue  *queue.Queue
	cursor int
	offset int
	width  int
	height int
}

func newQueueModel(q *queue.Queue) queueModel {
	return queueModel{queue: q}
}

func (m *queueModel) setSize(w, h int) {
	m.width = w
	m.height = max(h, 1)
	m.clamp()
}

// clamp keeps the cursor on a job and inside the visible window.
func (m *queueModel) clamp() {
	n := m.queue.Len()
	m.cursor = max(0, min(m.cursor, n-1))
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.height > 0 && m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	m.offset = max(0, min(m.offset, n-m.height))
}

func (m *queueModel) up() {
	m.cursor--
	m.clamp()
}

func (m *queueModel) down() {
	m.cursor++
	m.clamp()
}

// selected returns the job under the cursor.
func (m queueModel) selected() (queue.Job, bool) {
	return m.queue.Get(m.cursor)
}

// move shifts the selected job and keeps the cursor on it.
func (m *queueModel) move(delta int) bool {
	if !m.queue.Move(m.cursor, delta) {
		return false
	}
	m.cursor += delta
	m.clamp()
	return true
}

func (m *queueModel) remove() (queue.Job, bool) {
	job, ok := m.selected()
	if !ok {
		return job, false
	}
	m.queue.Remove(m.cursor)
	m.clamp()
	return job, true
}

func (m queueModel) View() string {
	jobs := m.queue.Snapshot()
	if len(jobs) == 0 {
		return subtleStyle("  No documents queued. Press a to add a file or folder, f to find documents.")
	}

	var b strings.Builder
	end := min(len(jobs), m.offset+m.height)
	for i := m.offset; i < end; i++ {
		if i > m.offset {
			b.WriteByte('\n')
		}
		b.WriteString(m.row(i, jobs[i]))
	}
	return b.String()
}

func (m queueModel) row(i int, job queue.Job) string {
	gutter := "  "
	if i == m.cursor {
		gutter = cursorStyle.Render("│ ")
	}
	status := jobStatusStyle(job.Status).Render(fmt.Sprintf("%-*s", statusColumnWidth, job.Status))
	name := fmt.Sprintf("%3d. %s", i+1, job.DisplayName)
	switch {
	case job.Status == queue.StatusError && job.Error != "":
		name += subtleStyle("  " + job.Error)
	case job.OutputPath != "":
		name += subtleStyle("  → " + filepath.Base(job.OutputPath))
	}
	avail := uint(max(0, m.width-ansi.PrintableRuneWidth(gutter)-statusColumnWidth-1)) //nolint:gosec
	name = truncate.StringWithTail(name, avail, ellipsis)
	if i == m.cursor {
		name = cursorStyle.Render(name)
	}
	return gutter + status + " " + name
}

// countsView summarizes the queue for the status bar.
func countsView(q *queue.Queue) string {
	c := q.Counts()
	return fmt.Sprintf("%d queued · %d done · %d failed",
		c[queue.StatusPending]+c[queue.StatusProcessing], c[queue.StatusComplete], c[queue.StatusError])
}

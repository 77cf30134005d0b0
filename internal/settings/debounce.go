package settings

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/charmbracelet/log"
)

// DefaultDebounce is the quiet period before a tracked change is saved.
const DefaultDebounce = 400 * time.Millisecond

// Debouncer coalesces bursts of changes into a single save.
type Debouncer struct {
	debounced func(func())
	save      func() error

	mu      sync.Mutex
	pending bool
	stopped bool
	loading atomic.Bool
	saves   atomic.Int64
}

// NewDebouncer returns a debouncer that calls save once delay has passed
// without further Touch calls.
func NewDebouncer(delay time.Duration, save func() error) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{
		debounced: debounce.New(delay),
		save:      save,
	}
}

// Touch records a change and restarts the quiet period. Changes made
// while settings are being loaded are ignored.
func (d *Debouncer) Touch() {
	if d.loading.Load() {
		return
	}
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = true
	d.mu.Unlock()
	d.debounced(d.fire)
}

// Loading runs fn with Touch suppressed, for applying loaded values to
// tracked fields.
func (d *Debouncer) Loading(fn func()) {
	d.loading.Store(true)
	defer d.loading.Store(false)
	fn()
}

// Flush saves immediately if a change is pending.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	pending := d.pending
	d.pending = false
	d.mu.Unlock()
	if !pending {
		return nil
	}
	return d.run()
}

// Stop drops any pending change and ignores later Touch calls. A timer
// already running fires without saving.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.pending = false
	d.stopped = true
	d.mu.Unlock()
}

// Saves returns the number of saves performed.
func (d *Debouncer) Saves() int64 {
	return d.saves.Load()
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	pending := d.pending
	d.pending = false
	d.mu.Unlock()
	if !pending {
		return
	}
	if err := d.run(); err != nil {
		log.Error("Error saving settings", "err", err)
	}
}

func (d *Debouncer) run() error {
	d.saves.Add(1)
	return d.save()
}

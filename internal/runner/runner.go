package runner

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/extract"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"golang.org/x/time/rate"
)

// Order selects the direction in which the queue is processed.
type Order string

const (
	// OrderReverse processes the last job first.
	OrderReverse Order = "reverse"
	// OrderForward processes jobs in queue order.
	OrderForward Order = "forward"
)

// ParseOrder parses a queue.order setting. An empty string selects
// OrderReverse.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", OrderReverse:
		return OrderReverse, nil
	case OrderForward:
		return OrderForward, nil
	}
	return "", fmt.Errorf("invalid queue order %q: want %q or %q", s, OrderReverse, OrderForward)
}

// Encoder transcodes a WAV file into a compressed one.
type Encoder interface {
	Available() bool
	Encode(ctx context.Context, src, dst string) error
}

// Options configure one run.
type Options struct {
	Engine      engine.Engine
	Selector    engine.Selector
	Destination string
	// Encode requests MP3 output when the encoder is available.
	Encode bool
	Order  Order
}

// Runner owns the conversion worker for a queue.
type Runner struct {
	queue     *queue.Queue
	extractor extract.Extractor
	encoder   Encoder
	bus       *EventBus
	progress  *rate.Limiter

	mu      sync.Mutex
	cond    *sync.Cond
	sm      *StateMachine
	stop    bool
	runID   string
	done    chan struct{}
	summary Summary
}

// New creates an idle runner. encoder may be nil, in which case output is
// always WAV.
func New(q *queue.Queue, extractor extract.Extractor, encoder Encoder, bus *EventBus) *Runner {
	if extractor == nil {
		extractor = extract.Auto{}
	}
	if bus == nil {
		bus = NewEventBus(0)
	}
	r := &Runner{
		queue:     q,
		extractor: extractor,
		encoder:   encoder,
		bus:       bus,
		progress:  rate.NewLimiter(rate.Every(2*time.Second), 1),
		sm:        NewStateMachine(),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, s := range []RunState{StateIdle, StateRunning, StatePaused, StateStopping} {
		r.sm.OnEnter(s, func() {
			r.bus.Publish(Event{RunID: r.runID, Type: EventTypeState, Level: log.DebugLevel, State: s, Message: "state " + s.String()})
		})
	}
	return r
}

// Events returns the bus the runner publishes on.
func (r *Runner) Events() *EventBus {
	return r.bus
}

// State returns the current run state.
func (r *Runner) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sm.Current()
}

// Validate checks opts the way Start does without starting anything.
func Validate(opts Options) error {
	if opts.Engine == nil || !opts.Engine.Loaded() {
		return &ConfigError{Field: "engine", Err: engine.ErrNotLoaded}
	}
	if err := engine.CheckSelector(opts.Engine.Kind(), opts.Selector); err != nil {
		field := "voice"
		if opts.Engine.Kind() == engine.KindVoiceClone {
			field = "speaker_wav"
		}
		return &ConfigError{Field: field, Err: err}
	}
	if opts.Destination == "" {
		return &ConfigError{Field: "destination", Err: fmt.Errorf("no destination folder set")}
	}
	if _, err := ParseOrder(string(opts.Order)); err != nil {
		return &ConfigError{Field: "queue.order", Err: err}
	}
	return nil
}

// Start validates opts and launches the worker. It returns immediately.
// The jobs to visit are fixed when Start is called; jobs added later wait
// for the next run, and jobs removed meanwhile are skipped.
func (r *Runner) Start(ctx context.Context, opts Options) error {
	if err := Validate(opts); err != nil {
		return err
	}
	order, _ := ParseOrder(string(opts.Order))
	opts.Order = order

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sm.Current() != StateIdle {
		return ErrAlreadyRunning
	}
	if err := os.MkdirAll(opts.Destination, 0o755); err != nil {
		return &ConfigError{Field: "destination", Err: err}
	}

	paths := r.plan(order)
	r.runID = uuid.NewString()
	r.stop = false
	r.done = make(chan struct{})
	r.summary = Summary{RunID: r.runID}
	r.sm.Transition(StateRunning)

	go r.work(ctx, r.runID, paths, opts, r.done)
	return nil
}

// plan returns the source paths in processing order.
func (r *Runner) plan(order Order) []string {
	jobs := r.queue.Snapshot()
	paths := make([]string, len(jobs))
	for i, j := range jobs {
		paths[i] = j.SourcePath
	}
	if order == OrderReverse {
		slices.Reverse(paths)
	}
	return paths
}

// Pause makes the worker wait before its next job.
func (r *Runner) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sm.Transition(StatePaused) {
		return ErrNotRunning
	}
	r.logf(log.InfoLevel, "Conversion paused")
	return nil
}

// Resume wakes a paused worker.
func (r *Runner) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sm.Current() != StatePaused || !r.sm.Transition(StateRunning) {
		return ErrNotRunning
	}
	r.cond.Broadcast()
	r.logf(log.InfoLevel, "Conversion resumed")
	return nil
}

// TogglePause pauses a running worker or resumes a paused one.
func (r *Runner) TogglePause() error {
	if r.State() == StatePaused {
		return r.Resume()
	}
	return r.Pause()
}

// Stop asks the worker to exit after the job in progress. It does not wait;
// use Wait for that.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sm.Transition(StateStopping) {
		return ErrNotRunning
	}
	r.stop = true
	r.cond.Broadcast()
	r.logf(log.InfoLevel, "Conversion stopping after the current job")
	return nil
}

// Wait blocks until the current run, if any, has ended and returns its
// summary.
func (r *Runner) Wait() Summary {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.summary
}

// Done returns a channel closed when the current run ends. It is nil
// before the first Start.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// checkpoint blocks while paused and reports whether the worker may take
// the next job.
func (r *Runner) checkpoint(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Err() != nil {
		r.stop = true
	}
	for r.sm.Current() == StatePaused && !r.stop {
		r.cond.Wait()
	}
	return !r.stop
}

func (r *Runner) work(ctx context.Context, runID string, paths []string, opts Options, done chan struct{}) {
	start := time.Now()
	stopWatch := context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.stop = true
		r.cond.Broadcast()
		r.mu.Unlock()
	})
	defer stopWatch()
	// Cancelling ctx stops the run at the next checkpoint. The job in
	// progress still finishes.
	jobCtx := context.WithoutCancel(ctx)

	r.logf(log.InfoLevel, "Starting conversion", "jobs", len(paths), "engine", opts.Engine.Name(), "order", opts.Order)

	summary := Summary{RunID: runID}
	for i, path := range paths {
		if !r.checkpoint(ctx) {
			summary.Stopped = true
			break
		}
		res := r.process(jobCtx, path, opts)
		res.Index = i
		summary.add(res)
		r.bus.Publish(Event{RunID: runID, Type: EventTypeResult, Level: res.level(), Path: path, Status: res.Status, Message: res.String(), Result: &res})
		if r.progress.Allow() {
			log.Info("Queue progress", "done", i+1, "total", len(paths))
		}
	}
	summary.Elapsed = time.Since(start)

	r.mu.Lock()
	if r.stop {
		summary.Stopped = true
	}
	if r.sm.Current() == StatePaused {
		r.sm.Transition(StateStopping)
	}
	r.summary = summary
	if summary.Stopped {
		r.logf(log.InfoLevel, "Conversion stopped", "completed", summary.Completed, "failed", summary.Failed)
	} else {
		r.logf(log.InfoLevel, "All tasks completed", "completed", summary.Completed, "failed", summary.Failed, "skipped", summary.Skipped, "elapsed", summary.Elapsed.Round(time.Millisecond))
	}
	r.sm.Transition(StateIdle)
	r.bus.Publish(Event{RunID: runID, Type: EventTypeDone, Level: log.InfoLevel, Message: summary.String(), Summary: &summary})
	r.stop = false
	close(done)
	r.mu.Unlock()
}

// logf writes to the process log and publishes a console event.
func (r *Runner) logf(level log.Level, msg string, keyvals ...any) {
	log.Log(level, msg, keyvals...)
	r.bus.Publish(Event{RunID: r.runID, Type: EventTypeLog, Level: level, Message: formatKV(msg, keyvals...)})
}

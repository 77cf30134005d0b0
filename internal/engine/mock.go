package engine

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
)

// MockSampleRate is the rate of clips produced by the mock engine.
const MockSampleRate = 8000

// ErrMockFailure is returned for text containing MockOptions.FailOn.
var ErrMockFailure = errors.New("mock synthesis failure")

// MockOptions configures a Mock engine.
type MockOptions struct {
	Kind     Kind
	Speakers []string
	// FailOn makes Synthesize fail when the text contains it.
	FailOn string
	// LoadErr is returned by Load.
	LoadErr error
	// Delay is spent in every Synthesize call, honoring cancellation.
	Delay time.Duration
	// PerWord is the clip length produced for each word.
	PerWord time.Duration
	// Hook runs at the start of every Synthesize call.
	Hook func(text string)
}

// Mock produces a tone per word without any external dependency.
type Mock struct {
	opts   MockOptions
	loaded atomic.Bool

	mu    sync.Mutex
	texts []string
}

// NewMock creates a mock engine.
func NewMock(opts MockOptions) *Mock {
	if opts.Kind == KindSingleVoice && len(opts.Speakers) > 0 {
		opts.Kind = KindMultiSpeaker
	}
	if opts.PerWord <= 0 {
		opts.PerWord = 10 * time.Millisecond
	}
	return &Mock{opts: opts}
}

// Name implements Engine.
func (m *Mock) Name() string { return "mock" }

// Kind implements Engine.
func (m *Mock) Kind() Kind { return m.opts.Kind }

// Loaded implements Engine.
func (m *Mock) Loaded() bool { return m.loaded.Load() }

// Load implements Engine.
func (m *Mock) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(m.Name(), "load", err)
	}
	if m.opts.LoadErr != nil {
		return nil, wrap(m.Name(), "load", m.opts.LoadErr)
	}
	m.loaded.Store(true)
	return append([]string(nil), m.opts.Speakers...), nil
}

// Texts returns every text passed to Synthesize, in call order.
func (m *Mock) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Synthesize implements Engine.
func (m *Mock) Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error) {
	m.mu.Lock()
	m.texts = append(m.texts, text)
	m.mu.Unlock()
	if m.opts.Hook != nil {
		m.opts.Hook(text)
	}

	if !m.Loaded() {
		return nil, wrap(m.Name(), "synthesize", ErrNotLoaded)
	}
	if err := CheckSelector(m.opts.Kind, sel); err != nil {
		return nil, wrap(m.Name(), "synthesize", err)
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, wrap(m.Name(), "synthesize", ErrEmptyText)
	}
	if m.opts.FailOn != "" && strings.Contains(text, m.opts.FailOn) {
		return nil, wrap(m.Name(), "synthesize", ErrMockFailure)
	}
	if m.opts.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, wrap(m.Name(), "synthesize", ctx.Err())
		case <-time.After(m.opts.Delay):
		}
	}

	freq := 220.0 * float64(1+len(sel.Speaker)%4)
	speed := speedOrDefault(sel.Speed, 0.5, 2)
	n := int(float64(len(words)) * m.opts.PerWord.Seconds() * MockSampleRate / speed)
	clip := audio.NewClip(MockSampleRate, 1)
	clip.Samples = make([]int16, n)
	for i := range clip.Samples {
		clip.Samples[i] = int16(8000 * math.Sin(2*math.Pi*freq*float64(i)/MockSampleRate))
	}
	return clip, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
)

// Kind describes how an engine selects its voice.
type Kind int

const (
	// KindSingleVoice engines need no voice selection.
	KindSingleVoice Kind = iota
	// KindMultiSpeaker engines select a voice by speaker id.
	KindMultiSpeaker
	// KindVoiceClone engines imitate a reference recording.
	KindVoiceClone
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSingleVoice:
		return "single-voice"
	case KindMultiSpeaker:
		return "multi-speaker"
	case KindVoiceClone:
		return "voice-clone"
	default:
		return "unknown"
	}
}

// Common engine errors.
var (
	ErrNotLoaded      = errors.New("engine is not loaded")
	ErrEmptyText      = errors.New("nothing to synthesize")
	ErrNoSpeaker      = errors.New("no speaker selected")
	ErrUnknownSpeaker = errors.New("unknown speaker")
	ErrNoReference    = errors.New("no reference voice file selected")
	ErrUnknownModel   = errors.New("unknown model")
	ErrNoAudio        = errors.New("engine returned no audio")
	ErrMissingConfig  = errors.New("required configuration missing")
)

// Error records which engine operation failed.
type Error struct {
	Engine string
	Op     string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Engine, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(engine, op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return err
	}
	return &Error{Engine: engine, Op: op, Err: err}
}

// Selector picks the voice and delivery for one synthesis call.
type Selector struct {
	Speaker      string
	ReferenceWAV string
	Speed        float64
	Language     string
}

// Engine is a loaded text-to-speech backend.
type Engine interface {
	// Name identifies the engine in logs and errors.
	Name() string
	// Kind reports how voices are selected.
	Kind() Kind
	// Load prepares the engine and returns its speaker ids, if any. It
	// blocks and must not be called from the UI goroutine.
	Load(ctx context.Context) ([]string, error)
	// Loaded reports whether Load completed successfully.
	Loaded() bool
	// Synthesize turns text into audio.
	Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error)
}

// Closer is implemented by engines holding network clients.
type Closer interface {
	Close() error
}

// CheckSelector verifies sel carries what an engine of kind k needs.
func CheckSelector(k Kind, sel Selector) error {
	switch k {
	case KindMultiSpeaker:
		if sel.Speaker == "" {
			return ErrNoSpeaker
		}
	case KindVoiceClone:
		if sel.ReferenceWAV == "" {
			return ErrNoReference
		}
		if _, err := os.Stat(sel.ReferenceWAV); err != nil {
			return fmt.Errorf("%w: %v", ErrNoReference, err)
		}
	}
	return nil
}

// speedOrDefault clamps speed into [lo, hi], mapping zero to 1.
func speedOrDefault(speed, lo, hi float64) float64 {
	if speed == 0 {
		return 1
	}
	return min(max(speed, lo), hi)
}

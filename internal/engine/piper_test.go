package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"testing"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

const vctkPiperConfig = `{
	"audio": {"sample_rate": 16000},
	"num_speakers": 3,
	"speaker_id_map": {"p240": 2, "p225": 0, "p239": 1}
}`

func newTestPiper(t *testing.T, config string, runner proc.Runner) *Piper {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "voice.onnx")
	if err := os.WriteFile(model, []byte("onnx"), 0o600); err != nil {
		t.Fatal(err)
	}
	if config != "" {
		if err := os.WriteFile(model+".json", []byte(config), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	p := NewPiper(PiperConfig{Model: model}, runner)
	p.lookup = found
	return p
}

// TestPiperLoadSpeakers verifies speakers are returned in id order.
func TestPiperLoadSpeakers(t *testing.T) {
	p := newTestPiper(t, vctkPiperConfig, &proc.Fake{})
	speakers, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := []string{"p225", "p239", "p240"}; !reflect.DeepEqual(speakers, want) {
		t.Errorf("speakers = %v, want %v", speakers, want)
	}
	if !p.Loaded() || p.Kind() != KindMultiSpeaker {
		t.Errorf("Loaded() = %v, Kind() = %v", p.Loaded(), p.Kind())
	}
}

// TestPiperSingleSpeaker verifies a model without a speaker map needs no voice.
func TestPiperSingleSpeaker(t *testing.T) {
	p := newTestPiper(t, `{"audio": {"sample_rate": 22050}}`, &proc.Fake{})
	speakers, err := p.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(speakers) != 0 || p.Kind() != KindSingleVoice {
		t.Errorf("speakers = %v, kind = %v", speakers, p.Kind())
	}
}

// TestPiperLoadErrors verifies missing pieces fail as load errors.
func TestPiperLoadErrors(t *testing.T) {
	t.Run("no model configured", func(t *testing.T) {
		p := NewPiper(PiperConfig{}, &proc.Fake{})
		_, err := p.Load(context.Background())
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("Load() error = %v, want ErrMissingConfig", err)
		}
	})
	t.Run("missing config json", func(t *testing.T) {
		p := newTestPiper(t, "", &proc.Fake{})
		if _, err := p.Load(context.Background()); err == nil {
			t.Error("Load() error = nil, want failure")
		}
	})
	t.Run("invalid config json", func(t *testing.T) {
		p := newTestPiper(t, "{broken", &proc.Fake{})
		if _, err := p.Load(context.Background()); err == nil {
			t.Error("Load() error = nil, want failure")
		}
	})
	t.Run("binary missing", func(t *testing.T) {
		p := newTestPiper(t, vctkPiperConfig, &proc.Fake{})
		p.lookup = func(string) (string, error) { return "", proc.ErrNotFound }
		if _, err := p.Load(context.Background()); !errors.Is(err, proc.ErrNotFound) {
			t.Errorf("Load() error = %v, want ErrNotFound", err)
		}
	})
}

// TestPiperSynthesize verifies arguments, stdin and PCM decoding.
func TestPiperSynthesize(t *testing.T) {
	fake := &proc.Fake{Respond: func(c proc.Command) (proc.Result, error) {
		return proc.Result{Stdout: []byte{1, 0, 2, 0, 3, 0, 4, 0}}, nil
	}}
	p := newTestPiper(t, vctkPiperConfig, fake)
	if _, err := p.Synthesize(context.Background(), "hi", Selector{Speaker: "p239"}); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Synthesize() before Load error = %v, want ErrNotLoaded", err)
	}
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	clip, err := p.Synthesize(context.Background(), "Hello there.", Selector{Speaker: "Speaker 2 (p239)", Speed: 2})
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if clip.SampleRate != 16000 || len(clip.Samples) != 4 {
		t.Errorf("clip = %d Hz, %d samples", clip.SampleRate, len(clip.Samples))
	}

	call := fake.Calls()[0]
	if call.Name != "/opt/bin/piper" || call.Stdin != "Hello there.\n" {
		t.Errorf("command = %s, stdin %q", call.Name, call.Stdin)
	}
	for _, want := range []string{"--output-raw", "--speaker", "1", "--length-scale", "0.500"} {
		if !slices.Contains(call.Args, want) {
			t.Errorf("args %v missing %q", call.Args, want)
		}
	}

	if _, err := p.Synthesize(context.Background(), "x", Selector{Speaker: "p999"}); !errors.Is(err, ErrUnknownSpeaker) {
		t.Errorf("unknown speaker error = %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "   ", Selector{Speaker: "p225"}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("empty text error = %v", err)
	}
}

// TestPiperNoAudio verifies empty output is an error.
func TestPiperNoAudio(t *testing.T) {
	p := newTestPiper(t, vctkPiperConfig, &proc.Fake{})
	if _, err := p.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Synthesize(context.Background(), "text", Selector{Speaker: "p225"}); !errors.Is(err, ErrNoAudio) {
		t.Errorf("Synthesize() error = %v, want ErrNoAudio", err)
	}
}

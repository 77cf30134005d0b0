package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
)

func noFFmpeg(string) (string, error) { return "", proc.ErrNotFound }

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Model = "mock"
	cfg.Encode = false
	cfg.Destination = filepath.Join(t.TempDir(), "out")
	cfg.Settings.Dir = t.TempDir()
	cfg.Cache.Enabled = false
	return cfg
}

func open(t *testing.T, cfg config.Config) *App {
	t.Helper()
	a, err := Open(Options{Config: cfg, Lookup: noFFmpeg, Debounce: time.Hour})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func writeDoc(t *testing.T, dir, name, text string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// TestOpenDefaults verifies first-run settings come from the configuration.
func TestOpenDefaults(t *testing.T) {
	cfg := testConfig(t)
	a := open(t, cfg)

	s := a.Settings()
	if s.SelectedModel != "mock" {
		t.Errorf("model = %q", s.SelectedModel)
	}
	if s.DestinationFolder != cfg.Destination {
		t.Errorf("destination = %q, want %q", s.DestinationFolder, cfg.Destination)
	}
	if s.OptimizeMP3 {
		t.Error("mp3 enabled without encoder")
	}
	if a.Queue().Len() != 0 {
		t.Errorf("queue len = %d", a.Queue().Len())
	}
	if a.Engine() != nil {
		t.Error("engine loaded before LoadModel")
	}
}

// TestOpenDisablesMP3WithoutEncoder verifies a saved MP3 preference is
// dropped when ffmpeg is missing.
func TestOpenDisablesMP3WithoutEncoder(t *testing.T) {
	cfg := testConfig(t)
	saved := settings.DefaultConverter()
	saved.SelectedModel = "mock"
	saved.OptimizeMP3 = true
	if err := settings.NewConverterStore(cfg.Settings.Dir).Save(saved); err != nil {
		t.Fatal(err)
	}

	a := open(t, cfg)
	if a.Settings().OptimizeMP3 {
		t.Error("OptimizeMP3 kept without encoder")
	}
	if err := a.SetOptimizeMP3(true); !errors.Is(err, ErrNoEncoder) {
		t.Errorf("SetOptimizeMP3 err = %v, want ErrNoEncoder", err)
	}
}

// TestOpenUnknownSavedModel verifies an unknown saved model falls back to
// the configured one.
func TestOpenUnknownSavedModel(t *testing.T) {
	cfg := testConfig(t)
	saved := settings.DefaultConverter()
	saved.SelectedModel = "tacotron"
	if err := settings.NewConverterStore(cfg.Settings.Dir).Save(saved); err != nil {
		t.Fatal(err)
	}
	a := open(t, cfg)
	if got := a.Settings().SelectedModel; got != "mock" {
		t.Errorf("model = %q, want mock", got)
	}
}

// TestLoadModelCommitsVoice verifies loading selects the saved voice when
// offered and the first speaker otherwise.
func TestLoadModelCommitsVoice(t *testing.T) {
	tests := []struct {
		name  string
		saved string
		want  string
	}{
		{"saved voice kept", "high", "high"},
		{"saved label kept", "Speaker 2 (mid)", "mid"},
		{"unknown falls back", "p999", "low"},
		{"empty falls back", "", "low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			saved := settings.DefaultConverter()
			saved.SelectedModel = "mock"
			saved.SelectedVoice = tt.saved
			if err := settings.NewConverterStore(cfg.Settings.Dir).Save(saved); err != nil {
				t.Fatal(err)
			}
			a := open(t, cfg)
			speakers, err := a.LoadSavedModel(context.Background())
			if err != nil {
				t.Fatalf("LoadSavedModel: %v", err)
			}
			if len(speakers) != 3 {
				t.Errorf("speakers = %v", speakers)
			}
			if got := a.Settings().SelectedVoice; got != tt.want {
				t.Errorf("voice = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestLoadModelFailure verifies a failed load leaves no engine.
func TestLoadModelFailure(t *testing.T) {
	cfg := testConfig(t)
	loadErr := errors.New("weights missing")
	a, err := Open(Options{
		Config:   cfg,
		Lookup:   noFFmpeg,
		Debounce: time.Hour,
		NewEngine: func(string) (engine.Engine, error) {
			return engine.NewMock(engine.MockOptions{Speakers: []string{"a"}, LoadErr: loadErr}), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.LoadModel(context.Background(), "mock"); !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want %v", err, loadErr)
	}
	if a.Engine() != nil {
		t.Error("engine set after failed load")
	}
	if err := a.Start(context.Background()); err == nil {
		t.Error("Start succeeded without engine")
	}
	if _, err := a.LoadModel(context.Background(), "wavenet"); !errors.Is(err, engine.ErrUnknownModel) {
		t.Errorf("unknown key err = %v", err)
	}
}

// TestSetVoice verifies voice selection by id, label and fragment.
func TestSetVoice(t *testing.T) {
	a := open(t, testConfig(t))
	if _, err := a.LoadModel(context.Background(), "mock"); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		query string
		want  string
	}{
		{"mid", "mid"},
		{"Speaker 3 (high)", "high"},
		{"hi", "high"},
	}
	for _, tt := range tests {
		got, err := a.SetVoice(tt.query)
		if err != nil {
			t.Fatalf("SetVoice(%q): %v", tt.query, err)
		}
		if got != tt.want || a.Settings().SelectedVoice != tt.want {
			t.Errorf("SetVoice(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
	if _, err := a.SetVoice("zzz"); !errors.Is(err, engine.ErrUnknownSpeaker) {
		t.Errorf("err = %v, want ErrUnknownSpeaker", err)
	}
}

// TestSetSpeakerWAV verifies the reference recording must exist.
func TestSetSpeakerWAV(t *testing.T) {
	a := open(t, testConfig(t))
	dir := t.TempDir()
	if err := a.SetSpeakerWAV(filepath.Join(dir, "missing.wav")); !errors.Is(err, engine.ErrNoReference) {
		t.Errorf("missing err = %v", err)
	}
	if err := a.SetSpeakerWAV(dir); !errors.Is(err, engine.ErrNoReference) {
		t.Errorf("folder err = %v", err)
	}
	ref := writeDoc(t, dir, "me.wav", "RIFF")
	if err := a.SetSpeakerWAV(ref); err != nil {
		t.Fatal(err)
	}
	if got := a.Settings().SpeakerWAVPath; got != ref {
		t.Errorf("path = %q", got)
	}
}

// TestCloseCancelsPendingSave verifies no debounced save runs after Close.
func TestCloseCancelsPendingSave(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.Dir = filepath.Join(t.TempDir(), "settings")
	a, err := Open(Options{Config: cfg, Lookup: noFFmpeg, Debounce: 30 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	a.SetDestination(t.TempDir())
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(a.SettingsPath()); err != nil {
		t.Fatalf("settings not saved on close: %v", err)
	}

	if err := os.RemoveAll(cfg.Settings.Dir); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	if _, err := os.Stat(cfg.Settings.Dir); !os.IsNotExist(err) {
		t.Errorf("settings written after Close: %v", err)
	}
}

// TestStartConvertsAndPersists verifies a run converts the queue and the
// statuses survive a reopen.
func TestStartConvertsAndPersists(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(Options{Config: cfg, Lookup: noFFmpeg, Debounce: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	src := t.TempDir()
	n := a.AddFiles([]string{
		writeDoc(t, src, "one.txt", "First document."),
		writeDoc(t, src, "two.md", "Second document."),
		writeDoc(t, src, "cover.png", "not text"),
	})
	if n != 2 {
		t.Fatalf("added %d, want 2", n)
	}
	if _, err := a.LoadModel(context.Background(), "mock"); err != nil {
		t.Fatal(err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	sum := a.Runner().Wait()
	if sum.Completed != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %s", sum)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	b := open(t, cfg)
	jobs := b.Queue().Snapshot()
	if len(jobs) != 2 {
		t.Fatalf("reopened %d jobs", len(jobs))
	}
	for _, j := range jobs {
		if j.Status != queue.StatusComplete {
			t.Errorf("%s status = %s", j.DisplayName, j.Status)
		}
		if _, err := os.Stat(j.OutputPath); err != nil {
			t.Errorf("output missing: %v", err)
		}
	}
}

// TestRunOptionsVoiceClone verifies clone engines get the reference path
// instead of a speaker.
func TestRunOptionsVoiceClone(t *testing.T) {
	cfg := testConfig(t)
	a, err := Open(Options{
		Config:   cfg,
		Lookup:   noFFmpeg,
		Debounce: time.Hour,
		NewEngine: func(string) (engine.Engine, error) {
			return engine.NewMock(engine.MockOptions{Kind: engine.KindVoiceClone}), nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	ref := writeDoc(t, t.TempDir(), "ref.wav", "RIFF")
	if err := a.SetSpeakerWAV(ref); err != nil {
		t.Fatal(err)
	}
	if _, err := a.LoadModel(context.Background(), "xtts"); err != nil {
		t.Fatal(err)
	}
	opts := a.RunOptions()
	if opts.Selector.ReferenceWAV != ref || opts.Selector.Speaker != "" {
		t.Errorf("selector = %+v", opts.Selector)
	}
	if opts.Order != "reverse" {
		t.Errorf("order = %q", opts.Order)
	}
}

// TestAddFolder verifies discovery adds only new documents.
func TestAddFolder(t *testing.T) {
	a := open(t, testConfig(t))
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "A.")
	writeDoc(t, dir, "b.pdf", "%PDF")
	writeDoc(t, dir, "c.jpg", "")

	n, err := a.AddFolder(context.Background(), dir, []string{"*.txt", "*.pdf"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("first add = %d, want 2", n)
	}
	n, _ = a.AddFolder(context.Background(), dir, []string{"*.txt", "*.pdf"})
	if n != 0 {
		t.Errorf("second add = %d, want 0", n)
	}
}

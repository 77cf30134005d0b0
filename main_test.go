package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/app"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/extract"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
)

// TestParsePosition verifies 1-based positions are checked and converted.
func TestParsePosition(t *testing.T) {
	tt := []struct {
		in      string
		n       int
		want    int
		wantErr bool
	}{
		{"1", 3, 0, false},
		{"3", 3, 2, false},
		{"0", 3, 0, true},
		{"4", 3, 0, true},
		{"two", 3, 0, true},
		{"1", 0, 0, true},
	}
	for _, tc := range tt {
		got, err := parsePosition(tc.in, tc.n)
		if (err != nil) != tc.wantErr {
			t.Errorf("parsePosition(%q, %d) error = %v, wantErr %v", tc.in, tc.n, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("parsePosition(%q, %d) = %d, want %d", tc.in, tc.n, got, tc.want)
		}
	}
}

func testJobs() []queue.Job {
	done := queue.NewJob("/docs/a.pdf")
	done.Status = queue.StatusComplete
	done.OutputPath = "/out/a.mp3"
	failed := queue.NewJob("/docs/b.txt")
	failed.Status = queue.StatusError
	failed.Error = "no text found"
	return []queue.Job{done, failed, queue.NewJob("/docs/c.md")}
}

// TestWriteQueue verifies every output format of the queue listing.
func TestWriteQueue(t *testing.T) {
	jobs := testJobs()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeQueue(&buf, jobs, "table"); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"STATUS", "a.pdf", "/out/a.mp3", "no text found", "Pending"} {
			if !strings.Contains(out, want) {
				t.Errorf("table output misses %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeQueue(&buf, jobs, "json"); err != nil {
			t.Fatal(err)
		}
		var got []queue.Job
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if len(got) != 3 || got[1].Status != queue.StatusError || got[1].Error != "no text found" {
			t.Errorf("unexpected jobs: %+v", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeQueue(&buf, jobs, "yaml"); err != nil {
			t.Fatal(err)
		}
		out := buf.String()
		for _, want := range []string{"Complete", "a.pdf", "no text found"} {
			if !strings.Contains(out, want) {
				t.Errorf("yaml output misses %q:\n%s", want, out)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeQueue(&buf, nil, "table"); err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(buf.String()); got != "The queue is empty." {
			t.Errorf("got %q", got)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if err := writeQueue(&bytes.Buffer{}, jobs, "csv"); err == nil {
			t.Error("expected an error for an unknown format")
		}
	})
}

// TestWriteVoices verifies the voice listing for each kind of model.
func TestWriteVoices(t *testing.T) {
	tt := []struct {
		name     string
		kind     engine.Kind
		speakers []string
		want     []string
	}{
		{"clone", engine.KindVoiceClone, nil, []string{"--speaker-wav"}},
		{"single", engine.KindSingleVoice, nil, []string{"single voice"}},
		{"multi", engine.KindMultiSpeaker, []string{"p225", "p226"}, []string{"p225", "p226"}},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeVoices(&buf, tc.kind, tc.speakers); err != nil {
				t.Fatal(err)
			}
			for _, want := range tc.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output misses %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

// TestReadText verifies the text source precedence.
func TestReadText(t *testing.T) {
	file := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(file, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	tt := []struct {
		name    string
		args    []string
		file    string
		stdin   string
		want    string
		wantErr error
	}{
		{name: "args", args: []string{"hello", "there"}, file: file, stdin: "piped", want: "hello there"},
		{name: "file", file: file, stdin: "piped", want: "from file"},
		{name: "stdin", stdin: "piped", want: "piped"},
		{name: "blank", stdin: "  \n", wantErr: errNoInput},
		{name: "nothing", wantErr: errNoInput},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var stdin io.Reader
			if tc.stdin != "" {
				stdin = strings.NewReader(tc.stdin)
			}
			got, err := readText(tc.args, tc.file, stdin)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}

	if _, err := readText(nil, filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
		t.Error("expected an error for a missing file")
	}
}

// TestApplySayOptions verifies flags override the saved speech settings.
func TestApplySayOptions(t *testing.T) {
	out := t.TempDir()
	s := settings.DefaultSpeech()
	s.Voice = "af_bella"
	o := sayOptions{voice: "am_adam", speed: 1.5, format: "mp3", out: out}
	if err := applySayOptions(&s, o, engine.KokoroVoices); err != nil {
		t.Fatal(err)
	}
	if s.Voice != "am_adam" || s.Speed != 1.5 || s.OutputFormat != "mp3" || s.OutputPath != out {
		t.Errorf("unexpected settings: %+v", s)
	}

	kept := settings.DefaultSpeech()
	kept.Voice = "af_sky"
	if err := applySayOptions(&kept, sayOptions{}, engine.KokoroVoices); err != nil {
		t.Fatal(err)
	}
	if kept.Voice != "af_sky" || kept.Speed != 1.0 || kept.OutputFormat != "wav" {
		t.Errorf("empty options changed settings: %+v", kept)
	}

	for _, bad := range []sayOptions{{speed: 3}, {speed: 0.1}, {format: "ogg"}, {voice: "zzzzzz"}} {
		s := settings.DefaultSpeech()
		if err := applySayOptions(&s, bad, engine.KokoroVoices); err == nil {
			t.Errorf("options %+v: expected an error", bad)
		}
	}
}

// TestDoctorInput verifies the saved settings take precedence over the
// configuration.
func TestDoctorInput(t *testing.T) {
	cfg := config.Default()
	cfg.Model = "piper"
	cfg.Destination = "/cfg/out"

	in := doctorInput(cfg, settings.Converter{})
	if in.Model != "piper" || in.Destination != "/cfg/out" {
		t.Errorf("first run: %+v", in)
	}

	in = doctorInput(cfg, settings.Converter{SelectedModel: "mock", DestinationFolder: "/saved", SpeakerWAVPath: "/ref.wav"})
	if in.Model != "mock" || in.Destination != "/saved" || in.SpeakerWAVPath != "/ref.wav" {
		t.Errorf("saved: %+v", in)
	}
	if in.EncoderBinary != cfg.Encoder.Binary || in.SettingsDir != cfg.Settings.Dir {
		t.Errorf("config values lost: %+v", in)
	}
}

// TestAddPaths verifies folders and single documents are enqueued and
// unsupported files rejected.
func TestAddPaths(t *testing.T) {
	cfg := config.Default()
	cfg.Model = "mock"
	cfg.Encode = false
	cfg.Destination = t.TempDir()
	cfg.Settings.Dir = t.TempDir()
	cfg.Cache.Enabled = false
	a, err := app.Open(app.Options{
		Config:   cfg,
		Lookup:   func(string) (string, error) { return "", proc.ErrNotFound },
		Debounce: time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })

	dir := t.TempDir()
	for _, name := range []string{"one.txt", "two.md", "cover.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("text"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(t.TempDir(), "three.txt")
	if err := os.WriteFile(single, []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := addPaths(context.Background(), a, []string{dir, single})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("added %d documents, want 3", n)
	}
	if got := len(a.Queue().Snapshot()); got != 3 {
		t.Errorf("queue holds %d jobs, want 3", got)
	}

	if _, err := addPaths(context.Background(), a, []string{filepath.Join(dir, "cover.png")}); !errors.Is(err, extract.ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
	if _, err := addPaths(context.Background(), a, []string{filepath.Join(dir, "missing.pdf")}); err == nil {
		t.Error("expected an error for a missing path")
	}
}

package encoder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

func found(name string) (string, error) { return "/usr/bin/" + name, nil }

func missing(name string) (string, error) { return "", proc.ErrNotFound }

// TestArgs verifies the fixed bitrate, metadata strip and overwrite flags.
func TestArgs(t *testing.T) {
	f := NewWithRunner(Config{}, &proc.Fake{}, found)
	args := f.Args("in.wav", "out.mp3")

	checks := [][]string{
		{"-i", "in.wav"},
		{"-b:a", "192k"},
		{"-map_metadata", "-1"},
		{"-y", "out.mp3"},
	}
	for _, pair := range checks {
		i := slices.Index(args, pair[0])
		if i < 0 || i+1 >= len(args) || args[i+1] != pair[1] {
			t.Errorf("args %v missing %v", args, pair)
		}
	}
}

// TestEncodeRunsFFmpeg verifies the resolved binary is invoked.
func TestEncodeRunsFFmpeg(t *testing.T) {
	fake := &proc.Fake{}
	f := NewWithRunner(Config{Bitrate: "128k"}, fake, found)
	if err := f.Encode(context.Background(), "a.wav", "a.mp3"); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("runner calls = %d, want 1", len(calls))
	}
	if calls[0].Name != "/usr/bin/ffmpeg" {
		t.Errorf("binary = %q", calls[0].Name)
	}
	if !slices.Contains(calls[0].Args, "128k") {
		t.Errorf("args %v missing configured bitrate", calls[0].Args)
	}
}

// TestEncodeUnavailable verifies a missing binary is reported and nothing runs.
func TestEncodeUnavailable(t *testing.T) {
	fake := &proc.Fake{}
	f := NewWithRunner(DefaultConfig(), fake, missing)
	if f.Available() {
		t.Error("Available() = true, want false")
	}
	err := f.Encode(context.Background(), "a.wav", "a.mp3")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Encode() error = %v, want ErrUnavailable", err)
	}
	if len(fake.Calls()) != 0 {
		t.Error("runner invoked without a binary")
	}
}

// TestEncodeFailureRemovesOutput verifies partial output is cleaned up.
func TestEncodeFailureRemovesOutput(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.mp3")
	fake := &proc.Fake{Respond: func(c proc.Command) (proc.Result, error) {
		_ = os.WriteFile(dst, []byte("partial"), 0o600)
		return proc.Result{ExitCode: 1}, errors.New("exit status 1")
	}}
	f := NewWithRunner(DefaultConfig(), fake, found)
	if err := f.Encode(context.Background(), filepath.Join(dir, "in.wav"), dst); err == nil {
		t.Fatal("Encode() error = nil, want failure")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("partial output left on disk")
	}
}

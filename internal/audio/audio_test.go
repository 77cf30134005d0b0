package audio

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func ramp(n, sampleRate int) *Clip {
	c := NewClip(sampleRate, 1)
	for i := 0; i < n; i++ {
		c.Samples = append(c.Samples, int16(i*100-n*50))
	}
	return c
}

// TestPCMRoundTrip verifies raw little-endian conversion in both directions.
func TestPCMRoundTrip(t *testing.T) {
	c := ramp(64, 22050)
	got := FromPCM16LE(c.PCM16LE(), 22050, 1)
	if !reflect.DeepEqual(got.Samples, c.Samples) {
		t.Errorf("samples differ after PCM round trip")
	}
	if odd := FromPCM16LE([]byte{1, 0, 9}, 8000, 1); len(odd.Samples) != 1 {
		t.Errorf("odd trailing byte not dropped: %d samples", len(odd.Samples))
	}
}

// TestDuration verifies duration is computed from frames and rate.
func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		clip *Clip
		want time.Duration
	}{
		{"one second mono", &Clip{SampleRate: 24000, Channels: 1, Samples: make([]int16, 24000)}, time.Second},
		{"half second stereo", &Clip{SampleRate: 1000, Channels: 2, Samples: make([]int16, 1000)}, 500 * time.Millisecond},
		{"no rate", &Clip{Samples: make([]int16, 10)}, 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.clip.Duration(); got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestConcat verifies clips join in order and formats must agree.
func TestConcat(t *testing.T) {
	a := &Clip{SampleRate: 8000, Channels: 1, Samples: []int16{1, 2}}
	b := &Clip{SampleRate: 8000, Channels: 1, Samples: []int16{3}}
	out, err := Concat(a, nil, b)
	if err != nil {
		t.Fatalf("Concat() error = %v", err)
	}
	if want := []int16{1, 2, 3}; !reflect.DeepEqual(out.Samples, want) {
		t.Errorf("Concat() = %v, want %v", out.Samples, want)
	}
	if a.Samples[0] != 1 || len(a.Samples) != 2 {
		t.Error("Concat mutated its input")
	}

	_, err = Concat(a, &Clip{SampleRate: 16000, Channels: 1, Samples: []int16{1}})
	if !errors.Is(err, ErrFormatMismatch) {
		t.Errorf("Concat() mismatched error = %v, want ErrFormatMismatch", err)
	}
	if _, err := Concat(); !errors.Is(err, ErrEmpty) {
		t.Errorf("Concat() empty error = %v, want ErrEmpty", err)
	}
}

// TestWAVFileRoundTrip verifies a clip survives being written and read back.
func TestWAVFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.wav")
	in := ramp(480, 24000)
	if err := WriteFile(path, in); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	out, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if out.SampleRate != 24000 || out.Channels != 1 {
		t.Errorf("format = %d Hz/%d ch, want 24000/1", out.SampleRate, out.Channels)
	}
	if !reflect.DeepEqual(out.Samples, in.Samples) {
		t.Errorf("samples differ after WAV round trip")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	fromBytes, err := DecodeBytes(b)
	if err != nil {
		t.Fatalf("DecodeBytes() error = %v", err)
	}
	if fromBytes.Duration() != in.Duration() {
		t.Errorf("DecodeBytes duration = %v, want %v", fromBytes.Duration(), in.Duration())
	}
}

// TestWriteFileEmpty verifies empty clips are rejected without leaving a file.
func TestWriteFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.wav")
	if err := WriteFile(path, NewClip(24000, 1)); !errors.Is(err, ErrEmpty) {
		t.Errorf("WriteFile() error = %v, want ErrEmpty", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("empty clip left a file behind")
	}
}

// TestDecodeInvalid verifies non-WAV input is rejected.
func TestDecodeInvalid(t *testing.T) {
	if _, err := DecodeBytes([]byte("definitely not riff data")); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("DecodeBytes() error = %v, want ErrInvalidWAV", err)
	}
}

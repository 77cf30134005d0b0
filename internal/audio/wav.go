package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// ErrInvalidWAV is returned when data is not a readable RIFF/WAVE stream.
var ErrInvalidWAV = errors.New("invalid wav data")

const pcmFormat = 1

// Encode writes c as a 16-bit PCM WAV stream.
func Encode(w io.WriteSeeker, c *Clip) error {
	if c.Empty() {
		return ErrEmpty
	}
	enc := wav.NewEncoder(w, c.SampleRate, BitDepth, c.Channels, pcmFormat)
	if err := enc.Write(c.buffer()); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

// WriteFile writes c to path as a WAV file, replacing any existing file.
// The file is removed again when encoding fails.
func WriteFile(path string, c *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Encode(f, c); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}

// Decode reads a PCM WAV stream into a 16-bit clip.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	return fromBuffer(buf, int(dec.BitDepth))
}

// DecodeBytes decodes an in-memory WAV file.
func DecodeBytes(b []byte) (*Clip, error) {
	return Decode(bytes.NewReader(b))
}

// ReadFile decodes the WAV file at path.
func ReadFile(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck
	return Decode(f)
}

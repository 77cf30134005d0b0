// Package encoder transcodes synthesized WAV files to MP3 with ffmpeg.
package encoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

// DefaultBitrate is the MP3 bitrate used when none is configured.
const DefaultBitrate = "192k"

// ErrUnavailable is returned by Encode when ffmpeg cannot be found.
var ErrUnavailable = errors.New("encoder not available")

// Config selects the encoder binary and output quality.
type Config struct {
	Binary  string        `mapstructure:"binary" yaml:"binary"`
	Bitrate string        `mapstructure:"bitrate" yaml:"bitrate"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfig returns the ffmpeg defaults.
func DefaultConfig() Config {
	return Config{
		Binary:  "ffmpeg",
		Bitrate: DefaultBitrate,
		Timeout: 10 * time.Minute,
	}
}

// FFmpeg wraps the ffmpeg command line.
type FFmpeg struct {
	cfg    Config
	runner proc.Runner
	lookup func(string) (string, error)

	once sync.Once
	path string
	err  error
}

// New creates an encoder that runs commands through os/exec.
func New(cfg Config) *FFmpeg {
	return NewWithRunner(cfg, proc.Exec{}, proc.Which)
}

// NewWithRunner creates an encoder with injected process execution, for tests.
func NewWithRunner(cfg Config, runner proc.Runner, lookup func(string) (string, error)) *FFmpeg {
	if cfg.Binary == "" {
		cfg.Binary = "ffmpeg"
	}
	if cfg.Bitrate == "" {
		cfg.Bitrate = DefaultBitrate
	}
	return &FFmpeg{cfg: cfg, runner: runner, lookup: lookup}
}

func (f *FFmpeg) resolve() (string, error) {
	f.once.Do(func() {
		f.path, f.err = f.lookup(f.cfg.Binary)
		if f.err != nil {
			f.err = fmt.Errorf("%w: %v", ErrUnavailable, f.err)
		}
	})
	return f.path, f.err
}

// Available reports whether the ffmpeg binary can be located. The lookup
// runs once per encoder.
func (f *FFmpeg) Available() bool {
	_, err := f.resolve()
	return err == nil
}

// Path returns the resolved binary path, or an empty string.
func (f *FFmpeg) Path() string {
	p, _ := f.resolve()
	return p
}

// Args returns the ffmpeg arguments used to turn src into an MP3 at dst:
// fixed bitrate, metadata stripped, existing output overwritten.
func (f *FFmpeg) Args(src, dst string) []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-i", src,
		"-codec:a", "libmp3lame",
		"-b:a", f.cfg.Bitrate,
		"-map_metadata", "-1",
		"-y", dst,
	}
}

// Encode transcodes src into dst. A partially written dst is removed on
// failure; src is left untouched.
func (f *FFmpeg) Encode(ctx context.Context, src, dst string) error {
	bin, err := f.resolve()
	if err != nil {
		return err
	}

	cmd := proc.Command{Name: bin, Args: f.Args(src, dst), Timeout: f.cfg.Timeout}
	log.Debug("Encoding audio", "src", src, "dst", dst, "bitrate", f.cfg.Bitrate)
	res, err := f.runner.Run(ctx, cmd)
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("ffmpeg encode failed: %w", err)
	}
	log.Debug("Encoded audio", "dst", dst, "elapsed", res.Elapsed)
	return nil
}

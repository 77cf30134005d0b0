// Package speech turns a single text buffer into one audio file,
// synthesizing it segment by segment.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
)

// SegmentSeparator splits the text into independently synthesized parts.
const SegmentSeparator = "\n\n\n"

// TempName is the intermediate WAV written before MP3 encoding.
const TempName = "temp_kokoro_output.wav"

var (
	// ErrNoText is returned for an empty or blank buffer.
	ErrNoText = errors.New("please enter some text to convert")
	// ErrNoAudio is returned when no segment produced audio.
	ErrNoAudio = errors.New("no audio generated")
	// ErrBusy is returned when a generation is already in progress.
	ErrBusy = errors.New("generation is already in progress")
)

// Encoder transcodes the intermediate WAV into an MP3.
type Encoder interface {
	Available() bool
	Encode(ctx context.Context, src, dst string) error
}

// Request describes one generation.
type Request struct {
	Text      string
	Voice     string
	Speed     float64
	Format    string
	OutputDir string
}

// Result describes the written file.
type Result struct {
	Path     string
	Segments int
	Stopped  bool
	Duration time.Duration
	Size     int64
	Samples  int
}

// Summary formats the result the way the success report shows it.
func (r Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Audio saved: %s\n", filepath.Base(r.Path))
	fmt.Fprintf(&sb, "  Location: %s\n", filepath.Dir(r.Path))
	fmt.Fprintf(&sb, "  Duration: %.2f seconds\n", r.Duration.Seconds())
	fmt.Fprintf(&sb, "  File size: %s", humanize.Bytes(uint64(r.Size)))
	return sb.String()
}

// Segments splits text on SegmentSeparator, dropping blank parts.
func Segments(text string) []string {
	var out []string
	for _, part := range strings.Split(text, SegmentSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// OutputName returns the file name for a generation.
func OutputName(voice string, segments int, format string) string {
	return fmt.Sprintf("kokoro_%s_%d.%s", voice, segments, format)
}

// Generator synthesizes requests with one engine. Only one generation runs
// at a time.
type Generator struct {
	engine  engine.Engine
	encoder Encoder

	running atomic.Bool
	stop    atomic.Bool
}

// NewGenerator creates a generator. encoder may be nil, in which case mp3
// requests fall back to WAV.
func NewGenerator(e engine.Engine, encoder Encoder) *Generator {
	return &Generator{engine: e, encoder: encoder}
}

// Stop makes the running generation finish after the current segment.
func (g *Generator) Stop() {
	if g.running.Load() {
		g.stop.Store(true)
		log.Warn("Stop requested (generation will finish current segment)")
	}
}

// Running reports whether a generation is in progress.
func (g *Generator) Running() bool {
	return g.running.Load()
}

// Generate synthesizes req. When stopped early the segments finished so
// far are still written.
func (g *Generator) Generate(ctx context.Context, req Request) (Result, error) {
	if !g.running.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer g.running.Store(false)
	g.stop.Store(false)

	segments := Segments(req.Text)
	if len(segments) == 0 {
		return Result{}, ErrNoText
	}
	if req.Format == "" {
		req.Format = "wav"
	}

	log.Info("Processing text", "voice", req.Voice, "speed", fmt.Sprintf("%.1fx", req.Speed), "segments", len(segments))
	sel := engine.Selector{Speaker: req.Voice, Speed: req.Speed}

	var res Result
	clip := &audio.Clip{}
	for i, seg := range segments {
		if g.stop.Load() {
			res.Stopped = true
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		part, err := g.engine.Synthesize(ctx, seg, sel)
		if err != nil {
			return res, fmt.Errorf("segment %d: %w", i+1, err)
		}
		if err := clip.Append(part); err != nil {
			return res, fmt.Errorf("segment %d: %w", i+1, err)
		}
		res.Segments++
		if res.Segments%10 == 0 {
			log.Debug("Processed segments", "count", res.Segments)
		}
	}
	if res.Segments == 0 || clip.Empty() {
		return res, ErrNoAudio
	}
	res.Samples = clip.Frames()
	res.Duration = clip.Duration()
	log.Info("Generated audio", "samples", res.Samples, "sample_rate", clip.SampleRate)

	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return res, fmt.Errorf("unable to create output folder: %w", err)
	}

	path, err := g.write(ctx, req, res.Segments, clip)
	if err != nil {
		return res, err
	}
	res.Path = path
	if info, err := os.Stat(path); err == nil {
		res.Size = info.Size()
	}
	log.Info("Audio saved", "file", filepath.Base(path), "duration", res.Duration.Round(10*time.Millisecond), "size", humanize.Bytes(uint64(res.Size)))
	return res, nil
}

func (g *Generator) write(ctx context.Context, req Request, segments int, clip *audio.Clip) (string, error) {
	if req.Format == "mp3" && g.encoder != nil && g.encoder.Available() {
		temp := filepath.Join(req.OutputDir, TempName)
		if err := audio.WriteFile(temp, clip); err != nil {
			return "", err
		}
		defer os.Remove(temp) //nolint:errcheck

		out := filepath.Join(req.OutputDir, OutputName(req.Voice, segments, "mp3"))
		log.Info("Converting to MP3")
		if err := g.encoder.Encode(ctx, temp, out); err != nil {
			return "", err
		}
		return out, nil
	}
	if req.Format == "mp3" {
		log.Warn("FFmpeg not available, saving WAV instead")
	}
	out := filepath.Join(req.OutputDir, OutputName(req.Voice, segments, "wav"))
	return out, audio.WriteFile(out, clip)
}

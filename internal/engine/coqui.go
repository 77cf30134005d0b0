package engine

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

// coquiChunk bounds the text passed per invocation, since the CLI takes
// text as an argument.
const coquiChunk = 4000

var quotedID = regexp.MustCompile(`'([^']+)'`)

// Coqui drives the Coqui TTS `tts` command line for one catalog model.
type Coqui struct {
	model  Model
	cfg    CoquiConfig
	runner proc.Runner
	lookup func(string) (string, error)

	mu       sync.RWMutex
	binary   string
	loaded   bool
	speakers []string
}

// NewCoqui creates a Coqui engine for model.
func NewCoqui(model Model, cfg CoquiConfig, runner proc.Runner) *Coqui {
	if cfg.Binary == "" {
		cfg.Binary = "tts"
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	return &Coqui{model: model, cfg: cfg, runner: runner, lookup: proc.Which}
}

// Name implements Engine.
func (c *Coqui) Name() string { return "coqui/" + c.model.Key }

// Kind implements Engine.
func (c *Coqui) Kind() Kind { return c.model.Kind }

// Loaded implements Engine.
func (c *Coqui) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Load verifies the CLI and, for multi-speaker models, lists speakers.
// The first call downloads the model, which can take several minutes.
func (c *Coqui) Load(ctx context.Context) ([]string, error) {
	bin, err := c.lookup(c.cfg.Binary)
	if err != nil {
		return nil, wrap(c.Name(), "load", err)
	}

	var speakers []string
	if c.model.Kind == KindMultiSpeaker {
		args := []string{"--model_name", c.model.ModelName, "--list_speaker_idxs"}
		res, err := c.runner.Run(ctx, proc.Command{Name: bin, Args: args, Timeout: c.cfg.Timeout})
		if err != nil {
			return nil, wrap(c.Name(), "load", err)
		}
		speakers = parseSpeakerList(string(res.Stdout))
		if len(speakers) == 0 {
			return nil, wrap(c.Name(), "load", fmt.Errorf("%w: model reported no speakers", ErrUnknownSpeaker))
		}
	}

	c.mu.Lock()
	c.binary = bin
	c.speakers = speakers
	c.loaded = true
	c.mu.Unlock()
	log.Debug("Coqui model ready", "model", c.model.ModelName, "speakers", len(speakers))
	return speakers, nil
}

// parseSpeakerList extracts quoted speaker ids from the CLI listing.
func parseSpeakerList(out string) []string {
	start := strings.Index(out, "{")
	if i := strings.Index(out, "dict_keys(["); i >= 0 && (start < 0 || i < start) {
		start = i
	}
	if start < 0 {
		start = 0
	}
	seen := map[string]bool{}
	var ids []string
	for _, m := range quotedID.FindAllStringSubmatch(out[start:], -1) {
		if id := m[1]; !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Args returns the CLI arguments for one chunk written to out.
func (c *Coqui) Args(text, out string, sel Selector) []string {
	args := []string{"--model_name", c.model.ModelName, "--text", text, "--out_path", out}
	switch c.model.Kind {
	case KindMultiSpeaker:
		args = append(args, "--speaker_idx", sel.Speaker)
	case KindVoiceClone:
		lang := sel.Language
		if lang == "" {
			lang = c.cfg.Language
		}
		args = append(args, "--speaker_wav", sel.ReferenceWAV, "--language_idx", lang)
	}
	if c.cfg.UseCUDA {
		args = append(args, "--use_cuda", "true")
	}
	return args
}

// Synthesize implements Engine. Long text is synthesized in chunks that
// are joined into one clip.
func (c *Coqui) Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error) {
	if !c.Loaded() {
		return nil, wrap(c.Name(), "synthesize", ErrNotLoaded)
	}
	if err := CheckSelector(c.model.Kind, sel); err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}
	chunks := Chunk(text, coquiChunk)
	if len(chunks) == 0 {
		return nil, wrap(c.Name(), "synthesize", ErrEmptyText)
	}

	c.mu.RLock()
	bin := c.binary
	c.mu.RUnlock()

	tmp, err := os.CreateTemp("", "kokoro-coqui-*.wav")
	if err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}
	out := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(out) //nolint:errcheck

	clip := &audio.Clip{}
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, wrap(c.Name(), "synthesize", err)
		}
		cmd := proc.Command{Name: bin, Args: c.Args(chunk, out, sel), Timeout: c.cfg.Timeout}
		if _, err := c.runner.Run(ctx, cmd); err != nil {
			return nil, wrap(c.Name(), "synthesize", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
		}
		part, err := audio.ReadFile(out)
		if err != nil {
			return nil, wrap(c.Name(), "synthesize", fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
		}
		if err := clip.Append(part); err != nil {
			return nil, wrap(c.Name(), "synthesize", err)
		}
	}
	if clip.Empty() {
		return nil, wrap(c.Name(), "synthesize", ErrNoAudio)
	}
	return clip, nil
}

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

// Command runs an arbitrary synthesizer that reads a text file and writes
// a WAV file, such as the kokoro-tts CLI.
type Command struct {
	name   string
	cfg    CommandConfig
	runner proc.Runner
	lookup func(string) (string, error)

	mu     sync.RWMutex
	binary string
	loaded bool
}

// NewCommand creates a command engine.
func NewCommand(name string, cfg CommandConfig, runner proc.Runner) *Command {
	return &Command{name: name, cfg: cfg, runner: runner, lookup: proc.Which}
}

// Name implements Engine.
func (c *Command) Name() string { return c.name }

// Kind implements Engine.
func (c *Command) Kind() Kind {
	if len(c.cfg.Voices) == 0 {
		return KindSingleVoice
	}
	return KindMultiSpeaker
}

// Loaded implements Engine.
func (c *Command) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Load resolves the binary and returns the configured voices.
func (c *Command) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(c.Name(), "load", err)
	}
	if c.cfg.Binary == "" || len(c.cfg.Args) == 0 {
		return nil, wrap(c.Name(), "load", fmt.Errorf("%w: command.binary and command.args", ErrMissingConfig))
	}
	if !hasPlaceholder(c.cfg.Args, "{out}") {
		return nil, wrap(c.Name(), "load", fmt.Errorf("%w: command.args must contain {out}", ErrMissingConfig))
	}
	bin, err := c.lookup(c.cfg.Binary)
	if err != nil {
		return nil, wrap(c.Name(), "load", err)
	}
	c.mu.Lock()
	c.binary = bin
	c.loaded = true
	c.mu.Unlock()
	return append([]string(nil), c.cfg.Voices...), nil
}

func hasPlaceholder(args []string, p string) bool {
	for _, a := range args {
		if strings.Contains(a, p) {
			return true
		}
	}
	return false
}

// Expand substitutes the placeholders in the configured arguments.
func (c *Command) Expand(textFile, out string, sel Selector) []string {
	lang := sel.Language
	if lang == "" && len(sel.Speaker) > 2 && sel.Speaker[2] == '_' {
		// Kokoro voice ids start with their language letter.
		lang = sel.Speaker[:1]
	}
	r := strings.NewReplacer(
		"{text_file}", textFile,
		"{out}", out,
		"{voice}", sel.Speaker,
		"{speed}", strconv.FormatFloat(speedOrDefault(sel.Speed, 0.5, 2), 'f', 2, 64),
		"{lang}", lang,
	)
	args := make([]string, len(c.cfg.Args))
	for i, a := range c.cfg.Args {
		args[i] = r.Replace(a)
	}
	return args
}

// Synthesize implements Engine.
func (c *Command) Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error) {
	if !c.Loaded() {
		return nil, wrap(c.Name(), "synthesize", ErrNotLoaded)
	}
	if strings.TrimSpace(text) == "" {
		return nil, wrap(c.Name(), "synthesize", ErrEmptyText)
	}
	if err := CheckSelector(c.Kind(), sel); err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}

	dir, err := os.MkdirTemp("", "kokoro-cmd-")
	if err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	textFile := filepath.Join(dir, "input.txt")
	out := filepath.Join(dir, "output.wav")
	if err := os.WriteFile(textFile, []byte(text), 0o600); err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}

	c.mu.RLock()
	bin := c.binary
	c.mu.RUnlock()

	cmd := proc.Command{Name: bin, Args: c.Expand(textFile, out, sel), Timeout: c.cfg.Timeout}
	if _, err := c.runner.Run(ctx, cmd); err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}
	clip, err := audio.ReadFile(out)
	if err != nil {
		return nil, wrap(c.Name(), "synthesize", err)
	}
	if clip.Empty() {
		return nil, wrap(c.Name(), "synthesize", ErrNoAudio)
	}
	return clip, nil
}

package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/valyala/fastjson"
)

// PiperSampleRate is used when the model config does not state a rate.
const PiperSampleRate = 22050

// Piper runs the piper CLI, streaming raw PCM from stdout.
type Piper struct {
	cfg    PiperConfig
	runner proc.Runner
	lookup func(string) (string, error)

	mu         sync.RWMutex
	loaded     bool
	binary     string
	configPath string
	sampleRate int
	speakerIDs map[string]int
	speakers   []string
}

// NewPiper creates a piper engine.
func NewPiper(cfg PiperConfig, runner proc.Runner) *Piper {
	if cfg.Binary == "" {
		cfg.Binary = "piper"
	}
	return &Piper{cfg: cfg, runner: runner, lookup: proc.Which}
}

// Name implements Engine.
func (p *Piper) Name() string { return "piper" }

// Kind implements Engine. A loaded model without a speaker map is
// single-voice.
func (p *Piper) Kind() Kind {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.loaded && len(p.speakerIDs) == 0 {
		return KindSingleVoice
	}
	return KindMultiSpeaker
}

// Loaded implements Engine.
func (p *Piper) Loaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

// ConfigPath returns the model config location: the configured path, or
// the model path with ".json" appended.
func (p *Piper) ConfigPath() string {
	if p.cfg.Config != "" {
		return p.cfg.Config
	}
	return strings.TrimSuffix(p.cfg.Model, ".onnx") + ".onnx.json"
}

// Load locates the binary and reads the model's speaker map.
func (p *Piper) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(p.Name(), "load", err)
	}
	if p.cfg.Model == "" {
		return nil, wrap(p.Name(), "load", fmt.Errorf("%w: piper.model", ErrMissingConfig))
	}
	bin, err := p.lookup(p.cfg.Binary)
	if err != nil {
		return nil, wrap(p.Name(), "load", err)
	}
	if _, err := os.Stat(p.cfg.Model); err != nil {
		return nil, wrap(p.Name(), "load", fmt.Errorf("model not found: %w", err))
	}
	cfgPath := p.ConfigPath()
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, wrap(p.Name(), "load", fmt.Errorf("model config not found: %w", err))
	}
	rate, ids, err := parsePiperConfig(data)
	if err != nil {
		return nil, wrap(p.Name(), "load", err)
	}

	speakers := make([]string, 0, len(ids))
	for name := range ids {
		speakers = append(speakers, name)
	}
	sort.Slice(speakers, func(i, j int) bool { return ids[speakers[i]] < ids[speakers[j]] })

	p.mu.Lock()
	p.binary = bin
	p.configPath = cfgPath
	p.sampleRate = rate
	p.speakerIDs = ids
	p.speakers = speakers
	p.loaded = true
	p.mu.Unlock()

	log.Debug("Piper model loaded", "model", p.cfg.Model, "sample_rate", rate, "speakers", len(speakers))
	return speakers, nil
}

// parsePiperConfig reads the sample rate and speaker map of a piper
// .onnx.json file.
func parsePiperConfig(data []byte) (int, map[string]int, error) {
	var parser fastjson.Parser
	v, err := parser.ParseBytes(data)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid model config: %w", err)
	}
	rate := v.GetInt("audio", "sample_rate")
	if rate <= 0 {
		rate = PiperSampleRate
	}
	ids := make(map[string]int)
	if obj := v.GetObject("speaker_id_map"); obj != nil {
		obj.Visit(func(k []byte, id *fastjson.Value) {
			ids[string(k)] = id.GetInt()
		})
	}
	if len(ids) == 0 {
		if n := v.GetInt("num_speakers"); n > 1 {
			for i := 0; i < n; i++ {
				ids[strconv.Itoa(i)] = i
			}
		}
	}
	return rate, ids, nil
}

// Args returns the piper arguments for one synthesis call.
func (p *Piper) Args(sel Selector) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	args := []string{"--model", p.cfg.Model, "--config", p.configPath, "--output-raw"}
	if len(p.speakerIDs) > 0 {
		id, ok := p.speakerIDs[ParseSpeakerLabel(sel.Speaker)]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpeaker, sel.Speaker)
		}
		args = append(args, "--speaker", strconv.Itoa(id))
	}
	if speed := speedOrDefault(sel.Speed, 0.25, 4); speed != 1 {
		args = append(args, "--length-scale", strconv.FormatFloat(1/speed, 'f', 3, 64))
	}
	return args, nil
}

// Synthesize implements Engine.
func (p *Piper) Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error) {
	if !p.Loaded() {
		return nil, wrap(p.Name(), "synthesize", ErrNotLoaded)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, wrap(p.Name(), "synthesize", ErrEmptyText)
	}
	args, err := p.Args(sel)
	if err != nil {
		return nil, wrap(p.Name(), "synthesize", err)
	}

	p.mu.RLock()
	bin, rate := p.binary, p.sampleRate
	p.mu.RUnlock()

	res, err := p.runner.Run(ctx, proc.Command{Name: bin, Args: args, Stdin: text + "\n", Timeout: p.cfg.Timeout})
	if err != nil {
		return nil, wrap(p.Name(), "synthesize", err)
	}
	if len(res.Stdout) == 0 {
		return nil, wrap(p.Name(), "synthesize", ErrNoAudio)
	}
	return audio.FromPCM16LE(res.Stdout, rate, 1), nil
}

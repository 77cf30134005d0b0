package engine

import (
	"fmt"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

// Model is a selectable entry of the model list.
type Model struct {
	Key     string
	Name    string
	Backend string
	Kind    Kind
	// ModelName is the backend's own identifier, where it has one.
	ModelName string
}

// Coqui model identifiers.
const (
	VCTKModel = "tts_models/en/vctk/vits"
	XTTSModel = "tts_models/multilingual/multi-dataset/xtts_v2"
)

// Catalog lists the models offered for selection. The first entry is the
// default for new settings.
var Catalog = []Model{
	{Key: "vctk", Name: "VCTK (Multi-Voice)", Backend: "coqui", Kind: KindMultiSpeaker, ModelName: VCTKModel},
	{Key: "xtts", Name: "XTTS-v2 (High Quality)", Backend: "coqui", Kind: KindVoiceClone, ModelName: XTTSModel},
	{Key: "piper", Name: "Piper (Local ONNX)", Backend: "piper", Kind: KindMultiSpeaker},
	{Key: "kokoro", Name: "Kokoro-82M", Backend: "command", Kind: KindMultiSpeaker},
	{Key: "google", Name: "Google Cloud TTS", Backend: "google", Kind: KindMultiSpeaker},
	{Key: "openai", Name: "OpenAI Speech", Backend: "openai", Kind: KindMultiSpeaker},
	{Key: "mock", Name: "Test Tones", Backend: "mock", Kind: KindMultiSpeaker},
}

// Lookup finds a catalog entry by key or display name.
func Lookup(key string) (Model, bool) {
	for _, m := range Catalog {
		if m.Key == key || m.Name == key {
			return m, true
		}
	}
	return Model{}, false
}

// Keys returns the catalog keys in order.
func Keys() []string {
	keys := make([]string, len(Catalog))
	for i, m := range Catalog {
		keys[i] = m.Key
	}
	return keys
}

// New builds the engine for a catalog key. The engine is not loaded.
func New(key string, cfg Config, runner proc.Runner) (Engine, error) {
	m, ok := Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, key)
	}
	if runner == nil {
		runner = proc.Exec{}
	}
	switch m.Backend {
	case "coqui":
		return NewCoqui(m, cfg.Coqui, runner), nil
	case "piper":
		return NewPiper(cfg.Piper, runner), nil
	case "command":
		return NewCommand(m.Key, cfg.Command, runner), nil
	case "google":
		return NewGoogle(cfg.Google), nil
	case "openai":
		return NewOpenAI(cfg.OpenAI), nil
	case "mock":
		return NewMock(MockOptions{Speakers: []string{"low", "mid", "high"}}), nil
	}
	return nil, fmt.Errorf("%w: backend %q", ErrUnknownModel, m.Backend)
}

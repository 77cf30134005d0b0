package engine

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/sashabaranov/go-openai"
)

const (
	openAISampleRate = 24000
	openAIChunk      = 4000
)

// OpenAIVoices are the voices offered by the speech endpoint.
var OpenAIVoices = []string{
	string(openai.VoiceAlloy),
	string(openai.VoiceEcho),
	string(openai.VoiceFable),
	string(openai.VoiceOnyx),
	string(openai.VoiceNova),
	string(openai.VoiceShimmer),
}

// OpenAI synthesizes with the OpenAI audio/speech endpoint, requesting
// raw 24 kHz PCM.
type OpenAI struct {
	cfg OpenAIConfig

	mu     sync.RWMutex
	client *openai.Client
}

// NewOpenAI creates an OpenAI engine.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = string(openai.TTSModel1)
	}
	return &OpenAI{cfg: cfg}
}

// Name implements Engine.
func (o *OpenAI) Name() string { return "openai" }

// Kind implements Engine.
func (o *OpenAI) Kind() Kind { return KindMultiSpeaker }

// Loaded implements Engine.
func (o *OpenAI) Loaded() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.client != nil
}

// Load builds the API client. No request is made.
func (o *OpenAI) Load(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrap(o.Name(), "load", err)
	}
	if o.cfg.APIKey == "" {
		return nil, wrap(o.Name(), "load", fmt.Errorf("%w: openai.api_key", ErrMissingConfig))
	}
	conf := openai.DefaultConfig(o.cfg.APIKey)
	if o.cfg.BaseURL != "" {
		conf.BaseURL = o.cfg.BaseURL
	}
	o.mu.Lock()
	o.client = openai.NewClientWithConfig(conf)
	o.mu.Unlock()
	return append([]string(nil), OpenAIVoices...), nil
}

// Synthesize implements Engine.
func (o *OpenAI) Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error) {
	o.mu.RLock()
	client := o.client
	o.mu.RUnlock()
	if client == nil {
		return nil, wrap(o.Name(), "synthesize", ErrNotLoaded)
	}
	if err := CheckSelector(KindMultiSpeaker, sel); err != nil {
		return nil, wrap(o.Name(), "synthesize", err)
	}
	chunks := Chunk(text, openAIChunk)
	if len(chunks) == 0 {
		return nil, wrap(o.Name(), "synthesize", ErrEmptyText)
	}

	clip := audio.NewClip(openAISampleRate, 1)
	for _, chunk := range chunks {
		resp, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          openai.SpeechModel(o.cfg.Model),
			Input:          chunk,
			Voice:          openai.SpeechVoice(sel.Speaker),
			ResponseFormat: openai.SpeechResponseFormatPcm,
			Speed:          speedOrDefault(sel.Speed, 0.25, 4),
		})
		if err != nil {
			return nil, wrap(o.Name(), "synthesize", err)
		}
		pcm, err := io.ReadAll(resp)
		_ = resp.Close()
		if err != nil {
			return nil, wrap(o.Name(), "synthesize", err)
		}
		if err := clip.Append(audio.FromPCM16LE(pcm, openAISampleRate, 1)); err != nil {
			return nil, wrap(o.Name(), "synthesize", err)
		}
	}
	if clip.Empty() {
		return nil, wrap(o.Name(), "synthesize", ErrNoAudio)
	}
	return clip, nil
}

package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"google.golang.org/api/option"
)

const (
	googleSampleRate = 24000
	// The API rejects requests over 5000 bytes of input.
	googleChunk = 4500
)

// Google synthesizes with Google Cloud Text-to-Speech.
type Google struct {
	cfg GoogleConfig

	mu     sync.RWMutex
	client *texttospeech.Client
	voices []string
}

// NewGoogle creates a Google engine.
func NewGoogle(cfg GoogleConfig) *Google {
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	return &Google{cfg: cfg}
}

// Name implements Engine.
func (g *Google) Name() string { return "google" }

// Kind implements Engine.
func (g *Google) Kind() Kind { return KindMultiSpeaker }

// Loaded implements Engine.
func (g *Google) Loaded() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.client != nil
}

func (g *Google) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if g.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.cfg.CredentialsFile))
	}
	if g.cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(g.cfg.APIKey))
	}
	return opts
}

// Load connects and lists the voices for the configured language.
func (g *Google) Load(ctx context.Context) ([]string, error) {
	client, err := texttospeech.NewClient(ctx, g.clientOptions()...)
	if err != nil {
		return nil, wrap(g.Name(), "load", err)
	}
	resp, err := client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{LanguageCode: g.cfg.LanguageCode})
	if err != nil {
		_ = client.Close()
		return nil, wrap(g.Name(), "load", err)
	}
	voices := make([]string, 0, len(resp.GetVoices()))
	for _, v := range resp.GetVoices() {
		voices = append(voices, v.GetName())
	}
	sort.Strings(voices)
	if len(voices) == 0 {
		_ = client.Close()
		return nil, wrap(g.Name(), "load", fmt.Errorf("%w: no voices for %s", ErrUnknownSpeaker, g.cfg.LanguageCode))
	}

	g.mu.Lock()
	if g.client != nil {
		_ = g.client.Close()
	}
	g.client = client
	g.voices = voices
	g.mu.Unlock()
	log.Debug("Google voices listed", "language", g.cfg.LanguageCode, "count", len(voices))
	return voices, nil
}

// Synthesize implements Engine.
func (g *Google) Synthesize(ctx context.Context, text string, sel Selector) (*audio.Clip, error) {
	g.mu.RLock()
	client := g.client
	g.mu.RUnlock()
	if client == nil {
		return nil, wrap(g.Name(), "synthesize", ErrNotLoaded)
	}
	if err := CheckSelector(KindMultiSpeaker, sel); err != nil {
		return nil, wrap(g.Name(), "synthesize", err)
	}
	chunks := Chunk(text, googleChunk)
	if len(chunks) == 0 {
		return nil, wrap(g.Name(), "synthesize", ErrEmptyText)
	}
	lang := sel.Language
	if lang == "" {
		lang = g.cfg.LanguageCode
	}

	clip := &audio.Clip{}
	for _, chunk := range chunks {
		resp, err := client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{Text: chunk},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: lang,
				Name:         sel.Speaker,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
				SampleRateHertz: googleSampleRate,
				SpeakingRate:    speedOrDefault(sel.Speed, 0.25, 4),
			},
		})
		if err != nil {
			return nil, wrap(g.Name(), "synthesize", err)
		}
		part, err := decodeLinear16(resp.GetAudioContent(), googleSampleRate)
		if err != nil {
			return nil, wrap(g.Name(), "synthesize", err)
		}
		if err := clip.Append(part); err != nil {
			return nil, wrap(g.Name(), "synthesize", err)
		}
	}
	if clip.Empty() {
		return nil, wrap(g.Name(), "synthesize", ErrNoAudio)
	}
	return clip, nil
}

// decodeLinear16 accepts LINEAR16 payloads with or without a WAV header.
func decodeLinear16(b []byte, sampleRate int) (*audio.Clip, error) {
	if len(b) == 0 {
		return nil, ErrNoAudio
	}
	if clip, err := audio.DecodeBytes(b); err == nil {
		return clip, nil
	}
	return audio.FromPCM16LE(b, sampleRate, 1), nil
}

// Close releases the API client.
func (g *Google) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

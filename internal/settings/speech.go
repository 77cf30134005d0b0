package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

// SpeechFile is the file name of the speech tool settings.
const SpeechFile = "kokoro-settings.json"

// Speed limits accepted by the speech tool.
const (
	MinSpeed = 0.5
	MaxSpeed = 2.0
)

// LogLevels are the console filter choices, least to most severe after ALL.
var LogLevels = []string{"ALL", "DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}

// Speech holds the speech tool's persisted state.
type Speech struct {
	Voice          string  `json:"voice"`
	Speed          float64 `json:"speed"`
	OutputFormat   string  `json:"output_format"`
	OutputPath     string  `json:"output_path"`
	TextInput      string  `json:"text_input"`
	ConsoleVisible bool    `json:"console_visible"`
	LogLevelFilter string  `json:"log_level_filter"`
}

// DefaultSpeech returns the first-run speech settings. Voice is left empty
// and resolved against the engine's voice list.
func DefaultSpeech() Speech {
	return Speech{
		Speed:          1.0,
		OutputFormat:   "wav",
		OutputPath:     DefaultDestination(),
		LogLevelFilter: "INFO",
	}
}

// Validate checks loaded values against what the running system supports
// and replaces unusable ones with defaults. voices is the engine's voice
// list and mp3 reports whether the encoder is available.
func (s *Speech) Validate(voices []string, mp3 bool) []string {
	def := DefaultSpeech()
	var changes []string

	if len(voices) > 0 && !slices.Contains(voices, s.Voice) {
		if s.Voice != "" {
			changes = append(changes, fmt.Sprintf("unknown voice %q replaced with %q", s.Voice, voices[0]))
		}
		s.Voice = voices[0]
	}
	if s.Speed < MinSpeed || s.Speed > MaxSpeed {
		changes = append(changes, fmt.Sprintf("speed %.2f outside %.1f-%.1f", s.Speed, MinSpeed, MaxSpeed))
		s.Speed = def.Speed
	}
	switch s.OutputFormat {
	case "wav":
	case "mp3":
		if !mp3 {
			changes = append(changes, "mp3 output needs ffmpeg, using wav")
			s.OutputFormat = "wav"
		}
	default:
		changes = append(changes, fmt.Sprintf("unknown output format %q", s.OutputFormat))
		s.OutputFormat = def.OutputFormat
	}
	if s.OutputPath == "" || !pathUsable(s.OutputPath) {
		if s.OutputPath != "" {
			changes = append(changes, fmt.Sprintf("output path %s does not exist", s.OutputPath))
		}
		s.OutputPath = def.OutputPath
	}
	if !slices.Contains(LogLevels, s.LogLevelFilter) {
		s.LogLevelFilter = def.LogLevelFilter
	}
	return changes
}

func pathUsable(p string) bool {
	if _, err := os.Stat(p); err == nil {
		return true
	}
	_, err := os.Stat(filepath.Dir(p))
	return err == nil
}

// NewSpeechStore returns the store for kokoro-settings.json in dir.
func NewSpeechStore(dir string) *Store[Speech] {
	return NewStore(filepath.Join(dir, SpeechFile), DefaultSpeech)
}

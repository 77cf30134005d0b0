package engine

import "time"

// Config holds the per-backend settings read from the config file.
type Config struct {
	Piper   PiperConfig   `mapstructure:"piper" yaml:"piper"`
	Coqui   CoquiConfig   `mapstructure:"coqui" yaml:"coqui"`
	Command CommandConfig `mapstructure:"command" yaml:"command"`
	Google  GoogleConfig  `mapstructure:"google" yaml:"google"`
	OpenAI  OpenAIConfig  `mapstructure:"openai" yaml:"openai"`
}

// PiperConfig configures the piper CLI.
type PiperConfig struct {
	Binary  string        `mapstructure:"binary" yaml:"binary"`
	Model   string        `mapstructure:"model" yaml:"model"`
	Config  string        `mapstructure:"config" yaml:"config"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CoquiConfig configures the Coqui `tts` CLI.
type CoquiConfig struct {
	Binary   string        `mapstructure:"binary" yaml:"binary"`
	Language string        `mapstructure:"language" yaml:"language"`
	UseCUDA  bool          `mapstructure:"use_cuda" yaml:"use_cuda"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CommandConfig configures a generic synthesizer command. Args may use
// the placeholders {text_file}, {out}, {voice}, {speed} and {lang}.
type CommandConfig struct {
	Binary  string        `mapstructure:"binary" yaml:"binary"`
	Args    []string      `mapstructure:"args" yaml:"args"`
	Voices  []string      `mapstructure:"voices" yaml:"voices"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// GoogleConfig configures Google Cloud Text-to-Speech.
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	APIKey          string `mapstructure:"api_key" yaml:"api_key"`
	LanguageCode    string `mapstructure:"language_code" yaml:"language_code"`
}

// OpenAIConfig configures the OpenAI speech endpoint.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// KokoroVoices are the Kokoro-82M voice ids.
var KokoroVoices = []string{
	"af_bella", "af_sarah", "af_sky", "af_heart", "af_nicole",
	"af_alloy", "af_aoede", "af_river", "af_nova", "af_jessica", "af_kore",
	"am_adam", "am_michael", "am_eric", "am_onyx", "am_liam",
	"am_echo", "am_fenrir", "am_puck", "am_santa",
}

// DefaultConfig returns the backend defaults.
func DefaultConfig() Config {
	return Config{
		Piper: PiperConfig{
			Binary:  "piper",
			Timeout: 30 * time.Minute,
		},
		Coqui: CoquiConfig{
			Binary:   "tts",
			Language: "en",
			Timeout:  60 * time.Minute,
		},
		Command: CommandConfig{
			Binary:  "kokoro-tts",
			Args:    []string{"{text_file}", "{out}", "--voice", "{voice}", "--speed", "{speed}"},
			Voices:  KokoroVoices,
			Timeout: 60 * time.Minute,
		},
		Google: GoogleConfig{
			LanguageCode: "en-US",
		},
		OpenAI: OpenAIConfig{
			Model: "tts-1",
		},
	}
}

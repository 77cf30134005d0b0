package config

import (
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/spf13/viper"
)

// DefaultFile is written when no configuration file exists yet.
const DefaultFile = `# model used when the settings file has none:
# vctk, xtts, piper, kokoro, google, openai or mock
model: "vctk"
# first-run output folder
destination: "~/Downloads"
# first-run "optimize MP3" choice (needs ffmpeg)
encode: true

queue:
  # reverse converts the last queued document first; forward starts at the top
  order: "reverse"

# Piper (local ONNX voices)
piper:
  binary: "piper"
  # model: "~/voices/en_US-libritts_r-medium.onnx"
  # config: "~/voices/en_US-libritts_r-medium.onnx.json"
  timeout: "30m"

# Coqui TTS command line (VCTK and XTTS-v2 models)
coqui:
  binary: "tts"
  language: "en"
  use_cuda: false
  timeout: "60m"

# Generic synthesizer command, used for the Kokoro voices.
# Placeholders: {text_file} {out} {voice} {speed} {lang}
command:
  binary: "kokoro-tts"
  args: ["{text_file}", "{out}", "--voice", "{voice}", "--speed", "{speed}"]
  timeout: "60m"

google:
  # credentials_file: "~/gcp-tts.json"
  language_code: "en-US"

openai:
  # api_key: "sk-..."
  model: "tts-1"

encoder:
  binary: "ffmpeg"
  bitrate: "192k"
  timeout: "10m"

# zstd-compressed cache of extracted document text
cache:
  enabled: true
  # dir: "~/.cache/kokoro/text"
  max_bytes: 67108864
  level: 3

# settings:
#   dir: "~/.local/share/kokoro"
`

// SetDefaults registers every key with its default so that environment
// variables and flags can override keys absent from the file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("model", d.Model)
	v.SetDefault("destination", d.Destination)
	v.SetDefault("encode", d.Encode)
	v.SetDefault("debug", false)

	v.SetDefault("queue.order", d.Queue.Order)

	v.SetDefault("piper.binary", d.Engines.Piper.Binary)
	v.SetDefault("piper.model", d.Engines.Piper.Model)
	v.SetDefault("piper.config", d.Engines.Piper.Config)
	v.SetDefault("piper.timeout", d.Engines.Piper.Timeout)

	v.SetDefault("coqui.binary", d.Engines.Coqui.Binary)
	v.SetDefault("coqui.language", d.Engines.Coqui.Language)
	v.SetDefault("coqui.use_cuda", d.Engines.Coqui.UseCUDA)
	v.SetDefault("coqui.timeout", d.Engines.Coqui.Timeout)

	v.SetDefault("command.binary", d.Engines.Command.Binary)
	v.SetDefault("command.args", d.Engines.Command.Args)
	v.SetDefault("command.voices", d.Engines.Command.Voices)
	v.SetDefault("command.timeout", d.Engines.Command.Timeout)

	v.SetDefault("google.credentials_file", d.Engines.Google.CredentialsFile)
	v.SetDefault("google.api_key", d.Engines.Google.APIKey)
	v.SetDefault("google.language_code", d.Engines.Google.LanguageCode)

	v.SetDefault("openai.api_key", d.Engines.OpenAI.APIKey)
	v.SetDefault("openai.base_url", d.Engines.OpenAI.BaseURL)
	v.SetDefault("openai.model", d.Engines.OpenAI.Model)

	v.SetDefault("encoder.binary", d.Encoder.Binary)
	v.SetDefault("encoder.bitrate", d.Encoder.Bitrate)
	v.SetDefault("encoder.timeout", d.Encoder.Timeout)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.max_bytes", d.Cache.MaxBytes)
	v.SetDefault("cache.level", d.Cache.Level)

	v.SetDefault("settings.dir", d.Settings.Dir)
}

// Load decodes the effective configuration from v, expands paths and
// validates the result.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("unable to decode configuration: %w", err)
	}
	cfg.Expand()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// YAML renders the configuration, hiding secrets.
func (c Config) YAML() ([]byte, error) {
	if c.Engines.OpenAI.APIKey != "" {
		c.Engines.OpenAI.APIKey = "********"
	}
	if c.Engines.Google.APIKey != "" {
		c.Engines.Google.APIKey = "********"
	}
	return yaml.Marshal(c)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, file string) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	if file != "" {
		path := filepath.Join(t.TempDir(), "kokoro.yml")
		if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
			t.Fatal(err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			t.Fatalf("ReadInConfig() error = %v", err)
		}
	}
	return v
}

// TestDefaultConfig tests that the default configuration is valid.
func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.Queue.Order != "reverse" {
		t.Errorf("default order = %q, want reverse", cfg.Queue.Order)
	}
}

// TestDefaultFileMatchesDefaults verifies the commented template decodes
// to a valid configuration.
func TestDefaultFileMatchesDefaults(t *testing.T) {
	cfg, err := Load(newViper(t, DefaultFile))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "vctk" || !cfg.Encode || cfg.Encoder.Bitrate != "192k" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Engines.Piper.Timeout != 30*time.Minute {
		t.Errorf("piper timeout = %v", cfg.Engines.Piper.Timeout)
	}
	if strings.HasPrefix(cfg.Destination, "~") {
		t.Errorf("destination not expanded: %q", cfg.Destination)
	}
}

// TestLoadOverrides verifies file values, nested keys and overrides.
func TestLoadOverrides(t *testing.T) {
	v := newViper(t, `
model: piper
queue:
  order: forward
piper:
  model: /voices/a.onnx
command:
  args: ["-o", "{out}", "-i", "{text_file}"]
`)
	v.Set("encode", false)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "piper" || cfg.Queue.Order != "forward" || cfg.Encode {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Engines.Piper.Model != "/voices/a.onnx" || cfg.Engines.Piper.Binary != "piper" {
		t.Errorf("piper = %+v", cfg.Engines.Piper)
	}
	if len(cfg.Engines.Command.Args) != 4 {
		t.Errorf("command args = %v", cfg.Engines.Command.Args)
	}
}

// TestConfigValidation tests configuration validation.
func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"valid config", func(*Config) {}, ""},
		{"unknown model", func(c *Config) { c.Model = "espeak" }, "invalid model"},
		{"bad order", func(c *Config) { c.Queue.Order = "sideways" }, "invalid queue order"},
		{"tiny cache", func(c *Config) { c.Cache.MaxBytes = 10 }, "max_bytes"},
		{"bad level", func(c *Config) { c.Cache.Level = 9 }, "level"},
		{"no bitrate", func(c *Config) { c.Encoder.Bitrate = "" }, "bitrate"},
		{"command without out", func(c *Config) { c.Engines.Command.Args = []string{"{text_file}"} }, "{out}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

// TestYAMLHidesSecrets verifies config show output.
func TestYAMLHidesSecrets(t *testing.T) {
	cfg := Default()
	cfg.Engines.OpenAI.APIKey = "sk-secret"
	out, err := cfg.YAML()
	if err != nil {
		t.Fatal(err)
	}
	s := string(out)
	if strings.Contains(s, "sk-secret") || !strings.Contains(s, "********") {
		t.Errorf("secret leaked or missing mask:\n%s", s)
	}
	if !strings.Contains(s, "piper:") || !strings.Contains(s, "order: reverse") {
		t.Errorf("unexpected yaml:\n%s", s)
	}
}

// Package config holds the typed application configuration read from the
// kokoro.yml file, KOKORO_* environment variables and command line flags.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/encoder"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/extract"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/runner"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
	gap "github.com/muesli/go-app-paths"
	"github.com/mitchellh/go-homedir"
)

// AppName scopes the configuration, data and cache directories.
const AppName = "kokoro"

// Config is the complete application configuration.
type Config struct {
	// Model is the catalog key used when the settings file names none.
	Model string `mapstructure:"model" yaml:"model"`
	// Destination is the first-run output folder.
	Destination string `mapstructure:"destination" yaml:"destination"`
	// Encode is the first-run "optimize MP3" choice.
	Encode bool `mapstructure:"encode" yaml:"encode"`

	Queue    QueueConfig         `mapstructure:"queue" yaml:"queue"`
	Engines  engine.Config       `mapstructure:",squash" yaml:",inline"`
	Encoder  encoder.Config      `mapstructure:"encoder" yaml:"encoder"`
	Cache    extract.CacheConfig `mapstructure:"cache" yaml:"cache"`
	Settings SettingsConfig      `mapstructure:"settings" yaml:"settings"`
	Debug    bool                `mapstructure:"debug" yaml:"debug"`
}

// QueueConfig controls queue processing.
type QueueConfig struct {
	Order string `mapstructure:"order" yaml:"order"`
}

// SettingsConfig locates the persisted settings files.
type SettingsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model:       engine.Catalog[0].Key,
		Destination: settings.DefaultDestination(),
		Encode:      true,
		Queue:       QueueConfig{Order: string(runner.OrderReverse)},
		Engines:     engine.DefaultConfig(),
		Encoder:     encoder.DefaultConfig(),
		Cache:       extract.DefaultCacheConfig(),
		Settings:    SettingsConfig{Dir: DataDir()},
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if _, ok := engine.Lookup(c.Model); !ok {
		return fmt.Errorf("invalid model %q: must be one of %v", c.Model, engine.Keys())
	}
	if _, err := runner.ParseOrder(c.Queue.Order); err != nil {
		return err
	}
	if c.Cache.Enabled && c.Cache.MaxBytes < 1<<20 {
		return fmt.Errorf("cache max_bytes must be at least 1 MiB, got %d", c.Cache.MaxBytes)
	}
	if c.Cache.Level < 1 || c.Cache.Level > 4 {
		return fmt.Errorf("cache level must be between 1 and 4, got %d", c.Cache.Level)
	}
	if c.Encoder.Bitrate == "" {
		return fmt.Errorf("encoder bitrate cannot be empty")
	}
	if len(c.Engines.Command.Args) > 0 && !slices.ContainsFunc(c.Engines.Command.Args, func(a string) bool {
		return strings.Contains(a, "{out}")
	}) {
		return fmt.Errorf("command args must contain {out}")
	}
	return nil
}

// Expand resolves ~ in every path setting.
func (c *Config) Expand() {
	for _, p := range []*string{
		&c.Destination,
		&c.Engines.Piper.Model,
		&c.Engines.Piper.Config,
		&c.Engines.Google.CredentialsFile,
		&c.Cache.Dir,
		&c.Settings.Dir,
	} {
		*p = ExpandPath(*p)
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = filepath.Join(CacheDir(), "text")
	}
}

// ExpandPath expands a leading ~ to the home directory.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		log.Debug("Could not expand path", "path", p, "err", err)
		return p
	}
	return expanded
}

// DataDir returns the directory holding the settings files.
func DataDir() string {
	return scopeDir(gap.NewScope(gap.User, AppName).DataDirs)
}

// CacheDir returns the directory for the log file and the text cache.
func CacheDir() string {
	dir, err := gap.NewScope(gap.User, AppName).CacheDir()
	if err != nil || dir == "" {
		return filepath.Join(".", "."+AppName)
	}
	return dir
}

func scopeDir(dirs func() ([]string, error)) string {
	list, err := dirs()
	if err != nil || len(list) == 0 {
		return "."
	}
	return list[0]
}

// Package diagnostics checks that the external tools, model files and
// folders a conversion needs are present.
package diagnostics

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
)

// Status indicates whether a single check passed.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Item is one check result with an optional hint.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Report aggregates the checks.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	HasFailures bool      `json:"hasFailures"`
	Items       []Item    `json:"items"`
}

// Input is what the checks look at.
type Input struct {
	Model          string
	Engines        engine.Config
	EncoderBinary  string
	Destination    string
	SettingsDir    string
	SpeakerWAVPath string
}

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	stat       func(string) (os.FileInfo, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker() *Checker {
	return &Checker{
		lookPath:   proc.Which,
		stat:       os.Stat,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
	}
}

// Run executes all checks and returns a combined report.
func (c *Checker) Run(in Input) Report {
	items := c.checkModel(in)
	items = append(items,
		c.checkEncoder(in.EncoderBinary),
		c.checkDir("destination", "Destination folder", in.Destination),
		c.checkDir("settings_dir", "Settings folder", in.SettingsDir),
	)

	report := Report{GeneratedAt: time.Now().UTC(), Items: items}
	for _, item := range items {
		if item.Status == StatusFail {
			report.HasFailures = true
			break
		}
	}
	return report
}

func (c *Checker) checkModel(in Input) []Item {
	m, ok := engine.Lookup(in.Model)
	if !ok {
		return []Item{{
			ID: "model", Name: "Model", Status: StatusFail,
			Message: fmt.Sprintf("Unknown model %q", in.Model),
			Hint:    "Choose one of: " + strings.Join(engine.Keys(), ", "),
		}}
	}

	items := []Item{{ID: "model", Name: "Model", Status: StatusPass, Message: m.Name}}
	switch m.Backend {
	case "coqui":
		items = append(items, c.checkTool(in.Engines.Coqui.Binary, "Install Coqui TTS (pip install TTS) so the `tts` command is on PATH."))
		if m.Kind == engine.KindVoiceClone {
			items = append(items, c.checkFile("speaker_wav", "Reference voice", in.SpeakerWAVPath, "Select a short WAV recording of the voice to clone."))
		}
	case "piper":
		items = append(items,
			c.checkTool(in.Engines.Piper.Binary, "Install piper and ensure the binary is on PATH."),
			c.checkFile("piper_model", "Piper model", in.Engines.Piper.Model, "Set piper.model to an .onnx voice file."),
		)
		cfg := in.Engines.Piper.Config
		if cfg == "" && in.Engines.Piper.Model != "" {
			cfg = engine.NewPiper(in.Engines.Piper, nil).ConfigPath()
		}
		items = append(items, c.checkFile("piper_config", "Piper model config", cfg, "Download the .onnx.json file that belongs to the voice."))
	case "command":
		items = append(items, c.checkTool(in.Engines.Command.Binary, "Install the synthesizer or change command.binary."))
	case "google":
		g := in.Engines.Google
		switch {
		case g.CredentialsFile != "":
			items = append(items, c.checkFile("google_credentials", "Google credentials", g.CredentialsFile, "Point google.credentials_file at a service account key."))
		case g.APIKey != "" || os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "":
			items = append(items, Item{ID: "google_credentials", Name: "Google credentials", Status: StatusPass, Message: "Configured"})
		default:
			items = append(items, Item{ID: "google_credentials", Name: "Google credentials", Status: StatusFail,
				Message: "No credentials configured", Hint: "Set google.credentials_file, google.api_key or GOOGLE_APPLICATION_CREDENTIALS."})
		}
	case "openai":
		item := Item{ID: "openai_key", Name: "OpenAI API key", Status: StatusPass, Message: "Configured"}
		if in.Engines.OpenAI.APIKey == "" {
			item.Status = StatusFail
			item.Message = "No API key configured"
			item.Hint = "Set openai.api_key or KOKORO_OPENAI_API_KEY."
		}
		items = append(items, item)
	}
	return items
}

// checkTool verifies an executable is on PATH.
func (c *Checker) checkTool(name, hint string) Item {
	path, err := c.lookPath(name)
	if err != nil {
		return Item{
			ID:      "tool_" + name,
			Name:    name,
			Status:  StatusFail,
			Message: fmt.Sprintf("Tool not found in PATH: %s", name),
			Hint:    hint,
		}
	}
	return Item{ID: "tool_" + name, Name: name, Status: StatusPass, Message: fmt.Sprintf("Found at %s", path)}
}

// checkEncoder reports ffmpeg, whose absence only disables MP3 output.
func (c *Checker) checkEncoder(name string) Item {
	item := c.checkTool(name, "Install FFmpeg to get MP3 output; WAV files are written without it.")
	if item.Status == StatusFail {
		item.Status = StatusWarn
	}
	return item
}

func (c *Checker) checkFile(id, name, path, hint string) Item {
	item := Item{ID: id, Name: name}
	if strings.TrimSpace(path) == "" {
		item.Status = StatusFail
		item.Message = "Not set."
		item.Hint = hint
		return item
	}
	info, err := c.stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		item.Status = StatusFail
		item.Message = fmt.Sprintf("File does not exist: %s", path)
		item.Hint = hint
	case err != nil:
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Cannot access file: %s", path)
		item.Hint = hint
	case info.IsDir():
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Expected a file, found a folder: %s", path)
		item.Hint = hint
	default:
		item.Status = StatusPass
		item.Message = fmt.Sprintf("Found: %s", path)
	}
	return item
}

// checkDir validates folder existence and write access.
func (c *Checker) checkDir(id, name, dir string) Item {
	item := Item{ID: id, Name: name}
	if strings.TrimSpace(dir) == "" {
		item.Status = StatusFail
		item.Message = "Folder is not set."
		item.Hint = "Choose a folder where files can be written."
		return item
	}
	if err := c.mkdirAll(dir, 0o755); err != nil {
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Cannot create folder: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}
	tmp, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		item.Status = StatusFail
		item.Message = fmt.Sprintf("Folder is not writable: %s", dir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	_ = c.remove(tmpPath)

	item.Status = StatusPass
	item.Message = fmt.Sprintf("Writable folder: %s", dir)
	return item
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/diagnostics"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const maxDoctorWidth = 120

var errDoctorFailed = errors.New("some checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that models, tools and folders are in place",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := settings.NewConverterStore(cfg.Settings.Dir).Load()
		if err != nil {
			log.Warn("Could not load settings, using defaults", "err", err)
		}
		report := diagnostics.NewChecker().Run(doctorInput(cfg, s))

		style, width := "notty", 80
		if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
			style = "light"
			if lipgloss.HasDarkBackground() {
				style = "dark"
			}
			if w, _, err := term.GetSize(fd); err == nil {
				width = min(w, maxDoctorWidth)
			}
		}
		out, err := report.Render(style, width)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		if report.HasFailures {
			return errDoctorFailed
		}
		return nil
	},
}

// doctorInput checks the saved model, falling back to the configured one
// on first run.
func doctorInput(cfg config.Config, s settings.Converter) diagnostics.Input {
	model := s.SelectedModel
	if model == "" {
		model = cfg.Model
	}
	dest := s.DestinationFolder
	if dest == "" {
		dest = cfg.Destination
	}
	return diagnostics.Input{
		Model:          model,
		Engines:        cfg.Engines,
		EncoderBinary:  cfg.Encoder.Binary,
		Destination:    dest,
		SettingsDir:    cfg.Settings.Dir,
		SpeakerWAVPath: s.SpeakerWAVPath,
	}
}

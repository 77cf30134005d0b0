package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/spf13/cobra"
)

var (
	voicesModel  string
	voicesModels bool
)

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices of a model",
	Long:  paragraph("\nLoad a model and list its voices. Use " + keyword("--models") + " to list the models instead."),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if voicesModels {
			return writeModels(cmd.OutOrStdout())
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		key := voicesModel
		if key == "" {
			key = cfg.Model
		}
		e, err := engine.New(key, cfg.Engines, proc.Exec{})
		if err != nil {
			return err
		}
		if c, ok := e.(engine.Closer); ok {
			defer c.Close() //nolint:errcheck
		}
		speakers, err := e.Load(cmd.Context())
		if err != nil {
			return err
		}
		return writeVoices(cmd.OutOrStdout(), e.Kind(), speakers)
	},
}

func init() {
	voicesCmd.Flags().StringVar(&voicesModel, "model", "", "model to load (default from config)")
	voicesCmd.Flags().BoolVar(&voicesModels, "models", false, "list the available models")
	_ = voicesCmd.RegisterFlagCompletionFunc("model", completeModels)
}

func completeModels(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return engine.Keys(), cobra.ShellCompDirectiveNoFileComp
}

func writeModels(w io.Writer) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("KEY", "NAME", "BACKEND", "VOICES")
	for _, m := range engine.Catalog {
		t.Row(m.Key, m.Name, m.Backend, m.Kind.String())
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeVoices(w io.Writer, kind engine.Kind, speakers []string) error {
	switch {
	case kind == engine.KindVoiceClone:
		_, err := fmt.Fprintln(w, "This model clones the voice of a reference WAV recording (--speaker-wav).")
		return err
	case len(speakers) == 0:
		_, err := fmt.Fprintln(w, "This model has a single voice.")
		return err
	}
	for _, label := range engine.SpeakerLabels(speakers) {
		if _, err := fmt.Fprintln(w, label); err != nil {
			return err
		}
	}
	return nil
}

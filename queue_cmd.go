package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/goccy/go-yaml"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/app"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/spf13/cobra"
)

var queueOutput string

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect and edit the saved queue",
	Long:  paragraph("\nInspect and edit the queue saved in the settings file. Positions are " + keyword("1-based") + ", as shown by kokoro queue list."),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return queueListCmd.RunE(cmd, args)
	},
}

var queueAddCmd = &cobra.Command{
	Use:   "add DIR|FILE...",
	Short: "Add documents, or every document below a folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		n, err := addPaths(cmd.Context(), a, args)
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d new documents\n", n)
		return err
	}),
}

var queueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the queued documents",
	Args:    cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
		return writeQueue(cmd.OutOrStdout(), a.Queue().Snapshot(), queueOutput)
	}),
}

var queueMoveCmd = &cobra.Command{
	Use:   "move FROM TO",
	Short: "Move the job at position FROM to position TO",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(_ *cobra.Command, a *app.App, args []string) error {
		n := a.Queue().Len()
		from, err := parsePosition(args[0], n)
		if err != nil {
			return err
		}
		to, err := parsePosition(args[1], n)
		if err != nil {
			return err
		}
		if from != to {
			a.Queue().Move(from, to-from)
		}
		return nil
	}),
}

var queueRemoveCmd = &cobra.Command{
	Use:     "remove POSITION...",
	Aliases: []string{"rm"},
	Short:   "Remove jobs from the queue",
	Args:    cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
		indices := make([]int, 0, len(args))
		for _, arg := range args {
			i, err := parsePosition(arg, a.Queue().Len())
			if err != nil {
				return err
			}
			indices = append(indices, i)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", a.Queue().Remove(indices...))
		return nil
	}),
}

var queueResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Mark every job pending again",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app.App, _ []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %d jobs\n", a.Queue().Reset())
		return nil
	}),
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every job",
	Args:  cobra.NoArgs,
	RunE: withApp(func(_ *cobra.Command, a *app.App, _ []string) error {
		a.Queue().Clear()
		return nil
	}),
}

func init() {
	queueCmd.PersistentFlags().StringVarP(&queueOutput, "output", "o", "table", "list format: table, yaml or json")
	queueCmd.AddCommand(queueAddCmd, queueListCmd, queueMoveCmd, queueRemoveCmd, queueResetCmd, queueClearCmd)
}

// withApp opens the application state around fn and saves it afterwards.
func withApp(fn func(*cobra.Command, *app.App, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		err = fn(cmd, a, args)
		if cerr := a.Close(); err == nil {
			err = cerr
		}
		return err
	}
}

// parsePosition converts a 1-based queue position into an index.
func parsePosition(s string, n int) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	if p < 1 || p > n {
		return 0, fmt.Errorf("position %d outside the queue (1-%d)", p, n)
	}
	return p - 1, nil
}

func writeQueue(w io.Writer, jobs []queue.Job, format string) error {
	switch format {
	case "yaml":
		out, err := yaml.MarshalWithOptions(jobs, yaml.UseJSONMarshaler())
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	case "table", "":
		if len(jobs) == 0 {
			_, err := fmt.Fprintln(w, "The queue is empty.")
			return err
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("#", "STATUS", "DOCUMENT", "OUTPUT")
		for i, j := range jobs {
			detail := j.OutputPath
			if j.Status == queue.StatusError {
				detail = j.Error
			}
			t.Row(strconv.Itoa(i+1), j.Status.String(), j.DisplayName, detail)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/app"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/extract"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/runner"
	"github.com/spf13/cobra"
)

// convertOptions override the saved settings for a headless run. Changed
// values are saved, as choosing them in the TUI would.
type convertOptions struct {
	model       string
	voice       string
	speakerWAV  string
	destination string
	encode      bool
	encodeSet   bool
}

var convertOpts convertOptions

var convertCmd = &cobra.Command{
	Use:   "convert [DIR|FILE...]",
	Short: "Convert the queue without the TUI",
	Long: paragraph(fmt.Sprintf("\nAdd the given documents or folders to the queue, then %s until every pending job is done. Interrupt to stop after the current job.",
		keyword("convert the queue"))),
	Example: paragraph("kokoro convert ~/Books\nkokoro convert --model piper --voice p225 chapter1.pdf"),
	RunE: func(cmd *cobra.Command, args []string) error {
		convertOpts.encodeSet = cmd.Flags().Changed("encode")
		return runConvert(cmd, args)
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertOpts.model, "model", "", "model to load (see kokoro voices --models)")
	convertCmd.Flags().StringVar(&convertOpts.voice, "voice", "", "speaker id, label or fragment")
	convertCmd.Flags().StringVar(&convertOpts.speakerWAV, "speaker-wav", "", "reference recording for voice cloning models")
	convertCmd.Flags().StringVarP(&convertOpts.destination, "destination", "d", "", "output folder")
	convertCmd.Flags().BoolVar(&convertOpts.encode, "encode", false, "write MP3 files (needs ffmpeg)")
	_ = convertCmd.RegisterFlagCompletionFunc("model", completeModels)
}

func runConvert(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("Could not save settings", "err", err)
		}
	}()

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := addPaths(ctx, a, args); err != nil {
		return err
	}
	if err := applyConvertOptions(ctx, a, convertOpts); err != nil {
		return err
	}
	if a.Engine() == nil {
		if _, err := a.LoadSavedModel(ctx); err != nil {
			return err
		}
	}

	events, unsub := a.Runner().Events().Subscribe(256)
	defer unsub()
	if err := a.Start(ctx); err != nil {
		return err
	}
	sum := followRun(a.Runner(), events)
	fmt.Fprintln(cmd.OutOrStdout(), sum.String())
	return sum.Err()
}

func applyConvertOptions(ctx context.Context, a *app.App, o convertOptions) error {
	if o.destination != "" {
		a.SetDestination(o.destination)
	}
	if o.encodeSet {
		if err := a.SetOptimizeMP3(o.encode); err != nil {
			return err
		}
	}
	if o.speakerWAV != "" {
		if err := a.SetSpeakerWAV(o.speakerWAV); err != nil {
			return err
		}
	}
	if o.model != "" {
		if _, err := a.LoadModel(ctx, o.model); err != nil {
			return err
		}
	}
	if o.voice != "" {
		if a.Engine() == nil {
			if _, err := a.LoadSavedModel(ctx); err != nil {
				return err
			}
		}
		if _, err := a.SetVoice(o.voice); err != nil {
			return err
		}
	}
	return nil
}

// addPaths enqueues documents and every document below folders.
func addPaths(ctx context.Context, a *app.App, paths []string) (int, error) {
	total := 0
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return total, fmt.Errorf("unable to add %s: %w", p, err)
		}
		if info.IsDir() {
			n, err := a.AddFolder(ctx, p, extract.Patterns)
			if err != nil {
				return total, err
			}
			total += n
			continue
		}
		if !extract.Supported(p) {
			return total, fmt.Errorf("%w: %s", extract.ErrUnsupported, p)
		}
		total += a.AddFiles([]string{p})
	}
	return total, nil
}

// followRun logs job results until the run ends and returns its summary.
func followRun(r *runner.Runner, events <-chan runner.Event) runner.Summary {
	done := r.Done()
	for {
		select {
		case ev := <-events:
			logResult(ev)
		case <-done:
			for {
				select {
				case ev := <-events:
					logResult(ev)
				default:
					return r.Wait()
				}
			}
		}
	}
}

func logResult(ev runner.Event) {
	if ev.Type == runner.EventTypeResult {
		log.Log(ev.Level, ev.Message)
	}
}

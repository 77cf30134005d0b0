package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/encoder"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/speech"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type sayOptions struct {
	model  string
	voice  string
	speed  float64
	format string
	out    string
	file   string
	open   bool
	play   bool
	stats  bool
}

var sayOpts sayOptions

var errNoInput = errors.New("no text given: pass it as arguments, with --file or on stdin")

var sayCmd = &cobra.Command{
	Use:   "say [TEXT...]",
	Short: "Speak a piece of text into one audio file",
	Long: paragraph(fmt.Sprintf("\nSynthesize text into a single audio file. Separate parts with %s to have them synthesized one at a time.",
		keyword("two blank lines"))),
	Example: paragraph("kokoro say \"Hello there\"\nkokoro say --voice af_bella --speed 1.2 --file notes.txt\necho hi | kokoro say --play"),
	RunE: func(cmd *cobra.Command, args []string) error {
		var stdin io.Reader
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			stdin = cmd.InOrStdin()
		}
		text, err := readText(args, sayOpts.file, stdin)
		if err != nil {
			return err
		}
		return runSay(cmd, text, sayOpts)
	},
}

func init() {
	sayCmd.Flags().StringVar(&sayOpts.model, "model", "kokoro", "model to speak with")
	sayCmd.Flags().StringVar(&sayOpts.voice, "voice", "", "voice to use (default: last used)")
	sayCmd.Flags().Float64Var(&sayOpts.speed, "speed", 0, fmt.Sprintf("speech speed, %.1f to %.1f (default: last used)", settings.MinSpeed, settings.MaxSpeed))
	sayCmd.Flags().StringVar(&sayOpts.format, "format", "", "output format, wav or mp3 (default: last used)")
	sayCmd.Flags().StringVar(&sayOpts.out, "out", "", "output folder (default: last used)")
	sayCmd.Flags().StringVarP(&sayOpts.file, "file", "f", "", "read the text from a file")
	sayCmd.Flags().BoolVar(&sayOpts.open, "open", false, "open the output folder when done")
	sayCmd.Flags().BoolVar(&sayOpts.play, "play", false, "play the result when done")
	sayCmd.Flags().BoolVar(&sayOpts.stats, "stats", false, "print text statistics before speaking")
	_ = sayCmd.RegisterFlagCompletionFunc("model", completeModels)
	_ = sayCmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"wav", "mp3"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// readText picks the text from the arguments, a file or stdin, in that
// order. stdin may be nil.
func readText(args []string, file string, stdin io.Reader) (string, error) {
	var text string
	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("unable to read %s: %w", file, err)
		}
		text = string(b)
	case stdin != nil:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read stdin: %w", err)
		}
		text = string(b)
	}
	if strings.TrimSpace(text) == "" {
		return "", errNoInput
	}
	return text, nil
}

// applySayOptions overrides the saved speech settings with the flags that
// were given.
func applySayOptions(s *settings.Speech, o sayOptions, voices []string) error {
	if o.voice != "" {
		v, err := engine.ResolveSpeaker(o.voice, voices)
		if err != nil {
			return err
		}
		s.Voice = v
	}
	if o.speed != 0 {
		if o.speed < settings.MinSpeed || o.speed > settings.MaxSpeed {
			return fmt.Errorf("speed %.2f outside %.1f-%.1f", o.speed, settings.MinSpeed, settings.MaxSpeed)
		}
		s.Speed = o.speed
	}
	switch o.format {
	case "":
	case "wav", "mp3":
		s.OutputFormat = o.format
	default:
		return fmt.Errorf("unknown output format %q", o.format)
	}
	if o.out != "" {
		s.OutputPath = config.ExpandPath(o.out)
	}
	return nil
}

func runSay(cmd *cobra.Command, text string, o sayOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	e, err := engine.New(o.model, cfg.Engines, proc.Exec{})
	if err != nil {
		return err
	}
	if c, ok := e.(engine.Closer); ok {
		defer c.Close() //nolint:errcheck
	}
	voices, err := e.Load(ctx)
	if err != nil {
		return err
	}

	enc := encoder.New(cfg.Encoder)
	store := settings.NewSpeechStore(cfg.Settings.Dir)
	s, err := store.Load()
	if err != nil {
		log.Warn("Could not load settings, using defaults", "err", err)
	}
	for _, change := range s.Validate(voices, enc.Available()) {
		log.Warn("Settings adjusted", "change", change)
	}
	if err := applySayOptions(&s, o, voices); err != nil {
		return err
	}
	s.TextInput = text
	if err := store.Save(s); err != nil {
		log.Warn("Could not save settings", "err", err)
	}

	out := cmd.OutOrStdout()
	if o.stats {
		fmt.Fprintln(out, speech.Analyze(text).String())
	}

	g := speech.NewGenerator(e, enc)
	stop := context.AfterFunc(ctx, g.Stop)
	defer stop()

	res, err := g.Generate(context.WithoutCancel(ctx), speech.Request{
		Text:      text,
		Voice:     s.Voice,
		Speed:     s.Speed,
		Format:    s.OutputFormat,
		OutputDir: s.OutputPath,
	})
	if err != nil {
		return err
	}
	if res.Stopped {
		log.Warn("Generation stopped early", "segments", res.Segments)
	}
	fmt.Fprintln(out, res.Summary())

	if o.play {
		if filepath.Ext(res.Path) != ".wav" {
			log.Warn("Playback only supports WAV output", "file", filepath.Base(res.Path))
		} else {
			clip, err := audio.ReadFile(res.Path)
			if err != nil {
				return err
			}
			if err := audio.Play(ctx, clip); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
		}
	}
	if o.open {
		return speech.Open(context.Background(), proc.Exec{}, filepath.Dir(res.Path))
	}
	return nil
}

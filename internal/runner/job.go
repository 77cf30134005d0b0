package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
)

// JobResult is the outcome of one job of a run.
type JobResult struct {
	Index      int           `json:"index"`
	SourcePath string        `json:"path"`
	OutputPath string        `json:"output,omitempty"`
	Status     queue.Status  `json:"status"`
	Skipped    bool          `json:"skipped,omitempty"`
	Encoded    bool          `json:"encoded,omitempty"`
	Audio      time.Duration `json:"audio,omitempty"`
	Size       int64         `json:"size,omitempty"`
	Elapsed    time.Duration `json:"elapsed"`
	Err        error         `json:"-"`
}

// String summarizes the result for the console.
func (r JobResult) String() string {
	name := filepath.Base(r.SourcePath)
	switch {
	case r.Skipped:
		return fmt.Sprintf("Skipped %s", name)
	case r.Err != nil:
		return fmt.Sprintf("ERROR processing %s: %v", name, r.Err)
	default:
		return fmt.Sprintf("Successfully converted %s -> %s (%s, %s)",
			name, filepath.Base(r.OutputPath), r.Audio.Round(time.Second), humanize.Bytes(uint64(r.Size)))
	}
}

func (r JobResult) level() log.Level {
	if r.Err != nil {
		return log.ErrorLevel
	}
	return log.InfoLevel
}

// Summary aggregates the results of a run.
type Summary struct {
	RunID     string        `json:"runId"`
	Results   []JobResult   `json:"results"`
	Completed int           `json:"completed"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Stopped   bool          `json:"stopped"`
	Elapsed   time.Duration `json:"elapsed"`
}

func (s *Summary) add(r JobResult) {
	s.Results = append(s.Results, r)
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Err != nil:
		s.Failed++
	default:
		s.Completed++
	}
}

// String summarizes the run.
func (s Summary) String() string {
	verb := "finished"
	if s.Stopped {
		verb = "stopped"
	}
	return fmt.Sprintf("Run %s: %d converted, %d failed, %d skipped in %s",
		verb, s.Completed, s.Failed, s.Skipped, s.Elapsed.Round(time.Millisecond))
}

// Err joins the errors of the failed jobs.
func (s Summary) Err() error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(r.SourcePath), r.Err))
		}
	}
	return errors.Join(errs...)
}

// SafeFolderName keeps the letters, digits, spaces and underscores of
// name and trims trailing spaces.
func SafeFolderName(name string) string {
	safe := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' {
			return r
		}
		return -1
	}, name)
	return strings.TrimRight(safe, " ")
}

// OutputBase returns the output file name, without extension, for a source
// document: the sanitized parent folder name and the file stem joined by
// an underscore.
func OutputBase(path string) string {
	folder := filepath.Base(filepath.Dir(path))
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return SafeFolderName(folder) + "_" + stem
}

// process converts one job. Failures are recorded on the job and in the
// result; they never abort the run.
func (r *Runner) process(ctx context.Context, path string, opts Options) (res JobResult) {
	start := time.Now()
	res.SourcePath = path
	defer func() { res.Elapsed = time.Since(start) }()

	job, ok := r.queue.Lookup(path)
	if !ok {
		res.Skipped = true
		r.logf(log.DebugLevel, "Job removed from queue, skipping", "path", path)
		return res
	}
	if job.Status == queue.StatusComplete {
		res.Skipped = true
		res.Status = queue.StatusComplete
		res.OutputPath = job.OutputPath
		return res
	}

	r.setStatus(path, queue.StatusProcessing, "")
	r.logf(log.InfoLevel, "Processing: "+job.DisplayName)

	base := OutputBase(path)
	temp := filepath.Join(opts.Destination, base+"_temp.wav")
	partial := ""
	fail := func(stage string, err error) JobResult {
		res.Err = &JobError{Stage: stage, Err: err}
		res.Status = queue.StatusError
		removeIfExists(temp)
		if partial != "" {
			removeIfExists(partial)
		}
		r.setStatus(path, queue.StatusError, res.Err.Error())
		r.logf(log.ErrorLevel, "ERROR processing "+job.DisplayName, "err", res.Err)
		return res
	}

	r.logf(log.DebugLevel, "Extracting text", "file", job.DisplayName)
	text, err := r.extractor.Extract(ctx, path)
	if err != nil {
		return fail("extract", err)
	}
	r.logf(log.DebugLevel, "Text extraction complete", "chars", len(text))

	clip, err := opts.Engine.Synthesize(ctx, text, opts.Selector)
	if err != nil {
		return fail("synthesize", err)
	}
	res.Audio = clip.Duration()

	if err := audio.WriteFile(temp, clip); err != nil {
		return fail("write", err)
	}

	var final string
	if opts.Encode && r.encoder != nil && r.encoder.Available() {
		final = filepath.Join(opts.Destination, base+".mp3")
		partial = final
		r.logf(log.InfoLevel, "Optimizing MP3 with FFmpeg", "file", filepath.Base(final))
		if err := r.encoder.Encode(ctx, temp, final); err != nil {
			return fail("encode", err)
		}
		if err := os.Remove(temp); err != nil {
			return fail("finalize", err)
		}
		res.Encoded = true
	} else {
		if opts.Encode {
			r.logf(log.WarnLevel, "Encoder not available, keeping WAV output")
		}
		final = filepath.Join(opts.Destination, base+".wav")
		if err := os.Rename(temp, final); err != nil {
			return fail("finalize", err)
		}
	}

	if info, err := os.Stat(final); err == nil {
		res.Size = info.Size()
	}
	res.OutputPath = final
	res.Status = queue.StatusComplete
	if err := r.queue.SetOutput(path, final); err != nil {
		log.Debug("Job removed while converting", "path", path)
	}
	r.setStatus(path, queue.StatusComplete, "")
	r.logf(log.InfoLevel, "Successfully converted "+job.DisplayName,
		"output", filepath.Base(final), "size", humanize.Bytes(uint64(res.Size)))
	return res
}

func (r *Runner) setStatus(path string, status queue.Status, reason string) {
	if err := r.queue.SetStatus(path, status, reason); err != nil {
		log.Debug("Job status not recorded", "path", path, "status", status, "err", err)
		return
	}
	r.bus.Publish(Event{RunID: r.runID, Type: EventTypeStatus, Level: log.DebugLevel, Path: path, Status: status, Message: reason})
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Could not remove file", "path", path, "err", err)
	}
}

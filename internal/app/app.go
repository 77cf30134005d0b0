// Package app holds the converter's application state: the persisted
// settings, the queue, the loaded engine and the runner, with the
// operations the terminal UI and the headless commands share.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/discover"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/encoder"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/extract"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/runner"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/settings"
)

// ErrNoEncoder is returned when MP3 output is requested without ffmpeg.
var ErrNoEncoder = errors.New("ffmpeg not found, MP3 optimization unavailable")

// Options configure Open.
type Options struct {
	Config config.Config
	// Runner executes engine and encoder subprocesses. Nil uses os/exec.
	Runner proc.Runner
	// Lookup locates binaries. Nil searches PATH.
	Lookup func(string) (string, error)
	// NewEngine builds an unloaded engine for a catalog key. Nil uses
	// engine.New with the configured backends.
	NewEngine func(key string) (engine.Engine, error)
	// Debounce overrides the settings save delay.
	Debounce time.Duration
}

// App is the converter state shared by every surface.
type App struct {
	cfg       config.Config
	store     *settings.Store[settings.Converter]
	queue     *queue.Queue
	runner    *runner.Runner
	encoder   *encoder.FFmpeg
	cache     *extract.Cache
	debouncer *settings.Debouncer
	newEngine func(string) (engine.Engine, error)

	mu       sync.RWMutex
	settings settings.Converter
	eng      engine.Engine
	speakers []string
}

// Open loads the saved settings and wires the queue, runner and encoder.
// Settings problems are logged and replaced by defaults; they never fail
// Open.
func Open(opts Options) (*App, error) {
	cfg := opts.Config
	if opts.Runner == nil {
		opts.Runner = proc.Exec{}
	}
	if opts.Lookup == nil {
		opts.Lookup = proc.Which
	}
	if opts.NewEngine == nil {
		opts.NewEngine = func(key string) (engine.Engine, error) {
			return engine.New(key, cfg.Engines, opts.Runner)
		}
	}

	a := &App{
		cfg:       cfg,
		queue:     queue.New(),
		encoder:   encoder.NewWithRunner(cfg.Encoder, opts.Runner, opts.Lookup),
		newEngine: opts.NewEngine,
	}
	a.store = settings.NewStore(settings.NewConverterStore(cfg.Settings.Dir).Path(), func() settings.Converter {
		s := settings.DefaultConverter()
		s.SelectedModel = cfg.Model
		if cfg.Destination != "" {
			s.DestinationFolder = cfg.Destination
		}
		s.OptimizeMP3 = cfg.Encode
		return s
	})
	a.debouncer = settings.NewDebouncer(opts.Debounce, a.Save)

	saved, err := a.store.Load()
	if err != nil {
		log.Warn("Could not load settings, using defaults", "path", a.store.Path(), "err", err)
	}
	if _, ok := engine.Lookup(saved.SelectedModel); !ok {
		log.Warn("Unknown saved model, using default", "model", saved.SelectedModel, "default", cfg.Model)
		saved.SelectedModel = cfg.Model
	}
	if saved.OptimizeMP3 && !a.encoder.Available() {
		log.Warn("FFmpeg not found. MP3 optimization will be disabled.")
		saved.OptimizeMP3 = false
	}
	a.debouncer.Loading(func() {
		a.queue.Replace(saved.Queue)
	})
	saved.Queue = nil
	a.settings = saved
	a.queue.OnChange(a.debouncer.Touch)

	extractor := extract.Extractor(extract.Auto{})
	if cfg.Cache.Enabled {
		c, err := extract.OpenCache(cfg.Cache)
		if err != nil {
			log.Warn("Text cache disabled", "dir", cfg.Cache.Dir, "err", err)
		} else {
			a.cache = c
			extractor = extract.WithCache(extractor, c)
		}
	}
	order, err := runner.ParseOrder(cfg.Queue.Order)
	if err != nil {
		return nil, err
	}
	a.cfg.Queue.Order = string(order)
	a.runner = runner.New(a.queue, extractor, a.encoder, runner.NewEventBus(1000))

	log.Debug("Application state loaded", "settings", a.store.Path(), "jobs", a.queue.Len(), "model", saved.SelectedModel)
	return a, nil
}

// Queue returns the work queue.
func (a *App) Queue() *queue.Queue { return a.queue }

// Runner returns the queue runner.
func (a *App) Runner() *runner.Runner { return a.runner }

// Encoder returns the MP3 encoder.
func (a *App) Encoder() *encoder.FFmpeg { return a.encoder }

// Config returns the configuration the app was opened with.
func (a *App) Config() config.Config { return a.cfg }

// SettingsPath returns the location of the settings file.
func (a *App) SettingsPath() string { return a.store.Path() }

// Settings returns a copy of the current settings, queue included.
func (a *App) Settings() settings.Converter {
	a.mu.RLock()
	s := a.settings
	a.mu.RUnlock()
	s.Queue = a.queue.Snapshot()
	return s
}

// Save writes the settings file now.
func (a *App) Save() error {
	if err := a.store.Save(a.Settings()); err != nil {
		return err
	}
	log.Debug("Settings saved", "path", a.store.Path())
	return nil
}

// update applies fn to the settings and schedules a save.
func (a *App) update(fn func(*settings.Converter)) {
	a.mu.Lock()
	fn(&a.settings)
	a.mu.Unlock()
	a.debouncer.Touch()
}

// Engine returns the loaded engine, or nil.
func (a *App) Engine() engine.Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.eng
}

// Speakers returns the speaker ids of the loaded engine.
func (a *App) Speakers() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]string(nil), a.speakers...)
}

// LoadModel builds and loads the engine for a catalog key and commits a
// valid voice for it. It blocks for as long as the engine takes to load.
// On failure no engine is loaded.
func (a *App) LoadModel(ctx context.Context, key string) ([]string, error) {
	if a.runner.State().Active() {
		return nil, runner.ErrAlreadyRunning
	}
	m, ok := engine.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", engine.ErrUnknownModel, key)
	}
	log.Info("Loading TTS model", "model", m.Name)
	start := time.Now()

	e, err := a.newEngine(m.Key)
	if err == nil {
		var speakers []string
		speakers, err = e.Load(ctx)
		if err == nil {
			a.swapEngine(e, speakers)
			a.update(func(s *settings.Converter) {
				s.SelectedModel = m.Key
				s.SelectedVoice = engine.CommitSpeaker(s.SelectedVoice, speakers)
			})
			log.Info("Model loaded", "model", m.Name, "kind", e.Kind(), "speakers", len(speakers), "elapsed", time.Since(start).Round(time.Millisecond))
			return speakers, nil
		}
	}
	a.swapEngine(nil, nil)
	log.Error("Failed to load TTS model", "model", m.Name, "err", err)
	return nil, err
}

func (a *App) swapEngine(e engine.Engine, speakers []string) {
	a.mu.Lock()
	old := a.eng
	a.eng = e
	a.speakers = speakers
	a.mu.Unlock()
	if c, ok := old.(engine.Closer); ok && old != e {
		if err := c.Close(); err != nil {
			log.Debug("Closing engine", "err", err)
		}
	}
}

// LoadSavedModel loads the model named in the settings.
func (a *App) LoadSavedModel(ctx context.Context) ([]string, error) {
	return a.LoadModel(ctx, a.Settings().SelectedModel)
}

// SetVoice selects a speaker of the loaded engine by id, label or fuzzy
// fragment and returns the resolved id.
func (a *App) SetVoice(query string) (string, error) {
	id, err := engine.ResolveSpeaker(query, a.Speakers())
	if err != nil {
		return "", err
	}
	a.update(func(s *settings.Converter) { s.SelectedVoice = id })
	return id, nil
}

// SetSpeakerWAV selects the reference recording for voice cloning.
func (a *App) SetSpeakerWAV(path string) error {
	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("%w: %v", engine.ErrNoReference, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%w: %s is a folder", engine.ErrNoReference, path)
		}
	}
	a.update(func(s *settings.Converter) { s.SpeakerWAVPath = path })
	return nil
}

// SetDestination selects the output folder.
func (a *App) SetDestination(dir string) {
	a.update(func(s *settings.Converter) { s.DestinationFolder = config.ExpandPath(dir) })
}

// SetOptimizeMP3 toggles MP3 output. Enabling it requires ffmpeg.
func (a *App) SetOptimizeMP3(on bool) error {
	if on && !a.encoder.Available() {
		return ErrNoEncoder
	}
	a.update(func(s *settings.Converter) { s.OptimizeMP3 = on })
	return nil
}

// RunOptions returns the runner options for the current settings.
func (a *App) RunOptions() runner.Options {
	s := a.Settings()
	e := a.Engine()
	sel := engine.Selector{Speaker: s.SelectedVoice}
	if e != nil && e.Kind() == engine.KindVoiceClone {
		sel = engine.Selector{ReferenceWAV: s.SpeakerWAVPath}
	}
	return runner.Options{
		Engine:      e,
		Selector:    sel,
		Destination: s.DestinationFolder,
		Encode:      s.OptimizeMP3,
		Order:       runner.Order(a.cfg.Queue.Order),
	}
}

// Start launches a run with the current settings.
func (a *App) Start(ctx context.Context) error {
	return a.runner.Start(ctx, a.RunOptions())
}

// AddFolder enqueues every new document below dir and returns how many
// were added.
func (a *App) AddFolder(ctx context.Context, dir string, patterns []string) (int, error) {
	paths, err := discover.Find(ctx, dir, patterns)
	if err != nil {
		return 0, err
	}
	n := discover.AddAll(a.queue, paths)
	log.Info("Added new documents", "count", n, "dir", dir)
	return n, nil
}

// AddFiles enqueues supported files and returns how many were added.
func (a *App) AddFiles(paths []string) int {
	n := 0
	for _, p := range paths {
		if !extract.Supported(p) {
			log.Warn("Unsupported file skipped", "path", p)
			continue
		}
		if a.queue.AddPath(p) {
			n++
		}
	}
	return n
}

// Close stops an active run, waits for it and saves the settings.
func (a *App) Close() error {
	if a.runner.State().Active() {
		_ = a.runner.Stop()
		a.runner.Wait()
	}
	a.debouncer.Stop()
	var errs []error
	if err := a.Save(); err != nil {
		errs = append(errs, err)
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.swapEngine(nil, nil)
	return errors.Join(errs...)
}

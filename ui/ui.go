// Package ui provides the terminal UI of the converter.
package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/app"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/extract"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/runner"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"
	ellipsis             = "…"
	statusBarHeight      = 1
	headerHeight         = 3
)

// NewProgram returns a new Tea program driving a.
func NewProgram(ctx context.Context, cfg Config, a *app.App) *tea.Program {
	log.Debug("Starting kokoro UI", "path", cfg.Path, "watch", cfg.Watch, "console", cfg.ConsoleLevel)
	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	opts = append(opts, tea.WithContext(ctx))
	return tea.NewProgram(newModel(ctx, cfg, a), opts...)
}

// state is the top-level input state.
type state int

const (
	stateBrowse state = iota
	statePrompt
	stateConfirmQuit
)

func (s state) String() string {
	return map[state]string{
		stateBrowse:      "browsing queue",
		statePrompt:      "editing prompt",
		stateConfirmQuit: "confirming quit",
	}[s]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	app    *app.App
	ctx    context.Context
	cancel context.CancelFunc
	events <-chan runner.Event
	unsub  func()
	width  int
	height int
}

type model struct {
	common   *commonModel
	state    state
	fatalErr error

	queue   queueModel
	console consoleModel
	prompt  promptModel
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	showHelp bool
	loading  bool
	watching string

	statusMessage string
	statusIsError bool
	statusID      int
}

func newModel(ctx context.Context, cfg Config, a *app.App) model {
	if len(cfg.Patterns) == 0 {
		cfg.Patterns = extract.Patterns
	}
	ctx, cancel := context.WithCancel(ctx)
	events, unsub := a.Runner().Events().Subscribe(256)
	common := &commonModel{
		cfg:    cfg,
		app:    a,
		ctx:    ctx,
		cancel: cancel,
		events: events,
		unsub:  unsub,
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	m := model{
		common:  common,
		state:   stateBrowse,
		queue:   newQueueModel(a.Queue()),
		console: newConsoleModel(cfg.ConsoleLevel, cfg.ConsoleLines),
		prompt:  newPromptModel(),
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
		loading: true,
	}

	if cfg.Path != "" {
		info, err := os.Stat(cfg.Path)
		switch {
		case err != nil:
			log.Error("unable to stat folder", "path", cfg.Path, "error", err)
			m.fatalErr = err
		case !info.IsDir():
			m.fatalErr = fmt.Errorf("%s is not a folder", cfg.Path)
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	a := m.common.app
	cmds := []tea.Cmd{
		m.spinner.Tick,
		waitForEvent(m.common.events),
		loadModelCmd(m.common.ctx, a, a.Settings().SelectedModel),
	}
	if m.common.cfg.Watch {
		cmds = append(cmds, startWatchCmd(m.common.ctx, m.searchDir(), m.common.cfg.Patterns))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, m.quit()
		}
	}

	var cmds []tea.Cmd
	a := m.common.app

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case statePrompt:
			return m.updatePrompt(msg)
		case stateConfirmQuit:
			return m.updateConfirmQuit(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.console.viewport, cmd = m.console.viewport.Update(msg)
		return m, cmd

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.layout()

	case modelLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.console.logf(log.ErrorLevel, "Failed to load model %s: %v", msg.key, msg.err)
			cmds = append(cmds, showStatusMessage("Model failed to load", true))
			break
		}
		name := msg.key
		if mdl, ok := engine.Lookup(msg.key); ok {
			name = mdl.Name
		}
		m.console.logf(log.InfoLevel, "Model loaded: %s (%d voices)", name, len(msg.speakers))

	case filesAddedMsg:
		if msg.err != nil {
			m.console.logf(log.ErrorLevel, "Could not add %s: %v", msg.dir, msg.err)
			cmds = append(cmds, showStatusMessage(msg.err.Error(), true))
			break
		}
		m.queue.clamp()
		m.console.logf(log.InfoLevel, "Added %d new documents from %s", msg.added, msg.dir)
		cmds = append(cmds, showStatusMessage(fmt.Sprintf("Added %d new documents", msg.added), false))

	case watchStartedMsg:
		m.watching = msg.dir
		m.console.logf(log.InfoLevel, "Watching %s for new documents", msg.dir)
		cmds = append(cmds, waitForWatchedFile(msg.ch))

	case watchedFileMsg:
		if a.AddFiles([]string{msg.path}) > 0 {
			m.queue.clamp()
			m.console.logf(log.InfoLevel, "Queued new document %s", filepath.Base(msg.path))
		}
		cmds = append(cmds, waitForWatchedFile(msg.ch))

	case watchStoppedMsg:
		m.watching = ""

	case runnerEventMsg:
		m.handleEvent(runner.Event(msg))
		cmds = append(cmds, waitForEvent(m.common.events))
		if msg.Type == runner.EventTypeState && msg.State == runner.StateRunning {
			cmds = append(cmds, m.spinner.Tick)
		}
		if msg.Type == runner.EventTypeDone && msg.Summary != nil {
			cmds = append(cmds, showStatusMessage(msg.Summary.String(), msg.Summary.Failed > 0))
		}

	case eventsClosedMsg:
		// unsubscribed on quit

	case openedMsg:
		if msg.err != nil {
			m.console.logf(log.ErrorLevel, "Could not open output: %v", msg.err)
		}

	case statusMsg:
		m.statusID++
		m.statusMessage = msg.text
		m.statusIsError = msg.isError
		cmds = append(cmds, statusMessageTimeoutCmd(m.statusID))

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusID {
			m.statusMessage = ""
			m.statusIsError = false
		}

	case spinner.TickMsg:
		if m.loading || a.Runner().State().Active() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a := m.common.app
	r := a.Runner()

	switch {
	case msg.String() == "ctrl+z":
		return m, tea.Suspend

	case key.Matches(msg, m.keys.Quit):
		if r.State().Active() {
			m.state = stateConfirmQuit
			return m, nil
		}
		return m, m.quit()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.layout()

	case key.Matches(msg, m.keys.Up):
		m.queue.up()
	case key.Matches(msg, m.keys.Down):
		m.queue.down()
	case key.Matches(msg, m.keys.MoveUp):
		m.queue.move(-1)
	case key.Matches(msg, m.keys.MoveDown):
		m.queue.move(1)

	case key.Matches(msg, m.keys.Remove):
		if job, ok := m.queue.remove(); ok {
			m.console.logf(log.InfoLevel, "Removed %s", job.DisplayName)
		}

	case key.Matches(msg, m.keys.Reset):
		if r.State().Active() {
			return m, showStatusMessage("Cannot reset while converting", true)
		}
		n := a.Queue().Reset()
		return m, showStatusMessage(fmt.Sprintf("Reset %d jobs to Pending", n), false)

	case key.Matches(msg, m.keys.Add):
		return m.openPrompt(promptAdd, "")
	case key.Matches(msg, m.keys.Dest):
		return m.openPrompt(promptDestination, a.Settings().DestinationFolder)
	case key.Matches(msg, m.keys.SpeakerWAV):
		return m.openPrompt(promptSpeakerWAV, a.Settings().SpeakerWAVPath)
	case key.Matches(msg, m.keys.Voice):
		if len(a.Speakers()) == 0 {
			return m, showStatusMessage("This model has no voices to choose from", true)
		}
		return m.openPrompt(promptVoice, a.Settings().SelectedVoice)

	case key.Matches(msg, m.keys.Find):
		dir := m.searchDir()
		m.console.logf(log.InfoLevel, "Searching %s for documents", dir)
		return m, findFilesCmd(m.common.ctx, a, dir, m.common.cfg.Patterns)

	case key.Matches(msg, m.keys.Start):
		cmd := m.start()
		return m, cmd

	case key.Matches(msg, m.keys.Pause):
		if err := r.TogglePause(); err != nil {
			return m, showStatusMessage(err.Error(), true)
		}

	case key.Matches(msg, m.keys.Stop):
		if err := r.Stop(); err != nil {
			return m, showStatusMessage(err.Error(), true)
		}

	case key.Matches(msg, m.keys.Model):
		return m.nextModel()

	case key.Matches(msg, m.keys.NextVoice):
		speakers := a.Speakers()
		if len(speakers) == 0 {
			return m, showStatusMessage("This model has no voices to choose from", true)
		}
		i := slices.Index(speakers, a.Settings().SelectedVoice)
		id, _ := a.SetVoice(speakers[(i+1)%len(speakers)])
		return m, showStatusMessage("Voice: "+engine.SpeakerLabel(slices.Index(speakers, id), id), false)

	case key.Matches(msg, m.keys.MP3):
		on := !a.Settings().OptimizeMP3
		if err := a.SetOptimizeMP3(on); err != nil {
			m.console.logf(log.WarnLevel, "%v", err)
			return m, showStatusMessage(err.Error(), true)
		}
		return m, showStatusMessage(fmt.Sprintf("Optimize MP3: %s", onOff(on)), false)

	case key.Matches(msg, m.keys.Copy):
		job, ok := m.queue.selected()
		if !ok || job.OutputPath == "" {
			return m, showStatusMessage("No output file for this job yet", true)
		}
		copyToClipboard(job.OutputPath)
		return m, showStatusMessage("Copied output path", false)

	case key.Matches(msg, m.keys.Open):
		path := a.Settings().DestinationFolder
		if job, ok := m.queue.selected(); ok && job.OutputPath != "" {
			path = job.OutputPath
		}
		return m, openCmd(m.common.ctx, path)

	case key.Matches(msg, m.keys.Level):
		level := m.console.cycleFilter()
		return m, showStatusMessage("Console level: "+level, false)

	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.console.viewport, cmd = m.console.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// start validates the settings and launches a run.
func (m *model) start() tea.Cmd {
	if m.loading {
		return showStatusMessage("The model is still loading", true)
	}
	err := m.common.app.Start(m.common.ctx)
	if err == nil {
		return m.spinner.Tick
	}
	var cfgErr *runner.ConfigError
	if errors.As(err, &cfgErr) {
		m.console.logf(log.ErrorLevel, "%v", err)
	}
	return showStatusMessage(err.Error(), true)
}

func (m model) nextModel() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, showStatusMessage("The model is still loading", true)
	}
	if m.common.app.Runner().State().Active() {
		return m, showStatusMessage("Cannot change model while converting", true)
	}
	keys := engine.Keys()
	i := slices.Index(keys, m.common.app.Settings().SelectedModel)
	next := keys[(i+1)%len(keys)]
	m.loading = true
	return m, tea.Batch(m.spinner.Tick, loadModelCmd(m.common.ctx, m.common.app, next))
}

func (m model) openPrompt(kind promptKind, value string) (tea.Model, tea.Cmd) {
	m.state = statePrompt
	cmd := m.prompt.open(kind, value)
	m.prompt.setWidth(m.common.width)
	return m, cmd
}

func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "ctrl+c":
		m.prompt.close()
		m.state = stateBrowse
		return m, nil
	case "enter":
		kind, value := m.prompt.kind, strings.TrimSpace(m.prompt.input.Value())
		m.prompt.close()
		m.state = stateBrowse
		return m, m.submitPrompt(kind, value)
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.update(msg)
	return m, cmd
}

func (m model) submitPrompt(kind promptKind, value string) tea.Cmd {
	a := m.common.app
	switch kind {
	case promptAdd:
		if value == "" {
			return nil
		}
		return addPathCmd(m.common.ctx, a, config.ExpandPath(value), m.common.cfg.Patterns)
	case promptDestination:
		if value == "" {
			return showStatusMessage("Destination folder cannot be empty", true)
		}
		a.SetDestination(value)
		return showStatusMessage("Destination: "+a.Settings().DestinationFolder, false)
	case promptSpeakerWAV:
		if err := a.SetSpeakerWAV(config.ExpandPath(value)); err != nil {
			return showStatusMessage(err.Error(), true)
		}
		return showStatusMessage("Reference voice updated", false)
	case promptVoice:
		id, err := a.SetVoice(value)
		if err != nil {
			return showStatusMessage(err.Error(), true)
		}
		return showStatusMessage("Voice: "+id, false)
	}
	return nil
}

func (m model) updateConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter", "ctrl+c":
		_ = m.common.app.Runner().Stop()
		m.console.logf(log.WarnLevel, "Stopping conversion before quitting")
		return m, m.quit()
	default:
		m.state = stateBrowse
		return m, nil
	}
}

// quit releases the UI's background work. The caller closes the app,
// which waits for an active run and saves the settings.
func (m model) quit() tea.Cmd {
	m.common.cancel()
	m.common.unsub()
	return tea.Quit
}

func (m *model) handleEvent(ev runner.Event) {
	switch ev.Type {
	case runner.EventTypeLog, runner.EventTypeResult, runner.EventTypeDone, runner.EventTypeState:
		m.console.append(ev.Timestamp.Local(), ev.Level, ev.Message)
	}
	m.queue.clamp()
}


func (m *model) layout() {
	w, h := m.common.width, m.common.height
	helpHeight := 0
	if m.showHelp {
		helpHeight = len(m.keys.FullHelp()[0]) + 1
	}
	// header, two section titles, the prompt line and the status bar
	body := max(2, h-headerHeight-2-1-statusBarHeight-helpHeight)
	queueHeight := max(1, body*2/5)
	m.queue.setSize(w, queueHeight)
	m.console.setSize(w, max(1, body-queueHeight))
	m.prompt.setWidth(w)
	m.help.Width = w
}

func (m model) searchDir() string {
	if m.common.cfg.Path != "" {
		return m.common.cfg.Path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}

	var b strings.Builder
	b.WriteString(m.headerView() + "\n\n")
	b.WriteString(sectionStyle("Queue") + " " + subtleStyle(countsView(m.common.app.Queue())) + "\n")
	b.WriteString(padLines(m.queue.View(), m.queue.height) + "\n")
	b.WriteString(sectionStyle("Console") + " " + subtleStyle("["+m.console.filter+"]") + "\n")
	b.WriteString(m.console.View() + "\n")

	switch m.state {
	case statePrompt:
		b.WriteString(m.prompt.View())
	case stateConfirmQuit:
		b.WriteString(errorTitleStyle("Conversion in progress") + " Stop after the current job and quit? (y/N)")
	}
	b.WriteString("\n")
	m.statusBarView(&b)

	if m.showHelp {
		fmt.Fprint(&b, "\n"+m.helpView())
	}
	return b.String()
}

func (m model) headerView() string {
	a := m.common.app
	s := a.Settings()

	modelName := s.SelectedModel
	if mdl, ok := engine.Lookup(s.SelectedModel); ok {
		modelName = mdl.Name
	}
	var voice string
	switch e := a.Engine(); {
	case m.loading:
		voice = m.spinner.View() + " loading"
	case e == nil:
		voice = "not loaded"
	case e.Kind() == engine.KindVoiceClone:
		voice = "clone " + filepath.Base(s.SpeakerWAVPath)
	case e.Kind() == engine.KindMultiSpeaker:
		voice = s.SelectedVoice
	default:
		voice = "default"
	}

	runState := a.Runner().State()
	stateView := runState.String()
	if runState == runner.StateRunning || runState == runner.StateStopping {
		stateView = m.spinner.View() + " " + stateView
	}

	line1 := titleStyle("Kokoro") + " " + stateView
	if m.watching != "" {
		line1 += subtleStyle("  watching " + m.watching)
	}
	line2 := fmt.Sprintf("Model: %s · Voice: %s · MP3: %s · → %s",
		modelName, voice, onOff(s.OptimizeMP3), s.DestinationFolder)
	line2 = truncate.StringWithTail(line2, uint(max(0, m.common.width)), ellipsis) //nolint:gosec
	return line1 + "\n" + subtleStyle(line2)
}

func (m model) statusBarView(b *strings.Builder) {
	logo := titleStyle("Kokoro")
	helpNote := statusBarHelpStyle(" ? Help ")

	note := m.statusMessage
	style := statusBarNoteStyle
	switch {
	case m.statusMessage != "" && m.statusIsError:
		style = statusBarErrorStyle
	case m.statusMessage != "":
		style = statusBarMessageStyle
	default:
		note = countsView(m.common.app.Queue())
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(helpNote),
	)
	fmt.Fprintf(b, "%s%s%s%s", logo, style(note), style(strings.Repeat(" ", padding)), helpNote)
}

func (m model) helpView() string {
	s := m.help.FullHelpView(m.keys.FullHelp())
	return helpViewStyle(fillWidth(indent(s, 2), m.common.width))
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle("ERROR"),
		err,
		subtleStyle(exitMsg),
	)
	return "\n" + indent(s, 3)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

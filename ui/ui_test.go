package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/app"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/config"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/engine"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/runner"
)

func testApp(t *testing.T, mock engine.MockOptions) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.Model = "mock"
	cfg.Encode = false
	cfg.Destination = filepath.Join(t.TempDir(), "out")
	cfg.Settings.Dir = t.TempDir()
	cfg.Cache.Enabled = false
	if mock.Speakers == nil {
		mock.Speakers = []string{"low", "mid", "high"}
	}
	a, err := app.Open(app.Options{
		Config:    cfg,
		Lookup:    func(string) (string, error) { return "", proc.ErrNotFound },
		Debounce:  time.Hour,
		NewEngine: func(string) (engine.Engine, error) { return engine.NewMock(mock), nil },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func testModel(t *testing.T, a *app.App) model {
	t.Helper()
	m := newModel(context.Background(), Config{ConsoleLevel: "ALL", ConsoleLines: 100}, a)
	t.Cleanup(m.common.cancel)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(model)
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, keys ...string) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyPress(k))
		m = next.(model)
	}
	return m, cmd
}

// statusOf runs cmd and returns the status message it produces.
func statusOf(t *testing.T, cmd tea.Cmd) statusMsg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a status message command, got nil")
	}
	raw := cmd()
	msg, ok := raw.(statusMsg)
	if !ok {
		t.Fatalf("expected statusMsg, got %T", raw)
	}
	return msg
}

func loaded(t *testing.T, m model) model {
	t.Helper()
	speakers, err := m.common.app.LoadModel(context.Background(), "mock")
	next, _ := m.Update(modelLoadedMsg{key: "mock", speakers: speakers, err: err})
	if err != nil {
		t.Fatal(err)
	}
	return next.(model)
}

func addDocs(t *testing.T, a *app.App, names ...string) {
	t.Helper()
	dir := t.TempDir()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte("Some text for "+n+"."), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	a.AddFiles(paths)
}

// TestModelLoaded verifies load results reach the console and end the
// loading state.
func TestModelLoaded(t *testing.T) {
	m := testModel(t, testApp(t, engine.MockOptions{}))
	if !m.loading {
		t.Fatal("model should start loading")
	}
	next, cmd := m.Update(modelLoadedMsg{key: "mock", err: engine.ErrMissingConfig})
	m = next.(model)
	if m.loading {
		t.Error("still loading after modelLoadedMsg")
	}
	if msg := statusOf(t, cmd); !msg.isError {
		t.Error("load failure should be an error status")
	}
	last := m.console.lines[len(m.console.lines)-1]
	if last.level != log.ErrorLevel || !strings.Contains(last.text, "Failed to load model mock") {
		t.Errorf("console line = %+v", last)
	}
}

// TestStartRequiresEngine verifies Start is rejected without a loaded
// engine.
func TestStartRequiresEngine(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	m := testModel(t, a)
	_, cmd := press(t, m, "enter")
	if msg := statusOf(t, cmd); !msg.isError || !strings.Contains(msg.text, "loading") {
		t.Errorf("status = %+v", msg)
	}

	m.loading = false
	_, cmd = press(t, m, "enter")
	if msg := statusOf(t, cmd); !msg.isError {
		t.Errorf("status = %+v, want error", msg)
	}
	if a.Runner().State() != runner.StateIdle {
		t.Errorf("runner state = %s", a.Runner().State())
	}
}

// TestQueueKeys verifies cursor movement, reordering and removal.
func TestQueueKeys(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	addDocs(t, a, "a.txt", "b.txt", "c.txt")
	m := testModel(t, a)

	m, _ = press(t, m, "j", "J")
	names := func() []string {
		var out []string
		for _, j := range a.Queue().Snapshot() {
			out = append(out, j.DisplayName)
		}
		return out
	}
	if got := strings.Join(names(), ","); got != "a.txt,c.txt,b.txt" {
		t.Fatalf("order = %s", got)
	}
	if m.queue.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.queue.cursor)
	}
	m, _ = press(t, m, "x")
	if got := strings.Join(names(), ","); got != "a.txt,c.txt" {
		t.Errorf("after remove = %s", got)
	}
	if m.queue.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.queue.cursor)
	}
	m, _ = press(t, m, "k", "k", "k")
	if m.queue.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.queue.cursor)
	}
}

// TestRunAndQuitConfirmation verifies quitting during a run asks first and
// stops the run when confirmed.
func TestRunAndQuitConfirmation(t *testing.T) {
	a := testApp(t, engine.MockOptions{Delay: 200 * time.Millisecond})
	addDocs(t, a, "a.txt", "b.txt", "c.txt")
	m := loaded(t, testModel(t, a))

	m, _ = press(t, m, "enter")
	if !a.Runner().State().Active() {
		t.Fatal("run not started")
	}

	m, cmd := press(t, m, "q")
	if m.state != stateConfirmQuit {
		t.Fatalf("state = %s, want confirming quit", m.state)
	}
	if cmd != nil {
		t.Error("quit should wait for confirmation")
	}
	m, _ = press(t, m, "n")
	if m.state != stateBrowse {
		t.Fatalf("state = %s after declining", m.state)
	}

	waitProcessing(t, a)
	_, cmd = press(t, m, "q", "y")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("confirmed quit did not quit")
	}
	sum := a.Runner().Wait()
	if !sum.Stopped {
		t.Errorf("summary = %s, want stopped", sum)
	}
	if sum.Completed != 1 || sum.Failed != 0 {
		t.Errorf("summary = %s, want the job in progress completed", sum)
	}
	counts := a.Queue().Counts()
	if counts[queue.StatusComplete] != 1 || counts[queue.StatusPending] != 2 {
		t.Errorf("counts = %v", counts)
	}
}

// waitProcessing blocks until the runner has picked up a job.
func waitProcessing(t *testing.T, a *app.App) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for a.Queue().Counts()[queue.StatusProcessing] == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no job started")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestPauseKey verifies space toggles pause during a run and reports an
// error when idle.
func TestPauseKey(t *testing.T) {
	a := testApp(t, engine.MockOptions{Delay: 100 * time.Millisecond})
	addDocs(t, a, "a.txt", "b.txt")
	m := loaded(t, testModel(t, a))

	_, cmd := press(t, m, " ")
	if msg := statusOf(t, cmd); !msg.isError {
		t.Errorf("pause while idle = %+v", msg)
	}

	m, _ = press(t, m, "enter", " ")
	if got := a.Runner().State(); got != runner.StatePaused {
		t.Fatalf("state = %s, want paused", got)
	}
	press(t, m, " ")
	if got := a.Runner().State(); got == runner.StatePaused {
		t.Fatal("resume failed")
	}
	sum := a.Runner().Wait()
	if sum.Completed != 2 {
		t.Errorf("summary = %s", sum)
	}
}

// TestPromptDestination verifies a submitted prompt updates the settings.
func TestPromptDestination(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	m := testModel(t, a)

	m, _ = press(t, m, "d")
	if m.state != statePrompt || m.prompt.kind != promptDestination {
		t.Fatalf("state = %s, prompt = %d", m.state, m.prompt.kind)
	}
	dir := t.TempDir()
	m.prompt.input.SetValue(dir)
	m, cmd := press(t, m, "enter")
	if m.state != stateBrowse {
		t.Errorf("state = %s after submit", m.state)
	}
	if msg := statusOf(t, cmd); msg.isError {
		t.Errorf("status = %+v", msg)
	}
	if got := a.Settings().DestinationFolder; got != dir {
		t.Errorf("destination = %q, want %q", got, dir)
	}

	m, _ = press(t, m, "d", "esc")
	if m.state != stateBrowse || m.prompt.active() {
		t.Error("esc did not cancel the prompt")
	}
}

// TestVoiceKeys verifies cycling and choosing voices.
func TestVoiceKeys(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	m := loaded(t, testModel(t, a))
	if got := a.Settings().SelectedVoice; got != "low" {
		t.Fatalf("voice = %q", got)
	}
	m, _ = press(t, m, "v")
	if got := a.Settings().SelectedVoice; got != "mid" {
		t.Errorf("after v voice = %q, want mid", got)
	}
	m, _ = press(t, m, "V")
	m.prompt.input.SetValue("hi")
	press(t, m, "enter")
	if got := a.Settings().SelectedVoice; got != "high" {
		t.Errorf("after prompt voice = %q, want high", got)
	}
}

// TestMP3WithoutEncoder verifies MP3 cannot be enabled without ffmpeg.
func TestMP3WithoutEncoder(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	m := testModel(t, a)
	_, cmd := press(t, m, "o")
	if msg := statusOf(t, cmd); !msg.isError {
		t.Errorf("status = %+v, want error", msg)
	}
	if a.Settings().OptimizeMP3 {
		t.Error("mp3 enabled without encoder")
	}
}

// TestStatusMessageTimeout verifies only the latest message is cleared.
func TestStatusMessageTimeout(t *testing.T) {
	m := testModel(t, testApp(t, engine.MockOptions{}))
	next, _ := m.Update(statusMsg{text: "first"})
	next, _ = next.Update(statusMsg{text: "second"})
	next, _ = next.Update(statusMessageTimeoutMsg(1))
	if got := next.(model).statusMessage; got != "second" {
		t.Errorf("status = %q, want second", got)
	}
	next, _ = next.Update(statusMessageTimeoutMsg(2))
	if got := next.(model).statusMessage; got != "" {
		t.Errorf("status = %q, want cleared", got)
	}
}

// TestRunnerEventsReachConsole verifies run events are logged and the
// subscription is renewed.
func TestRunnerEventsReachConsole(t *testing.T) {
	m := testModel(t, testApp(t, engine.MockOptions{}))
	ev := runner.Event{Type: runner.EventTypeResult, Level: log.ErrorLevel, Message: "ERROR processing a.pdf: boom", Timestamp: time.Now()}
	next, cmd := m.Update(runnerEventMsg(ev))
	m = next.(model)
	if cmd == nil {
		t.Error("subscription not renewed")
	}
	last := m.console.lines[len(m.console.lines)-1]
	if last.text != ev.Message || last.level != log.ErrorLevel {
		t.Errorf("console line = %+v", last)
	}

	next, _ = m.Update(runnerEventMsg(runner.Event{Type: runner.EventTypeStatus, Status: queue.StatusProcessing}))
	if n := len(next.(model).console.lines); n != len(m.console.lines) {
		t.Error("status events should not be logged")
	}
}

// TestViewRendersQueue verifies the view lists jobs and their statuses.
func TestViewRendersQueue(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	addDocs(t, a, "chapter.txt")
	m := testModel(t, a)
	v := m.View()
	for _, want := range []string{"Queue", "Console", "chapter.txt", "Pending", "Help"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

// TestFatalPath verifies a bad folder argument shows an error and any key
// quits.
func TestFatalPath(t *testing.T) {
	a := testApp(t, engine.MockOptions{})
	m := newModel(context.Background(), Config{Path: filepath.Join(t.TempDir(), "missing")}, a)
	if m.fatalErr == nil {
		t.Fatal("expected fatal error")
	}
	if !strings.Contains(m.View(), "ERROR") {
		t.Error("error view not shown")
	}
	_, cmd := m.Update(keyPress("x"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("key did not quit")
	}
}

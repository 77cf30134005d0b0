package ui

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/app"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/discover"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/proc"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/runner"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/speech"
	"github.com/muesli/termenv"
)

type (
	modelLoadedMsg struct {
		key      string
		speakers []string
		err      error
	}
	filesAddedMsg struct {
		dir   string
		added int
		err   error
	}
	watchStartedMsg struct {
		dir string
		ch  chan string
	}
	watchedFileMsg struct {
		path string
		ch   chan string
	}
	watchStoppedMsg         struct{}
	runnerEventMsg          runner.Event
	eventsClosedMsg         struct{}
	openedMsg               struct{ err error }
	statusMessageTimeoutMsg int
)

type statusMsg struct {
	text    string
	isError bool
}

// COMMANDS

func loadModelCmd(ctx context.Context, a *app.App, key string) tea.Cmd {
	return func() tea.Msg {
		speakers, err := a.LoadModel(ctx, key)
		return modelLoadedMsg{key: key, speakers: speakers, err: err}
	}
}

func findFilesCmd(ctx context.Context, a *app.App, dir string, patterns []string) tea.Cmd {
	return func() tea.Msg {
		n, err := a.AddFolder(ctx, dir, patterns)
		return filesAddedMsg{dir: dir, added: n, err: err}
	}
}

// addPathCmd adds a single document, or every document below a folder.
func addPathCmd(ctx context.Context, a *app.App, path string, patterns []string) tea.Cmd {
	return func() tea.Msg {
		info, err := os.Stat(path)
		if err != nil {
			return filesAddedMsg{dir: path, err: err}
		}
		if info.IsDir() {
			n, err := a.AddFolder(ctx, path, patterns)
			return filesAddedMsg{dir: path, added: n, err: err}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return filesAddedMsg{dir: path, err: err}
		}
		return filesAddedMsg{dir: filepath.Dir(abs), added: a.AddFiles([]string{abs})}
	}
}

// startWatchCmd watches dir in the background. Found documents arrive
// one at a time through waitForWatchedFile.
func startWatchCmd(ctx context.Context, dir string, patterns []string) tea.Cmd {
	return func() tea.Msg {
		ch := make(chan string, 16)
		go func() {
			defer close(ch)
			err := discover.Watch(ctx, dir, patterns, func(path string) {
				select {
				case ch <- path:
				case <-ctx.Done():
				}
			})
			if err != nil && ctx.Err() == nil {
				log.Error("Folder watch stopped", "dir", dir, "err", err)
			}
		}()
		return watchStartedMsg{dir: dir, ch: ch}
	}
}

func waitForWatchedFile(ch chan string) tea.Cmd {
	return func() tea.Msg {
		path, ok := <-ch
		if !ok {
			return watchStoppedMsg{}
		}
		return watchedFileMsg{path: path, ch: ch}
	}
}

func waitForEvent(ch <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return runnerEventMsg(ev)
	}
}

func openCmd(ctx context.Context, path string) tea.Cmd {
	return func() tea.Msg {
		return openedMsg{err: speech.Open(ctx, proc.Exec{}, path)}
	}
}

// copyToClipboard copies s using OSC 52 and the native clipboard.
func copyToClipboard(s string) {
	termenv.Copy(s)
	_ = clipboard.WriteAll(s)
}

func showStatusMessage(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isError: isError}
	}
}

// statusMessageTimeoutCmd clears status message id once it has been shown
// long enough. Newer messages get a new id and are left alone.
func statusMessageTimeoutCmd(id int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(id)
	})
}

package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// promptKind is what a submitted prompt value is applied to.
type promptKind int

const (
	promptNone promptKind = iota
	promptAdd
	promptDestination
	promptSpeakerWAV
	promptVoice
)

func (k promptKind) label() string {
	switch k {
	case promptAdd:
		return "Add file or folder: "
	case promptDestination:
		return "Destination folder: "
	case promptSpeakerWAV:
		return "Reference WAV: "
	case promptVoice:
		return "Voice: "
	}
	return ""
}

type promptModel struct {
	kind  promptKind
	input textinput.Model
}

func newPromptModel() promptModel {
	ti := textinput.New()
	ti.CharLimit = 4096
	return promptModel{input: ti}
}

func (m promptModel) active() bool { return m.kind != promptNone }

// open starts editing value for kind.
func (m *promptModel) open(kind promptKind, value string) tea.Cmd {
	m.kind = kind
	m.input.Prompt = kind.label()
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *promptModel) close() {
	m.kind = promptNone
	m.input.Blur()
	m.input.Reset()
}

func (m *promptModel) setWidth(w int) {
	m.input.Width = max(0, w-len(m.input.Prompt)-1)
}

func (m promptModel) update(msg tea.Msg) (promptModel, tea.Cmd) {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	return m.input.View()
}

package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Remove     key.Binding
	Reset      key.Binding
	Add        key.Binding
	Find       key.Binding
	Start      key.Binding
	Pause      key.Binding
	Stop       key.Binding
	Model      key.Binding
	Voice      key.Binding
	NextVoice  key.Binding
	SpeakerWAV key.Binding
	Dest       key.Binding
	MP3        key.Binding
	Copy       key.Binding
	Open       key.Binding
	Level      key.Binding
	Scroll     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:       key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		MoveUp:     key.NewBinding(key.WithKeys("K", "shift+up"), key.WithHelp("K", "move job up")),
		MoveDown:   key.NewBinding(key.WithKeys("J", "shift+down"), key.WithHelp("J", "move job down")),
		Remove:     key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove job")),
		Reset:      key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reset statuses")),
		Add:        key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add file or folder")),
		Find:       key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "find documents")),
		Start:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "start")),
		Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
		Stop:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop")),
		Model:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "next model")),
		Voice:      key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "choose voice")),
		NextVoice:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "next voice")),
		SpeakerWAV: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "reference wav")),
		Dest:       key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "destination")),
		MP3:        key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "toggle mp3")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy output path")),
		Open:       key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "open output")),
		Level:      key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "console level")),
		Scroll:     key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll console")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.Pause, k.Stop, k.Add, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.MoveUp, k.MoveDown, k.Remove, k.Reset},
		{k.Add, k.Find, k.Start, k.Pause, k.Stop},
		{k.Model, k.NextVoice, k.Voice, k.SpeakerWAV, k.Dest, k.MP3},
		{k.Copy, k.Open, k.Level, k.Scroll, k.Help, k.Quit},
	}
}

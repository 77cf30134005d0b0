package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
)

var (
	green     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	yellow    = lipgloss.AdaptiveColor{Light: "#A37B00", Dark: "#ECFD65"}
	blue      = lipgloss.AdaptiveColor{Light: "#1F6FEB", Dark: "#58A6FF"}
	gray      = lipgloss.AdaptiveColor{Light: "#909090", Dark: "#626262"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1).
			Render

	errorTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(red).
			Padding(0, 1).
			Render

	subtleStyle = lipgloss.NewStyle().
			Foreground(gray).
			Render

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(statusBarNoteFg).
			Render

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}).
			Bold(true)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFDF5")).
				Background(red).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Background(lipgloss.AdaptiveColor{Light: "#f2f2f2", Dark: "#1B1B1B"}).
			Render
)

func jobStatusStyle(s queue.Status) lipgloss.Style {
	switch s {
	case queue.StatusProcessing:
		return lipgloss.NewStyle().Foreground(blue).Bold(true)
	case queue.StatusComplete:
		return lipgloss.NewStyle().Foreground(green)
	case queue.StatusError:
		return lipgloss.NewStyle().Foreground(red)
	default:
		return lipgloss.NewStyle().Foreground(gray)
	}
}

func levelStyle(l log.Level) lipgloss.Style {
	switch {
	case l >= log.ErrorLevel:
		return lipgloss.NewStyle().Foreground(red)
	case l >= log.WarnLevel:
		return lipgloss.NewStyle().Foreground(yellow)
	case l >= log.InfoLevel:
		return lipgloss.NewStyle()
	default:
		return lipgloss.NewStyle().Foreground(gray)
	}
}

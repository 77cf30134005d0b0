package diagnostics

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

var statusMark = map[Status]string{
	StatusPass: "✓ pass",
	StatusWarn: "! warn",
	StatusFail: "✗ fail",
}

// Markdown renders the report as a markdown document.
func (r Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# kokoro doctor\n\n")
	sb.WriteString("| Check | Status | Details |\n|---|---|---|\n")
	for _, it := range r.Items {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", it.Name, statusMark[it.Status], escapeCell(it.Message))
	}

	var hints []Item
	for _, it := range r.Items {
		if it.Hint != "" && it.Status != StatusPass {
			hints = append(hints, it)
		}
	}
	if len(hints) > 0 {
		sb.WriteString("\n## How to fix\n\n")
		for _, it := range hints {
			fmt.Fprintf(&sb, "- **%s**: %s\n", it.Name, it.Hint)
		}
	}
	if !r.HasFailures {
		sb.WriteString("\nEverything needed for a conversion is in place.\n")
	}
	return sb.String()
}

// Render renders the report for the terminal.
func (r Report) Render(style string, width int) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := renderer.Render(r.Markdown())
	if err != nil {
		return "", fmt.Errorf("unable to render report: %w", err)
	}
	return out, nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

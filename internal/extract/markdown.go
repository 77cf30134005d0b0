package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markdown reads Markdown files and keeps only the prose. Code blocks and
// raw HTML are dropped, headings and list items become their own lines.
type Markdown struct{}

// Extract returns the spoken text of the document.
func (Markdown) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return finish(StripMarkdown(b))
}

// StripMarkdown renders src as plain text, one block per paragraph.
func StripMarkdown(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if !entering {
				endSentence(&sb)
				sb.WriteString("\n\n")
			}
		case *ast.Paragraph, *ast.TextBlock:
			if !entering {
				sb.WriteString("\n\n")
			}
		case *ast.Text:
			if entering {
				sb.Write(n.Segment.Value(src))
				if n.SoftLineBreak() {
					sb.WriteByte(' ')
				}
				if n.HardLineBreak() {
					sb.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				sb.Write(n.Value)
			}
		case *ast.AutoLink:
			if entering {
				sb.Write(n.Label(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// endSentence terminates a heading so it is read as its own sentence.
func endSentence(sb *strings.Builder) {
	s := strings.TrimRight(sb.String(), " ")
	if s == "" {
		return
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ':', '\n':
		return
	}
	sb.WriteByte('.')
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrNoText is returned when a document yields no readable text.
	ErrNoText = errors.New("no text could be extracted")
	// ErrUnsupported is returned for file types without an extractor.
	ErrUnsupported = errors.New("unsupported document type")
)

// Extractor reads the text content of a document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Func adapts a function to the Extractor interface.
type Func func(ctx context.Context, path string) (string, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, path string) (string, error) {
	return f(ctx, path)
}

// Extensions lists the lower-case extensions Auto can handle.
var Extensions = []string{".pdf", ".txt", ".text", ".md"}

// Patterns are the discovery globs for Extensions, matching any case.
var Patterns = globs(Extensions)

// Supported reports whether path has an extension Auto can handle.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// globs turns ".pdf" into "*.[pP][dD][fF]".
func globs(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		var sb strings.Builder
		sb.WriteByte('*')
		for _, r := range ext {
			lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
			if lower == upper {
				sb.WriteRune(r)
				continue
			}
			sb.WriteByte('[')
			sb.WriteRune(lower)
			sb.WriteRune(upper)
			sb.WriteByte(']')
		}
		out = append(out, sb.String())
	}
	return out
}

// Auto picks the extractor by file extension.
type Auto struct{}

// Extract dispatches to PDF, Markdown or Text.
func (Auto) Extract(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return PDF{}.Extract(ctx, path)
	case ".md":
		return Markdown{}.Extract(ctx, path)
	case ".txt", ".text":
		return Text{}.Extract(ctx, path)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Text reads UTF-8 text files.
type Text struct{}

// Extract returns the normalized file contents.
func (Text) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return finish(string(b))
}

var (
	trailingSpace = regexp.MustCompile(`[ \t]+\n`)
	manyNewlines  = regexp.MustCompile(`\n{4,}`)
)

// Normalize converts text to NFC, unifies line endings and trims runs of
// blank lines. Triple newlines survive since they separate speech segments.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = manyNewlines.ReplaceAllString(s, "\n\n\n")
	return strings.TrimSpace(s)
}

func finish(s string) (string, error) {
	s = Normalize(s)
	if s == "" {
		return "", ErrNoText
	}
	return s, nil
}

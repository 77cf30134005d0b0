package speech

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sentenceBreak = regexp.MustCompile(`[.!?]+`)
	token         = regexp.MustCompile(`[\p{L}\p{N}_]+|[^\p{L}\p{N}_\s]`)
)

// Stats describes a text buffer.
type Stats struct {
	Bytes     int `json:"bytes"`
	Words     int `json:"words"`
	Sentences int `json:"sentences"`
	Lines     int `json:"lines"`
	// Tokens approximates model tokens as words plus punctuation marks.
	Tokens int `json:"tokens"`
}

// Analyze computes the statistics of text after trimming surrounding
// whitespace.
func Analyze(text string) Stats {
	text = strings.TrimSpace(text)
	s := Stats{
		Bytes: len(text),
		Words: len(strings.Fields(text)),
		Lines: strings.Count(text, "\n") + 1,
	}
	for _, part := range sentenceBreak.Split(text, -1) {
		if strings.TrimSpace(part) != "" {
			s.Sentences++
		}
	}
	s.Tokens = len(token.FindAllStringIndex(text, -1))
	return s
}

// String formats the statistics for the status line.
func (s Stats) String() string {
	return fmt.Sprintf("Bytes: %d | Words: %d | Sentence: %d | Line: %d | Tokens: %d",
		s.Bytes, s.Words, s.Sentences, s.Lines, s.Tokens)
}

package engine

import (
	"strings"
	"unicode/utf8"
)

// Chunk splits text into pieces of at most limit bytes, preferring
// paragraph, then sentence, then word boundaries. Backends with request
// size limits synthesize the pieces separately and join the clips.
func Chunk(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var out []string
	var cur strings.Builder
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}
	add := func(piece, sep string) {
		if cur.Len() > 0 && cur.Len()+len(sep)+len(piece) > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= limit {
			add(para, "\n\n")
			continue
		}
		for _, sent := range sentences(para) {
			if len(sent) <= limit {
				add(sent, " ")
				continue
			}
			for _, word := range strings.Fields(sent) {
				for len(word) > limit {
					cut := limit
					for cut > 0 && !utf8.RuneStart(word[cut]) {
						cut--
					}
					if cut == 0 {
						cut = limit
					}
					flush()
					out = append(out, word[:cut])
					word = word[cut:]
				}
				add(word, " ")
			}
		}
	}
	flush()
	return out
}

// sentences splits after '.', '!' or '?' followed by whitespace.
func sentences(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s)-1; i++ {
		switch s[i] {
		case '.', '!', '?':
			if s[i+1] == ' ' || s[i+1] == '\n' || s[i+1] == '\t' {
				out = append(out, strings.TrimSpace(s[start:i+1]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

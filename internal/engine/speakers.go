package engine

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"
)

var labelID = regexp.MustCompile(`\(([^()]+)\)\s*$`)

// SpeakerLabel formats a speaker for display as "Speaker N (id)", with N
// counted from one.
func SpeakerLabel(index int, id string) string {
	return fmt.Sprintf("Speaker %d (%s)", index+1, id)
}

// SpeakerLabels formats every speaker id.
func SpeakerLabels(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = SpeakerLabel(i, id)
	}
	return out
}

// ParseSpeakerLabel extracts the id from a display label. Plain ids are
// returned unchanged.
func ParseSpeakerLabel(label string) string {
	label = strings.TrimSpace(label)
	if m := labelID.FindStringSubmatch(label); m != nil {
		return strings.TrimSpace(m[1])
	}
	return label
}

// ResolveSpeaker finds the speaker meant by query, which may be an id, a
// display label or a fuzzy fragment of an id.
func ResolveSpeaker(query string, speakers []string) (string, error) {
	id := ParseSpeakerLabel(query)
	if id == "" {
		return "", ErrNoSpeaker
	}
	if slices.Contains(speakers, id) {
		return id, nil
	}
	for _, s := range speakers {
		if strings.EqualFold(s, id) {
			return s, nil
		}
	}
	matches := fuzzy.Find(id, speakers)
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownSpeaker, query)
	}
	return matches[0].Str, nil
}

// CommitSpeaker chooses the speaker to use: the saved choice when it is
// still offered, otherwise the first speaker. It returns an empty string
// when the engine has no speakers.
func CommitSpeaker(saved string, speakers []string) string {
	if len(speakers) == 0 {
		return ""
	}
	if id := ParseSpeakerLabel(saved); slices.Contains(speakers, id) {
		return id
	}
	return speakers[0]
}

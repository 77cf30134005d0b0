package engine

import (
	"testing"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/audio"
)

func writeTestWAV(t *testing.T, path string, samples int) {
	t.Helper()
	c := audio.NewClip(22050, 1)
	c.Samples = make([]int16, samples)
	for i := range c.Samples {
		c.Samples[i] = int16(i)
	}
	if err := audio.WriteFile(path, c); err != nil {
		t.Fatalf("writing test wav: %v", err)
	}
}

func found(name string) (string, error) { return "/opt/bin/" + name, nil }

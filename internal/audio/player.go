//go:build !nocgo

package audio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// oto allows a single context per process, so the first clip played fixes
// the device format.
var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoRate int
	otoChan int
	otoErr  error
)

func otoContext(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(op)
		if otoErr != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", otoErr)
			return
		}
		<-ready
		otoRate, otoChan = sampleRate, channels
		log.Debug("Audio device ready", "sample_rate", sampleRate, "channels", channels)
	})
	if otoErr != nil {
		return nil, otoErr
	}
	if sampleRate != otoRate || channels != otoChan {
		return nil, fmt.Errorf("%w: device opened at %d Hz/%d ch", ErrFormatMismatch, otoRate, otoChan)
	}
	return otoCtx, nil
}

// Play plays c on the default audio device and blocks until playback ends
// or ctx is cancelled.
func Play(ctx context.Context, c *Clip) error {
	if c.Empty() {
		return ErrEmpty
	}
	octx, err := otoContext(c.SampleRate, c.Channels)
	if err != nil {
		return err
	}

	// The byte slice must stay referenced until the player is closed.
	data := c.PCM16LE()
	p := octx.NewPlayer(bytes.NewReader(data))
	defer p.Close() //nolint:errcheck
	p.Play()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for p.IsPlaying() {
		select {
		case <-ctx.Done():
			p.Pause()
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

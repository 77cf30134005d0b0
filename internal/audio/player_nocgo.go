//go:build nocgo

package audio

import (
	"context"
	"errors"
)

// ErrNoPlayback is returned by Play in builds without audio device support.
var ErrNoPlayback = errors.New("audio playback not available in this build")

// Play is unavailable without cgo.
func Play(_ context.Context, _ *Clip) error {
	return ErrNoPlayback
}

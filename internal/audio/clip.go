package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	goaudio "github.com/go-audio/audio"
)

// BitDepth is the sample size used for every clip.
const BitDepth = 16

var (
	// ErrEmpty is returned when an operation needs samples and the clip has none.
	ErrEmpty = errors.New("audio clip is empty")
	// ErrFormatMismatch is returned when clips with different formats are joined.
	ErrFormatMismatch = errors.New("audio format mismatch")
)

// Clip is a block of signed 16-bit PCM samples, interleaved when there is
// more than one channel.
type Clip struct {
	SampleRate int
	Channels   int
	Samples    []int16
}

// NewClip returns an empty clip with the given format.
func NewClip(sampleRate, channels int) *Clip {
	if channels <= 0 {
		channels = 1
	}
	return &Clip{SampleRate: sampleRate, Channels: channels}
}

// FromPCM16LE wraps raw little-endian 16-bit PCM, as written by engines
// that stream raw audio on stdout. A trailing odd byte is dropped.
func FromPCM16LE(b []byte, sampleRate, channels int) *Clip {
	c := NewClip(sampleRate, channels)
	c.Samples = make([]int16, len(b)/2)
	for i := range c.Samples {
		c.Samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return c
}

// PCM16LE returns the samples as raw little-endian bytes.
func (c *Clip) PCM16LE() []byte {
	b := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(s))
	}
	return b
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return len(c.Samples)
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Frames()) * time.Second / time.Duration(c.SampleRate)
}

// Empty reports whether the clip holds no samples.
func (c *Clip) Empty() bool {
	return c == nil || len(c.Samples) == 0
}

// Append adds the samples of other to the end of c.
func (c *Clip) Append(other *Clip) error {
	if other.Empty() {
		return nil
	}
	if c.SampleRate == 0 && len(c.Samples) == 0 {
		c.SampleRate = other.SampleRate
		c.Channels = other.Channels
	}
	if other.SampleRate != c.SampleRate || other.Channels != c.Channels {
		return fmt.Errorf("%w: %d Hz/%d ch vs %d Hz/%d ch", ErrFormatMismatch,
			c.SampleRate, c.Channels, other.SampleRate, other.Channels)
	}
	c.Samples = append(c.Samples, other.Samples...)
	return nil
}

// Concat joins clips in order. Empty clips are skipped.
func Concat(clips ...*Clip) (*Clip, error) {
	out := &Clip{}
	for i, c := range clips {
		if err := out.Append(c); err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
	}
	if out.Empty() {
		return nil, ErrEmpty
	}
	return out, nil
}

// buffer converts the clip into a go-audio buffer for encoding.
func (c *Clip) buffer() *goaudio.IntBuffer {
	data := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		data[i] = int(s)
	}
	return &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
}

// fromBuffer converts a decoded buffer of any supported depth to 16 bits.
func fromBuffer(buf *goaudio.IntBuffer, depth int) (*Clip, error) {
	if buf == nil || buf.Format == nil {
		return nil, ErrEmpty
	}
	c := NewClip(buf.Format.SampleRate, buf.Format.NumChannels)
	c.Samples = make([]int16, len(buf.Data))
	for i, v := range buf.Data {
		switch depth {
		case 8:
			v = (v - 128) << 8
		case 16:
		case 24:
			v >>= 8
		case 32:
			v >>= 16
		default:
			return nil, fmt.Errorf("unsupported bit depth %d", depth)
		}
		c.Samples[i] = int16(v)
	}
	return c, nil
}

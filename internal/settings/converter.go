package settings

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/matbanik/Text-to-Audio-AI-Wisper-Converter/internal/queue"
	"github.com/mitchellh/go-homedir"
)

// ConverterFile is the file name of the queue converter settings.
const ConverterFile = "settings.json"

// Converter holds the queue converter's persisted state.
type Converter struct {
	Queue             []queue.Job `json:"pdf_queue"`
	DestinationFolder string      `json:"destination_folder"`
	SelectedVoice     string      `json:"selected_voice"`
	SpeakerWAVPath    string      `json:"speaker_wav_path"`
	SelectedModel     string      `json:"selected_tts_model"`
	OptimizeMP3       bool        `json:"optimize_mp3"`
}

// MarshalJSON writes an absent queue as an empty list, never null.
func (c Converter) MarshalJSON() ([]byte, error) {
	type plain Converter
	if c.Queue == nil {
		c.Queue = []queue.Job{}
	}
	return json.Marshal(plain(c))
}

// DefaultDestination returns ~/Downloads, or the working directory when
// the home directory cannot be determined.
func DefaultDestination() string {
	home, err := homedir.Dir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// DefaultConverter returns the first-run converter settings.
func DefaultConverter() Converter {
	return Converter{
		Queue:             []queue.Job{},
		DestinationFolder: DefaultDestination(),
		OptimizeMP3:       true,
	}
}

// Sanitize repairs values that cannot be used as saved. A job left in
// Processing by an interrupted run goes back to Pending.
func (c *Converter) Sanitize() []string {
	var changes []string
	if c.Queue == nil {
		c.Queue = []queue.Job{}
	}
	for i := range c.Queue {
		if c.Queue[i].Status == queue.StatusProcessing {
			c.Queue[i].Status = queue.StatusPending
			changes = append(changes, fmt.Sprintf("reset interrupted job %s to Pending", c.Queue[i].DisplayName))
		}
	}
	if c.DestinationFolder == "" {
		c.DestinationFolder = DefaultDestination()
		changes = append(changes, "empty destination folder replaced with "+c.DestinationFolder)
	}
	return changes
}

// NewConverterStore returns the store for settings.json in dir.
func NewConverterStore(dir string) *Store[Converter] {
	return NewStore(filepath.Join(dir, ConverterFile), DefaultConverter)
}

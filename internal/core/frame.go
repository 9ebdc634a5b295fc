package core

import (
	"errors"
	"fmt"
	"time"
)

// Frame is one fetched position of a flip-book.
type Frame struct {
	Index   int    `json:"index"`
	Content []byte `json:"-"`
}

// Size returns the content length in bytes.
func (f Frame) Size() int {
	return len(f.Content)
}

// Manifest describes a frame set.
type Manifest struct {
	Frames    int     `json:"frames"`
	FrameRate float64 `json:"frame_rate,omitempty"`
	Extension string  `json:"extension,omitempty"`
}

// Validate checks that the manifest can drive playback.
func (m *Manifest) Validate() error {
	if m.Frames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", m.Frames)
	}
	if m.FrameRate < 0 {
		return errors.New("frame_rate must be non-negative")
	}
	return nil
}

// Duration returns the playback length at the manifest frame rate.
func (m *Manifest) Duration() time.Duration {
	if m == nil || m.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(m.Frames) / m.FrameRate * float64(time.Second))
}

package core

import "time"

// PlayState is the playback mode of a player.
type PlayState int

const (
	Paused PlayState = iota
	Playing
)

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "playing"
	default:
		return "paused"
	}
}

// Status is a snapshot of a player's position.
type Status struct {
	Index     int       `json:"index"`
	Size      int       `json:"size"`
	FrameRate float64   `json:"frame_rate"`
	State     PlayState `json:"-"`
}

// HasFrame returns true once a frame has been shown.
func (s *Status) HasFrame() bool {
	return s != nil && s.Index >= 0
}

// IsPlaying returns true if the player is advancing frames.
func (s *Status) IsPlaying() bool {
	return s != nil && s.State == Playing
}

// Elapsed returns the playback time of the current frame.
func (s *Status) Elapsed() time.Duration {
	if !s.HasFrame() || s.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Index) / s.FrameRate * float64(time.Second))
}

// Total returns the playback time of the whole sequence.
func (s *Status) Total() time.Duration {
	if s == nil || s.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(s.Size) / s.FrameRate * float64(time.Second))
}

// ProgressPercent returns the position as a percentage (0-100).
func (s *Status) ProgressPercent() float64 {
	if !s.HasFrame() || s.Size <= 1 {
		return 0
	}
	return float64(s.Index) / float64(s.Size-1) * 100
}

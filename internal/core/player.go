package core

// Player defines the interface for flip-book playback control.
type Player interface {
	// Navigation
	Show(index int) error
	Step(delta int) error

	// Playback control
	Play()
	Pause()
	PlayPause()

	// State queries
	Index() int
	State() PlayState
	Status() Status
}

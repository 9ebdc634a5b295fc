package playback

import "github.com/tessro/flipbook/internal/core"

// Event is something a View should render.
type Event interface {
	event()
}

// EventFrame carries a newly displayed frame.
type EventFrame struct {
	Frame core.Frame
}

// EventFailed reports that a requested frame could not be fetched.
// The displayed frame is unchanged.
type EventFailed struct {
	Index int
	Err   error
}

// EventState reports a play/pause transition.
type EventState struct {
	State core.PlayState
}

func (EventFrame) event()  {}
func (EventFailed) event() {}
func (EventState) event()  {}

// View renders controller events.
type View interface {
	Handle(Event)
}

// ViewFunc adapts a function to the View interface.
type ViewFunc func(Event)

// Handle calls f(ev).
func (f ViewFunc) Handle(ev Event) {
	f(ev)
}

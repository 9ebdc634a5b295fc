// Package feed renders playback events as lines of text, for pipes and
// terminals where the full UI is unavailable.
package feed

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tessro/flipbook/internal/core"
	"github.com/tessro/flipbook/internal/playback"
)

// Formatter formats events for output.
type Formatter struct {
	size          int
	frameRate     float64
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a formatter for a flip-book of size frames.
func NewFormatter(size int, frameRate float64, opts ...FormatterOption) *Formatter {
	f := &Formatter{
		size:      size,
		frameRate: frameRate,
		showEmoji: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(ev playback.Event, at time.Time) string {
	if f.template != nil {
		return f.formatTemplate(ev, at)
	}
	return f.formatLine(ev, at)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(ev playback.Event, at time.Time) string {
	var parts []string

	// Timestamp
	if f.showTimestamp {
		parts = append(parts, at.Format("15:04:05"))
	}

	// Emoji
	if f.showEmoji {
		parts = append(parts, eventEmoji(ev))
	}

	parts = append(parts, f.eventDescription(ev))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(ev playback.Event, at time.Time) string {
	data := templateData{
		Type:  eventTypeName(ev),
		Emoji: eventEmoji(ev),
		Time:  at.Format("15:04:05"),
		Index: -1,
		Size:  f.size,
		Total: core.FormatClock(f.status(0).Total()),
	}

	switch e := ev.(type) {
	case playback.EventFrame:
		data.Index = e.Frame.Index
		data.Bytes = humanize.Bytes(uint64(e.Frame.Size()))
		data.Elapsed = core.FormatClock(f.status(e.Frame.Index).Elapsed())
	case playback.EventFailed:
		data.Index = e.Index
		data.Error = e.Err.Error()
	case playback.EventState:
		data.State = e.State.String()
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(ev, at)
	}
	return buf.String()
}

type templateData struct {
	Type    string
	Emoji   string
	Time    string
	Index   int
	Size    int
	Bytes   string
	Elapsed string
	Total   string
	State   string
	Error   string
}

func (f *Formatter) status(index int) *core.Status {
	return &core.Status{Index: index, Size: f.size, FrameRate: f.frameRate}
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(ev playback.Event) string {
	switch e := ev.(type) {
	case playback.EventFrame:
		s := f.status(e.Frame.Index)
		return fmt.Sprintf("Frame %d/%d  %s / %s  (%s)",
			e.Frame.Index+1, f.size,
			core.FormatClock(s.Elapsed()),
			core.FormatClock(s.Total()),
			humanize.Bytes(uint64(e.Frame.Size())))

	case playback.EventFailed:
		return fmt.Sprintf("Frame %d/%d unavailable: %v", e.Index+1, f.size, e.Err)

	case playback.EventState:
		if e.State == core.Playing {
			return "Playing"
		}
		return "Paused"

	default:
		return "Unknown event"
	}
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(ev playback.Event) string {
	switch e := ev.(type) {
	case playback.EventFrame:
		return "🖼️"
	case playback.EventFailed:
		return "⚠️"
	case playback.EventState:
		if e.State == core.Playing {
			return "▶️"
		}
		return "⏸️"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(ev playback.Event) string {
	switch e := ev.(type) {
	case playback.EventFrame:
		return "frame"
	case playback.EventFailed:
		return "failed"
	case playback.EventState:
		if e.State == core.Playing {
			return "play"
		}
		return "pause"
	default:
		return "unknown"
	}
}

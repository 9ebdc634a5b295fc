package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/flipbook/internal/tui/styles"
)

// EventKind classifies an entry in the events log
type EventKind int

const (
	EventShown EventKind = iota
	EventFailed
	EventPlaying
	EventPaused
)

// EventEntry is one line of the events log
type EventEntry struct {
	Kind  EventKind
	Index int
	Text  string
	At    time.Time
}

// Events displays recent playback events, newest first
type Events struct {
	now func() time.Time
}

// NewEvents creates a new Events component
func NewEvents() *Events {
	return &Events{now: time.Now}
}

// Render renders the events panel
func (e *Events) Render(entries []EventEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("Events", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No events yet")
	} else {
		content = e.renderEntries(entries, width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (e *Events) renderEntries(entries []EventEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i, entry := range entries {
		if i >= maxLines {
			break
		}

		ago := formatTimeAgo(e.now().Sub(entry.At), entry.At)
		text := describe(entry)

		// icon (2) + ago
		available := width - 2 - len(ago) - 1
		text = truncate(text, available)

		padding := width - 2 - lipgloss.Width(text) - len(ago)
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s %s%s%s",
			icon(entry.Kind),
			text,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(ago))
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func describe(entry EventEntry) string {
	switch entry.Kind {
	case EventShown:
		return fmt.Sprintf("Frame %d", entry.Index+1)
	case EventFailed:
		if entry.Text == "" {
			return fmt.Sprintf("Frame %d failed", entry.Index+1)
		}
		return fmt.Sprintf("Frame %d: %s", entry.Index+1, entry.Text)
	case EventPlaying:
		return "Playing"
	default:
		return "Paused"
	}
}

func icon(kind EventKind) string {
	switch kind {
	case EventFailed:
		return styles.Failed.Render("✗")
	case EventPlaying:
		return styles.Playing.Render("▶")
	case EventPaused:
		return styles.Paused.Render("⏸")
	default:
		return styles.Dim.Render("·")
	}
}

func formatTimeAgo(d time.Duration, at time.Time) string {
	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return at.Format("Jan 2")
}

// truncate shortens s to at most max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

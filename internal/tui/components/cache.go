package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/tui/styles"
)

// Cache displays frame loader statistics
type Cache struct{}

// NewCache creates a new Cache component
func NewCache() *Cache {
	return &Cache{}
}

// Render renders the cache panel
func (c *Cache) Render(stats frames.Stats, size, width, height int, focused bool) string {
	title := styles.PanelTitle("Cache", focused)

	worker := styles.Dim.Render("idle")
	if stats.Busy {
		worker = styles.Playing.Render("fetching")
	}

	readahead := fmt.Sprintf("%d/%d", min(stats.Cursor, size), size)
	if stats.Complete(size) {
		readahead = styles.Playing.Render("complete")
	}

	failures := fmt.Sprintf("%d", stats.Failures)
	if stats.Failures > 0 {
		failures = styles.Failed.Render(failures)
	}

	lines := []string{
		row("cached", fmt.Sprintf("%d/%d frames", stats.Cached, size)),
		row("memory", humanize.Bytes(uint64(stats.Bytes))),
		row("worker", worker),
		row("queued", fmt.Sprintf("%d", stats.Queued)),
		row("readahead", readahead),
		row("fetches", humanize.Comma(int64(stats.Fetches))),
		row("hits", humanize.Comma(int64(stats.Hits))),
		row("failures", failures),
	}
	if max := height - 4; max >= 0 && len(lines) > max {
		lines = lines[:max]
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		append([]string{title, ""}, lines...)...,
	))
}

func row(label, value string) string {
	return styles.Label.Render(fmt.Sprintf("%-10s", label)) + " " + value
}

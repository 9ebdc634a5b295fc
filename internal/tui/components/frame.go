package components

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/tessro/flipbook/internal/core"
	"github.com/tessro/flipbook/internal/tui/styles"
)

// Frame displays the content of the current frame
type Frame struct {
	ext         string
	text        bool
	showContent bool
}

// NewFrame creates a Frame component for frames with extension ext.
// Text frames are drawn when showContent is set; others are summarized.
func NewFrame(ext string, text, showContent bool) *Frame {
	return &Frame{ext: ext, text: text, showContent: showContent}
}

// Render renders the frame panel
func (f *Frame) Render(frame *core.Frame, width, height int, focused bool) string {
	title := styles.PanelTitle("Frame", focused)

	var content string
	switch {
	case frame == nil:
		content = styles.Muted.Render("Loading...")
	case f.text && f.showContent:
		content = clip(string(frame.Content), width-4, height-4)
	default:
		content = styles.Muted.Render(fmt.Sprintf("%s · %s",
			strings.ToUpper(f.ext),
			humanize.Bytes(uint64(frame.Size()))))
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

// clip keeps at most maxLines lines of at most width runes each.
func clip(s string, width, maxLines int) string {
	if width < 1 || maxLines < 1 {
		return ""
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	for i, line := range lines {
		line = strings.ReplaceAll(line, "\t", "    ")
		if utf8.RuneCountInString(line) > width {
			line = string([]rune(line)[:width])
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

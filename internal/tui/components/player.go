package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/flipbook/internal/core"
	"github.com/tessro/flipbook/internal/tui/styles"
)

// Player displays the playback position and controls
type Player struct{}

// NewPlayer creates a new Player component
func NewPlayer() *Player {
	return &Player{}
}

// Render renders the player panel
func (p *Player) Render(status core.Status, width, height int, focused bool) string {
	title := styles.PanelTitle("Player", focused)

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		p.renderPosition(status),
		"",
		p.renderProgress(status, width-4),
		"",
		p.renderControls(status),
	))
}

func (p *Player) renderPosition(status core.Status) string {
	icon := styles.StatusIcon(status.IsPlaying())
	if !status.HasFrame() {
		return icon + " " + styles.Muted.Render("No frame yet")
	}
	frame := styles.Title.Render(fmt.Sprintf("Frame %d", status.Index+1))
	of := styles.Subtitle.Render(fmt.Sprintf("of %d", status.Size))
	rate := styles.Dim.Render(fmt.Sprintf("%g fps", status.FrameRate))
	return fmt.Sprintf("%s %s %s  %s", icon, frame, of, rate)
}

// renderProgress draws the seeker: elapsed, bar, total.
func (p *Player) renderProgress(status core.Status, width int) string {
	current := core.FormatClock(status.Elapsed())
	total := core.FormatClock(status.Total())

	barWidth := width - len(current) - len(total) - 2
	if barWidth < 10 {
		barWidth = 10
	}
	bar := styles.ProgressBar(status.ProgressPercent(), barWidth)
	return fmt.Sprintf("%s %s %s", current, bar, total)
}

func (p *Player) renderControls(status core.Status) string {
	controls := styles.Dim.Render("⏮ ")
	if status.IsPlaying() {
		controls += styles.Playing.Render("⏸")
	} else {
		controls += styles.Paused.Render("▶")
	}
	controls += styles.Dim.Render(" ⏭")

	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Render(controls)
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/playback"
	"github.com/tessro/flipbook/internal/tui/components"
	"github.com/tessro/flipbook/internal/tui/styles"
)

const (
	maxEvents   = 50
	errorPeriod = 5 * time.Second
)

// Panel represents which panel is focused
type Panel int

const (
	PanelPlayer Panel = iota
	PanelFrame
	PanelCache
	PanelEvents
	panelCount
)

// Options configures the TUI
type Options struct {
	Size        int
	Extension   string
	Text        bool // frames are printable text
	ShowContent bool
	Refresh     time.Duration
	Stats       func() frames.Stats
	Start       int  // first frame shown
	Autoplay    bool // start playing once the UI is up
}

// Model is the main TUI model
type Model struct {
	player core.Player
	opts   Options
	now    func() time.Time

	width        int
	height       int
	focusedPanel Panel

	// State
	status core.Status
	frame  *core.Frame
	stats  frames.Stats
	events []components.EventEntry

	// Components
	playerView *components.Player
	frameView  *components.Frame
	cacheView  *components.Cache
	eventsView *components.Events

	// Overlays
	showHelp  bool
	showGoto  bool
	gotoInput textinput.Model

	// Error handling
	lastError   error
	errorExpiry time.Time

	quitting bool
}

// NewModel creates a new TUI model driving player
func NewModel(player core.Player, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = 250 * time.Millisecond
	}
	if opts.Stats == nil {
		opts.Stats = func() frames.Stats { return frames.Stats{} }
	}

	ti := textinput.New()
	ti.Placeholder = fmt.Sprintf("1-%d", opts.Size)
	ti.CharLimit = 10
	ti.Width = 20

	return Model{
		player:       player,
		opts:         opts,
		now:          time.Now,
		focusedPanel: PanelFrame,
		status:       player.Status(),
		playerView:   components.NewPlayer(),
		frameView:    components.NewFrame(opts.Extension, opts.Text, opts.ShowContent),
		cacheView:    components.NewCache(),
		eventsView:   components.NewEvents(),
		gotoInput:    ti,
	}
}

// Messages
type tickMsg time.Time
type eventMsg struct{ ev playback.Event }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case eventMsg:
		m.apply(msg.ev)
		m.refresh()
		return m, nil
	}

	if m.showGoto {
		var cmd tea.Cmd
		m.gotoInput, cmd = m.gotoInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) refresh() {
	m.status = m.player.Status()
	m.stats = m.opts.Stats()
	if m.lastError != nil && m.now().After(m.errorExpiry) {
		m.lastError = nil
	}
}

func (m *Model) setError(err error) {
	m.lastError = err
	m.errorExpiry = m.now().Add(errorPeriod)
}

// apply records a controller event.
func (m *Model) apply(ev playback.Event) {
	entry := components.EventEntry{At: m.now()}
	switch ev := ev.(type) {
	case playback.EventFrame:
		frame := ev.Frame
		m.frame = &frame
		entry.Kind = components.EventShown
		entry.Index = frame.Index
	case playback.EventFailed:
		entry.Kind = components.EventFailed
		entry.Index = ev.Index
		if ev.Err != nil {
			entry.Text = ev.Err.Error()
		}
		m.setError(fmt.Errorf("frame %d: %w", ev.Index+1, ev.Err))
	case playback.EventState:
		entry.Kind = components.EventPaused
		if ev.State == core.Playing {
			entry.Kind = components.EventPlaying
		}
	default:
		return
	}

	m.events = append([]components.EventEntry{entry}, m.events...)
	if len(m.events) > maxEvents {
		m.events = m.events[:maxEvents]
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showGoto {
		return m.handleGotoKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case ":", "/":
		m.showGoto = true
		m.gotoInput.SetValue("")
		m.gotoInput.Focus()
		return m, textinput.Blink
	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil
	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil
	}

	// Playback controls
	var err error
	switch msg.String() {
	case " ":
		m.player.PlayPause()
	case "right", "l", "n":
		err = m.player.Step(1)
	case "left", "h", "p":
		if m.player.Index() > 0 {
			err = m.player.Step(-1)
		}
	case "home", "g":
		err = m.player.Show(0)
	case "end", "G":
		err = m.player.Show(m.opts.Size - 1)
	}
	if err != nil {
		m.setError(err)
	}
	m.status = m.player.Status()
	return m, nil
}

func (m Model) handleGotoKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showGoto = false
		m.gotoInput.Blur()
		return m, nil

	case "enter":
		m.showGoto = false
		m.gotoInput.Blur()
		index, err := m.parseGoto(m.gotoInput.Value())
		if err == nil {
			err = m.player.Show(index)
		}
		if err != nil {
			m.setError(err)
		}
		m.status = m.player.Status()
		return m, nil
	}

	var cmd tea.Cmd
	m.gotoInput, cmd = m.gotoInput.Update(msg)
	return m, cmd
}

// parseGoto converts a 1-based frame number into an index.
func (m Model) parseGoto(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("not a frame number: %q", value)
	}
	if n < 1 || n > m.opts.Size {
		return 0, ferrors.OutOfRange(n-1, m.opts.Size)
	}
	return n - 1, nil
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showGoto {
		return m.renderGoto()
	}

	// Left: Player (top), Frame (bottom)
	// Right: Cache (top), Events (bottom)
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := 14
	if topHeight > m.height/2 {
		topHeight = m.height / 2
	}
	bottomHeight := m.height - topHeight - 2

	playerView := m.playerView.Render(m.status, leftWidth-2, topHeight-2, m.focusedPanel == PanelPlayer)
	frameView := m.frameView.Render(m.frame, leftWidth-2, bottomHeight-2, m.focusedPanel == PanelFrame)
	cacheView := m.cacheView.Render(m.stats, m.opts.Size, rightWidth-2, topHeight-2, m.focusedPanel == PanelCache)
	eventsView := m.eventsView.Render(m.events, rightWidth-2, bottomHeight-2, m.focusedPanel == PanelEvents)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, playerView, frameView)
	rightCol := lipgloss.JoinVertical(lipgloss.Left, cacheView, eventsView)

	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := styles.Dim.Render("q:quit  ?:help  space:play/pause  ←/→:step  g/G:first/last  ::go to  tab:switch panel")

	if m.lastError != nil {
		status = styles.Failed.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Flipbook - Keyboard Shortcuts"
	divider := strings.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Global
  ──────
  q, Ctrl+C    Quit
  ?            Toggle help
  Tab          Next panel
  Shift+Tab    Previous panel

  Playback
  ────────
  Space        Play/Pause
  →, l, n      Next frame
  ←, h, p      Previous frame
  Home, g      First frame
  End, G       Last frame
  :, /         Go to frame

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

func (m Model) renderGoto() string {
	var b strings.Builder

	b.WriteString(styles.Highlight.Render("Go to frame"))
	b.WriteString("\n\n")
	b.WriteString(m.gotoInput.View())
	b.WriteString("\n\n")
	b.WriteString(styles.Muted.Render("Enter:show  Esc:close"))

	content := lipgloss.NewStyle().
		Width(40).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(content))
}

// Run starts the TUI on controller c and blocks until the user quits or
// ctx is done. Frame opts.Start is requested before the UI starts.
func Run(ctx context.Context, c *playback.Controller, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(c, opts)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx, playback.ViewFunc(func(ev playback.Event) {
			p.Send(eventMsg{ev: ev})
		}))
	}()

	if err := c.Show(opts.Start); err != nil {
		return err
	}
	if opts.Autoplay {
		c.Play()
	}

	_, err := p.Run()
	cancel()
	<-done

	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Package playback drives a flip-book: it shows frames on request, steps
// through them on a timer, and reports what to display through events.
package playback

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/frames"
)

// Acquirer hands out frame tickets. *frames.Loader implements it.
type Acquirer interface {
	Request(index int) (*frames.Ticket, error)
}

// playState is the current mode. stop is set only while playing.
type playState struct {
	kind core.PlayState
	stop func()
}

// Controller implements core.Player on top of a frame Acquirer.
type Controller struct {
	loader    Acquirer
	size      int
	frameRate float64
	period    time.Duration
	clock     Clock
	logger    *slog.Logger

	mu           sync.Mutex
	index        int
	pending      *frames.Ticket
	pendingIndex int
	state        playState
	running      bool

	outbox []Event
	signal chan struct{}
}

var _ core.Player = (*Controller)(nil)

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for playback ticks.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for playback diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a paused Controller with nothing displayed.
func New(loader Acquirer, size int, frameRate float64, opts ...Option) (*Controller, error) {
	if loader == nil {
		return nil, errors.New("playback: nil loader")
	}
	if size <= 0 {
		return nil, errors.New("playback: size must be positive")
	}
	if frameRate <= 0 {
		return nil, errors.New("playback: frame rate must be positive")
	}

	c := &Controller{
		loader:    loader,
		size:      size,
		frameRate: frameRate,
		period:    time.Duration(float64(time.Second) / frameRate),
		clock:     realClock{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		index:     -1,
		state:     playState{kind: core.Paused},
		signal:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Period returns the time between playback ticks.
func (c *Controller) Period() time.Duration {
	return c.period
}

// Show displays frame index once it is available.
//
// Showing the frame already on screen, or the frame already being waited
// for, does nothing. Showing past the last frame pauses playback.
func (c *Controller) Show(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showLocked(index)
}

// Step shows the frame delta positions away from the current one.
func (c *Controller) Step(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.showLocked(c.index + delta)
}

func (c *Controller) showLocked(index int) error {
	if index < 0 {
		return ferrors.OutOfRange(index, c.size)
	}
	if index == c.index {
		c.dropPendingLocked()
		return nil
	}
	if c.pending != nil && index == c.pendingIndex {
		return nil
	}
	if index >= c.size {
		c.pauseLocked()
		return nil
	}

	t, err := c.loader.Request(index)
	if err != nil {
		return err
	}
	c.dropPendingLocked()
	c.pending = t
	c.pendingIndex = index

	select {
	case <-t.Done():
		c.applyLocked(t)
	default:
		go c.await(t)
	}
	return nil
}

func (c *Controller) dropPendingLocked() {
	if c.pending == nil {
		return
	}
	c.pending.Cancel()
	c.pending = nil
}

func (c *Controller) await(t *frames.Ticket) {
	<-t.Done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != t {
		return
	}
	c.applyLocked(t)
}

// applyLocked publishes the outcome of the pending ticket t.
func (c *Controller) applyLocked(t *frames.Ticket) {
	c.pending = nil

	content, err := t.Result()
	switch {
	case errors.Is(err, ferrors.ErrCancelled):
		return
	case err != nil:
		c.logger.Warn("playback: frame unavailable", "frame", t.Index(), "error", err)
		c.emitLocked(EventFailed{Index: t.Index(), Err: err})
		return
	}

	c.index = t.Index()
	c.emitLocked(EventFrame{Frame: core.Frame{Index: t.Index(), Content: content}})
}

// Play starts advancing one frame per period.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playLocked()
}

func (c *Controller) playLocked() {
	if c.state.kind == core.Playing {
		return
	}

	ticker := c.clock.NewTicker(c.period)
	done := make(chan struct{})
	go c.loop(ticker, done)

	c.state = playState{
		kind: core.Playing,
		stop: func() {
			ticker.Stop()
			close(done)
		},
	}
	c.logger.Debug("playback: playing", "frame", c.index, "period", c.period)
	c.emitLocked(EventState{State: core.Playing})
}

// Pause stops advancing. No tick fires after Pause returns.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked()
}

func (c *Controller) pauseLocked() {
	if c.state.kind == core.Paused {
		return
	}
	c.state.stop()
	c.state = playState{kind: core.Paused}
	c.logger.Debug("playback: paused", "frame", c.index)
	c.emitLocked(EventState{State: core.Paused})
}

// PlayPause toggles between playing and paused.
func (c *Controller) PlayPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.kind == core.Playing {
		c.pauseLocked()
		return
	}
	c.playLocked()
}

func (c *Controller) loop(ticker Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C():
			c.advance(done)
		}
	}
}

func (c *Controller) advance(done chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A tick may race with Pause; done is closed under mu.
	select {
	case <-done:
		return
	default:
	}

	if err := c.showLocked(c.index + 1); err != nil {
		c.logger.Warn("playback: advance failed", "frame", c.index+1, "error", err)
	}
}

// Index returns the displayed frame, or -1 before the first one.
func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// State returns whether playback is running.
func (c *Controller) State() core.PlayState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.kind
}

// Status returns a snapshot of the playback position.
func (c *Controller) Status() core.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.Status{
		Index:     c.index,
		Size:      c.size,
		FrameRate: c.frameRate,
		State:     c.state.kind,
	}
}

func (c *Controller) emitLocked(ev Event) {
	c.outbox = append(c.outbox, ev)
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Run delivers events to view, in the order they happened, until ctx is
// done. Events raised before Run starts are delivered first. When ctx ends,
// playback pauses.
func (c *Controller) Run(ctx context.Context, view View) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("playback: already running")
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pauseLocked()
		c.dropPendingLocked()
		c.running = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.signal:
		}

		c.mu.Lock()
		events := c.outbox
		c.outbox = nil
		c.mu.Unlock()

		for _, ev := range events {
			view.Handle(ev)
		}
	}
}

package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/frames/framestest"
)

// manualClock hands out tickers that only fire when told to.
type manualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func (m *manualClock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{period: d, c: make(chan time.Time)}
	m.tickers = append(m.tickers, t)
	return t
}

func (m *manualClock) last(t *testing.T) *manualTicker {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tickers) == 0 {
		t.Fatal("no ticker created")
	}
	return m.tickers[len(m.tickers)-1]
}

func (m *manualClock) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

type manualTicker struct {
	period time.Duration

	mu      sync.Mutex
	stopped bool
	c       chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire delivers one tick. It reports false if nobody received it.
func (t *manualTicker) fire() bool {
	select {
	case t.c <- time.Now():
		return true
	case <-time.After(50 * time.Millisecond):
		return false
	}
}

// recorder collects events delivered by Controller.Run.
type recorder struct {
	events chan Event
}

func (r *recorder) Handle(ev Event) {
	r.events <- ev
}

func (r *recorder) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func (r *recorder) quiet(t *testing.T) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Fatalf("unexpected event %#v", ev)
	case <-time.After(30 * time.Millisecond):
	}
}

func expect[T Event](t *testing.T, r *recorder) T {
	t.Helper()
	ev := r.next(t)
	got, ok := ev.(T)
	if !ok {
		var want T
		t.Fatalf("event = %#v, want %T", ev, want)
	}
	return got
}

// countingAcquirer counts requests that reach the loader.
type countingAcquirer struct {
	*frames.Loader

	mu       sync.Mutex
	requests []int
}

func (a *countingAcquirer) Request(index int) (*frames.Ticket, error) {
	a.mu.Lock()
	a.requests = append(a.requests, index)
	a.mu.Unlock()
	return a.Loader.Request(index)
}

func (a *countingAcquirer) Requests() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]int(nil), a.requests...)
}

type harness struct {
	ctrl    *Controller
	fetcher *framestest.Fetcher
	loader  *countingAcquirer
	clock   *manualClock
	view    *recorder
}

func newHarness(t *testing.T, size int, frameRate float64, setup func(f *framestest.Fetcher)) *harness {
	t.Helper()

	f := framestest.NewFetcher()
	if setup != nil {
		setup(f)
	}
	l, err := frames.New(size, f)
	if err != nil {
		t.Fatalf("frames.New() error = %v", err)
	}
	acq := &countingAcquirer{Loader: l}
	clock := &manualClock{}
	ctrl, err := New(acq, size, frameRate, WithClock(clock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	view := &recorder{events: make(chan Event, 64)}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = l.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = ctrl.Run(ctx, view)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return &harness{ctrl: ctrl, fetcher: f, loader: acq, clock: clock, view: view}
}

func TestNewValidates(t *testing.T) {
	l, err := frames.New(3, framestest.NewFetcher())
	if err != nil {
		t.Fatalf("frames.New() error = %v", err)
	}

	tests := []struct {
		name      string
		loader    Acquirer
		size      int
		frameRate float64
	}{
		{"nil loader", nil, 3, 10},
		{"zero size", l, 0, 10},
		{"zero rate", l, 3, 0},
		{"negative rate", l, 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.loader, tt.size, tt.frameRate); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestPeriod(t *testing.T) {
	h := newHarness(t, 3, 10, nil)
	if got := h.ctrl.Period(); got != 100*time.Millisecond {
		t.Errorf("Period() = %v, want 100ms", got)
	}

	h.ctrl.Play()
	if got := h.clock.last(t).period; got != 100*time.Millisecond {
		t.Errorf("ticker period = %v, want 100ms", got)
	}
}

func TestInitialState(t *testing.T) {
	h := newHarness(t, 3, 10, nil)

	s := h.ctrl.Status()
	want := core.Status{Index: -1, Size: 3, FrameRate: 10, State: core.Paused}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("Status() mismatch (-want +got):\n%s", diff)
	}
}

func TestShowPublishesFrame(t *testing.T) {
	h := newHarness(t, 3, 10, nil)

	if err := h.ctrl.Show(1); err != nil {
		t.Fatalf("Show(1) error = %v", err)
	}
	ev := expect[EventFrame](t, h.view)
	if ev.Frame.Index != 1 || string(ev.Frame.Content) != "frame-1" {
		t.Errorf("EventFrame = {%d, %q}, want {1, %q}", ev.Frame.Index, ev.Frame.Content, "frame-1")
	}
	if got := h.ctrl.Index(); got != 1 {
		t.Errorf("Index() = %d, want 1", got)
	}
}

func TestShowCurrentIsNoop(t *testing.T) {
	h := newHarness(t, 3, 10, nil)

	if err := h.ctrl.Show(0); err != nil {
		t.Fatalf("Show(0) error = %v", err)
	}
	expect[EventFrame](t, h.view)

	if err := h.ctrl.Show(0); err != nil {
		t.Fatalf("second Show(0) error = %v", err)
	}
	h.view.quiet(t)
	if diff := cmp.Diff([]int{0}, h.loader.Requests()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestShowPendingIsNoop(t *testing.T) {
	var release func()
	h := newHarness(t, 5, 10, func(f *framestest.Fetcher) { release = f.Hold(3) })

	if err := h.ctrl.Show(3); err != nil {
		t.Fatalf("Show(3) error = %v", err)
	}
	if err := h.ctrl.Show(3); err != nil {
		t.Fatalf("second Show(3) error = %v", err)
	}
	release()

	ev := expect[EventFrame](t, h.view)
	if ev.Frame.Index != 3 {
		t.Errorf("EventFrame index = %d, want 3", ev.Frame.Index)
	}
	h.view.quiet(t)
	if diff := cmp.Diff([]int{3}, h.loader.Requests()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
}

func TestShowOutOfRange(t *testing.T) {
	h := newHarness(t, 3, 10, nil)

	if err := h.ctrl.Show(-1); !errors.Is(err, ferrors.ErrOutOfRange) {
		t.Errorf("Show(-1) error = %v, want ErrOutOfRange", err)
	}
	if got := h.ctrl.Index(); got != -1 {
		t.Errorf("Index() = %d, want -1", got)
	}
}

func TestShowStaleRequestIsDiscarded(t *testing.T) {
	var release func()
	h := newHarness(t, 10, 10, func(f *framestest.Fetcher) { release = f.Hold(5) })
	defer release()

	if err := h.ctrl.Show(5); err != nil {
		t.Fatalf("Show(5) error = %v", err)
	}
	if err := h.ctrl.Show(2); err != nil {
		t.Fatalf("Show(2) error = %v", err)
	}

	ev := expect[EventFrame](t, h.view)
	if ev.Frame.Index != 2 {
		t.Fatalf("EventFrame index = %d, want 2", ev.Frame.Index)
	}
	release()
	h.view.quiet(t)

	if got := h.ctrl.Index(); got != 2 {
		t.Errorf("Index() = %d, want 2", got)
	}
}

func TestShowFailureKeepsIndex(t *testing.T) {
	h := newHarness(t, 2, 10, func(f *framestest.Fetcher) { f.Fail(1, 1000) })

	if err := h.ctrl.Show(0); err != nil {
		t.Fatalf("Show(0) error = %v", err)
	}
	expect[EventFrame](t, h.view)

	if err := h.ctrl.Show(1); err != nil {
		t.Fatalf("Show(1) error = %v", err)
	}
	failed := expect[EventFailed](t, h.view)
	if failed.Index != 1 {
		t.Errorf("EventFailed index = %d, want 1", failed.Index)
	}
	if !errors.Is(failed.Err, ferrors.ErrFetchFailed) {
		t.Errorf("EventFailed error = %v, want ErrFetchFailed", failed.Err)
	}
	if got := h.ctrl.Index(); got != 0 {
		t.Errorf("Index() = %d, want 0", got)
	}
}

func TestPlaybackRetriesFailedFrame(t *testing.T) {
	h := newHarness(t, 2, 10, func(f *framestest.Fetcher) { f.Fail(1, 1000) })

	if err := h.ctrl.Show(0); err != nil {
		t.Fatalf("Show(0) error = %v", err)
	}
	expect[EventFrame](t, h.view)

	h.ctrl.Play()
	expect[EventState](t, h.view)
	ticker := h.clock.last(t)

	for i := 0; i < 2; i++ {
		if !ticker.fire() {
			t.Fatalf("tick %d not received", i)
		}
		if ev := expect[EventFailed](t, h.view); ev.Index != 1 {
			t.Errorf("EventFailed index = %d, want 1", ev.Index)
		}
	}
	if got := h.ctrl.State(); got != core.Playing {
		t.Errorf("State() = %v, want playing", got)
	}
}

func TestPlayPauseStopsTicks(t *testing.T) {
	h := newHarness(t, 5, 10, nil)

	h.ctrl.Play()
	h.ctrl.Pause()

	if got := h.ctrl.State(); got != core.Paused {
		t.Errorf("State() = %v, want paused", got)
	}
	ticker := h.clock.last(t)
	if !ticker.isStopped() {
		t.Error("ticker not stopped after Pause")
	}
	ticker.fire()
	if got := h.ctrl.Index(); got != -1 {
		t.Errorf("Index() = %d, want -1", got)
	}
	if got := h.loader.Requests(); len(got) != 0 {
		t.Errorf("requests after Pause = %v, want none", got)
	}

	if ev := expect[EventState](t, h.view); ev.State != core.Playing {
		t.Errorf("first EventState = %v, want playing", ev.State)
	}
	if ev := expect[EventState](t, h.view); ev.State != core.Paused {
		t.Errorf("second EventState = %v, want paused", ev.State)
	}
	h.view.quiet(t)
}

func TestPlayIsIdempotent(t *testing.T) {
	h := newHarness(t, 5, 10, nil)

	h.ctrl.Play()
	h.ctrl.Play()
	if got := h.clock.count(); got != 1 {
		t.Errorf("tickers created = %d, want 1", got)
	}
	h.ctrl.Pause()
	h.ctrl.Pause()

	expect[EventState](t, h.view)
	expect[EventState](t, h.view)
	h.view.quiet(t)
}

func TestPlayPauseToggles(t *testing.T) {
	h := newHarness(t, 5, 10, nil)

	h.ctrl.PlayPause()
	if got := h.ctrl.State(); got != core.Playing {
		t.Errorf("State() after first toggle = %v, want playing", got)
	}
	h.ctrl.PlayPause()
	if got := h.ctrl.State(); got != core.Paused {
		t.Errorf("State() after second toggle = %v, want paused", got)
	}
}

func TestShowPastEndPauses(t *testing.T) {
	h := newHarness(t, 3, 10, nil)

	if err := h.ctrl.Show(1); err != nil {
		t.Fatalf("Show(1) error = %v", err)
	}
	expect[EventFrame](t, h.view)
	h.ctrl.Play()
	expect[EventState](t, h.view)

	if err := h.ctrl.Show(3); err != nil {
		t.Errorf("Show(3) error = %v, want nil", err)
	}
	if ev := expect[EventState](t, h.view); ev.State != core.Paused {
		t.Errorf("EventState = %v, want paused", ev.State)
	}
	if got := h.ctrl.State(); got != core.Paused {
		t.Errorf("State() = %v, want paused", got)
	}
	if got := h.ctrl.Index(); got != 1 {
		t.Errorf("Index() = %d, want 1", got)
	}
}

func TestStep(t *testing.T) {
	h := newHarness(t, 5, 10, nil)

	if err := h.ctrl.Step(1); err != nil {
		t.Fatalf("Step(1) error = %v", err)
	}
	if ev := expect[EventFrame](t, h.view); ev.Frame.Index != 0 {
		t.Errorf("Step(1) from nothing showed %d, want 0", ev.Frame.Index)
	}
	if err := h.ctrl.Step(2); err != nil {
		t.Fatalf("Step(2) error = %v", err)
	}
	if ev := expect[EventFrame](t, h.view); ev.Frame.Index != 2 {
		t.Errorf("Step(2) showed %d, want 2", ev.Frame.Index)
	}
	if err := h.ctrl.Step(-3); !errors.Is(err, ferrors.ErrOutOfRange) {
		t.Errorf("Step(-3) error = %v, want ErrOutOfRange", err)
	}
}

func TestPlayToEnd(t *testing.T) {
	h := newHarness(t, 3, 10, nil)

	if err := h.ctrl.Show(0); err != nil {
		t.Fatalf("Show(0) error = %v", err)
	}
	expect[EventFrame](t, h.view)

	h.ctrl.Play()
	expect[EventState](t, h.view)
	ticker := h.clock.last(t)

	for want := 1; want <= 2; want++ {
		if !ticker.fire() {
			t.Fatalf("tick for frame %d not received", want)
		}
		ev := expect[EventFrame](t, h.view)
		if ev.Frame.Index != want {
			t.Fatalf("EventFrame index = %d, want %d", ev.Frame.Index, want)
		}
	}

	if !ticker.fire() {
		t.Fatal("final tick not received")
	}
	if ev := expect[EventState](t, h.view); ev.State != core.Paused {
		t.Errorf("EventState = %v, want paused", ev.State)
	}
	if got := h.ctrl.Index(); got != 2 {
		t.Errorf("Index() = %d, want 2", got)
	}

	seen := map[int]int{}
	for _, index := range h.fetcher.Calls() {
		seen[index]++
	}
	if diff := cmp.Diff(map[int]int{0: 1, 1: 1, 2: 1}, seen); diff != "" {
		t.Errorf("fetches per frame mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDeliversInOrderAndAllowsCallbacks(t *testing.T) {
	f := framestest.NewFetcher()
	l, err := frames.New(4, f)
	if err != nil {
		t.Fatalf("frames.New() error = %v", err)
	}
	ctrl, err := New(l, 4, 10, WithClock(&manualClock{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	// The view steps forward from inside Handle until the last frame.
	got := make(chan int, 8)
	view := ViewFunc(func(ev Event) {
		frame, ok := ev.(EventFrame)
		if !ok {
			return
		}
		got <- frame.Frame.Index
		if frame.Frame.Index < 3 {
			_ = ctrl.Step(1)
		}
	})

	runErr := make(chan error, 1)
	go func() { runErr <- ctrl.Run(ctx, view) }()

	if err := ctrl.Show(0); err != nil {
		t.Fatalf("Show(0) error = %v", err)
	}

	var order []int
	for len(order) < 4 {
		select {
		case index := <-got:
			order = append(order, index)
		case <-time.After(2 * time.Second):
			t.Fatalf("frames delivered = %v, want 4", order)
		}
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3}, order); diff != "" {
		t.Errorf("delivery order mismatch (-want +got):\n%s", diff)
	}

	if err := ctrl.Run(ctx, view); err == nil {
		t.Error("second Run() error = nil, want error")
	}

	ctrl.Play()
	cancel()
	select {
	case <-runErr:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
	if got := ctrl.State(); got != core.Paused {
		t.Errorf("State() after Run exits = %v, want paused", got)
	}
}

// Package frames caches flip-book frames and schedules their fetches.
//
// A Loader owns an append-only cache and a single worker goroutine. Explicit
// requests are served first, in arrival order; when none are queued the worker
// reads ahead sequentially from frame 1, so playback rarely waits on the
// network. At most one fetch is in flight at any time.
package frames

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
)

// Loader caches frame content and fetches misses one at a time.
type Loader struct {
	size    int
	fetcher core.Fetcher
	timeout time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	frames  map[int][]byte
	queue   []*job       // explicit requests, oldest first
	pending map[int]*job // queued or in-flight job per frame
	next    int          // readahead cursor
	busy    bool
	stopped bool
	running bool
	stats   Stats

	wake chan struct{}
}

// job is one scheduled fetch. Readahead jobs are never cancelled; explicit
// jobs are cancelled once every ticket waiting on them has been cancelled.
type job struct {
	index     int
	explicit  bool
	waiters   map[*Ticket]struct{}
	cancelled bool
	abort     context.CancelFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithTimeout bounds each fetch. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) {
		l.timeout = d
	}
}

// WithLogger sets the logger used for fetch diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loader for frames [0, size) fetched through f.
// Frame 0 is expected to be requested explicitly; readahead starts at 1.
func New(size int, f core.Fetcher, opts ...Option) (*Loader, error) {
	if size <= 0 {
		return nil, errors.New("frames: size must be positive")
	}
	if f == nil {
		return nil, errors.New("frames: nil fetcher")
	}

	l := &Loader{
		size:    size,
		fetcher: f,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		frames:  make(map[int][]byte),
		pending: make(map[int]*job),
		next:    1,
		wake:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Size returns the number of frames.
func (l *Loader) Size() int {
	return l.size
}

// Request asks for frame index.
//
// A cached frame yields an already resolved ticket. Otherwise the request is
// queued behind earlier explicit requests, ahead of readahead, and the ticket
// resolves when the frame has been fetched. Requests for a frame that is
// already queued or being fetched share that fetch.
func (l *Loader) Request(index int) (*Ticket, error) {
	if index < 0 || index >= l.size {
		return nil, ferrors.OutOfRange(index, l.size)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return nil, ferrors.ErrStopped
	}

	t := &Ticket{index: index, loader: l, done: make(chan struct{})}

	if content, ok := l.frames[index]; ok {
		l.stats.Hits++
		t.resolve(content, nil)
		return t, nil
	}

	j, ok := l.pending[index]
	if !ok {
		j = &job{index: index, explicit: true, waiters: make(map[*Ticket]struct{})}
		l.pending[index] = j
		l.queue = append(l.queue, j)
		l.logger.Debug("frames: queued", "frame", index, "queued", len(l.queue))
	}
	j.waiters[t] = struct{}{}
	t.job = j

	l.trigger()
	return t, nil
}

// Cached returns the content of frame index if it has been fetched.
func (l *Loader) Cached(index int) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	content, ok := l.frames[index]
	return content, ok
}

// Run services requests until ctx is done. Unresolved tickets then resolve
// with ErrStopped and later requests fail with ErrStopped.
func (l *Loader) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.running || l.stopped {
		l.mu.Unlock()
		return errors.New("frames: loader already started")
	}
	l.running = true
	l.mu.Unlock()

	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}

		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			j := l.take()
			if j == nil {
				break
			}
			l.process(ctx, j)
		}
	}
}

// trigger wakes the worker. Wake-ups coalesce while one is pending.
// Caller must hold l.mu.
func (l *Loader) trigger() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// take selects the next job and marks the worker busy. It returns nil when
// there is nothing left to do.
func (l *Loader) take() *job {
	l.mu.Lock()
	defer l.mu.Unlock()

	for len(l.queue) > 0 {
		j := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]

		// Readahead may have fetched the frame after it was queued.
		if content, ok := l.frames[j.index]; ok {
			l.finish(j, content, nil)
			continue
		}
		l.busy = true
		return j
	}

	for l.next < l.size {
		index := l.next
		l.next++
		if _, ok := l.frames[index]; ok {
			continue
		}
		j := &job{index: index, waiters: make(map[*Ticket]struct{})}
		l.pending[index] = j
		l.busy = true
		return j
	}

	return nil
}

// process fetches one job and records its outcome.
func (l *Loader) process(ctx context.Context, j *job) {
	var (
		fetchCtx context.Context
		cancel   context.CancelFunc
	)
	if l.timeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, l.timeout)
	} else {
		fetchCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	l.mu.Lock()
	if j.cancelled {
		l.busy = false
		l.mu.Unlock()
		return
	}
	j.abort = cancel
	l.stats.Fetches++
	l.mu.Unlock()

	start := time.Now()
	l.logger.Debug("frames: fetching", "frame", j.index, "explicit", j.explicit)
	content, err := l.fetcher.Fetch(fetchCtx, j.index)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.busy = false

	if j.cancelled {
		l.logger.Debug("frames: discarded cancelled fetch", "frame", j.index)
		return
	}

	// Shutting down; stop resolves the waiters.
	if err != nil && ctx.Err() != nil {
		return
	}

	if err != nil {
		l.stats.Failures++
		l.logger.Warn("frames: fetch failed", "frame", j.index, "error", err)
		l.finish(j, nil, &ferrors.FetchError{Index: j.index, Err: err})
		return
	}

	if _, ok := l.frames[j.index]; !ok {
		l.frames[j.index] = content
		l.stats.Bytes += int64(len(content))
	}
	l.logger.Debug("frames: fetched", "frame", j.index, "bytes", len(content), "elapsed", time.Since(start))
	l.finish(j, l.frames[j.index], nil)
}

// finish resolves every ticket waiting on j. Caller must hold l.mu.
func (l *Loader) finish(j *job, content []byte, err error) {
	if l.pending[j.index] == j {
		delete(l.pending, j.index)
	}
	for t := range j.waiters {
		t.resolve(content, err)
	}
	j.waiters = nil
}

// cancel detaches t from its job. Caller must hold l.mu.
func (l *Loader) cancel(t *Ticket) {
	if t.resolved {
		return
	}
	t.resolve(nil, ferrors.ErrCancelled)

	j := t.job
	if j == nil {
		return
	}
	delete(j.waiters, t)
	if !j.explicit || len(j.waiters) > 0 {
		return
	}

	j.cancelled = true
	if l.pending[j.index] == j {
		delete(l.pending, j.index)
	}
	for i, queued := range l.queue {
		if queued == j {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			break
		}
	}
	if j.abort != nil {
		j.abort()
	}
	l.logger.Debug("frames: cancelled", "frame", j.index)
}

// stop marks the loader stopped and fails everything still waiting.
func (l *Loader) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopped = true
	l.running = false
	l.busy = false
	for _, j := range l.pending {
		for t := range j.waiters {
			t.resolve(nil, ferrors.ErrStopped)
		}
		j.waiters = nil
	}
	l.pending = make(map[int]*job)
	l.queue = nil
}

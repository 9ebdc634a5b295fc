// Package framestest provides a scriptable frame fetcher for tests.
package framestest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrScripted is returned for frames scripted to fail.
var ErrScripted = errors.New("scripted fetch failure")

// Fetcher records every fetch and can hold or fail individual frames.
type Fetcher struct {
	// Delay is applied to every fetch before it returns.
	Delay time.Duration

	mu          sync.Mutex
	calls       []int
	aborted     []int
	gates       map[int]chan struct{}
	failures    map[int]int
	inflight    int
	maxInflight int
	started     chan int
}

// NewFetcher returns a Fetcher whose frames resolve to "frame-<index>".
func NewFetcher() *Fetcher {
	return &Fetcher{
		gates:    make(map[int]chan struct{}),
		failures: make(map[int]int),
		started:  make(chan int, 256),
	}
}

// Content returns the bytes a successful fetch of index yields.
func Content(index int) []byte {
	return []byte(fmt.Sprintf("frame-%d", index))
}

// Hold makes fetches of index block until the returned function is called or
// the fetch context ends.
func (f *Fetcher) Hold(index int) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[index] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Fail makes the next n fetches of index fail with ErrScripted.
func (f *Fetcher) Fail(index, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[index] = n
}

// Started delivers each frame index as its fetch begins.
func (f *Fetcher) Started() <-chan int {
	return f.started
}

// Calls returns the frames fetched so far, in order.
func (f *Fetcher) Calls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// Aborted returns the frames whose fetch context ended while held.
func (f *Fetcher) Aborted() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.aborted...)
}

// MaxInflight returns the largest number of concurrent fetches observed.
func (f *Fetcher) MaxInflight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight
}

// Fetch implements core.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, index int) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, index)
	f.inflight++
	if f.inflight > f.maxInflight {
		f.maxInflight = f.inflight
	}
	gate := f.gates[index]
	fail := f.failures[index] > 0
	if fail {
		f.failures[index]--
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	select {
	case f.started <- index:
	default:
	}

	if f.Delay > 0 {
		time.Sleep(f.Delay)
	}

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			f.mu.Lock()
			f.aborted = append(f.aborted, index)
			f.mu.Unlock()
			return nil, ctx.Err()
		}
	}

	if fail {
		return nil, fmt.Errorf("frame %d: %w", index, ErrScripted)
	}
	return Content(index), nil
}

package frames

import "context"

// Ticket is a caller's handle on one frame request.
type Ticket struct {
	index  int
	loader *Loader
	job    *job
	done   chan struct{}

	// Guarded by loader.mu until done is closed.
	resolved bool
	content  []byte
	err      error
}

// Index returns the requested frame.
func (t *Ticket) Index() int {
	return t.index
}

// Done is closed once the ticket has a result.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Result returns the frame content or the reason there is none, blocking
// until Done is closed.
func (t *Ticket) Result() ([]byte, error) {
	<-t.done
	return t.content, t.err
}

// Wait blocks until the ticket resolves or ctx is done.
func (t *Ticket) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-t.done:
		return t.content, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel gives up on the request. The ticket resolves with ErrCancelled and
// never receives content. Cancelling a resolved ticket does nothing.
func (t *Ticket) Cancel() {
	t.loader.mu.Lock()
	defer t.loader.mu.Unlock()
	t.loader.cancel(t)
}

// resolve records the outcome. Caller must hold loader.mu.
func (t *Ticket) resolve(content []byte, err error) {
	if t.resolved {
		return
	}
	t.resolved = true
	t.content = content
	t.err = err
	close(t.done)
}

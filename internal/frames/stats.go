package frames

// Stats is a snapshot of loader activity.
type Stats struct {
	Cached   int   `json:"cached"`
	Bytes    int64 `json:"bytes"`
	Queued   int   `json:"queued"`
	Fetches  int   `json:"fetches"`
	Hits     int   `json:"hits"`
	Failures int   `json:"failures"`
	Busy     bool  `json:"busy"`
	Cursor   int   `json:"cursor"`
}

// Stats returns current loader statistics.
func (l *Loader) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stats
	s.Cached = len(l.frames)
	s.Queued = len(l.queue)
	s.Busy = l.busy
	s.Cursor = l.next
	return s
}

// Complete returns true once every frame is cached.
func (s Stats) Complete(size int) bool {
	return s.Cached >= size
}

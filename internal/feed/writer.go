package feed

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tessro/flipbook/internal/playback"
)

// Writer is a playback.View that prints one line per event.
type Writer struct {
	out         io.Writer
	formatter   *Formatter
	showContent bool
	jsonOut     bool
	now         func() time.Time

	mu sync.Mutex
}

var _ playback.View = (*Writer)(nil)

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithContent prints text frame content below each frame line.
func WithContent(enabled bool) WriterOption {
	return func(w *Writer) {
		w.showContent = enabled
	}
}

// WithJSON writes one JSON object per event instead of text.
func WithJSON(enabled bool) WriterOption {
	return func(w *Writer) {
		w.jsonOut = enabled
	}
}

// NewWriter creates a Writer printing to out.
func NewWriter(out io.Writer, f *Formatter, opts ...WriterOption) *Writer {
	w := &Writer{
		out:       out,
		formatter: f,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Record is the JSON form of an event.
type Record struct {
	Type  string `json:"type"`
	Time  string `json:"time"`
	Index *int   `json:"index,omitempty"`
	Bytes int    `json:"bytes,omitempty"`
	State string `json:"state,omitempty"`
	Error string `json:"error,omitempty"`
}

// Handle implements playback.View.
func (w *Writer) Handle(ev playback.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()

	at := w.now()
	if w.jsonOut {
		_ = json.NewEncoder(w.out).Encode(newRecord(ev, at))
		return
	}

	_, _ = fmt.Fprintln(w.out, w.formatter.Format(ev, at))

	frame, ok := ev.(playback.EventFrame)
	if !ok || !w.showContent {
		return
	}
	content := strings.TrimRight(string(frame.Frame.Content), "\n")
	if content != "" {
		_, _ = fmt.Fprintln(w.out, content)
	}
}

func newRecord(ev playback.Event, at time.Time) Record {
	r := Record{
		Type: eventTypeName(ev),
		Time: at.Format(time.RFC3339),
	}
	switch e := ev.(type) {
	case playback.EventFrame:
		index := e.Frame.Index
		r.Index = &index
		r.Bytes = e.Frame.Size()
	case playback.EventFailed:
		index := e.Index
		r.Index = &index
		r.Error = e.Err.Error()
	case playback.EventState:
		r.State = e.State.String()
	}
	return r
}

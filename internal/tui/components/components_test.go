package components

import (
	"strings"
	"testing"
	"time"

	"github.com/tessro/flipbook/internal/core"
	"github.com/tessro/flipbook/internal/frames"
)

func TestClip(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		lines int
		want  string
	}{
		{"fits", "ab\ncd\n", 5, 5, "ab\ncd"},
		{"long lines", "abcdef\nxy", 3, 5, "abc\nxy"},
		{"too many lines", "1\n2\n3\n4", 5, 2, "1\n2"},
		{"tabs", "\tx", 10, 1, "    x"},
		{"multibyte", "äöüß", 2, 1, "äö"},
		{"no room", "abc", 0, 1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clip(tt.in, tt.width, tt.lines); got != tt.want {
				t.Errorf("clip() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 2, "he"},
		{"hello", 0, ""},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatTimeAgo(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		d    time.Duration
		want string
	}{
		{10 * time.Second, "now"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{48 * time.Hour, "Mar 9"},
	}

	for _, tt := range tests {
		if got := formatTimeAgo(tt.d, at); got != tt.want {
			t.Errorf("formatTimeAgo(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFrameSummarizesBinary(t *testing.T) {
	f := NewFrame("png", false, true)
	out := f.Render(&core.Frame{Content: make([]byte, 2048)}, 40, 10, false)
	if !strings.Contains(out, "PNG · 2.0 kB") {
		t.Errorf("Render() = %q, want binary summary", out)
	}
}

func TestFrameShowsText(t *testing.T) {
	f := NewFrame("txt", true, true)
	out := f.Render(&core.Frame{Content: []byte("(o_o)")}, 40, 10, false)
	if !strings.Contains(out, "(o_o)") {
		t.Errorf("Render() = %q, want frame text", out)
	}

	hidden := NewFrame("txt", true, false).Render(&core.Frame{Content: []byte("(o_o)")}, 40, 10, false)
	if strings.Contains(hidden, "(o_o)") {
		t.Errorf("Render() with content hidden = %q", hidden)
	}
}

func TestPlayerRendersPosition(t *testing.T) {
	p := NewPlayer()
	out := p.Render(core.Status{Index: 24, Size: 100, FrameRate: 10}, 60, 8, false)

	for _, want := range []string{"Frame 25", "of 100", "00:02", "00:10"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}

	empty := p.Render(core.Status{Index: -1, Size: 100, FrameRate: 10}, 60, 8, false)
	if !strings.Contains(empty, "No frame yet") {
		t.Errorf("Render() before first frame = %q", empty)
	}
}

func TestCacheRendersStats(t *testing.T) {
	c := NewCache()
	out := c.Render(frames.Stats{Cached: 3, Bytes: 1500, Fetches: 4, Failures: 1, Cursor: 4}, 10, 40, 14, false)

	for _, want := range []string{"3/10 frames", "1.5 kB", "4/10"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q", want)
		}
	}

	done := c.Render(frames.Stats{Cached: 10, Cursor: 10}, 10, 40, 14, false)
	if !strings.Contains(done, "complete") {
		t.Errorf("Render() of full cache missing %q", "complete")
	}
}

func TestEventsNewestFirst(t *testing.T) {
	e := NewEvents()
	now := time.Now()
	out := e.Render([]EventEntry{
		{Kind: EventFailed, Index: 4, Text: "timeout", At: now},
		{Kind: EventShown, Index: 3, At: now},
	}, 60, 10, false)

	failed := strings.Index(out, "Frame 5: timeout")
	shown := strings.Index(out, "Frame 4")
	if failed < 0 || shown < 0 || failed > shown {
		t.Errorf("Render() order wrong:\n%s", out)
	}
}

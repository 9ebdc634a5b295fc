package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestFetchErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("show: %w", &FetchError{Index: 4, Err: cause})

	if !errors.Is(err, ErrFetchFailed) {
		t.Error("errors.Is(err, ErrFetchFailed) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if errors.Is(err, ErrCancelled) {
		t.Error("errors.Is(err, ErrCancelled) = true, want false")
	}

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Index != 4 {
		t.Errorf("errors.As() index = %v, want 4", fetchErr)
	}
}

func TestOutOfRange(t *testing.T) {
	err := OutOfRange(10, 10)
	if !errors.Is(err, ErrOutOfRange) {
		t.Error("errors.Is(err, ErrOutOfRange) = false, want true")
	}
	want := "frame out of range: 10 not in [0, 10)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "explicit", err: WithSuggestion(errors.New("boom"), "try again"), want: "try again"},
		{name: "no source", err: fmt.Errorf("play: %w", ErrNoSource), want: "source.url"},
		{name: "no frames", err: ErrNoFrames, want: "--frames"},
		{name: "out of range", err: OutOfRange(-1, 3), want: "flipbook info"},
		{name: "fetch", err: &FetchError{Index: 1, Err: errors.New("eof")}, want: "reachable"},
		{name: "unknown", err: errors.New("something else"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetSuggestion(tt.err)
			if tt.want == "" {
				if got != "" {
					t.Errorf("GetSuggestion() = %q, want empty", got)
				}
				return
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("GetSuggestion() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q, want empty", got)
	}

	got := Format(WithSuggestion(errors.New("boom"), "try again"))
	want := "Error: boom\n\nSuggestion: try again"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	got = Format(errors.New("plain"))
	if got != "Error: plain" {
		t.Errorf("Format() = %q, want %q", got, "Error: plain")
	}
}

func TestPartialResult(t *testing.T) {
	var p PartialResult[[]int]
	p.AddError(nil)
	if p.HasErrors() {
		t.Error("HasErrors() = true after nil error, want false")
	}
	if p.Err() != nil {
		t.Errorf("Err() = %v, want nil", p.Err())
	}

	p.AddError(errors.New("first"))
	if got := p.ErrorSummary(); got != "first" {
		t.Errorf("ErrorSummary() = %q, want %q", got, "first")
	}

	p.AddError(ErrCancelled)
	if !strings.HasPrefix(p.ErrorSummary(), "2 errors occurred:") {
		t.Errorf("ErrorSummary() = %q, want 2 errors header", p.ErrorSummary())
	}
	if !errors.Is(p.Err(), ErrCancelled) {
		t.Error("errors.Is(Err(), ErrCancelled) = false, want true")
	}
}

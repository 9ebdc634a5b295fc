package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrOutOfRange    = errors.New("frame out of range")
	ErrFetchFailed   = errors.New("frame fetch failed")
	ErrCancelled     = errors.New("frame request cancelled")
	ErrStopped       = errors.New("frame loader stopped")
	ErrNoSource      = errors.New("no frame source")
	ErrNoFrames      = errors.New("frame count unknown")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FetchError reports a failed fetch for one frame.
type FetchError struct {
	Index int
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch frame %d: %v", e.Index, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports FetchError as ErrFetchFailed.
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

// OutOfRange returns an ErrOutOfRange error for index in a set of size frames.
func OutOfRange(index, size int) error {
	return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, index, size)
}

// FlipError wraps an error with a user-friendly suggestion.
type FlipError struct {
	Err        error
	Suggestion string
}

func (e *FlipError) Error() string {
	return e.Err.Error()
}

func (e *FlipError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &FlipError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var flipErr *FlipError
	if errors.As(err, &flipErr) && flipErr.Suggestion != "" {
		return flipErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNoSource) {
		return "Pass a source URL or directory, or set source.url in ~/.flipbookrc"
	}

	if errors.Is(err, ErrNoFrames) {
		return "Pass --frames, set source.frames, or serve a manifest.json next to the frames"
	}

	if errors.Is(err, ErrOutOfRange) {
		return "Run 'flipbook info' to see how many frames the source has"
	}

	if errors.Is(err, ErrInvalidConfig) || strings.Contains(errStr, "config") {
		return "Run 'flipbook config show' to inspect your configuration"
	}

	if errors.Is(err, ErrFetchFailed) || strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded") {
		return "Check that the frame source is reachable and try again"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// Err joins the collected errors, or returns nil.
func (p *PartialResult[T]) Err() error {
	return errors.Join(p.Errors...)
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

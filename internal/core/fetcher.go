package core

import "context"

// Fetcher retrieves the content of a single frame.
//
// Implementations should honor ctx cancellation; a fetch whose context was
// cancelled may still return content, which callers discard.
type Fetcher interface {
	Fetch(ctx context.Context, index int) ([]byte, error)
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, index int) ([]byte, error)

// Fetch calls f(ctx, index).
func (f FetchFunc) Fetch(ctx context.Context, index int) ([]byte, error) {
	return f(ctx, index)
}

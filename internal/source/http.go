package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	baseRetryWait      = 250 * time.Millisecond
)

// HTTP fetches frames from <base>/<index>.<ext>.
type HTTP struct {
	base       string
	ext        string
	httpClient *http.Client
	retries    int
	logger     *slog.Logger
}

// NewHTTP creates an HTTP source rooted at base.
func NewHTTP(base, ext string, opts Options) (*HTTP, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return nil, errors.New("empty base URL")
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}

	return &HTTP{
		base:       base,
		ext:        NormalizeExtension(ext),
		httpClient: client,
		retries:    opts.Retries,
		logger:     opts.logger(),
	}, nil
}

func (h *HTTP) String() string {
	return h.base
}

// FrameURL returns the URL of frame index.
func (h *HTTP) FrameURL(index int) string {
	return h.base + "/" + FrameName(index, h.ext)
}

// Fetch implements core.Fetcher.
func (h *HTTP) Fetch(ctx context.Context, index int) ([]byte, error) {
	return h.get(ctx, h.FrameURL(index))
}

// Manifest reads <base>/manifest.json.
func (h *HTTP) Manifest(ctx context.Context) (*core.Manifest, error) {
	body, err := h.get(ctx, h.base+"/"+ManifestName)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: no %s at %s", ferrors.ErrNoFrames, ManifestName, h.base)
		}
		return nil, err
	}

	var m core.Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestName, err)
	}
	if m.Extension == "" {
		m.Extension = h.ext
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestName, err)
	}
	return &m, nil
}

func (h *HTTP) get(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= h.retries; attempt++ {
		// Wait before retry (skip on first attempt)
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1))
			h.logger.Debug("source: retry", "url", url, "attempt", attempt, "wait", wait, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		h.logger.Debug("source: GET", "url", url)
		resp, err := h.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &StatusError{URL: url, Status: resp.StatusCode}
			continue
		}
		if resp.StatusCode >= 300 {
			return nil, &StatusError{URL: url, Status: resp.StatusCode}
		}
		return body, nil
	}

	if h.retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("request failed after %d retries: %w", h.retries, lastErr)
}

// StatusError is a non-2xx response from a frame server.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// IsNotFound reports whether err is a 404 from a frame server.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}

// Package source provides frame fetchers backed by an HTTP server or a local
// directory of numbered frame files.
package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tessro/flipbook/internal/core"
)

const (
	// DefaultExtension is the frame file extension when none is configured.
	DefaultExtension = "svg"

	// ManifestName is the manifest file served alongside the frames.
	ManifestName = "manifest.json"
)

// Source fetches frames and describes the frame set.
type Source interface {
	core.Fetcher

	// Manifest describes the frame set. Sources without a manifest return
	// an error wrapping errors.ErrNoFrames.
	Manifest(ctx context.Context) (*core.Manifest, error)

	// String returns the location of the frames.
	String() string
}

// Options configures a Source.
type Options struct {
	// Timeout bounds each HTTP request. Zero uses the client default.
	Timeout time.Duration

	// Retries is the number of times a network or 5xx failure is retried.
	Retries int

	// HTTPClient overrides the client used for HTTP sources.
	HTTPClient *http.Client

	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Open returns the Source for target: an http or https URL, a file URL, or a
// directory path. ext is the frame file extension, without the dot.
func Open(target, ext string, opts Options) (Source, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("empty source")
	}
	ext = NormalizeExtension(ext)

	u, err := url.Parse(target)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return NewHTTP(target, ext, opts)
		case "file":
			return NewDir(u.Path, ext, opts)
		}
	}
	return NewDir(target, ext, opts)
}

// NormalizeExtension strips a leading dot and applies the default.
func NormalizeExtension(ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		return DefaultExtension
	}
	return strings.ToLower(ext)
}

// FrameName returns the file name of frame index.
func FrameName(index int, ext string) string {
	return fmt.Sprintf("%d.%s", index, ext)
}

// ContentType returns the MIME type for frames with extension ext.
func ContentType(ext string) string {
	if t := mime.TypeByExtension("." + ext); t != "" {
		return t
	}
	switch ext {
	case "svg":
		return "image/svg+xml"
	case "txt", "ans":
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}

// IsText reports whether frames of extension ext can be shown as text.
func IsText(ext string) bool {
	t := ContentType(ext)
	return strings.HasPrefix(t, "text/") || strings.Contains(t, "svg") ||
		strings.Contains(t, "json") || strings.Contains(t, "xml")
}

func cleanDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return filepath.Clean(path)
}

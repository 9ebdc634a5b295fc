package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
)

// Dir reads frames from <root>/<index>.<ext>.
type Dir struct {
	root   string
	ext    string
	logger *slog.Logger
}

// NewDir creates a directory source. root must exist.
func NewDir(root, ext string, opts Options) (*Dir, error) {
	root = cleanDir(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("frame directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("frame directory: %s is not a directory", root)
	}

	return &Dir{
		root:   root,
		ext:    NormalizeExtension(ext),
		logger: opts.logger(),
	}, nil
}

func (d *Dir) String() string {
	return d.root
}

// Root returns the directory holding the frames.
func (d *Dir) Root() string {
	return d.root
}

// Extension returns the frame file extension.
func (d *Dir) Extension() string {
	return d.ext
}

// Path returns the file path of frame index.
func (d *Dir) Path(index int) string {
	return filepath.Join(d.root, FrameName(index, d.ext))
}

// Fetch implements core.Fetcher.
func (d *Dir) Fetch(ctx context.Context, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.logger.Debug("source: read", "path", d.Path(index))
	return os.ReadFile(d.Path(index))
}

// Manifest reads manifest.json from the directory. Without one, it counts
// the contiguous frames starting at 0.
func (d *Dir) Manifest(ctx context.Context) (*core.Manifest, error) {
	data, err := os.ReadFile(filepath.Join(d.root, ManifestName))
	switch {
	case err == nil:
		var m core.Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ManifestName, err)
		}
		if m.Extension == "" {
			m.Extension = d.ext
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", ManifestName, err)
		}
		return &m, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	n, err := d.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: no %s in %s", ferrors.ErrNoFrames, FrameName(0, d.ext), d.root)
	}
	return &core.Manifest{Frames: n, Extension: d.ext}, nil
}

// Count returns the number of contiguous frames starting at 0.
func (d *Dir) Count(ctx context.Context) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		_, err := os.Stat(d.Path(n))
		if errors.Is(err, fs.ErrNotExist) {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		n++
	}
}

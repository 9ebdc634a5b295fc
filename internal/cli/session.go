package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/flipbook/internal/config"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/logging"
	"github.com/tessro/flipbook/internal/source"
)

// sourceFlags are the frame set flags shared by play, get and info.
// Zero values defer to the config file, then the source manifest.
type sourceFlags struct {
	source string
	ext    string
	frames int
	rate   float64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "frame source URL or directory (default: source.url)")
	cmd.Flags().StringVarP(&f.ext, "ext", "e", "", "frame file extension (default: source.extension)")
	cmd.Flags().IntVarP(&f.frames, "frames", "n", 0, "number of frames (default: config, then manifest)")
	cmd.Flags().Float64VarP(&f.rate, "rate", "r", 0, "frames per second (default: config, then manifest)")
}

// session is an opened frame source with its resolved dimensions.
type session struct {
	src       source.Source
	ext       string
	size      int
	frameRate float64

	timeout time.Duration
	logger  *slog.Logger
	id      string
	closer  io.Closer
}

// openSession opens the frame source named by flags or the config and
// resolves its size and frame rate. Logs go to the configured file, or to
// logOut when none is set.
func openSession(ctx context.Context, c *config.Config, flags sourceFlags, logOut io.Writer) (*session, error) {
	if flags.frames < 0 || flags.rate < 0 {
		return nil, fmt.Errorf("%w: --frames and --rate must be positive", ferrors.ErrInvalidConfig)
	}

	logger, closer, err := logging.New(c.Log, Verbose(), logOut)
	if err != nil {
		return nil, err
	}
	logger, id := logging.WithSession(logger)

	target := c.Source.URL
	if flags.source != "" {
		target = flags.source
	}
	if target == "" {
		_ = closer.Close()
		return nil, ferrors.ErrNoSource
	}

	ext := c.Source.Extension
	if flags.ext != "" {
		ext = flags.ext
	}

	src, err := source.Open(target, ext, source.Options{
		Timeout: c.Source.FetchTimeout(),
		Retries: c.Source.Retries,
		Logger:  logger,
	})
	if err != nil {
		_ = closer.Close()
		return nil, err
	}

	s := &session{
		src:     src,
		ext:     source.NormalizeExtension(ext),
		timeout: c.Source.FetchTimeout(),
		logger:  logger,
		id:      id,
		closer:  closer,
	}
	if err := s.resolve(ctx, c.Source, flags); err != nil {
		_ = closer.Close()
		return nil, err
	}

	logger.Debug("session opened",
		"source", src.String(),
		"frames", s.size,
		"frame_rate", s.frameRate)
	return s, nil
}

// resolve picks size and frame rate: flags, then config, then the source
// manifest. The manifest is only read when something is still missing.
func (s *session) resolve(ctx context.Context, c config.SourceConfig, flags sourceFlags) error {
	s.size = firstPositive(flags.frames, c.Frames)
	s.frameRate = firstPositive(flags.rate, c.FrameRate)
	if s.size > 0 && s.frameRate > 0 {
		return nil
	}

	m, err := s.src.Manifest(ctx)
	switch {
	case err == nil:
		s.size = firstPositive(s.size, m.Frames)
		s.frameRate = firstPositive(s.frameRate, m.FrameRate)
	case errors.Is(err, ferrors.ErrNoFrames):
		s.logger.Debug("no manifest", "source", s.src.String(), "error", err)
	default:
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	if s.size <= 0 {
		return ferrors.ErrNoFrames
	}
	s.frameRate = firstPositive(s.frameRate, config.DefaultFrameRate)
	return nil
}

// newLoader creates the frame loader for the session. The caller runs it.
func (s *session) newLoader() (*frames.Loader, error) {
	return frames.New(s.size, s.src,
		frames.WithTimeout(s.timeout),
		frames.WithLogger(s.logger))
}

// Close releases the session log file.
func (s *session) Close() error {
	return s.closer.Close()
}

func firstPositive[T int | float64](values ...T) T {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

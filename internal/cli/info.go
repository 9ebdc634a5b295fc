package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/source"
)

var infoFlags sourceFlags

var infoCmd = &cobra.Command{
	Use:   "info [source]",
	Short: "Describe a frame source",
	Long:  `Show the frame count, frame rate, duration and first frame size of a source.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInfo,
}

func init() {
	infoFlags.register(infoCmd)
	rootCmd.AddCommand(infoCmd)
}

// sourceInfo is the summary printed by info.
type sourceInfo struct {
	Source      string  `json:"source"`
	Extension   string  `json:"extension"`
	ContentType string  `json:"content_type"`
	Frames      int     `json:"frames"`
	FrameRate   float64 `json:"frame_rate"`
	Duration    string  `json:"duration"`
	FirstFrame  int     `json:"first_frame_bytes"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	flags := infoFlags
	if len(args) > 0 {
		flags.source = args[0]
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, flags, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	info, err := describe(ctx, s)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(os.Stdout, info)
	}

	t := NewTable()
	t.Row("Source", info.Source)
	t.Row("Extension", fmt.Sprintf("%s (%s)", info.Extension, info.ContentType))
	t.Row("Frames", humanize.Comma(int64(info.Frames)))
	t.Row("Frame rate", fmt.Sprintf("%g fps", info.FrameRate))
	t.Row("Duration", info.Duration)
	t.Row("First frame", humanize.Bytes(uint64(info.FirstFrame)))
	t.Flush()
	return nil
}

func describe(ctx context.Context, s *session) (*sourceInfo, error) {
	first, err := s.src.Fetch(ctx, 0)
	if err != nil {
		return nil, &ferrors.FetchError{Index: 0, Err: err}
	}

	status := core.Status{Size: s.size, FrameRate: s.frameRate}
	return &sourceInfo{
		Source:      s.src.String(),
		Extension:   s.ext,
		ContentType: source.ContentType(s.ext),
		Frames:      s.size,
		FrameRate:   s.frameRate,
		Duration:    core.FormatClock(status.Total()),
		FirstFrame:  len(first),
	}, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/source"
)

var getFlags sourceFlags

var getCmd = &cobra.Command{
	Use:     "get <index>...",
	Aliases: []string{"cat"},
	Short:   "Fetch frames and print their content",
	Long: `Fetch frames by index and write their content to stdout.

Indexes are 0-based, matching the frame file names. With several frames,
each is preceded by a "==> name <==" header. Frames that fail are reported
after the rest have been printed.`,
	Example: `  flipbook get 0 -s http://localhost:8080 > first.svg
  flipbook cat 3 4 5 -s ./frames --ext txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func init() {
	getFlags.register(getCmd)
	rootCmd.AddCommand(getCmd)
}

// fetchedFrame is the JSON form of a fetched frame.
type fetchedFrame struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Bytes   int    `json:"bytes"`
	Content string `json:"content,omitempty"`
	Data    []byte `json:"data,omitempty"`
}

func runGet(cmd *cobra.Command, args []string) error {
	indices, err := parseIndices(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, cfg, getFlags, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	loader, err := s.newLoader()
	if err != nil {
		return err
	}
	stopLoader := runLoader(ctx, loader)
	defer stopLoader()

	result := fetchFrames(ctx, loader, indices, s.ext)

	if JSONOutput() {
		if err := printJSON(os.Stdout, result.Data); err != nil {
			return err
		}
	} else if err := writeFrames(os.Stdout, result.Data, len(indices) > 1); err != nil {
		return err
	}

	return result.Err()
}

func parseIndices(args []string) ([]int, error) {
	indices := make([]int, 0, len(args))
	for _, arg := range args {
		i, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid frame index %q", arg)
		}
		indices = append(indices, i)
	}
	return indices, nil
}

// fetchFrames requests every index up front so the loader fetches them in
// order, then collects the results.
func fetchFrames(ctx context.Context, loader *frames.Loader, indices []int, ext string) *ferrors.PartialResult[[]fetchedFrame] {
	result := &ferrors.PartialResult[[]fetchedFrame]{}
	text := source.IsText(ext)

	tickets := make([]*frames.Ticket, 0, len(indices))
	for _, i := range indices {
		t, err := loader.Request(i)
		if err != nil {
			result.AddError(err)
			continue
		}
		tickets = append(tickets, t)
	}

	for _, t := range tickets {
		content, err := t.Wait(ctx)
		if err != nil {
			t.Cancel()
			result.AddError(err)
			continue
		}
		f := fetchedFrame{
			Index: t.Index(),
			Name:  source.FrameName(t.Index(), ext),
			Bytes: len(content),
		}
		if text {
			f.Content = string(content)
		} else {
			f.Data = content
		}
		result.Data = append(result.Data, f)
	}
	return result
}

func writeFrames(w io.Writer, fetched []fetchedFrame, headers bool) error {
	for i, f := range fetched {
		if headers {
			if i > 0 {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "==> %s <==\n", f.Name); err != nil {
				return err
			}
		}
		data := f.Data
		if data == nil {
			data = []byte(f.Content)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

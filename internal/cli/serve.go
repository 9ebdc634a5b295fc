package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/logging"
	"github.com/tessro/flipbook/internal/server"
	"github.com/tessro/flipbook/internal/source"
)

var (
	serveAddr   string
	serveExt    string
	serveFrames int
	serveRate   float64
)

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve a directory of frames over HTTP",
	Long: `Serve numbered frames from a directory, in the layout "flipbook play"
reads: GET /<index>.<ext> for each frame and GET /manifest.json.

The frame count comes from --frames, the directory's manifest.json, or the
number of contiguous frames starting at 0.`,
	Example: `  flipbook serve ./frames
  flipbook serve ./frames --addr :9000 --ext txt --rate 12`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default: server.addr)")
	serveCmd.Flags().StringVarP(&serveExt, "ext", "e", "", "frame file extension (default: source.extension)")
	serveCmd.Flags().IntVarP(&serveFrames, "frames", "n", 0, "number of frames to serve")
	serveCmd.Flags().Float64VarP(&serveRate, "rate", "r", 0, "frame rate advertised in the manifest")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dirPath := cfg.Server.Dir
	if len(args) > 0 {
		dirPath = args[0]
	}
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	ext := cfg.Source.Extension
	if serveExt != "" {
		ext = serveExt
	}

	logger, closer, err := logging.New(cfg.Log, Verbose(), os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()
	logger, _ = logging.WithSession(logger)

	dir, err := source.NewDir(dirPath, ext, source.Options{Logger: logger})
	if err != nil {
		return err
	}

	manifest, err := dir.Manifest(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ferrors.ErrNoFrames) && serveFrames > 0:
		manifest = &core.Manifest{Extension: dir.Extension()}
	default:
		return err
	}
	manifest.Frames = firstPositive(serveFrames, manifest.Frames)
	manifest.FrameRate = firstPositive(serveRate, cfg.Source.FrameRate, manifest.FrameRate)

	srv, err := server.New(addr, dir, *manifest, logger)
	if err != nil {
		return err
	}
	srv.Start()
	logger.Info("serving frames", "dir", dir.Root(), "url", srv.URL(), "frames", manifest.Frames)

	if JSONOutput() {
		_ = printJSON(os.Stdout, map[string]interface{}{
			"url":      srv.URL(),
			"dir":      dir.Root(),
			"manifest": srv.Manifest(),
		})
	} else {
		fmt.Printf("Serving %d frames from %s at %s\n", manifest.Frames, dir.Root(), srv.URL())
		fmt.Printf("Play them with: flipbook play %s\n", srv.URL())
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

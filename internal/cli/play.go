package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tessro/flipbook/internal/core"
	ferrors "github.com/tessro/flipbook/internal/errors"
	"github.com/tessro/flipbook/internal/feed"
	"github.com/tessro/flipbook/internal/frames"
	"github.com/tessro/flipbook/internal/playback"
	"github.com/tessro/flipbook/internal/source"
	"github.com/tessro/flipbook/internal/tui"
	"github.com/tessro/flipbook/internal/tui/styles"
	"github.com/tessro/flipbook/internal/wizard"
)

var (
	playFlags     sourceFlags
	playPlain     bool
	playPaused    bool
	playStart     int
	playNoEmoji   bool
	playTimestamp bool
	playFormat    string
)

var playCmd = &cobra.Command{
	Use:     "play [source]",
	Aliases: []string{"ui"},
	Short:   "Play a flip-book",
	Long: `Play numbered frames from a URL or directory.

On a terminal this opens the interactive player. With --plain, --json or
when output is not a terminal, frames are printed one line per event and
the command exits after the last frame.

Keyboard shortcuts:
  Space        Play/Pause
  ←/→          Previous/next frame
  g/G          First/last frame
  :            Go to frame
  ?            Help
  q, Ctrl+C    Quit`,
	Example: `  flipbook play http://localhost:8080
  flipbook play ./frames --ext txt --rate 12
  flipbook play --plain --frames 30 ./frames`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	playFlags.register(playCmd)
	playCmd.Flags().BoolVar(&playPlain, "plain", false, "print events instead of opening the interactive player")
	playCmd.Flags().BoolVar(&playPaused, "paused", false, "open the interactive player paused")
	playCmd.Flags().IntVar(&playStart, "start", 1, "first frame to show (1-based)")
	playCmd.Flags().BoolVar(&playNoEmoji, "no-emoji", false, "disable emoji output")
	playCmd.Flags().BoolVarP(&playTimestamp, "timestamp", "t", false, "show timestamps")
	playCmd.Flags().StringVarP(&playFormat, "format", "f", "", "custom format template for --plain")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := playFlags
	if len(args) > 0 {
		flags.source = args[0]
	}

	plain := playPlain || JSONOutput() || !wizard.NewInteractive().CanInteract()

	// The interactive player owns the screen; only a log file may be written.
	var logOut io.Writer
	if plain {
		logOut = os.Stderr
	}

	s, err := openSession(ctx, cfg, flags, logOut)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	start := playStart - 1
	if start < 0 || start >= s.size {
		return fmt.Errorf("--start %d: %w", playStart, ferrors.OutOfRange(start, s.size))
	}

	loader, err := s.newLoader()
	if err != nil {
		return err
	}
	ctrl, err := playback.New(loader, s.size, s.frameRate, playback.WithLogger(s.logger))
	if err != nil {
		return err
	}

	stopLoader := runLoader(ctx, loader)
	defer stopLoader()

	if Verbose() && plain {
		fmt.Fprintf(os.Stderr, "session %s: %d frames at %g fps from %s\n", s.id, s.size, s.frameRate, s.src)
	}

	if plain {
		return playPlainFeed(ctx, ctrl, s, start)
	}

	styles.SetTheme(cfg.TUI.Theme)
	return tui.Run(ctx, ctrl, tui.Options{
		Size:        s.size,
		Extension:   s.ext,
		Text:        source.IsText(s.ext),
		ShowContent: cfg.TUI.ShowContent,
		Refresh:     cfg.TUI.Refresh(),
		Stats:       loader.Stats,
		Start:       start,
		Autoplay:    !playPaused,
	})
}

// runLoader starts the loader worker and returns a func that stops it and
// waits for it to exit.
func runLoader(ctx context.Context, loader *frames.Loader) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = loader.Run(ctx)
	}()
	return func() {
		cancel()
		<-done
	}
}

// playPlainFeed plays from start to the last frame, printing each event.
func playPlainFeed(ctx context.Context, ctrl *playback.Controller, s *session, start int) error {
	formatter := feed.NewFormatter(s.size, s.frameRate,
		feed.WithEmoji(!playNoEmoji),
		feed.WithTimestamp(playTimestamp),
		feed.WithTemplate(playFormat),
	)
	writer := feed.NewWriter(os.Stdout, formatter,
		feed.WithContent(cfg.TUI.ShowContent && source.IsText(s.ext)),
		feed.WithJSON(JSONOutput()),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	finished := make(chan struct{})
	view := &endWatcher{view: writer, last: s.size - 1, shown: -1, finished: finished}

	errCh := make(chan error, 1)
	go func() {
		errCh <- ctrl.Run(ctx, view)
	}()

	if err := ctrl.Show(start); err != nil {
		return err
	}
	ctrl.Play()

	select {
	case <-finished:
		cancel()
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

// endWatcher forwards events and closes finished once playback pauses on
// the last frame.
type endWatcher struct {
	view     playback.View
	last     int
	shown    int
	finished chan struct{}
	closed   bool
}

// Handle implements playback.View. Events arrive on one goroutine.
func (w *endWatcher) Handle(ev playback.Event) {
	w.view.Handle(ev)

	switch ev := ev.(type) {
	case playback.EventFrame:
		w.shown = ev.Frame.Index
	case playback.EventState:
		if ev.State == core.Paused && w.shown == w.last && !w.closed {
			w.closed = true
			close(w.finished)
		}
	}
}

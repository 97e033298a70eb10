package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/carousel"
	"github.com/pable/go-pong-stats/internal/report"
	"github.com/pable/go-pong-stats/internal/terminal"
)

var (
	carouselSnapshot string
	carouselRefresh  time.Duration
	carouselLogFile  string
)

var carouselCmd = &cobra.Command{
	Use:   "carousel [tournament-id]",
	Short: "Run the full-screen stats carousel",
	Long: `Rotate through the tournament stats slides every 8 seconds and poll
for fresh data in the background.

Keys: ←/→ change slide, space pauses, p opens the player picker,
the shown letter features a player, esc closes the picker, q quits.

The tournament id may be omitted with --snapshot.`,
	Args: cobra.RangeArgs(0, 1),
	RunE: runCarousel,
}

func init() {
	carouselCmd.Flags().StringVar(&carouselSnapshot, "snapshot", "", "replay a snapshot file instead of live data")
	carouselCmd.Flags().DurationVar(&carouselRefresh, "refresh", 0, "background poll period (overrides config)")
	carouselCmd.Flags().StringVar(&carouselLogFile, "log-file", "", "log file (overrides config; stdout is the screen)")
}

func runCarousel(cmd *cobra.Command, args []string) error {
	var id int64
	switch {
	case len(args) == 1:
		var err error
		if id, err = parseTournamentID(args[0]); err != nil {
			return err
		}
	case carouselSnapshot == "":
		return errors.New("a tournament id is required unless --snapshot is given")
	}

	lc := cfg.Log
	lc.File = cfg.Carousel.LogFile
	if carouselLogFile != "" {
		lc.File = carouselLogFile
	}
	if err := setLogger(lc); err != nil {
		return err
	}

	refresh := cfg.Carousel.Refresh
	if carouselRefresh > 0 {
		refresh = carouselRefresh
	}

	fetcher, release, err := newFetcher(carouselSnapshot)
	if err != nil {
		return err
	}
	defer release()

	restore, err := terminal.Raw(os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("carousel needs an interactive terminal: %w", err)
	}
	defer restore()

	session := carousel.NewSession(fetcher, report.NewTerminalRenderer(os.Stdout, true), carousel.Options{
		TournamentID:  id,
		RefreshPeriod: refresh,
		Logger:        logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The key reader stops with ctx once Run returns; its pending stdin
	// read is left to end with the process.
	keysCtx, stopKeys := context.WithCancel(ctx)
	defer stopKeys()
	go func() {
		if err := terminal.ReadKeys(keysCtx, os.Stdin, session.Press); err != nil {
			logger.Error("keyboard input stopped", "err", err)
		}
	}()

	return session.Run(ctx)
}

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/pable/go-pong-stats/internal/server"
	"github.com/pable/go-pong-stats/internal/source"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tournaments and dashboards over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	srv := server.New(db, source.NewLocal(db), server.Options{
		Logger:    logger,
		RateLimit: rate.Limit(cfg.Server.RateLimit),
		Burst:     cfg.Server.Burst,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

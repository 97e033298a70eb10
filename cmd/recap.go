package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/recap"
)

var (
	recapModel    string
	recapAPIKey   string
	recapSnapshot string
)

var recapCmd = &cobra.Command{
	Use:   "recap <tournament-id>",
	Short: "AI-written tournament recap (requires ANTHROPIC_API_KEY)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecap,
}

func init() {
	recapCmd.Flags().StringVar(&recapModel, "model", "", "Anthropic model to use (overrides config)")
	recapCmd.Flags().StringVar(&recapAPIKey, "api-key", "", "Anthropic API key (falls back to config and $ANTHROPIC_API_KEY)")
	recapCmd.Flags().StringVar(&recapSnapshot, "snapshot", "", "read the dashboard from a snapshot file")
}

func runRecap(cmd *cobra.Command, args []string) error {
	id, err := parseTournamentID(args[0])
	if err != nil {
		return err
	}

	fetcher, release, err := newFetcher(recapSnapshot)
	if err != nil {
		return err
	}
	defer release()

	d, err := fetcher.FetchDashboard(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	opts := recap.Options{APIKey: cfg.Anthropic.APIKey, Model: cfg.Anthropic.Model}
	if recapAPIKey != "" {
		opts.APIKey = recapAPIKey
	}
	if recapModel != "" {
		opts.Model = recapModel
	}

	fmt.Fprintln(os.Stdout, "\n─── Tournament Recap ────────────────────────────────")
	err = recap.Stream(cmd.Context(), os.Stdout, d, opts)
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")
	return err
}

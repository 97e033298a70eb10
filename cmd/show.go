package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/report"
	"github.com/pable/go-pong-stats/internal/slides"
)

var (
	showSlide    string
	showPlayerID int64
	showSnapshot string
)

var showCmd = &cobra.Command{
	Use:   "show <tournament-id>",
	Short: "Print the carousel slides once",
	Long: `Print every slide of a tournament's carousel, or just one with --slide.
Slides: standings, players, highlight, punishments, numbers, superlatives
(or their 1-based position).`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showSlide, "slide", "", "only print this slide (name or 1-6)")
	showCmd.Flags().Int64Var(&showPlayerID, "player", 0, "player id featured on the highlight slide")
	showCmd.Flags().StringVar(&showSnapshot, "snapshot", "", "read the dashboard from a snapshot file")
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseTournamentID(args[0])
	if err != nil {
		return err
	}

	kinds := slides.Catalog
	if showSlide != "" {
		k, err := slides.ParseKind(showSlide)
		if err != nil {
			return err
		}
		kinds = []slides.Kind{k}
	}

	fetcher, release, err := newFetcher(showSnapshot)
	if err != nil {
		return err
	}
	defer release()

	d, err := fetcher.FetchDashboard(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	for i, k := range kinds {
		if i > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintf(os.Stdout, "── %s ──\n\n", k.Title())
		report.PrintSlide(os.Stdout, slides.Build(k, d, showPlayerID))
	}
	return nil
}

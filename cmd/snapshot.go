package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/source"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <tournament-id> <file.json.zst>",
	Short: "Write a compressed dashboard snapshot for offline replay",
	Args:  cobra.ExactArgs(2),
	RunE:  runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	id, err := parseTournamentID(args[0])
	if err != nil {
		return err
	}
	path := args[1]

	fetcher, release, err := newFetcher("")
	if err != nil {
		return err
	}
	defer release()

	d, err := fetcher.FetchDashboard(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("fetch dashboard: %w", err)
	}

	// Write next to the target and rename so a carousel replaying the file
	// never reads a partial snapshot.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := source.WriteSnapshot(tmp, d); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	logger.Info("snapshot written", "tournament_id", id, "path", path, "players", len(d.PlayerLeaderboard))
	fmt.Fprintf(os.Stdout, "Wrote %s (%d players, %d/%d games)\n", path, len(d.PlayerLeaderboard), d.CompletedGames, d.TotalGames)
	return nil
}

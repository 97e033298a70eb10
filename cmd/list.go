package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/report"
	"github.com/pable/go-pong-stats/internal/source"
	"github.com/pable/go-pong-stats/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tournaments",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	var (
		list []storage.TournamentSummary
		err  error
	)
	if cfg.API.URL != "" {
		list, err = source.NewClient(cfg.API.URL).ListTournaments(cmd.Context())
	} else {
		var db *storage.DB
		if db, err = openDB(); err != nil {
			return err
		}
		defer db.Close()
		list, err = db.ListTournaments()
	}
	if err != nil {
		return fmt.Errorf("list tournaments: %w", err)
	}

	report.PrintTournaments(os.Stdout, list)
	return nil
}

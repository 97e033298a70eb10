package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/report"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the tournament database",
	Long: `Run an arbitrary SQL query against the tournament database and print results as a table.

Schema overview:
  tournaments(id, name, group_tags, created_at)
  players(id, name)
  teams(id, tournament_id, name, grp, player1_id, player2_id)
  games(id, tournament_id, team1_id, team2_id, status, winner_id, starting_cups)
  shots(id, game_id, player_id, team_id, shot_type, outcome, bounces,
    elbow_violation, cup_position, ts)
  punishment_bongs(id, tournament_id, player_id, note, ts)

Timestamps are RFC 3339 text in UTC. group_tags is a comma-separated list.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return err
	}
	report.PrintRows(os.Stdout, cols, rows)
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-pong-stats/internal/seed"
)

var (
	seedName     string
	seedSimulate int
	seedRandom   int64
	seedInto     int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the demo tournament, optionally with simulated games",
	Long: `Create a tournament with ten teams in groups A and B and a round-robin
schedule inside each group. With --simulate N, play N of its games with
random shots and punishment bongs (-1 plays every game).`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", seed.DefaultName, "tournament name")
	seedCmd.Flags().IntVar(&seedSimulate, "simulate", 0, "number of games to simulate (-1 for all)")
	seedCmd.Flags().Int64Var(&seedRandom, "seed", 1, "random seed for the simulation")
	seedCmd.Flags().Int64Var(&seedInto, "tournament", 0, "simulate on an existing tournament instead of creating one")
}

func runSeed(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	tid := seedInto
	if tid == 0 {
		res, err := seed.Create(db, seedName, seed.Roster)
		if err != nil {
			return err
		}
		tid = res.TournamentID
		fmt.Fprintf(os.Stdout, "✓ Tournament '%s' (id=%d)\n", seedName, tid)
		fmt.Fprintf(os.Stdout, "  %d players, %d teams, %d games\n", res.Players, res.Teams, res.Games)
	}

	if seedSimulate == 0 {
		return nil
	}
	n := seedSimulate
	if n < 0 {
		n = 0
	}
	sim := seed.NewSimulator(db, seedRandom, time.Now().Add(-3*time.Hour), logger)
	played, err := sim.Play(cmd.Context(), tid, n)
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	fmt.Fprintf(os.Stdout, "  simulated %d games\n", played)
	return nil
}

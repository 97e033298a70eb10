package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pable/go-pong-stats/internal/storage"
)

// PrintTournaments writes the stored tournaments, newest first.
func PrintTournaments(w io.Writer, list []storage.TournamentSummary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No tournaments stored yet. Run 'pongstats seed' to add one.")
		return
	}
	table := newTable(w)
	table.Header("ID", "NAME", "CREATED", "TEAMS", "GAMES", "DONE", "SHOTS")
	for _, t := range list {
		created := Undefined
		if !t.CreatedAt.IsZero() {
			created = t.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		table.Append(
			strconv.FormatInt(t.ID, 10),
			t.Name,
			created,
			strconv.Itoa(t.Teams),
			strconv.Itoa(t.Games),
			strconv.Itoa(t.CompletedGames),
			strconv.Itoa(t.Shots),
		)
	}
	table.Render()
}

// PrintRows writes a raw query result.
func PrintRows(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	table.Header(header...)
	for _, row := range rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		table.Append(cells...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pable/go-pong-stats/internal/model"
)

// TournamentSummary is one row of ListTournaments.
type TournamentSummary struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	Teams          int       `json:"teams"`
	Games          int       `json:"games"`
	CompletedGames int       `json:"completed_games"`
	Shots          int       `json:"shots"`
}

// CreateTournament inserts a tournament and returns its id.
func (db *DB) CreateTournament(name string, groups []string) (int64, error) {
	res, err := db.conn.Exec(
		`INSERT INTO tournaments(name, group_tags, created_at) VALUES (?, ?, ?)`,
		name, strings.Join(groups, ","), formatTime(time.Now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert tournament: %w", err)
	}
	return res.LastInsertId()
}

// EnsurePlayer returns the id of the player with the given name, creating it if needed.
func (db *DB) EnsurePlayer(name string) (int64, error) {
	if _, err := db.conn.Exec(`INSERT OR IGNORE INTO players(name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert player %q: %w", name, err)
	}
	var id int64
	if err := db.conn.QueryRow(`SELECT id FROM players WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup player %q: %w", name, err)
	}
	return id, nil
}

// CreateTeam inserts a team and returns its id.
func (db *DB) CreateTeam(t model.Team) (int64, error) {
	if t.Player1ID == t.Player2ID {
		return 0, fmt.Errorf("team %q: both roster slots hold player %d", t.Name, t.Player1ID)
	}
	res, err := db.conn.Exec(`
		INSERT INTO teams(tournament_id, name, grp, player1_id, player2_id)
		VALUES (?, ?, ?, ?, ?)`,
		t.TournamentID, t.Name, t.Group, t.Player1ID, t.Player2ID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert team %q: %w", t.Name, err)
	}
	return res.LastInsertId()
}

// CreateGame inserts a game and returns its id.
func (db *DB) CreateGame(g model.Game) (int64, error) {
	if g.Status == "" {
		g.Status = model.GameNotStarted
	}
	if g.StartingCups <= 0 {
		g.StartingCups = model.DefaultStartingCups
	}
	res, err := db.conn.Exec(`
		INSERT INTO games(tournament_id, team1_id, team2_id, status, winner_id, starting_cups)
		VALUES (?, ?, ?, ?, ?, ?)`,
		g.TournamentID, g.Team1ID, g.Team2ID, string(g.Status), nullInt64(g.WinnerID), g.StartingCups,
	)
	if err != nil {
		return 0, fmt.Errorf("insert game: %w", err)
	}
	return res.LastInsertId()
}

// FinishGame marks a game completed with the given winner.
func (db *DB) FinishGame(gameID, winnerID int64) error {
	res, err := db.conn.Exec(
		`UPDATE games SET status = ?, winner_id = ? WHERE id = ?`,
		string(model.GameCompleted), winnerID, gameID,
	)
	if err != nil {
		return fmt.Errorf("finish game %d: %w", gameID, err)
	}
	return requireRow(res, "game", gameID)
}

// SetGameStatus updates a game's status without touching the winner.
func (db *DB) SetGameStatus(gameID int64, status model.GameStatus) error {
	res, err := db.conn.Exec(`UPDATE games SET status = ? WHERE id = ?`, string(status), gameID)
	if err != nil {
		return fmt.Errorf("update game %d: %w", gameID, err)
	}
	return requireRow(res, "game", gameID)
}

// InsertShots bulk-inserts shots in a transaction.
func (db *DB) InsertShots(shots []model.Shot) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO shots(
			game_id, player_id, team_id, shot_type, outcome,
			bounces, elbow_violation, cup_position, ts
		) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range shots {
		if !s.Type.Valid() || !s.Outcome.Valid() {
			return fmt.Errorf("insert shot: invalid type %q or outcome %q", s.Type, s.Outcome)
		}
		_, err = stmt.Exec(
			s.GameID, s.PlayerID, s.TeamID, string(s.Type), string(s.Outcome),
			nullInt(s.Bounces), boolInt(s.ElbowViolation), nullInt(s.CupPosition),
			formatTime(s.Timestamp),
		)
		if err != nil {
			return fmt.Errorf("insert shot for player %d: %w", s.PlayerID, err)
		}
	}
	return tx.Commit()
}

// InsertBong records a punishment bong and returns its id.
func (db *DB) InsertBong(b model.PunishmentBong) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO punishment_bongs(tournament_id, player_id, note, ts)
		VALUES (?, ?, ?, ?)`,
		b.TournamentID, b.PlayerID, b.Note, formatTime(b.Timestamp),
	)
	if err != nil {
		return 0, fmt.Errorf("insert punishment bong: %w", err)
	}
	return res.LastInsertId()
}

// GetTournament returns one tournament.
func (db *DB) GetTournament(id int64) (model.Tournament, error) {
	return db.getTournament(context.Background(), id)
}

func (db *DB) getTournament(ctx context.Context, id int64) (model.Tournament, error) {
	var t model.Tournament
	var groups string
	err := db.conn.QueryRowContext(ctx, `SELECT id, name, group_tags FROM tournaments WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &groups)
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("tournament %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return t, err
	}
	t.Groups = splitGroups(groups)
	return t, nil
}

// ListTournaments returns all tournaments, newest first, with row counts.
func (db *DB) ListTournaments() ([]TournamentSummary, error) {
	rows, err := db.conn.Query(`
		SELECT t.id, t.name, t.created_at,
			(SELECT COUNT(1) FROM teams WHERE tournament_id = t.id),
			(SELECT COUNT(1) FROM games WHERE tournament_id = t.id),
			(SELECT COUNT(1) FROM games WHERE tournament_id = t.id AND status = 'completed'),
			(SELECT COUNT(1) FROM shots s JOIN games g ON g.id = s.game_id WHERE g.tournament_id = t.id)
		FROM tournaments t ORDER BY t.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TournamentSummary
	for rows.Next() {
		var s TournamentSummary
		var created string
		if err := rows.Scan(&s.ID, &s.Name, &created, &s.Teams, &s.Games, &s.CompletedGames, &s.Shots); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(created)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadTournament reads everything recorded for a tournament.
func (db *DB) LoadTournament(ctx context.Context, id int64) (*model.RawTournament, error) {
	t, err := db.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	raw := &model.RawTournament{Tournament: t, Players: make(map[int64]model.Player)}

	if raw.Teams, err = db.loadTeams(ctx, id); err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	if raw.Games, err = db.loadGames(ctx, id); err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	if raw.Shots, err = db.loadShots(ctx, id); err != nil {
		return nil, fmt.Errorf("load shots: %w", err)
	}
	if raw.Bongs, err = db.loadBongs(ctx, id); err != nil {
		return nil, fmt.Errorf("load punishment bongs: %w", err)
	}
	if err := db.loadPlayers(ctx, id, raw.Players); err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	return raw, nil
}

func (db *DB) loadTeams(ctx context.Context, tournamentID int64) ([]model.Team, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, tournament_id, name, grp, player1_id, player2_id
		FROM teams WHERE tournament_id = ? ORDER BY id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.TournamentID, &t.Name, &t.Group, &t.Player1ID, &t.Player2ID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) loadGames(ctx context.Context, tournamentID int64) ([]model.Game, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, tournament_id, team1_id, team2_id, status, winner_id, starting_cups
		FROM games WHERE tournament_id = ? ORDER BY id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Game
	for rows.Next() {
		var g model.Game
		var status string
		var winner sql.NullInt64
		if err := rows.Scan(&g.ID, &g.TournamentID, &g.Team1ID, &g.Team2ID, &status, &winner, &g.StartingCups); err != nil {
			return nil, err
		}
		g.Status = model.GameStatus(status)
		if winner.Valid {
			w := winner.Int64
			g.WinnerID = &w
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (db *DB) loadShots(ctx context.Context, tournamentID int64) ([]model.Shot, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT s.id, s.game_id, s.player_id, s.team_id, s.shot_type, s.outcome,
			s.bounces, s.elbow_violation, s.cup_position, s.ts
		FROM shots s JOIN games g ON g.id = s.game_id
		WHERE g.tournament_id = ? ORDER BY s.id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Shot
	for rows.Next() {
		var s model.Shot
		var shotType, outcome, ts string
		var bounces, cup sql.NullInt64
		var elbow int
		if err := rows.Scan(&s.ID, &s.GameID, &s.PlayerID, &s.TeamID, &shotType, &outcome,
			&bounces, &elbow, &cup, &ts); err != nil {
			return nil, err
		}
		s.Type = model.ShotType(shotType)
		s.Outcome = model.Outcome(outcome)
		s.Bounces = intPtr(bounces)
		s.CupPosition = intPtr(cup)
		s.ElbowViolation = elbow != 0
		s.Timestamp = parseTime(ts)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (db *DB) loadBongs(ctx context.Context, tournamentID int64) ([]model.PunishmentBong, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, tournament_id, player_id, note, ts
		FROM punishment_bongs WHERE tournament_id = ? ORDER BY id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PunishmentBong
	for rows.Next() {
		var b model.PunishmentBong
		var ts string
		if err := rows.Scan(&b.ID, &b.TournamentID, &b.PlayerID, &b.Note, &ts); err != nil {
			return nil, err
		}
		b.Timestamp = parseTime(ts)
		out = append(out, b)
	}
	return out, rows.Err()
}

// loadPlayers fills players referenced by the tournament's rosters, shots or bongs.
func (db *DB) loadPlayers(ctx context.Context, tournamentID int64, into map[int64]model.Player) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name FROM players WHERE id IN (
			SELECT player1_id FROM teams WHERE tournament_id = ?1
			UNION SELECT player2_id FROM teams WHERE tournament_id = ?1
			UNION SELECT player_id FROM punishment_bongs WHERE tournament_id = ?1
			UNION SELECT s.player_id FROM shots s JOIN games g ON g.id = s.game_id WHERE g.tournament_id = ?1
		)`, tournamentID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p model.Player
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return err
		}
		into[p.ID] = p
	}
	return rows.Err()
}

// ---- helpers ----

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads stored timestamps, which are always UTC.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func splitGroups(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func requireRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

// QueryRaw runs an arbitrary statement and returns every cell as text.
// NULL cells come back as "NULL".
func (db *DB) QueryRaw(ctx context.Context, query string) ([]string, [][]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

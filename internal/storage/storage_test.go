package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pable/go-pong-stats/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	tournament int64
	ali, kasp  int64
	linus, th  int64
	ak, lt     int64
	game       int64
}

func seedFixture(t *testing.T, db *DB) fixture {
	t.Helper()
	var f fixture
	var err error
	if f.tournament, err = db.CreateTournament("SuperPongTest", []string{"A", "B"}); err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	for _, p := range []struct {
		name string
		id   *int64
	}{{"Ali", &f.ali}, {"Kasper", &f.kasp}, {"Linus", &f.linus}, {"Theo", &f.th}} {
		if *p.id, err = db.EnsurePlayer(p.name); err != nil {
			t.Fatalf("EnsurePlayer(%s): %v", p.name, err)
		}
	}
	if f.ak, err = db.CreateTeam(model.Team{TournamentID: f.tournament, Name: "Ali & Kasper", Group: "A", Player1ID: f.ali, Player2ID: f.kasp}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if f.lt, err = db.CreateTeam(model.Team{TournamentID: f.tournament, Name: "Linus & Theo", Group: "B", Player1ID: f.linus, Player2ID: f.th}); err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if f.game, err = db.CreateGame(model.Game{TournamentID: f.tournament, Team1ID: f.ak, Team2ID: f.lt}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	return f
}

func TestEnsurePlayerIsIdempotent(t *testing.T) {
	db := openMemDB(t)

	id1, err := db.EnsurePlayer("Ali")
	if err != nil {
		t.Fatalf("EnsurePlayer: %v", err)
	}
	id2, err := db.EnsurePlayer("Ali")
	if err != nil {
		t.Fatalf("EnsurePlayer: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected the same id for the same name, got %d and %d", id1, id2)
	}
}

func TestCreateTeamRejectsSamePlayerTwice(t *testing.T) {
	db := openMemDB(t)
	f := seedFixture(t, db)

	_, err := db.CreateTeam(model.Team{TournamentID: f.tournament, Name: "solo", Player1ID: f.ali, Player2ID: f.ali})
	if err == nil {
		t.Error("expected an error for a team with one player in both slots")
	}
}

func TestLoadTournamentRoundTrip(t *testing.T) {
	db := openMemDB(t)
	f := seedFixture(t, db)

	ts := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	cup, bounces := 3, 2
	shots := []model.Shot{
		{GameID: f.game, PlayerID: f.ali, TeamID: f.ak, Type: model.ShotNormal, Outcome: model.OutcomeHit, CupPosition: &cup, Timestamp: ts},
		{GameID: f.game, PlayerID: f.linus, TeamID: f.lt, Type: model.ShotBounce, Outcome: model.OutcomeMiss, Bounces: &bounces, ElbowViolation: true, Timestamp: ts.Add(time.Second)},
	}
	if err := db.InsertShots(shots); err != nil {
		t.Fatalf("InsertShots: %v", err)
	}
	if _, err := db.InsertBong(model.PunishmentBong{TournamentID: f.tournament, PlayerID: f.th, Note: "spilled", Timestamp: ts}); err != nil {
		t.Fatalf("InsertBong: %v", err)
	}
	if err := db.FinishGame(f.game, f.ak); err != nil {
		t.Fatalf("FinishGame: %v", err)
	}

	raw, err := db.LoadTournament(context.Background(), f.tournament)
	if err != nil {
		t.Fatalf("LoadTournament: %v", err)
	}

	if raw.Tournament.Name != "SuperPongTest" || len(raw.Tournament.Groups) != 2 {
		t.Errorf("unexpected tournament %+v", raw.Tournament)
	}
	if len(raw.Teams) != 2 || raw.Teams[0].Group != "A" {
		t.Errorf("unexpected teams %+v", raw.Teams)
	}
	if len(raw.Players) != 4 || raw.Players[f.th].Name != "Theo" {
		t.Errorf("unexpected players %+v", raw.Players)
	}

	if len(raw.Games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(raw.Games))
	}
	g := raw.Games[0]
	if g.Status != model.GameCompleted || g.WinnerID == nil || *g.WinnerID != f.ak {
		t.Errorf("unexpected game %+v", g)
	}
	if g.StartingCups != model.DefaultStartingCups {
		t.Errorf("expected default starting cups, got %d", g.StartingCups)
	}

	if len(raw.Shots) != 2 {
		t.Fatalf("expected 2 shots, got %d", len(raw.Shots))
	}
	hit := raw.Shots[0]
	if c, ok := hit.Cup(); !ok || c != 3 {
		t.Errorf("expected hit on cup 3, got %v %v", c, ok)
	}
	if !hit.Timestamp.Equal(ts) {
		t.Errorf("timestamp round trip: got %v want %v", hit.Timestamp, ts)
	}
	bounce := raw.Shots[1]
	if bounce.BounceCount() != 2 || !bounce.ElbowViolation || bounce.CupPosition != nil {
		t.Errorf("unexpected bounce shot %+v", bounce)
	}

	if len(raw.Bongs) != 1 || raw.Bongs[0].Note != "spilled" {
		t.Errorf("unexpected bongs %+v", raw.Bongs)
	}
}

func TestLoadTournamentNotFound(t *testing.T) {
	db := openMemDB(t)
	_, err := db.LoadTournament(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.FinishGame(42, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing game, got %v", err)
	}
}

func TestInsertShotsRejectsUnknownType(t *testing.T) {
	db := openMemDB(t)
	f := seedFixture(t, db)

	err := db.InsertShots([]model.Shot{{GameID: f.game, PlayerID: f.ali, TeamID: f.ak, Type: "lob", Outcome: model.OutcomeHit}})
	if err == nil {
		t.Fatal("expected an error for an unknown shot type")
	}
	raw, _ := db.LoadTournament(context.Background(), f.tournament)
	if len(raw.Shots) != 0 {
		t.Errorf("failed batch must not leave shots behind, got %d", len(raw.Shots))
	}
}

func TestListTournaments(t *testing.T) {
	db := openMemDB(t)
	f := seedFixture(t, db)
	if _, err := db.CreateTournament("Later", nil); err != nil {
		t.Fatalf("CreateTournament: %v", err)
	}
	if err := db.SetGameStatus(f.game, model.GameInProgress); err != nil {
		t.Fatalf("SetGameStatus: %v", err)
	}
	if err := db.InsertShots([]model.Shot{{GameID: f.game, PlayerID: f.ali, TeamID: f.ak, Type: model.ShotNormal, Outcome: model.OutcomeMiss}}); err != nil {
		t.Fatalf("InsertShots: %v", err)
	}

	list, err := db.ListTournaments()
	if err != nil {
		t.Fatalf("ListTournaments: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tournaments, got %d", len(list))
	}
	// Newest first.
	if list[0].Name != "Later" {
		t.Errorf("expected Later first, got %s", list[0].Name)
	}
	s := list[1]
	if s.Teams != 2 || s.Games != 1 || s.CompletedGames != 0 || s.Shots != 1 {
		t.Errorf("unexpected summary %+v", s)
	}

	tour, err := db.GetTournament(list[0].ID)
	if err != nil {
		t.Fatalf("GetTournament: %v", err)
	}
	if len(tour.Groups) != 0 {
		t.Errorf("expected no groups, got %v", tour.Groups)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	f := seedFixture(t, db)

	cols, rows, err := db.QueryRaw(context.Background(), `SELECT name, grp, player2_id FROM teams WHERE tournament_id = 1 ORDER BY id`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 3 || cols[1] != "grp" {
		t.Errorf("unexpected columns %v", cols)
	}
	if len(rows) != 2 || rows[0][0] != "Ali & Kasper" || rows[1][1] != "B" {
		t.Errorf("unexpected rows %v", rows)
	}
	if rows[0][2] != fmt.Sprint(f.kasp) {
		t.Errorf("expected player2 id %d, got %s", f.kasp, rows[0][2])
	}

	_, rows, err = db.QueryRaw(context.Background(), `SELECT winner_id FROM games`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "NULL" {
		t.Errorf("expected NULL winner, got %v", rows)
	}

	if _, _, err := db.QueryRaw(context.Background(), `SELECT nope FROM nowhere`); err == nil {
		t.Error("expected an error for a bad query")
	}
}

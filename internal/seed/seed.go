// Package seed creates the demo tournament and can simulate games on it so
// the carousel has something to show.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/storage"
)

// DefaultName is the demo tournament name.
const DefaultName = "SuperPongTest"

// Pair is the two player names of a team.
type Pair [2]string

// Group is one group of the demo roster.
type Group struct {
	Name  string
	Teams []Pair
}

// Roster is the demo line-up: ten teams in two groups.
var Roster = []Group{
	{Name: "A", Teams: []Pair{
		{"Ali", "Kasper"},
		{"Florenz", "Oskar"},
		{"Markus", "Aksel"},
		{"Satya", "Mathilde"},
		{"Meier", "Lauge"},
	}},
	{Name: "B", Teams: []Pair{
		{"Linus", "Theo"},
		{"Andreas", "Martin"},
		{"Ryan", "Himmer"},
		{"Daniel", "Oscar"},
		{"Carl", "Booze"},
	}},
}

// Result summarises what Create wrote.
type Result struct {
	TournamentID int64
	Players      int
	Teams        int
	Games        int
}

// Create writes a tournament with the given roster and a round-robin
// schedule inside each group. Players are shared by name across tournaments.
func Create(db *storage.DB, name string, roster []Group) (Result, error) {
	groups := make([]string, 0, len(roster))
	for _, g := range roster {
		groups = append(groups, g.Name)
	}
	tid, err := db.CreateTournament(name, groups)
	if err != nil {
		return Result{}, fmt.Errorf("create tournament: %w", err)
	}
	res := Result{TournamentID: tid}

	players := make(map[string]int64)
	player := func(name string) (int64, error) {
		if id, ok := players[name]; ok {
			return id, nil
		}
		id, err := db.EnsurePlayer(name)
		if err != nil {
			return 0, fmt.Errorf("player %s: %w", name, err)
		}
		players[name] = id
		return id, nil
	}

	for _, g := range roster {
		teamIDs := make([]int64, 0, len(g.Teams))
		for _, pair := range g.Teams {
			p1, err := player(pair[0])
			if err != nil {
				return res, err
			}
			p2, err := player(pair[1])
			if err != nil {
				return res, err
			}
			id, err := db.CreateTeam(model.Team{
				TournamentID: tid,
				Name:         pair[0] + " & " + pair[1],
				Group:        g.Name,
				Player1ID:    p1,
				Player2ID:    p2,
			})
			if err != nil {
				return res, fmt.Errorf("team %s & %s: %w", pair[0], pair[1], err)
			}
			teamIDs = append(teamIDs, id)
		}
		for i := 0; i < len(teamIDs); i++ {
			for j := i + 1; j < len(teamIDs); j++ {
				if _, err := db.CreateGame(model.Game{
					TournamentID: tid,
					Team1ID:      teamIDs[i],
					Team2ID:      teamIDs[j],
					StartingCups: model.DefaultStartingCups,
				}); err != nil {
					return res, fmt.Errorf("game: %w", err)
				}
				res.Games++
			}
		}
		res.Teams += len(teamIDs)
	}
	res.Players = len(players)
	return res, nil
}

// maxShotsPerGame stops a simulated game that refuses to end.
const maxShotsPerGame = 400

var bongNotes = []string{
	"lost the game",
	"elbow over the line",
	"knocked a cup over",
	"drank from the wrong cup",
	"airballed three in a row",
	"",
}

// Simulator plays not-yet-started games with random but reproducible shots.
type Simulator struct {
	db    *storage.DB
	faker *gofakeit.Faker
	log   *slog.Logger
	start time.Time
	skill map[int64]float64
}

// NewSimulator returns a simulator seeded with seed. Shots are timestamped
// from start onwards.
func NewSimulator(db *storage.DB, seed int64, start time.Time, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{
		db:    db,
		faker: gofakeit.New(uint64(seed)),
		log:   log,
		start: start,
		skill: make(map[int64]float64),
	}
}

// Play simulates up to n not-started games of the tournament (all of them
// when n <= 0) and returns how many it played.
func (s *Simulator) Play(ctx context.Context, tournamentID int64, n int) (int, error) {
	raw, err := s.db.LoadTournament(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	teams := make(map[int64]model.Team, len(raw.Teams))
	for _, t := range raw.Teams {
		teams[t.ID] = t
	}

	played := 0
	clock := s.start
	for _, g := range raw.Games {
		if n > 0 && played >= n {
			break
		}
		if g.Status != model.GameNotStarted {
			continue
		}
		if err := ctx.Err(); err != nil {
			return played, err
		}
		t1, ok1 := teams[g.Team1ID]
		t2, ok2 := teams[g.Team2ID]
		if !ok1 || !ok2 {
			s.log.Warn("skipping game with unknown team", "game_id", g.ID)
			continue
		}
		var err error
		clock, err = s.playGame(tournamentID, g, t1, t2, clock)
		if err != nil {
			return played, fmt.Errorf("game %d: %w", g.ID, err)
		}
		played++
	}
	return played, nil
}

func (s *Simulator) skillOf(playerID int64) float64 {
	if v, ok := s.skill[playerID]; ok {
		return v
	}
	v := s.faker.Float64Range(0.2, 0.55)
	s.skill[playerID] = v
	return v
}

// rack is the cups still standing on one side of the table.
type rack []int

func newRack(n int) rack {
	if n <= 0 || n > model.MaxCupPosition {
		n = model.DefaultStartingCups
	}
	r := make(rack, n)
	for i := range r {
		r[i] = i + 1
	}
	return r
}

func (r *rack) take(i int) int {
	c := (*r)[i]
	*r = append((*r)[:i], (*r)[i+1:]...)
	return c
}

func (s *Simulator) playGame(tournamentID int64, g model.Game, t1, t2 model.Team, clock time.Time) (time.Time, error) {
	if err := s.db.SetGameStatus(g.ID, model.GameInProgress); err != nil {
		return clock, err
	}

	sides := [2]model.Team{t1, t2}
	racks := [2]rack{newRack(g.StartingCups), newRack(g.StartingCups)}
	reracked := [2]bool{}
	var shots []model.Shot

	turn := 0
	for len(racks[0]) > 0 && len(racks[1]) > 0 && len(shots) < maxShotsPerGame {
		team := sides[turn]
		target := &racks[1-turn]
		for _, pid := range []int64{team.Player1ID, team.Player2ID} {
			if len(*target) == 0 {
				break
			}
			clock = clock.Add(time.Duration(s.faker.Number(8, 25)) * time.Second)

			if len(*target) == 3 && !reracked[turn] && s.faker.Number(1, 100) <= 30 {
				reracked[turn] = true
				shots = append(shots, model.Shot{GameID: g.ID, PlayerID: pid, TeamID: team.ID, Type: model.ShotRerack, Outcome: model.OutcomeNone, Timestamp: clock})
			}
			shots = append(shots, s.shoot(g.ID, pid, team.ID, target, clock))
		}
		turn = 1 - turn
	}

	// racks[i] stands on side i's end, so the side with more cups left loses.
	winner, loser := sides[0], sides[1]
	if len(racks[0]) < len(racks[1]) {
		winner, loser = sides[1], sides[0]
	}

	if err := s.db.InsertShots(shots); err != nil {
		return clock, err
	}
	if err := s.db.FinishGame(g.ID, winner.ID); err != nil {
		return clock, err
	}

	for _, pid := range []int64{loser.Player1ID, loser.Player2ID} {
		if !s.faker.Bool() {
			continue
		}
		clock = clock.Add(time.Minute)
		if _, err := s.db.InsertBong(model.PunishmentBong{
			TournamentID: tournamentID,
			PlayerID:     pid,
			Note:         s.faker.RandomString(bongNotes),
			Timestamp:    clock,
		}); err != nil {
			return clock, err
		}
	}
	s.log.Debug("simulated game", "game_id", g.ID, "winner", winner.Name, "shots", len(shots))
	return clock.Add(5 * time.Minute), nil
}

// shoot throws one shot at target, removing the cups it sinks.
func (s *Simulator) shoot(gameID, playerID, teamID int64, target *rack, at time.Time) model.Shot {
	shot := model.Shot{
		GameID:         gameID,
		PlayerID:       playerID,
		TeamID:         teamID,
		Type:           model.ShotNormal,
		ElbowViolation: s.faker.Number(1, 100) <= 3,
		Timestamp:      at,
	}
	p := s.skillOf(playerID)
	switch r := s.faker.Number(1, 100); {
	case r <= 8:
		shot.Type = model.ShotBounce
		b := s.faker.Number(1, 2)
		shot.Bounces = &b
		p *= 0.7
	case r <= 12:
		shot.Type = model.ShotTrickshot
		p *= 0.5
	}

	if s.faker.Float64Range(0, 1) >= p {
		shot.Outcome = model.OutcomeMiss
		if s.faker.Number(1, 100) <= 20 {
			shot.Outcome = model.OutcomeRim
		}
		return shot
	}

	shot.Outcome = model.OutcomeHit
	cup := target.take(s.faker.Number(0, len(*target)-1))
	shot.CupPosition = &cup
	// A sunk bounce shot also takes one extra cup per bounce.
	for i := 0; i < shot.BounceCount() && len(*target) > 0; i++ {
		target.take(s.faker.Number(0, len(*target)-1))
	}
	return shot
}

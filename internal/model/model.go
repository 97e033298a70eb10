package model

import "time"

// ShotType is how a shot was thrown.
type ShotType string

const (
	ShotNormal    ShotType = "normal"
	ShotBounce    ShotType = "bounce"
	ShotTrickshot ShotType = "trickshot"
	ShotRerack    ShotType = "rerack" // non-scoring; carries no outcome stats
)

// Valid reports whether t is one of the known shot types.
func (t ShotType) Valid() bool {
	switch t {
	case ShotNormal, ShotBounce, ShotTrickshot, ShotRerack:
		return true
	}
	return false
}

// Outcome is the result of a shot.
type Outcome string

const (
	OutcomeMiss Outcome = "miss"
	OutcomeHit  Outcome = "hit"
	OutcomeRim  Outcome = "rim"
	OutcomeNone Outcome = "none"
)

// Valid reports whether o is one of the known outcomes.
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeMiss, OutcomeHit, OutcomeRim, OutcomeNone:
		return true
	}
	return false
}

// GameStatus tracks the lifecycle of a game.
type GameStatus string

const (
	GameNotStarted GameStatus = "not_started"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
)

// DefaultStartingCups is the cup count per team when a game does not say otherwise.
const DefaultStartingCups = 6

// MaxCupPosition is the highest cup position on a 10-cup rack.
const MaxCupPosition = 10

// ---- Raw records written by the data producers ----

type Tournament struct {
	ID     int64    `json:"id"`
	Name   string   `json:"name"`
	Groups []string `json:"groups"` // group tags, e.g. ["A", "B"]
}

type Player struct {
	ID   int64
	Name string
}

type Team struct {
	ID           int64
	TournamentID int64
	Name         string
	Group        string
	Player1ID    int64
	Player2ID    int64
}

// HasPlayer reports whether the player is on the team's roster.
func (t *Team) HasPlayer(playerID int64) bool {
	return t.Player1ID == playerID || t.Player2ID == playerID
}

type Game struct {
	ID           int64
	TournamentID int64
	Team1ID      int64
	Team2ID      int64
	Status       GameStatus
	WinnerID     *int64 // nil until decided
	StartingCups int
}

type Shot struct {
	ID             int64
	GameID         int64
	PlayerID       int64
	TeamID         int64
	Type           ShotType
	Outcome        Outcome
	Bounces        *int // bounce shots only
	ElbowViolation bool
	CupPosition    *int // 1–10, hits only
	Timestamp      time.Time
}

// IsHit reports whether the shot removed a cup.
func (s *Shot) IsHit() bool { return s.Outcome == OutcomeHit }

// BounceCount returns the number of bounces for a bounce shot, 0 otherwise.
func (s *Shot) BounceCount() int {
	if s.Type != ShotBounce || s.Bounces == nil {
		return 0
	}
	return *s.Bounces
}

// Cup returns the hit cup position and whether it is meaningful.
func (s *Shot) Cup() (int, bool) {
	if !s.IsHit() || s.CupPosition == nil {
		return 0, false
	}
	c := *s.CupPosition
	if c < 1 || c > MaxCupPosition {
		return 0, false
	}
	return c, true
}

type PunishmentBong struct {
	ID           int64
	TournamentID int64
	PlayerID     int64
	Note         string
	Timestamp    time.Time
}

// RawTournament is everything recorded for one tournament: the input of
// the dashboard computation.
type RawTournament struct {
	Tournament Tournament
	Teams      []Team
	Players    map[int64]Player
	Games      []Game
	Shots      []Shot
	Bongs      []PunishmentBong
}

package model

import (
	"fmt"
	"time"
)

// Dashboard is the aggregate payload served by fetch-dashboard. A received
// Dashboard is never mutated after Normalize; refreshes replace it wholesale.
type Dashboard struct {
	TournamentID      int64              `json:"tournament_id"`
	TournamentName    string             `json:"tournament_name"`
	Groups            []string           `json:"groups"`
	TotalGames        int                `json:"total_games"`
	CompletedGames    int                `json:"completed_games"`
	InProgressGames   int                `json:"in_progress_games"`
	TeamStandings     []TeamStanding     `json:"team_standings"`
	PlayerLeaderboard []PlayerEntry      `json:"player_leaderboard"`
	CupHeatmap        []CupHeatmapEntry  `json:"cup_heatmap"`
	TotalPunishments  int                `json:"total_punishments"`
	PunishmentCounts  []PunishmentCount  `json:"punishment_counts"`
	RecentPunishments []RecentPunishment `json:"recent_punishments"`
	HotHand           []HotHandEntry     `json:"hot_hand"`
}

type TeamStanding struct {
	TeamID      int64  `json:"team_id"`
	TeamName    string `json:"team_name"`
	Group       string `json:"group"`
	Player1ID   int64  `json:"player1_id"`
	Player2ID   int64  `json:"player2_id"`
	Player1Name string `json:"player1_name"`
	Player2Name string `json:"player2_name"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	GamesPlayed int    `json:"games_played"`
}

// PlayerEntry is one leaderboard row. Rerack shots are never counted.
type PlayerEntry struct {
	PlayerID          int64   `json:"player_id"`
	PlayerName        string  `json:"player_name"`
	TotalShots        int     `json:"total_shots"`
	Hits              int     `json:"hits"`
	Misses            int     `json:"misses"`
	Rims              int     `json:"rims"`
	HitPercentage     float64 `json:"hit_percentage"`
	ElbowViolations   int     `json:"elbow_violations"`
	BounceShots       int     `json:"bounce_shots"`
	BounceTotal       int     `json:"bounce_total"`
	NormalHits        int     `json:"normal_hits"`
	NormalTotal       int     `json:"normal_total"`
	BounceHits        int     `json:"bounce_hits"`
	TrickshotHits     int     `json:"trickshot_hits"`
	TrickshotTotal    int     `json:"trickshot_total"`
	BounceCupsRemoved int     `json:"bounce_cups_removed"`
}

type CupHeatmapEntry struct {
	PlayerID    int64 `json:"player_id"`
	CupPosition int   `json:"cup_position"`
	Hits        int   `json:"hits"`
}

type PunishmentCount struct {
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	Count      int    `json:"count"`
}

type RecentPunishment struct {
	PlayerName string    `json:"player_name"`
	Note       string    `json:"note,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type HotHandEntry struct {
	PlayerID          int64 `json:"player_id"`
	LongestHitStreak  int   `json:"longest_hit_streak"`
	LongestMissStreak int   `json:"longest_miss_streak"`
}

// PlayerIDs returns the leaderboard player ids in payload order.
func (d *Dashboard) PlayerIDs() []int64 {
	ids := make([]int64, 0, len(d.PlayerLeaderboard))
	for _, p := range d.PlayerLeaderboard {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// Player returns the leaderboard entry for id and its 0-based rank.
func (d *Dashboard) Player(id int64) (*PlayerEntry, int, bool) {
	for i := range d.PlayerLeaderboard {
		if d.PlayerLeaderboard[i].PlayerID == id {
			return &d.PlayerLeaderboard[i], i, true
		}
	}
	return nil, -1, false
}

// PlayerName returns the leaderboard name for id, or a placeholder.
func (d *Dashboard) PlayerName(id int64) string {
	if p, _, ok := d.Player(id); ok {
		return p.PlayerName
	}
	return fmt.Sprintf("Player #%d", id)
}

// PunishmentsFor returns the bong count for a player, 0 if absent.
func (d *Dashboard) PunishmentsFor(id int64) int {
	for _, p := range d.PunishmentCounts {
		if p.PlayerID == id {
			return p.Count
		}
	}
	return 0
}

// Normalize makes a received payload safe for the aggregation code:
// nil slices become empty, duplicate leaderboard rows keep the first
// occurrence, out-of-range heatmap cells are dropped and negative
// counters clamp to zero.
func (d *Dashboard) Normalize() error {
	if d == nil {
		return fmt.Errorf("nil dashboard")
	}
	if d.TeamStandings == nil {
		d.TeamStandings = []TeamStanding{}
	}
	if d.CupHeatmap == nil {
		d.CupHeatmap = []CupHeatmapEntry{}
	}
	if d.PunishmentCounts == nil {
		d.PunishmentCounts = []PunishmentCount{}
	}
	if d.RecentPunishments == nil {
		d.RecentPunishments = []RecentPunishment{}
	}
	if d.HotHand == nil {
		d.HotHand = []HotHandEntry{}
	}

	d.TotalGames = clamp(d.TotalGames)
	d.CompletedGames = clamp(d.CompletedGames)
	d.InProgressGames = clamp(d.InProgressGames)
	d.TotalPunishments = clamp(d.TotalPunishments)

	seen := make(map[int64]bool, len(d.PlayerLeaderboard))
	board := make([]PlayerEntry, 0, len(d.PlayerLeaderboard))
	for _, p := range d.PlayerLeaderboard {
		if seen[p.PlayerID] {
			continue
		}
		seen[p.PlayerID] = true
		p.normalize()
		board = append(board, p)
	}
	d.PlayerLeaderboard = board

	cells := make([]CupHeatmapEntry, 0, len(d.CupHeatmap))
	for _, c := range d.CupHeatmap {
		if c.CupPosition < 1 || c.CupPosition > MaxCupPosition || c.Hits <= 0 {
			continue
		}
		cells = append(cells, c)
	}
	d.CupHeatmap = cells

	for i := range d.TeamStandings {
		t := &d.TeamStandings[i]
		t.Wins, t.Losses, t.GamesPlayed = clamp(t.Wins), clamp(t.Losses), clamp(t.GamesPlayed)
	}
	for i := range d.PunishmentCounts {
		d.PunishmentCounts[i].Count = clamp(d.PunishmentCounts[i].Count)
	}
	for i := range d.HotHand {
		h := &d.HotHand[i]
		h.LongestHitStreak, h.LongestMissStreak = clamp(h.LongestHitStreak), clamp(h.LongestMissStreak)
	}

	if len(d.Groups) == 0 {
		d.Groups = groupsFromStandings(d.TeamStandings)
	}
	return nil
}

func (p *PlayerEntry) normalize() {
	for _, v := range []*int{
		&p.TotalShots, &p.Hits, &p.Misses, &p.Rims, &p.ElbowViolations,
		&p.BounceShots, &p.BounceTotal, &p.NormalHits, &p.NormalTotal,
		&p.BounceHits, &p.TrickshotHits, &p.TrickshotTotal, &p.BounceCupsRemoved,
	} {
		*v = clamp(*v)
	}
	if p.HitPercentage < 0 {
		p.HitPercentage = 0
	}
}

func groupsFromStandings(standings []TeamStanding) []string {
	groups := []string{}
	seen := make(map[string]bool)
	for _, t := range standings {
		if t.Group == "" || seen[t.Group] {
			continue
		}
		seen[t.Group] = true
		groups = append(groups, t.Group)
	}
	return groups
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

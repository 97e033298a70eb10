package aggregator

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/pable/go-pong-stats/internal/model"
)

const (
	// punishmentLeaders caps the per-player punishment ranking.
	punishmentLeaders = 10
	// recentPunishments caps the punishment log.
	recentPunishments = 6
)

// BuildDashboard computes the dashboard payload from every record of a tournament.
func BuildDashboard(raw *model.RawTournament) (*model.Dashboard, error) {
	if raw == nil {
		return nil, fmt.Errorf("nil RawTournament")
	}

	d := &model.Dashboard{
		TournamentID:   raw.Tournament.ID,
		TournamentName: raw.Tournament.Name,
		Groups:         append([]string{}, raw.Tournament.Groups...),
	}

	// Only shots belonging to this tournament's games count.
	gameIDs := make(map[int64]bool, len(raw.Games))
	for _, g := range raw.Games {
		gameIDs[g.ID] = true
		d.TotalGames++
		switch g.Status {
		case model.GameCompleted:
			d.CompletedGames++
		case model.GameInProgress:
			d.InProgressGames++
		}
	}
	shots := make([]model.Shot, 0, len(raw.Shots))
	for _, s := range raw.Shots {
		if gameIDs[s.GameID] {
			shots = append(shots, s)
		}
	}

	d.PlayerLeaderboard = playerLeaderboard(raw, shots)
	d.TeamStandings = teamStandings(raw)
	d.CupHeatmap = cupHeatmap(shots)
	d.TotalPunishments = len(raw.Bongs)
	d.PunishmentCounts = punishmentCounts(raw)
	d.RecentPunishments = recentPunishmentLog(raw)
	d.HotHand = hotHand(shots)

	if err := d.Normalize(); err != nil {
		return nil, err
	}
	return d, nil
}

func playerName(raw *model.RawTournament, id int64) string {
	if p, ok := raw.Players[id]; ok {
		return p.Name
	}
	return fmt.Sprintf("Player #%d", id)
}

// playerLeaderboard builds one row per roster player, ordered by hits desc,
// total shots asc, name asc.
func playerLeaderboard(raw *model.RawTournament, shots []model.Shot) []model.PlayerEntry {
	rows := make(map[int64]*model.PlayerEntry)
	var order []int64
	for _, t := range raw.Teams {
		for _, id := range []int64{t.Player1ID, t.Player2ID} {
			if _, ok := rows[id]; ok {
				continue
			}
			rows[id] = &model.PlayerEntry{PlayerID: id, PlayerName: playerName(raw, id)}
			order = append(order, id)
		}
	}

	for _, s := range shots {
		if s.Type == model.ShotRerack {
			continue
		}
		p, ok := rows[s.PlayerID]
		if !ok {
			continue
		}
		p.TotalShots++
		hit := s.IsHit()
		switch s.Outcome {
		case model.OutcomeHit:
			p.Hits++
		case model.OutcomeMiss:
			p.Misses++
		case model.OutcomeRim:
			p.Rims++
		}
		if s.ElbowViolation {
			p.ElbowViolations++
		}
		switch s.Type {
		case model.ShotNormal:
			p.NormalTotal++
			if hit {
				p.NormalHits++
			}
		case model.ShotBounce:
			p.BounceShots++
			p.BounceTotal += s.BounceCount()
			if hit {
				p.BounceHits++
				p.BounceCupsRemoved += s.BounceCount() + 1
			}
		case model.ShotTrickshot:
			p.TrickshotTotal++
			if hit {
				p.TrickshotHits++
			}
		}
	}

	out := make([]model.PlayerEntry, 0, len(order))
	for _, id := range order {
		p := rows[id]
		p.HitPercentage = HitPercentage(p.Hits, p.TotalShots)
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		if a.TotalShots != b.TotalShots {
			return a.TotalShots < b.TotalShots
		}
		return strings.Compare(a.PlayerName, b.PlayerName) < 0
	})
	return out
}

// HitPercentage returns hits/total as a percentage rounded to one decimal, 0 with no shots.
func HitPercentage(hits, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(hits)/float64(total)*1000) / 10
}

// teamStandings counts wins/losses over completed games, ordered by wins desc, losses asc.
func teamStandings(raw *model.RawTournament) []model.TeamStanding {
	out := make([]model.TeamStanding, 0, len(raw.Teams))
	for _, t := range raw.Teams {
		st := model.TeamStanding{
			TeamID:      t.ID,
			TeamName:    t.Name,
			Group:       t.Group,
			Player1ID:   t.Player1ID,
			Player2ID:   t.Player2ID,
			Player1Name: playerName(raw, t.Player1ID),
			Player2Name: playerName(raw, t.Player2ID),
		}
		for _, g := range raw.Games {
			if g.Status != model.GameCompleted || (g.Team1ID != t.ID && g.Team2ID != t.ID) {
				continue
			}
			st.GamesPlayed++
			if g.WinnerID == nil {
				continue
			}
			if *g.WinnerID == t.ID {
				st.Wins++
			} else {
				st.Losses++
			}
		}
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].Losses < out[j].Losses
	})
	return out
}

func cupHeatmap(shots []model.Shot) []model.CupHeatmapEntry {
	type cell struct {
		playerID int64
		cup      int
	}
	counts := make(map[cell]int)
	for _, s := range shots {
		cup, ok := s.Cup()
		if !ok {
			continue
		}
		counts[cell{s.PlayerID, cup}]++
	}
	out := make([]model.CupHeatmapEntry, 0, len(counts))
	for c, n := range counts {
		out = append(out, model.CupHeatmapEntry{PlayerID: c.playerID, CupPosition: c.cup, Hits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].CupPosition < out[j].CupPosition
	})
	return out
}

// punishmentCounts ranks players by bong count desc, name asc.
func punishmentCounts(raw *model.RawTournament) []model.PunishmentCount {
	counts := make(map[int64]int)
	for _, b := range raw.Bongs {
		counts[b.PlayerID]++
	}
	out := make([]model.PunishmentCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.PunishmentCount{PlayerID: id, PlayerName: playerName(raw, id), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].PlayerName != out[j].PlayerName {
			return out[i].PlayerName < out[j].PlayerName
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	if len(out) > punishmentLeaders {
		out = out[:punishmentLeaders]
	}
	return out
}

func recentPunishmentLog(raw *model.RawTournament) []model.RecentPunishment {
	bongs := append([]model.PunishmentBong{}, raw.Bongs...)
	sort.SliceStable(bongs, func(i, j int) bool {
		if !bongs[i].Timestamp.Equal(bongs[j].Timestamp) {
			return bongs[i].Timestamp.After(bongs[j].Timestamp)
		}
		return bongs[i].ID > bongs[j].ID
	})
	if len(bongs) > recentPunishments {
		bongs = bongs[:recentPunishments]
	}
	out := make([]model.RecentPunishment, 0, len(bongs))
	for _, b := range bongs {
		out = append(out, model.RecentPunishment{
			PlayerName: playerName(raw, b.PlayerID),
			Note:       b.Note,
			Timestamp:  b.Timestamp,
		})
	}
	return out
}

// hotHand finds the longest consecutive hit and non-hit runs per player.
// Shots are ordered by (timestamp, id); rims count as misses and reracks
// are skipped.
func hotHand(shots []model.Shot) []model.HotHandEntry {
	byPlayer := make(map[int64][]model.Shot)
	for _, s := range shots {
		if s.Type == model.ShotRerack {
			continue
		}
		byPlayer[s.PlayerID] = append(byPlayer[s.PlayerID], s)
	}

	out := make([]model.HotHandEntry, 0, len(byPlayer))
	for id, ps := range byPlayer {
		sort.Slice(ps, func(i, j int) bool {
			if !ps[i].Timestamp.Equal(ps[j].Timestamp) {
				return ps[i].Timestamp.Before(ps[j].Timestamp)
			}
			return ps[i].ID < ps[j].ID
		})
		e := model.HotHandEntry{PlayerID: id}
		run, lastHit := 0, false
		for i, s := range ps {
			hit := s.IsHit()
			if i == 0 || hit != lastHit {
				run = 0
			}
			run++
			lastHit = hit
			if hit && run > e.LongestHitStreak {
				e.LongestHitStreak = run
			}
			if !hit && run > e.LongestMissStreak {
				e.LongestMissStreak = run
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

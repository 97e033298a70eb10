package aggregator

import (
	"github.com/pable/go-pong-stats/internal/model"
)

// BeersPerGame is how many beers one game consumes.
const BeersPerGame = 4

// Ratio is a quotient that may be undefined (zero denominator). Undefined
// ratios must be displayed as a placeholder, never as 0.
type Ratio struct {
	Value   float64
	Defined bool
}

// NewRatio returns num/den, undefined when den is zero.
func NewRatio(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Defined: true}
}

// Or returns the value, or fallback when undefined.
func (r Ratio) Or(fallback float64) float64 {
	if !r.Defined {
		return fallback
	}
	return r.Value
}

// ---- Heatmap ----

// Heatmap is a player's hits per cup position.
type Heatmap struct {
	Cups  map[int]int
	Max   int
	Total int
}

// PlayerHeatmap collects the heatmap for one player; empty if the player has none.
func PlayerHeatmap(d *model.Dashboard, playerID int64) Heatmap {
	h := Heatmap{Cups: make(map[int]int)}
	for _, e := range d.CupHeatmap {
		if e.PlayerID != playerID {
			continue
		}
		h.Cups[e.CupPosition] += e.Hits
	}
	for _, n := range h.Cups {
		h.Total += n
		if n > h.Max {
			h.Max = n
		}
	}
	return h
}

// Hits returns the hits on cup, 0 when absent.
func (h Heatmap) Hits(cup int) int { return h.Cups[cup] }

// Intensity is hits / max(1, max hits), 0 for cups never hit.
func (h Heatmap) Intensity(cup int) float64 {
	hits := h.Cups[cup]
	if hits <= 0 {
		return 0
	}
	return float64(hits) / float64(max(1, h.Max))
}

// ---- Hot hand ----

// PlayerStreaks returns the longest hit and miss streaks, 0 when unknown.
func PlayerStreaks(d *model.Dashboard, playerID int64) (hit, miss int) {
	for _, h := range d.HotHand {
		if h.PlayerID == playerID {
			return h.LongestHitStreak, h.LongestMissStreak
		}
	}
	return 0, 0
}

// ---- Teammate synergy (2B1C) ----

// Teammate returns the other roster member of the player's team. A team
// that does not hold exactly two distinct players yields no teammate.
func Teammate(d *model.Dashboard, playerID int64) (int64, bool) {
	for _, t := range d.TeamStandings {
		if t.Player1ID != playerID && t.Player2ID != playerID {
			continue
		}
		if t.Player1ID == t.Player2ID || t.Player1ID == 0 || t.Player2ID == 0 {
			return 0, false
		}
		if t.Player1ID == playerID {
			return t.Player2ID, true
		}
		return t.Player1ID, true
	}
	return 0, false
}

// cupDistribution returns q(c) = hits on c / total hits.
func cupDistribution(d *model.Dashboard, playerID int64, totalHits int) map[int]float64 {
	dist := make(map[int]float64)
	for cup, n := range PlayerHeatmap(d, playerID).Cups {
		dist[cup] = float64(n) / float64(totalHits)
	}
	return dist
}

// SynergyBonus is the probability-weighted overlap between the cups a
// player favours and the cups their teammate converts:
//
//	p_B * Σ_c q_A(c)·q_B(c)
//
// It is 0 unless both players have at least one hit.
func SynergyBonus(d *model.Dashboard, playerID int64) float64 {
	a, _, ok := d.Player(playerID)
	if !ok || a.Hits <= 0 {
		return 0
	}
	mateID, ok := Teammate(d, playerID)
	if !ok {
		return 0
	}
	b, _, ok := d.Player(mateID)
	if !ok || b.Hits <= 0 || b.TotalShots <= 0 {
		return 0
	}

	pB := float64(b.Hits) / float64(b.TotalShots)
	qA := cupDistribution(d, a.PlayerID, a.Hits)
	qB := cupDistribution(d, b.PlayerID, b.Hits)

	var overlap float64
	for cup, qa := range qA {
		overlap += qa * qB[cup]
	}
	return pB * overlap
}

// ---- Expected value ----

// ShotTypeEV is (hits/attempts)·(1+bonus); undefined without attempts.
func ShotTypeEV(hits, attempts int, bonus float64) Ratio {
	r := NewRatio(float64(hits), float64(attempts))
	if r.Defined {
		r.Value *= 1 + bonus
	}
	return r
}

// ShotTypeLine is one row of a player's shot-type breakdown.
type ShotTypeLine struct {
	Type     model.ShotType
	Hits     int
	Attempts int
	HitRate  Ratio
	EV       Ratio
	// CupsPerShot counts every cup a shot removed. A bounce hit sinks one
	// extra cup per bounce, so it can exceed HitRate.
	CupsPerShot Ratio
}

// PlayerEVs returns the normal, bounce and trickshot breakdown for a player.
func PlayerEVs(d *model.Dashboard, playerID int64) []ShotTypeLine {
	p, _, ok := d.Player(playerID)
	if !ok {
		p = &model.PlayerEntry{PlayerID: playerID}
	}
	bonus := SynergyBonus(d, playerID)
	line := func(t model.ShotType, hits, attempts, cups int) ShotTypeLine {
		return ShotTypeLine{
			Type:        t,
			Hits:        hits,
			Attempts:    attempts,
			HitRate:     NewRatio(float64(hits), float64(attempts)),
			EV:          ShotTypeEV(hits, attempts, bonus),
			CupsPerShot: NewRatio(float64(cups), float64(attempts)),
		}
	}
	return []ShotTypeLine{
		line(model.ShotNormal, p.NormalHits, p.NormalTotal, p.NormalHits),
		line(model.ShotBounce, p.BounceHits, p.BounceShots, p.BounceCupsRemoved),
		line(model.ShotTrickshot, p.TrickshotHits, p.TrickshotTotal, p.TrickshotHits),
	}
}

// ---- Superlatives ----

// Metric names a superlative category.
type Metric string

const (
	MetricHits        Metric = "hits"
	MetricHitPct      Metric = "hit_pct"
	MetricBounceHits  Metric = "bounce_hits"
	MetricRims        Metric = "rims"
	MetricMisses      Metric = "misses"
	MetricElbows      Metric = "elbow_violations"
	MetricPunishments Metric = "punishments"
)

// Award is the winner of one superlative category.
type Award struct {
	Metric     Metric
	Title      string
	PlayerID   int64
	PlayerName string
	Value      float64
}

type category struct {
	metric Metric
	title  string
	value  func(d *model.Dashboard, p *model.PlayerEntry) float64
}

var categories = []category{
	{MetricHits, "Golden Wrist", func(_ *model.Dashboard, p *model.PlayerEntry) float64 { return float64(p.Hits) }},
	{MetricHitPct, "Sniper", func(_ *model.Dashboard, p *model.PlayerEntry) float64 { return p.HitPercentage }},
	{MetricBounceHits, "Bounce King", func(_ *model.Dashboard, p *model.PlayerEntry) float64 { return float64(p.BounceHits) }},
	{MetricRims, "Rim Lord", func(_ *model.Dashboard, p *model.PlayerEntry) float64 { return float64(p.Rims) }},
	{MetricMisses, "Airball Artist", func(_ *model.Dashboard, p *model.PlayerEntry) float64 { return float64(p.Misses) }},
	{MetricElbows, "Elbow Criminal", func(_ *model.Dashboard, p *model.PlayerEntry) float64 { return float64(p.ElbowViolations) }},
	{MetricPunishments, "Most Punished", func(d *model.Dashboard, p *model.PlayerEntry) float64 { return float64(d.PunishmentsFor(p.PlayerID)) }},
}

// Superlatives returns one award per category that has a value above zero.
// The winner is the strictly greatest value; ties go to whoever comes first
// in leaderboard order.
func Superlatives(d *model.Dashboard) []Award {
	var awards []Award
	for _, c := range categories {
		var best *model.PlayerEntry
		var bestVal float64
		for i := range d.PlayerLeaderboard {
			p := &d.PlayerLeaderboard[i]
			v := c.value(d, p)
			if v > 0 && (best == nil || v > bestVal) {
				best, bestVal = p, v
			}
		}
		if best == nil {
			continue
		}
		awards = append(awards, Award{
			Metric:     c.metric,
			Title:      c.title,
			PlayerID:   best.PlayerID,
			PlayerName: best.PlayerName,
			Value:      bestVal,
		})
	}
	return awards
}

// ---- Tournament totals ----

// Totals sums shot outcomes over every player.
type Totals struct {
	Shots      int
	Hits       int
	Misses     int
	Rims       int
	BounceHits int
	Elbows     int
}

// ShotTotals adds up the leaderboard.
func ShotTotals(d *model.Dashboard) Totals {
	var t Totals
	for _, p := range d.PlayerLeaderboard {
		t.Shots += p.TotalShots
		t.Hits += p.Hits
		t.Misses += p.Misses
		t.Rims += p.Rims
		t.BounceHits += p.BounceHits
		t.Elbows += p.ElbowViolations
	}
	return t
}

// Segment is one slice of the shot composition bar.
type Segment struct {
	Label   string
	Count   int
	Percent float64
}

// CompositionBar splits total shots into hits, rims and airballs. There is
// no bar when no shot has been taken.
func CompositionBar(t Totals) ([]Segment, bool) {
	if t.Shots <= 0 {
		return nil, false
	}
	seg := func(label string, n int) Segment {
		return Segment{Label: label, Count: n, Percent: float64(n) / float64(t.Shots) * 100}
	}
	return []Segment{
		seg("Hits", t.Hits),
		seg("Rims", t.Rims),
		seg("Airballs", t.Misses),
	}, true
}

// ---- Standings, progress, punishments ----

// Group is the standings table of one group.
type Group struct {
	Name      string
	Standings []model.TeamStanding
}

// GroupStandings splits standings by group in the tournament's group order.
// Teams whose group is not listed end up in a trailing unnamed group.
func GroupStandings(d *model.Dashboard) []Group {
	known := make(map[string]bool, len(d.Groups))
	groups := make([]Group, 0, len(d.Groups)+1)
	for _, name := range d.Groups {
		known[name] = true
		g := Group{Name: name, Standings: []model.TeamStanding{}}
		for _, t := range d.TeamStandings {
			if t.Group == name {
				g.Standings = append(g.Standings, t)
			}
		}
		groups = append(groups, g)
	}
	var rest []model.TeamStanding
	for _, t := range d.TeamStandings {
		if !known[t.Group] {
			rest = append(rest, t)
		}
	}
	if len(rest) > 0 {
		groups = append(groups, Group{Standings: rest})
	}
	return groups
}

// GameProgress is completed/total games; undefined before any game exists.
func GameProgress(d *model.Dashboard) Ratio {
	return NewRatio(float64(d.CompletedGames), float64(d.TotalGames))
}

// Beer is the beer glass fill level.
type Beer struct {
	Drunk   int
	Total   int
	Percent float64
}

// BeerGlass converts game counts into beers.
func BeerGlass(d *model.Dashboard) Beer {
	b := Beer{Drunk: d.CompletedGames * BeersPerGame, Total: d.TotalGames * BeersPerGame}
	b.Percent = NewRatio(float64(b.Drunk), float64(b.Total)).Or(0) * 100
	return b
}

// PunishmentBar is one row of the punishment ranking; Width is relative to the leader.
type PunishmentBar struct {
	PlayerID   int64
	PlayerName string
	Count      int
	Width      float64
}

// PunishmentBars scales each count against the highest one.
func PunishmentBars(d *model.Dashboard) []PunishmentBar {
	top := 0
	for _, p := range d.PunishmentCounts {
		top = max(top, p.Count)
	}
	bars := make([]PunishmentBar, 0, len(d.PunishmentCounts))
	for _, p := range d.PunishmentCounts {
		bars = append(bars, PunishmentBar{
			PlayerID:   p.PlayerID,
			PlayerName: p.PlayerName,
			Count:      p.Count,
			Width:      float64(p.Count) / float64(max(1, top)),
		})
	}
	return bars
}

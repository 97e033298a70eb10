// Package slides holds the fixed, ordered catalog of dashboard slides and
// the pure projections from a payload to each slide's view.
package slides

import (
	"fmt"
	"strings"

	"github.com/pable/go-pong-stats/internal/aggregator"
	"github.com/pable/go-pong-stats/internal/model"
)

// Kind identifies a slide.
type Kind int

const (
	KindStandings Kind = iota
	KindPlayerOverview
	KindPlayerHighlight
	KindPunishments
	KindByTheNumbers
	KindSuperlatives
)

// Catalog is the rotation order.
var Catalog = []Kind{
	KindStandings,
	KindPlayerOverview,
	KindPlayerHighlight,
	KindPunishments,
	KindByTheNumbers,
	KindSuperlatives,
}

// HighlightIndex is the catalog position of the player spotlight.
const HighlightIndex = 2

// Count is the number of slides in the rotation.
func Count() int { return len(Catalog) }

func (k Kind) String() string {
	switch k {
	case KindStandings:
		return "standings"
	case KindPlayerOverview:
		return "players"
	case KindPlayerHighlight:
		return "highlight"
	case KindPunishments:
		return "punishments"
	case KindByTheNumbers:
		return "numbers"
	case KindSuperlatives:
		return "superlatives"
	default:
		return "?"
	}
}

// Title is the heading shown above the slide.
func (k Kind) Title() string {
	switch k {
	case KindStandings:
		return "Tournament Standings"
	case KindPlayerOverview:
		return "Player Overview"
	case KindPlayerHighlight:
		return "Player Spotlight"
	case KindPunishments:
		return "Hall of Shame"
	case KindByTheNumbers:
		return "By The Numbers"
	case KindSuperlatives:
		return "Superlatives"
	default:
		return ""
	}
}

// ParseKind accepts a slide name or its 1-based catalog position.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, k := range Catalog {
		if s == k.String() || s == fmt.Sprint(i+1) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown slide %q", s)
}

// At returns the kind at catalog index i.
func At(i int) Kind {
	if i < 0 || i >= len(Catalog) {
		return Catalog[0]
	}
	return Catalog[i]
}

// View is the projection of one slide.
type View interface {
	Kind() Kind
}

// Build projects the payload onto a slide. featured is the spotlight
// player id, 0 when none is selected.
func Build(kind Kind, d *model.Dashboard, featured int64) View {
	switch kind {
	case KindStandings:
		return buildStandings(d)
	case KindPlayerOverview:
		return buildOverview(d)
	case KindPlayerHighlight:
		return buildHighlight(d, featured)
	case KindPunishments:
		return buildPunishments(d)
	case KindByTheNumbers:
		return buildNumbers(d)
	case KindSuperlatives:
		return buildSuperlatives(d)
	default:
		return buildStandings(d)
	}
}

// ---- Standings ----

type StandingsView struct {
	TournamentName string
	Completed      int
	Total          int
	Progress       aggregator.Ratio
	Groups         []aggregator.Group
}

func (StandingsView) Kind() Kind { return KindStandings }

func buildStandings(d *model.Dashboard) StandingsView {
	return StandingsView{
		TournamentName: d.TournamentName,
		Completed:      d.CompletedGames,
		Total:          d.TotalGames,
		Progress:       aggregator.GameProgress(d),
		Groups:         aggregator.GroupStandings(d),
	}
}

// ---- Player overview ----

type RankedPlayer struct {
	Rank int
	model.PlayerEntry
}

// OverviewView splits the leaderboard into two columns; the left one holds
// the extra player when the count is odd.
type OverviewView struct {
	Left  []RankedPlayer
	Right []RankedPlayer
}

func (OverviewView) Kind() Kind { return KindPlayerOverview }

func buildOverview(d *model.Dashboard) OverviewView {
	mid := (len(d.PlayerLeaderboard) + 1) / 2
	v := OverviewView{Left: []RankedPlayer{}, Right: []RankedPlayer{}}
	for i, p := range d.PlayerLeaderboard {
		rp := RankedPlayer{Rank: i + 1, PlayerEntry: p}
		if i < mid {
			v.Left = append(v.Left, rp)
		} else {
			v.Right = append(v.Right, rp)
		}
	}
	return v
}

// ---- Player highlight ----

// CupRows is the rack layout, front cup first.
var CupRows = [][]int{{1}, {2, 3}, {4, 5, 6}, {7, 8, 9, 10}}

type HighlightView struct {
	Empty        bool // no players in the tournament
	Player       model.PlayerEntry
	Rank         int
	Of           int
	Heatmap      aggregator.Heatmap
	ShotTypes    []aggregator.ShotTypeLine
	SynergyBonus float64
	TeammateName string
	Punishments  int
	HitStreak    int
	MissStreak   int
}

func (HighlightView) Kind() Kind { return KindPlayerHighlight }

func buildHighlight(d *model.Dashboard, featured int64) HighlightView {
	if len(d.PlayerLeaderboard) == 0 {
		return HighlightView{Empty: true}
	}
	p, idx, ok := d.Player(featured)
	if !ok {
		p, idx = &d.PlayerLeaderboard[0], 0
	}
	v := HighlightView{
		Player:       *p,
		Rank:         idx + 1,
		Of:           len(d.PlayerLeaderboard),
		Heatmap:      aggregator.PlayerHeatmap(d, p.PlayerID),
		ShotTypes:    aggregator.PlayerEVs(d, p.PlayerID),
		SynergyBonus: aggregator.SynergyBonus(d, p.PlayerID),
		Punishments:  d.PunishmentsFor(p.PlayerID),
	}
	v.HitStreak, v.MissStreak = aggregator.PlayerStreaks(d, p.PlayerID)
	if mate, ok := aggregator.Teammate(d, p.PlayerID); ok {
		v.TeammateName = d.PlayerName(mate)
	}
	return v
}

// ---- Punishments ----

type PunishmentsView struct {
	Total  int
	Bars   []aggregator.PunishmentBar
	Recent []model.RecentPunishment
}

func (PunishmentsView) Kind() Kind { return KindPunishments }

func buildPunishments(d *model.Dashboard) PunishmentsView {
	return PunishmentsView{
		Total:  d.TotalPunishments,
		Bars:   aggregator.PunishmentBars(d),
		Recent: d.RecentPunishments,
	}
}

// ---- By the numbers ----

type NumbersView struct {
	Totals aggregator.Totals
	Bar    []aggregator.Segment
	HasBar bool
	Beer   aggregator.Beer
}

func (NumbersView) Kind() Kind { return KindByTheNumbers }

func buildNumbers(d *model.Dashboard) NumbersView {
	totals := aggregator.ShotTotals(d)
	bar, ok := aggregator.CompositionBar(totals)
	return NumbersView{Totals: totals, Bar: bar, HasBar: ok, Beer: aggregator.BeerGlass(d)}
}

// ---- Superlatives ----

// SuperlativesView puts the most-hits award in the headline slot.
type SuperlativesView struct {
	Headline *aggregator.Award
	Awards   []aggregator.Award
}

func (SuperlativesView) Kind() Kind { return KindSuperlatives }

func buildSuperlatives(d *model.Dashboard) SuperlativesView {
	var v SuperlativesView
	for _, a := range aggregator.Superlatives(d) {
		if a.Metric == aggregator.MetricHits {
			a := a
			v.Headline = &a
			continue
		}
		v.Awards = append(v.Awards, a)
	}
	return v
}

package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-pong-stats/internal/model"
)

// synergyDashboard: A and B share a team; A has 10 hits split over cups
// 1 and 2, B has 20 hits over 40 shots on the same cups.
func synergyDashboard() *model.Dashboard {
	d := &model.Dashboard{
		TeamStandings: []model.TeamStanding{
			{TeamID: 1, Group: "A", Player1ID: 1, Player2ID: 2},
		},
		PlayerLeaderboard: []model.PlayerEntry{
			{PlayerID: 1, PlayerName: "A", Hits: 10, TotalShots: 20, NormalHits: 4, NormalTotal: 8},
			{PlayerID: 2, PlayerName: "B", Hits: 20, TotalShots: 40},
		},
		CupHeatmap: []model.CupHeatmapEntry{
			{PlayerID: 1, CupPosition: 1, Hits: 5},
			{PlayerID: 1, CupPosition: 2, Hits: 5},
			{PlayerID: 2, CupPosition: 1, Hits: 10},
			{PlayerID: 2, CupPosition: 2, Hits: 10},
		},
	}
	_ = d.Normalize()
	return d
}

func TestSynergyBonus(t *testing.T) {
	d := synergyDashboard()

	assert.InDelta(t, 0.25, SynergyBonus(d, 1), 1e-9)

	ev := ShotTypeEV(4, 8, SynergyBonus(d, 1))
	require.True(t, ev.Defined)
	assert.InDelta(t, 0.625, ev.Value, 1e-9)

	lines := PlayerEVs(d, 1)
	require.Len(t, lines, 3)
	assert.Equal(t, model.ShotNormal, lines[0].Type)
	assert.InDelta(t, 0.625, lines[0].EV.Value, 1e-9)
	assert.False(t, lines[1].EV.Defined, "no bounce attempts: EV must be undefined")
	assert.False(t, lines[2].EV.Defined, "no trickshot attempts: EV must be undefined")
}

func TestPlayerEVs_CupsPerShot(t *testing.T) {
	d := &model.Dashboard{PlayerLeaderboard: []model.PlayerEntry{{
		PlayerID:          1,
		NormalHits:        3,
		NormalTotal:       6,
		BounceShots:       4,
		BounceHits:        2,
		BounceCupsRemoved: 5,
	}}}
	require.NoError(t, d.Normalize())

	lines := PlayerEVs(d, 1)
	require.Len(t, lines, 3)
	assert.InDelta(t, 0.5, lines[0].CupsPerShot.Value, 1e-9)
	assert.InDelta(t, 0.5, lines[1].HitRate.Value, 1e-9)
	assert.InDelta(t, 1.25, lines[1].CupsPerShot.Value, 1e-9, "bounce hits sink extra cups")
	assert.InDelta(t, 0.5, lines[1].EV.Value, 1e-9, "EV stays on hit rate")
	assert.False(t, lines[2].CupsPerShot.Defined)
}

func TestSynergyBonus_DisjointCups(t *testing.T) {
	d := synergyDashboard()
	d.CupHeatmap = []model.CupHeatmapEntry{
		{PlayerID: 1, CupPosition: 1, Hits: 10},
		{PlayerID: 2, CupPosition: 9, Hits: 20},
	}
	assert.Zero(t, SynergyBonus(d, 1))
}

func TestSynergyBonus_ZeroWithoutHits(t *testing.T) {
	d := synergyDashboard()
	d.PlayerLeaderboard[1].Hits = 0
	assert.Zero(t, SynergyBonus(d, 1), "teammate without hits")

	d = synergyDashboard()
	d.PlayerLeaderboard[0].Hits = 0
	assert.Zero(t, SynergyBonus(d, 1), "player without hits")
}

func TestSynergyBonus_MalformedTeam(t *testing.T) {
	d := synergyDashboard()
	d.TeamStandings[0].Player2ID = 1
	assert.Zero(t, SynergyBonus(d, 1))

	_, ok := Teammate(d, 1)
	assert.False(t, ok)
}

func TestSynergyBonus_UnknownPlayer(t *testing.T) {
	d := synergyDashboard()
	assert.Zero(t, SynergyBonus(d, 42))

	lines := PlayerEVs(d, 42)
	for _, l := range lines {
		assert.False(t, l.EV.Defined)
	}
}

func TestTeammate(t *testing.T) {
	d := synergyDashboard()
	mate, ok := Teammate(d, 2)
	require.True(t, ok)
	assert.Equal(t, int64(1), mate)

	_, ok = Teammate(d, 3)
	assert.False(t, ok)
}

func TestPlayerHeatmap(t *testing.T) {
	d := &model.Dashboard{CupHeatmap: []model.CupHeatmapEntry{
		{PlayerID: 7, CupPosition: 3, Hits: 4},
		{PlayerID: 8, CupPosition: 3, Hits: 9},
	}}
	h := PlayerHeatmap(d, 7)
	assert.Equal(t, 4, h.Max)
	assert.Equal(t, 4, h.Total)
	assert.InDelta(t, 1.0, h.Intensity(3), 1e-9)
	assert.Zero(t, h.Intensity(1))
	assert.Zero(t, h.Hits(10))

	empty := PlayerHeatmap(d, 99)
	assert.Empty(t, empty.Cups)
	assert.Zero(t, empty.Intensity(3))
}

func TestPlayerHeatmap_Scaling(t *testing.T) {
	d := &model.Dashboard{CupHeatmap: []model.CupHeatmapEntry{
		{PlayerID: 7, CupPosition: 1, Hits: 2},
		{PlayerID: 7, CupPosition: 2, Hits: 8},
	}}
	h := PlayerHeatmap(d, 7)
	assert.InDelta(t, 0.25, h.Intensity(1), 1e-9)
	assert.InDelta(t, 1.0, h.Intensity(2), 1e-9)
}

func TestPlayerStreaks_DefaultsToZero(t *testing.T) {
	d := &model.Dashboard{HotHand: []model.HotHandEntry{{PlayerID: 1, LongestHitStreak: 4, LongestMissStreak: 2}}}
	hit, miss := PlayerStreaks(d, 1)
	assert.Equal(t, 4, hit)
	assert.Equal(t, 2, miss)

	hit, miss = PlayerStreaks(d, 2)
	assert.Zero(t, hit)
	assert.Zero(t, miss)
}

func awardFor(awards []Award, m Metric) (Award, bool) {
	for _, a := range awards {
		if a.Metric == m {
			return a, true
		}
	}
	return Award{}, false
}

func TestSuperlatives_TieGoesToLeaderboardOrder(t *testing.T) {
	d := &model.Dashboard{PlayerLeaderboard: []model.PlayerEntry{
		{PlayerID: 2, PlayerName: "B", Rims: 5},
		{PlayerID: 1, PlayerName: "A", Rims: 5},
	}}
	a, ok := awardFor(Superlatives(d), MetricRims)
	require.True(t, ok)
	assert.Equal(t, "B", a.PlayerName)
	assert.Equal(t, 5.0, a.Value)
}

func TestSuperlatives_StrictlyGreaterWins(t *testing.T) {
	d := &model.Dashboard{
		PlayerLeaderboard: []model.PlayerEntry{
			{PlayerID: 1, PlayerName: "A", Hits: 3, HitPercentage: 30, Misses: 7, ElbowViolations: 1},
			{PlayerID: 2, PlayerName: "B", Hits: 4, HitPercentage: 80, Misses: 1, BounceHits: 2},
		},
		PunishmentCounts: []model.PunishmentCount{{PlayerID: 2, Count: 1}, {PlayerID: 1, Count: 3}},
	}
	awards := Superlatives(d)

	want := map[Metric]string{
		MetricHits:        "B",
		MetricHitPct:      "B",
		MetricBounceHits:  "B",
		MetricMisses:      "A",
		MetricElbows:      "A",
		MetricPunishments: "A",
	}
	for m, name := range want {
		a, ok := awardFor(awards, m)
		if assert.True(t, ok, "missing award %s", m) {
			assert.Equal(t, name, a.PlayerName, "award %s", m)
		}
	}
	_, ok := awardFor(awards, MetricRims)
	assert.False(t, ok, "no rims recorded: no Rim Lord")
}

func TestSuperlatives_NoAwardsWithoutData(t *testing.T) {
	d := &model.Dashboard{PlayerLeaderboard: []model.PlayerEntry{{PlayerID: 1}, {PlayerID: 2}}}
	assert.Empty(t, Superlatives(d))
	assert.Empty(t, Superlatives(&model.Dashboard{}))
}

func TestCompositionBar(t *testing.T) {
	d := &model.Dashboard{PlayerLeaderboard: []model.PlayerEntry{
		{TotalShots: 6, Hits: 3, Rims: 1, Misses: 2, BounceHits: 1, ElbowViolations: 2},
		{TotalShots: 4, Hits: 1, Misses: 3},
	}}
	totals := ShotTotals(d)
	assert.Equal(t, Totals{Shots: 10, Hits: 4, Misses: 5, Rims: 1, BounceHits: 1, Elbows: 2}, totals)

	segs, ok := CompositionBar(totals)
	require.True(t, ok)
	require.Len(t, segs, 3)
	assert.InDelta(t, 40.0, segs[0].Percent, 1e-9)
	assert.InDelta(t, 10.0, segs[1].Percent, 1e-9)
	assert.InDelta(t, 50.0, segs[2].Percent, 1e-9)
}

func TestZeroShotTournament(t *testing.T) {
	d := &model.Dashboard{
		TeamStandings:     []model.TeamStanding{{TeamID: 1, Player1ID: 1, Player2ID: 2}},
		PlayerLeaderboard: []model.PlayerEntry{{PlayerID: 1}, {PlayerID: 2}},
	}
	require.NoError(t, d.Normalize())

	_, ok := CompositionBar(ShotTotals(d))
	assert.False(t, ok, "zero shots: no composition bar")

	for _, id := range []int64{1, 2} {
		for _, l := range PlayerEVs(d, id) {
			assert.False(t, l.EV.Defined, "player %d %s EV", id, l.Type)
			assert.False(t, l.HitRate.Defined)
		}
	}
	assert.False(t, GameProgress(d).Defined)
	assert.Equal(t, Beer{}, BeerGlass(d))
	assert.Empty(t, PunishmentBars(d))
}

func TestGroupStandings(t *testing.T) {
	d := &model.Dashboard{
		Groups: []string{"A", "B"},
		TeamStandings: []model.TeamStanding{
			{TeamID: 1, Group: "B", Wins: 2},
			{TeamID: 2, Group: "A", Wins: 1},
			{TeamID: 3, Group: "C"},
			{TeamID: 4, Group: "A"},
		},
	}
	groups := GroupStandings(d)
	require.Len(t, groups, 3)
	assert.Equal(t, "A", groups[0].Name)
	assert.Len(t, groups[0].Standings, 2)
	assert.Equal(t, int64(2), groups[0].Standings[0].TeamID)
	assert.Equal(t, "B", groups[1].Name)
	assert.Equal(t, "", groups[2].Name)
	assert.Equal(t, int64(3), groups[2].Standings[0].TeamID)
}

func TestBeerGlassAndProgress(t *testing.T) {
	d := &model.Dashboard{TotalGames: 20, CompletedGames: 5}
	b := BeerGlass(d)
	assert.Equal(t, 20, b.Drunk)
	assert.Equal(t, 80, b.Total)
	assert.InDelta(t, 25.0, b.Percent, 1e-9)

	p := GameProgress(d)
	require.True(t, p.Defined)
	assert.InDelta(t, 0.25, p.Value, 1e-9)
}

func TestPunishmentBars(t *testing.T) {
	d := &model.Dashboard{PunishmentCounts: []model.PunishmentCount{
		{PlayerID: 1, PlayerName: "A", Count: 4},
		{PlayerID: 2, PlayerName: "B", Count: 1},
	}}
	bars := PunishmentBars(d)
	require.Len(t, bars, 2)
	assert.InDelta(t, 1.0, bars[0].Width, 1e-9)
	assert.InDelta(t, 0.25, bars[1].Width, 1e-9)
}

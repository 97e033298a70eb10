package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-pong-stats/internal/aggregator"
	"github.com/pable/go-pong-stats/internal/model"
	"github.com/pable/go-pong-stats/internal/slides"
)

// Undefined is printed wherever a ratio has a zero denominator.
const Undefined = "—"

var (
	cTitle = color.New(color.FgCyan, color.Bold)
	cMuted = color.New(color.Faint)
	cHit   = color.New(color.FgGreen)
	cRim   = color.New(color.FgYellow)
	cMiss  = color.New(color.FgRed)
	cShame = color.New(color.FgRed, color.Bold)
	cGold  = color.New(color.FgYellow, color.Bold)
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintSlide writes one slide view.
func PrintSlide(w io.Writer, v slides.View) {
	switch v := v.(type) {
	case slides.StandingsView:
		PrintStandings(w, v)
	case slides.OverviewView:
		PrintPlayerOverview(w, v)
	case slides.HighlightView:
		PrintHighlight(w, v)
	case slides.PunishmentsView:
		PrintPunishments(w, v)
	case slides.NumbersView:
		PrintNumbers(w, v)
	case slides.SuperlativesView:
		PrintSuperlatives(w, v)
	}
}

// ---- Standings ----

func PrintStandings(w io.Writer, v slides.StandingsView) {
	fmt.Fprintf(w, "%s\n", cTitle.Sprint(v.TournamentName))
	fmt.Fprintf(w, "Games %d/%d  %s %s\n\n", v.Completed, v.Total, bar(v.Progress.Or(0), 30, '█', '░'), pct(v.Progress))

	if len(v.Groups) == 0 {
		fmt.Fprintln(w, cMuted.Sprint("No teams yet."))
		return
	}
	for _, g := range v.Groups {
		name := "Ungrouped"
		if g.Name != "" {
			name = "Group " + g.Name
		}
		fmt.Fprintln(w, cTitle.Sprint(name))
		table := newTable(w)
		table.Header("#", "TEAM", "PLAYERS", "W", "L", "GP")
		for i, t := range g.Standings {
			table.Append(
				strconv.Itoa(i+1),
				t.TeamName,
				playersOf(t),
				strconv.Itoa(t.Wins),
				strconv.Itoa(t.Losses),
				strconv.Itoa(t.GamesPlayed),
			)
		}
		table.Render()
		fmt.Fprintln(w)
	}
}

func playersOf(t model.TeamStanding) string {
	switch {
	case t.Player1Name != "" && t.Player2Name != "":
		return t.Player1Name + " & " + t.Player2Name
	case t.Player1Name != "":
		return t.Player1Name
	default:
		return t.Player2Name
	}
}

// ---- Player overview ----

func PrintPlayerOverview(w io.Writer, v slides.OverviewView) {
	if len(v.Left) == 0 {
		fmt.Fprintln(w, cMuted.Sprint("No players yet."))
		return
	}
	var left, right strings.Builder
	overviewTable(&left, v.Left)
	if len(v.Right) > 0 {
		overviewTable(&right, v.Right)
	}
	fmt.Fprint(w, sideBySide(left.String(), right.String(), 2))
}

func overviewTable(w io.Writer, players []slides.RankedPlayer) {
	table := newTable(w)
	table.Header("#", "PLAYER", "HITS", "SHOTS", "HIT%", "95% CI", "N")
	for _, p := range players {
		hitPct, ci := Undefined, Undefined
		if p.TotalShots > 0 {
			hitPct = fmt.Sprintf("%.1f%%", p.HitPercentage)
			lo, hi := wilsonCI(p.Hits, p.TotalShots)
			ci = fmt.Sprintf("%.0f–%.0f%%", lo*100, hi*100)
		}
		table.Append(
			strconv.Itoa(p.Rank),
			p.PlayerName,
			strconv.Itoa(p.Hits),
			strconv.Itoa(p.TotalShots),
			hitPct,
			ci,
			sampleFlag(p.TotalShots),
		)
	}
	table.Render()
}

// sampleFlag marks how far a hit rate can be trusted.
func sampleFlag(n int) string {
	switch {
	case n >= 30:
		return "OK"
	case n >= 10:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

// ---- Player highlight ----

// heatShades maps intensity to a cell, from never hit to most hit.
var heatShades = []string{"·", "░", "▒", "▓", "█"}

func shade(intensity float64) string {
	if intensity <= 0 {
		return heatShades[0]
	}
	i := 1 + int(intensity*float64(len(heatShades)-2)+0.5)
	return heatShades[min(i, len(heatShades)-1)]
}

func PrintHighlight(w io.Writer, v slides.HighlightView) {
	if v.Empty {
		fmt.Fprintln(w, cMuted.Sprint("No players yet."))
		return
	}
	p := v.Player
	fmt.Fprintf(w, "%s  #%d of %d", cTitle.Sprint(p.PlayerName), v.Rank, v.Of)
	if v.TeammateName != "" {
		fmt.Fprintf(w, "  %s", cMuted.Sprintf("with %s", v.TeammateName))
	}
	fmt.Fprint(w, "\n\n")

	// Rack, front cup on top.
	fmt.Fprintln(w, "Cup heatmap")
	width := len(slides.CupRows[len(slides.CupRows)-1])
	for _, row := range slides.CupRows {
		fmt.Fprint(w, strings.Repeat("   ", width-len(row)))
		for _, cup := range row {
			fmt.Fprintf(w, " %s%-3d ", shade(v.Heatmap.Intensity(cup)), v.Heatmap.Hits(cup))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	table := newTable(w)
	table.Header("SHOTS", "HITS", "MISSES", "RIMS", "HIT%", "ELBOWS")
	hitPct := Undefined
	if p.TotalShots > 0 {
		hitPct = fmt.Sprintf("%.1f%%", p.HitPercentage)
	}
	table.Append(
		strconv.Itoa(p.TotalShots),
		strconv.Itoa(p.Hits),
		strconv.Itoa(p.Misses),
		strconv.Itoa(p.Rims),
		hitPct,
		strconv.Itoa(p.ElbowViolations),
	)
	table.Render()

	types := newTable(w)
	types.Header("TYPE", "HITS", "ATT", "HIT%", "EV", "CUPS/SHOT")
	for _, l := range v.ShotTypes {
		types.Append(string(l.Type), strconv.Itoa(l.Hits), strconv.Itoa(l.Attempts), pct(l.HitRate), ev(l.EV), ev(l.CupsPerShot))
	}
	types.Render()

	fmt.Fprintf(w, "2B1C bonus +%.1f%%\n", v.SynergyBonus*100)
	fmt.Fprintf(w, "Bounce shots %d  bounces %d  cups via bounce %d\n", p.BounceShots, p.BounceTotal, p.BounceCupsRemoved)
	fmt.Fprintf(w, "Punishments %s\n", cShame.Sprint(v.Punishments))
	fmt.Fprintf(w, "Hot hand: %s hits in a row, %s misses in a row\n",
		cHit.Sprint(v.HitStreak), cMiss.Sprint(v.MissStreak))
}

// ---- Punishments ----

func PrintPunishments(w io.Writer, v slides.PunishmentsView) {
	fmt.Fprintf(w, "%s  %s\n\n", cShame.Sprint("Hall of Shame"), cMuted.Sprintf("%d bongs", v.Total))
	if len(v.Bars) == 0 {
		fmt.Fprintln(w, cMuted.Sprint("Nobody has been punished yet."))
		return
	}
	nameWidth := 0
	for _, b := range v.Bars {
		nameWidth = max(nameWidth, len(b.PlayerName))
	}
	for _, b := range v.Bars {
		fmt.Fprintf(w, "%-*s %s %d\n", nameWidth, b.PlayerName, cShame.Sprint(bar(b.Width, 30, '█', ' ')), b.Count)
	}

	if len(v.Recent) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", cTitle.Sprint("Recent"))
	for _, r := range v.Recent {
		line := fmt.Sprintf("%s  %s", r.Timestamp.Format("15:04"), r.PlayerName)
		if r.Note != "" {
			line += cMuted.Sprintf("  %q", r.Note)
		}
		fmt.Fprintln(w, line)
	}
}

// ---- By the numbers ----

func PrintNumbers(w io.Writer, v slides.NumbersView) {
	t := v.Totals
	table := newTable(w)
	table.Header("SHOTS", "HITS", "MISSES", "RIMS", "BOUNCE HITS", "ELBOWS")
	table.Append(
		strconv.Itoa(t.Shots),
		strconv.Itoa(t.Hits),
		strconv.Itoa(t.Misses),
		strconv.Itoa(t.Rims),
		strconv.Itoa(t.BounceHits),
		strconv.Itoa(t.Elbows),
	)
	table.Render()
	fmt.Fprintln(w)

	if v.HasBar {
		fmt.Fprintln(w, compositionBar(v.Bar, 50))
		var legend []string
		for _, s := range v.Bar {
			legend = append(legend, fmt.Sprintf("%s %.0f%%", s.Label, s.Percent))
		}
		fmt.Fprintln(w, cMuted.Sprint(strings.Join(legend, "  ")))
	} else {
		fmt.Fprintln(w, cMuted.Sprint("No shots yet."))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Beers %d/%d  %s %.0f%%\n", v.Beer.Drunk, v.Beer.Total, cRim.Sprint(bar(v.Beer.Percent/100, 30, '█', '░')), v.Beer.Percent)
}

func compositionBar(segs []aggregator.Segment, width int) string {
	styles := []*color.Color{cHit, cRim, cMiss}
	var b strings.Builder
	used := 0
	for i, s := range segs {
		n := int(math.Round(s.Percent / 100 * float64(width)))
		if i == len(segs)-1 {
			n = width - used
		}
		n = max(0, min(n, width-used))
		used += n
		b.WriteString(styles[i%len(styles)].Sprint(strings.Repeat("█", n)))
	}
	return b.String()
}

// ---- Superlatives ----

func PrintSuperlatives(w io.Writer, v slides.SuperlativesView) {
	if v.Headline == nil && len(v.Awards) == 0 {
		fmt.Fprintln(w, cMuted.Sprint("No awards yet."))
		return
	}
	if h := v.Headline; h != nil {
		fmt.Fprintf(w, "%s  %s  %s\n\n", cGold.Sprint(strings.ToUpper(h.Title)), cTitle.Sprint(h.PlayerName), awardValue(*h))
	}
	if len(v.Awards) == 0 {
		return
	}
	table := newTable(w)
	table.Header("AWARD", "PLAYER", "VALUE")
	for _, a := range v.Awards {
		table.Append(a.Title, a.PlayerName, awardValue(a))
	}
	table.Render()
}

func awardValue(a aggregator.Award) string {
	switch a.Metric {
	case aggregator.MetricHitPct:
		return fmt.Sprintf("%.1f%%", a.Value)
	case aggregator.MetricHits:
		return fmt.Sprintf("%.0f hits", a.Value)
	default:
		return strconv.Itoa(int(a.Value))
	}
}

// ---- formatting ----

func pct(r aggregator.Ratio) string {
	if !r.Defined {
		return Undefined
	}
	return fmt.Sprintf("%.0f%%", r.Value*100)
}

func ev(r aggregator.Ratio) string {
	if !r.Defined {
		return Undefined
	}
	return fmt.Sprintf("%.3f", r.Value)
}

// bar renders frac of width cells as fill, the rest as empty.
func bar(frac float64, width int, fill, empty rune) string {
	n := int(math.Round(math.Max(0, math.Min(1, frac)) * float64(width)))
	return strings.Repeat(string(fill), n) + strings.Repeat(string(empty), width-n)
}

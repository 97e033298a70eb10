// Package recap asks an Anthropic model for a short tournament recap
// grounded in the dashboard numbers.
package recap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pable/go-pong-stats/internal/aggregator"
	"github.com/pable/go-pong-stats/internal/model"
)

const systemPrompt = `You are the announcer of a beer pong tournament. You are given structured
data from the tournament's stats dashboard.

Rules:
- Use ONLY the data provided. Never invent scores, names or statistics.
- Cite specific numbers when praising or roasting a player.
- Keep it short: a headline and at most three paragraphs.
- If the tournament has no shots yet, say the tables are still dry.

Glossary:
- hit_pct: hits / shots, rerack shots excluded.
- ev: hit rate of that shot type scaled by (1 + synergy_bonus).
- cups_per_shot: cups removed per attempt; a bounce hit sinks one extra cup per bounce.
- synergy_bonus: how much a player's cup choice complements their teammate's.
- punishments: penalty bongs; more is worse.
- "—" means the value is undefined for lack of attempts.`

// DefaultModel is used when Options.Model is empty.
const DefaultModel = "claude-sonnet-4-6"

// ErrNoAPIKey is returned when no key was configured.
var ErrNoAPIKey = errors.New("no API key: set ANTHROPIC_API_KEY or use --api-key")

type Options struct {
	APIKey  string
	Model   string
	BaseURL string // testing only
	// MaxTokens bounds the reply. Zero means 1024.
	MaxTokens int64
}

// BuildContext serialises the dashboard into the compact JSON sent to the model.
func BuildContext(d *model.Dashboard) (string, error) {
	type shotType struct {
		Type    string `json:"type"`
		Hits    int    `json:"hits"`
		Shots   int    `json:"shots"`
		HitRate string `json:"hit_rate"`
		EV      string `json:"ev"`
		Cups    string `json:"cups_per_shot"`
	}
	type player struct {
		Rank         int        `json:"rank"`
		Name         string     `json:"name"`
		Shots        int        `json:"shots"`
		Hits         int        `json:"hits"`
		HitPct       float64    `json:"hit_pct"`
		Rims         int        `json:"rims"`
		Elbows       int        `json:"elbow_violations"`
		Punishments  int        `json:"punishments"`
		HitStreak    int        `json:"longest_hit_streak"`
		MissStreak   int        `json:"longest_miss_streak"`
		SynergyBonus float64    `json:"synergy_bonus"`
		ShotTypes    []shotType `json:"shot_types"`
	}
	type team struct {
		Name   string `json:"name"`
		Group  string `json:"group,omitempty"`
		Wins   int    `json:"wins"`
		Losses int    `json:"losses"`
	}
	type award struct {
		Title  string  `json:"title"`
		Player string  `json:"player"`
		Value  float64 `json:"value"`
	}

	players := make([]player, 0, len(d.PlayerLeaderboard))
	for i, p := range d.PlayerLeaderboard {
		hit, miss := aggregator.PlayerStreaks(d, p.PlayerID)
		var types []shotType
		for _, l := range aggregator.PlayerEVs(d, p.PlayerID) {
			types = append(types, shotType{
				Type:    string(l.Type),
				Hits:    l.Hits,
				Shots:   l.Attempts,
				HitRate: ratioString(l.HitRate, 100),
				EV:      ratioString(l.EV, 1),
				Cups:    ratioString(l.CupsPerShot, 1),
			})
		}
		players = append(players, player{
			Rank:         i + 1,
			Name:         p.PlayerName,
			Shots:        p.TotalShots,
			Hits:         p.Hits,
			HitPct:       p.HitPercentage,
			Rims:         p.Rims,
			Elbows:       p.ElbowViolations,
			Punishments:  d.PunishmentsFor(p.PlayerID),
			HitStreak:    hit,
			MissStreak:   miss,
			SynergyBonus: aggregator.SynergyBonus(d, p.PlayerID),
			ShotTypes:    types,
		})
	}

	teams := make([]team, 0, len(d.TeamStandings))
	for _, t := range d.TeamStandings {
		teams = append(teams, team{Name: t.TeamName, Group: t.Group, Wins: t.Wins, Losses: t.Losses})
	}

	awards := []award{}
	for _, a := range aggregator.Superlatives(d) {
		awards = append(awards, award{Title: a.Title, Player: a.PlayerName, Value: round2(a.Value)})
	}

	totals := aggregator.ShotTotals(d)
	doc := map[string]interface{}{
		"tournament": d.TournamentName,
		"games": map[string]int{
			"total":       d.TotalGames,
			"completed":   d.CompletedGames,
			"in_progress": d.InProgressGames,
		},
		"shots": map[string]int{
			"total":  totals.Shots,
			"hits":   totals.Hits,
			"rims":   totals.Rims,
			"misses": totals.Misses,
		},
		"beers_drunk":       aggregator.BeerGlass(d).Drunk,
		"total_punishments": d.TotalPunishments,
		"standings":         teams,
		"players":           players,
		"superlatives":      awards,
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

func ratioString(r aggregator.Ratio, scale float64) string {
	if !r.Defined {
		return "—"
	}
	return fmt.Sprintf("%.2f", r.Value*scale)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Stream sends the dashboard to the model and copies the reply to w as it
// arrives.
func Stream(ctx context.Context, w io.Writer, d *model.Dashboard, opts Options) error {
	if opts.APIKey == "" {
		return ErrNoAPIKey
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 1024
	}

	dataJSON, err := BuildContext(d)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: opts.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("DATA:\n" + dataJSON + "\n\nWrite the recap.")),
		},
	})
	defer stream.Close()

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				if _, err := io.WriteString(w, delta.Delta.AsTextDelta().Text); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/aggregator"
	"github.com/pable/go-wp-metrics/internal/model"
	"github.com/pable/go-wp-metrics/internal/storage"
)

const analyzeSystemPrompt = `You are a water polo performance analyst. You are given structured match
statistics from a club's records and a question from a coach or player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable. Focus on what the team or player can improve.

Metrics glossary:
- goals / misses: shots scored and missed; efficiency% = goals / (goals + misses).
- goal mix: goals by situation (boya = centre forward, lanzamiento = outside shot,
  hombre_mas = power play, penalti, contraataque = counter attack, dentro_7m / fuera_7m).
- fouls: exclusions, penalties conceded, counter fouls and brutality expulsions.
- saves / conceded: goalkeeper saves and goals allowed; save% = saves / (saves + conceded).
- sprints: the swim-off at the start of each quarter; win% per quarter.
- quarters: goals for and against per quarter.`

var (
	analyzeModel  string
	analyzeAPIKey string
	analyzeLast   int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <player-id> <question>",
	Short: "Analyze a player's season stats with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeMatchCmd = &cobra.Command{
	Use:   "match <id-prefix> <question>",
	Short: "Analyze a single match with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzeMatch,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzePlayerCmd.Flags().IntVar(&analyzeLast, "last", 0, "only use the N most recent matches")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeMatchCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	playerID, question := args[0], args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := loadSnapshot(cmd.Context(), db)
	if err != nil {
		return err
	}
	seq := snap.Matches
	if analyzeLast > 0 {
		seq = seq.Last(analyzeLast)
	}

	contextJSON, err := buildPlayerContext(seq, snap.Stats, playerID)
	if err != nil {
		return err
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

func runAnalyzeMatch(cmd *cobra.Command, args []string) error {
	question := args[1]

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := db.GetMatchByPrefix(args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no match found with prefix %q", args[0])
	}
	if err != nil {
		return fmt.Errorf("find match: %w", err)
	}
	stats, err := db.GetPlayerStatsByMatch(m.ID)
	if err != nil {
		return fmt.Errorf("query match stats: %w", err)
	}

	contextJSON, err := buildMatchContext(*m, stats)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, contextJSON, question)
}

// totalsDoc flattens summary totals plus the derived rates.
func totalsDoc(t aggregator.Totals) map[string]any {
	doc := make(map[string]any, len(t)+2)
	for k, v := range t {
		doc[k] = v
	}
	if t.Sum(model.BucketGoals, model.BucketMisses) > 0 {
		doc["efficiency_pct"] = aggregator.Efficiency(t)
	}
	if t.Sum(model.BucketSaves, model.BucketConceded) > 0 {
		doc["save_pct"] = aggregator.SaveRate(t)
	}
	return doc
}

func mixDoc(mix model.CategoryMix) map[string]float64 {
	out := make(map[string]float64, len(mix.Buckets))
	for _, b := range mix.Buckets {
		if b.Value > 0 {
			out[b.Name] = b.Value
		}
	}
	return out
}

// buildPlayerContext serialises one player's derived stats over seq into compact JSON.
func buildPlayerContext(seq aggregator.Sequence, rows []model.PlayerStatRecord, playerID string) (string, error) {
	inSeq := make(map[string]bool, seq.Len())
	for _, m := range seq.Matches() {
		inSeq[m.ID] = true
	}
	var own []model.PlayerStatRecord
	for _, r := range rows {
		if r.PlayerID == playerID && inSeq[r.MatchID] {
			own = append(own, r)
		}
	}
	if len(own) == 0 {
		return "", fmt.Errorf("no data found for player %s", playerID)
	}

	type matchEntry struct {
		Round    string  `json:"round"`
		Opponent string  `json:"opponent"`
		Result   string  `json:"result"`
		Goals    float64 `json:"goals"`
		EffPct   float64 `json:"efficiency_pct"`
	}
	goals := aggregator.GroupSeries(seq, own, model.SummaryGroups, model.BucketGoals, nil)
	eff := aggregator.EfficiencySeries(seq, own, nil)
	perMatch := make([]matchEntry, 0, len(goals))
	for i, p := range goals {
		m := seq.At(p.Index)
		perMatch = append(perMatch, matchEntry{
			Round:    m.RoundLabel(),
			Opponent: m.Opponent,
			Result:   string(aggregator.MatchResult(m)),
			Goals:    p.Value,
			EffPct:   eff[i].Value,
		})
	}

	doc := map[string]any{
		"subject":          "player",
		"player":           own[0].PlayerName,
		"role":             own[0].Role.String(),
		"matches_analyzed": len(own),
		"totals":           totalsDoc(aggregator.AggregateRows(own, model.SummaryGroups, nil)),
		"goal_mix":         mixDoc(aggregator.PlayerMix(own, model.GoalTypes, nil)),
		"miss_mix":         mixDoc(aggregator.PlayerMix(own, model.MissTypes, nil)),
		"foul_mix":         mixDoc(aggregator.PlayerMix(own, model.FoulTypes, nil)),
		"sprints_won":      aggregator.SprintsWonBy(seq, playerID),
		"per_match":        perMatch,
	}
	if own[0].Role == model.RoleGoalkeeper {
		doc["save_mix"] = mixDoc(aggregator.PlayerMix(own, model.SaveTypes, nil))
		doc["conceded_mix"] = mixDoc(aggregator.PlayerMix(own, model.ConcededTypes, nil))
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// buildMatchContext serialises a single match into compact JSON.
func buildMatchContext(m model.MatchRecord, stats []model.PlayerStatRecord) (string, error) {
	type playerEntry struct {
		Name   string         `json:"name"`
		Role   string         `json:"role"`
		Totals map[string]any `json:"totals"`
	}
	seen := make(map[string]bool)
	var players []playerEntry
	for _, s := range stats {
		if seen[s.PlayerID] {
			continue
		}
		seen[s.PlayerID] = true
		t := aggregator.AggregateRows(stats, model.SummaryGroups, aggregator.ForPlayer(s.PlayerID))
		players = append(players, playerEntry{Name: s.PlayerName, Role: s.Role.String(), Totals: totalsDoc(t)})
	}

	seq := aggregator.SortMatches([]model.MatchRecord{m})
	doc := map[string]any{
		"subject":  "match",
		"round":    m.RoundLabel(),
		"opponent": m.Opponent,
		"home":     m.IsHome,
		"score":    fmt.Sprintf("%d-%d", m.GoalsFor(), m.GoalsAgainst()),
		"result":   string(aggregator.MatchResult(m)),
		"quarters": aggregator.QuarterSplit(seq),
		"sprints":  aggregator.SprintSummary(seq),
		"team":     totalsDoc(aggregator.AggregateMatch(m.ID, stats, model.SummaryGroups)),
		"goal_mix": mixDoc(aggregator.PlayerMix(stats, model.GoalTypes, nil)),
		"players":  players,
	}
	if !m.Date.IsZero() {
		doc["date"] = m.Date.Format("2006-01-02")
	}

	b, err := json.Marshal(doc)
	return string(b), err
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)
	logger.WithField("bytes", len(dataJSON)).Debug("analysis context built")

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}

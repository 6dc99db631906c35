package relevance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
)

// Estimator turns text into an estimated token count.
type Estimator func(text string) int

// HeuristicEstimator is the default size estimate: roughly four
// characters per token.
func HeuristicEstimator(text string) int {
	return len(text) / 4
}

// Selector picks the most relevant slice of an interaction log that
// fits a token budget.
type Selector struct {
	estimate Estimator
}

func NewSelector(estimate Estimator) *Selector {
	if estimate == nil {
		estimate = HeuristicEstimator
	}
	return &Selector{estimate: estimate}
}

// Select sorts the records by descending relevance (chronological
// order preserved among equal scores) and greedily accepts them while
// the running token estimate stays within budget. Selection stops at
// the first record that would overflow; there is no backfill. Hitting
// the budget is the normal stopping condition, not an error.
func (s *Selector) Select(records []core.InteractionRecord, req Request, budget int) core.ContextSelection {
	if len(records) == 0 {
		return core.ContextSelection{}
	}

	type scored struct {
		rec   core.InteractionRecord
		score float64
	}
	ranked := make([]scored, len(records))
	for i, rec := range records {
		ranked[i] = scored{rec: rec, score: Score(rec, req)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	selection := core.ContextSelection{}
	for _, entry := range ranked {
		cost := s.estimate(recordText(entry.rec))
		if selection.TokensUsed+cost > budget {
			break
		}
		selection.Records = append(selection.Records, entry.rec)
		selection.TokensUsed += cost
	}

	selection.ContextBlock = formatContextBlock(selection.Records)
	selection.PreferenceSummary = preferenceSummary(selection.Records)
	return selection
}

// formatContextBlock renders the accepted records into the block
// forwarded to the generation prompt, highest relevance first.
func formatContextBlock(records []core.InteractionRecord) string {
	if len(records) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Relevant interaction history:\n")
	for _, rec := range records {
		ts := "unknown time"
		if !rec.Timestamp.IsZero() {
			ts = rec.Timestamp.UTC().Format("2006-01-02 15:04")
		}
		sb.WriteString(fmt.Sprintf("[%s] (%s) user: %s\n", ts, rec.MessageType, strings.TrimSpace(rec.UserMessage)))
		if resp := strings.TrimSpace(rec.SystemResponse); resp != "" {
			sb.WriteString(fmt.Sprintf("  response: %s\n", resp))
		}
	}
	return sb.String()
}

// preferenceSummary condenses what the accepted records reveal about
// the user: tones and audiences seen, and how often they were clearly
// happy or unhappy.
func preferenceSummary(records []core.InteractionRecord) string {
	if len(records) == 0 {
		return ""
	}

	var tones, audiences []string
	seenTone := make(map[string]bool)
	seenAudience := make(map[string]bool)
	var satisfied, dissatisfied int

	for _, rec := range records {
		if tone := rec.Context["tone"]; tone != "" && !seenTone[tone] {
			seenTone[tone] = true
			tones = append(tones, tone)
		}
		if aud := rec.Context["audience"]; aud != "" && !seenAudience[aud] {
			seenAudience[aud] = true
			audiences = append(audiences, aud)
		}
		if rec.SatisfactionScore != nil {
			if *rec.SatisfactionScore > 0.7 {
				satisfied++
			}
			if *rec.SatisfactionScore < 0.4 {
				dissatisfied++
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("User preferences: ")
	if len(tones) > 0 {
		sb.WriteString("tones seen: " + strings.Join(tones, ", ") + "; ")
	}
	if len(audiences) > 0 {
		sb.WriteString("audiences: " + strings.Join(audiences, ", ") + "; ")
	}
	sb.WriteString(fmt.Sprintf("%d clearly positive, %d clearly negative interactions", satisfied, dissatisfied))
	return sb.String()
}

package analysis

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/pkg/log"
)

const (
	maxAggChallenges  = 10
	maxAggSolutions   = 10
	maxAggStack       = 10
	maxAggOutcomes    = 8
	maxEstimatedPosts = 12

	fallbackTheme = "Development project with multiple phases"
)

// Aggregator combines classified documents and their edges into a
// project-level narrative.
type Aggregator struct {
	lib *PatternLibrary
	gen core.Generator // optional, nil means deterministic theme only
}

func NewAggregator(lib *PatternLibrary, gen core.Generator) *Aggregator {
	return &Aggregator{lib: lib, gen: gen}
}

// Aggregate builds the narrative for a finalized batch. Edges must
// already be filtered to the retention floor.
func (a *Aggregator) Aggregate(ctx context.Context, docs []core.SourceDocument, edges []core.RelationshipEdge) core.ProjectNarrative {
	narrative := core.ProjectNarrative{
		ProjectTheme:         a.projectTheme(ctx, docs),
		NarrativeArc:         a.narrativeArc(ctx, docs),
		KeyChallenges:        dedupeAcross(docs, func(d core.SourceDocument) []string { return d.Challenges }, maxAggChallenges),
		SolutionsImplemented: dedupeAcross(docs, func(d core.SourceDocument) []string { return d.Solutions }, maxAggSolutions),
		TechnicalStack:       dedupeAcross(docs, func(d core.SourceDocument) []string { return d.TechnicalElements }, maxAggStack),
		BusinessOutcomes:     dedupeAcross(docs, func(d core.SourceDocument) []string { return d.BusinessImpacts }, maxAggOutcomes),
		ContentThreads:       ExtractThreads(a.lib, docs),
		EstimatedPosts:       estimatePosts(docs),
		CompletenessScore:    completeness(docs),
		CohesionScore:        cohesion(docs, edges),
	}
	return narrative
}

// projectTheme asks the generation service for a one-line theme over
// the concatenated summaries, with a fixed deterministic fallback.
func (a *Aggregator) projectTheme(ctx context.Context, docs []core.SourceDocument) string {
	if a.gen == nil {
		return fallbackTheme
	}

	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString("- ")
		sb.WriteString(doc.ContentSummary)
		sb.WriteString("\n")
	}
	prompt := fmt.Sprintf(
		"These are summaries of one project's development journal. Describe the project's overall theme in one short line, no preamble.\n\n%s",
		sb.String(),
	)

	res, err := a.gen.Generate(ctx, prompt, core.GenerateOptions{Temperature: 0.3, MaxTokens: 60})
	if err != nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("theme generation failed, using fallback")
		}
		return fallbackTheme
	}
	return strings.TrimSpace(res.Text)
}

// narrativeArc asks the generation service for a one-line story arc,
// falling back to the deterministic phase-coverage label.
func (a *Aggregator) narrativeArc(ctx context.Context, docs []core.SourceDocument) string {
	fallback := NarrativeArc(docs)
	if a.gen == nil {
		return fallback
	}

	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(fmt.Sprintf("- [%s] %s\n", doc.Phase, doc.ContentSummary))
	}
	prompt := fmt.Sprintf(
		"These are phase-tagged summaries of one project's development journal. Describe the story arc across them in one short line, no preamble.\n\n%s",
		sb.String(),
	)

	res, err := a.gen.Generate(ctx, prompt, core.GenerateOptions{Temperature: 0.3, MaxTokens: 60})
	if err != nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("arc generation failed, using fallback")
		}
		return fallback
	}
	return strings.TrimSpace(res.Text)
}

// NarrativeArc labels the phase coverage of the batch in canonical
// order. It is the deterministic degradation path for the arc.
func NarrativeArc(docs []core.SourceDocument) string {
	present := presentPhases(docs)

	if len(present) >= 3 {
		parts := make([]string, len(present))
		for i, p := range present {
			parts[i] = string(p)
		}
		return "Complete development journey: " + strings.Join(parts, " → ")
	}

	switch len(present) {
	case 2:
		return fmt.Sprintf("From %s to %s", present[0], present[1])
	case 1:
		return fmt.Sprintf("Deep dive into %s", present[0])
	default:
		return "Development snapshot"
	}
}

// presentPhases is the ordered intersection of observed phases with
// the canonical order.
func presentPhases(docs []core.SourceDocument) []core.Phase {
	seen := make(map[core.Phase]bool)
	for _, doc := range docs {
		seen[doc.Phase] = true
	}
	var present []core.Phase
	for _, p := range core.PhaseOrder() {
		if seen[p] {
			present = append(present, p)
		}
	}
	return present
}

// estimatePosts scales the document count by complexity and technical
// breadth bonuses, capped at 12 posts.
func estimatePosts(docs []core.SourceDocument) int {
	if len(docs) == 0 {
		return 0
	}

	var complexitySum float64
	var techSum int
	for _, doc := range docs {
		complexitySum += doc.ComplexityScore
		techSum += len(doc.TechnicalElements)
	}

	multiplier := 1.0
	if complexitySum/float64(len(docs)) > 0.7 {
		multiplier += 0.3
	}
	if float64(techSum)/float64(len(docs)) > 5 {
		multiplier += 0.2
	}

	posts := int(math.Round(float64(len(docs)) * multiplier))
	if posts > maxEstimatedPosts {
		posts = maxEstimatedPosts
	}
	return posts
}

// completeness mixes phase coverage with the presence of the four
// narrative elements (problem, solution, tech, business).
func completeness(docs []core.SourceDocument) float64 {
	coverage := float64(len(presentPhases(docs))) / 4

	var mentionsProblem, mentionsSolution, hasTech, hasBusiness bool
	for _, doc := range docs {
		summary := strings.ToLower(doc.ContentSummary)
		if strings.Contains(summary, "problem") {
			mentionsProblem = true
		}
		if strings.Contains(summary, "solution") {
			mentionsSolution = true
		}
		if len(doc.TechnicalElements) > 0 {
			hasTech = true
		}
		if len(doc.BusinessImpacts) > 0 {
			hasBusiness = true
		}
	}

	var elements float64
	for _, present := range []bool{mentionsProblem, mentionsSolution, hasTech, hasBusiness} {
		if present {
			elements += 0.25
		}
	}

	return (coverage + elements) / 2
}

// cohesion is the mean strength of the retained edges. A single
// document is perfectly cohesive; a batch with no retained edges gets
// the floor value.
func cohesion(docs []core.SourceDocument, edges []core.RelationshipEdge) float64 {
	if len(docs) == 1 {
		return 1.0
	}
	if len(edges) == 0 {
		return 0.3
	}
	var sum float64
	for _, e := range edges {
		sum += e.Strength
	}
	return sum / float64(len(edges))
}

// dedupeAcross concatenates one field across documents, order
// preserving and deduplicated, capped.
func dedupeAcross(docs []core.SourceDocument, field func(core.SourceDocument) []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, doc := range docs {
		for _, item := range field(doc) {
			if seen[item] || len(out) >= limit {
				continue
			}
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

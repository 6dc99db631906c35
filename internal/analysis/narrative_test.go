package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/sandevgo/chronicle/internal/core"
)

func TestCohesion(t *testing.T) {
	single := []core.SourceDocument{{ID: "a"}}
	pair := []core.SourceDocument{{ID: "a"}, {ID: "b"}}

	if got := cohesion(single, nil); got != 1.0 {
		t.Errorf("expected 1.0 for a single document, got %f", got)
	}
	if got := cohesion(pair, nil); got != 0.3 {
		t.Errorf("expected 0.3 floor without edges, got %f", got)
	}

	edges := []core.RelationshipEdge{{Strength: 0.8}, {Strength: 0.4}}
	if got := cohesion(pair, edges); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("expected mean 0.6, got %f", got)
	}
}

func TestNarrativeArc(t *testing.T) {
	mk := func(phases ...core.Phase) []core.SourceDocument {
		docs := make([]core.SourceDocument, len(phases))
		for i, p := range phases {
			docs[i] = core.SourceDocument{ID: string(rune('a' + i)), Phase: p}
		}
		return docs
	}

	tests := []struct {
		name string
		docs []core.SourceDocument
		want string
	}{
		{
			name: "three phases",
			docs: mk(core.PhaseResults, core.PhasePlanning, core.PhaseImplementation),
			want: "Complete development journey: planning → implementation → results",
		},
		{
			name: "two phases",
			docs: mk(core.PhaseResults, core.PhasePlanning),
			want: "From planning to results",
		},
		{
			name: "one phase",
			docs: mk(core.PhaseDebugging, core.PhaseDebugging),
			want: "Deep dive into debugging",
		},
		{
			name: "no documents",
			docs: nil,
			want: "Development snapshot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NarrativeArc(tt.docs); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEstimatePosts(t *testing.T) {
	simple := make([]core.SourceDocument, 4)
	for i := range simple {
		simple[i] = core.SourceDocument{ComplexityScore: 0.2}
	}
	if got := estimatePosts(simple); got != 4 {
		t.Errorf("expected 4 posts for 4 simple documents, got %d", got)
	}

	complexDocs := make([]core.SourceDocument, 4)
	for i := range complexDocs {
		complexDocs[i] = core.SourceDocument{
			ComplexityScore:   0.8,
			TechnicalElements: []string{"a", "b", "c", "d", "e", "f"},
		}
	}
	// multiplier 1.0 + 0.3 + 0.2
	if got := estimatePosts(complexDocs); got != 6 {
		t.Errorf("expected 6 posts, got %d", got)
	}

	many := make([]core.SourceDocument, 12)
	for i := range many {
		many[i] = complexDocs[0]
	}
	if got := estimatePosts(many); got != 12 {
		t.Errorf("expected cap at 12 posts, got %d", got)
	}

	if got := estimatePosts(nil); got != 0 {
		t.Errorf("expected 0 posts for empty batch, got %d", got)
	}
}

func TestCompleteness(t *testing.T) {
	full := []core.SourceDocument{
		{Phase: core.PhasePlanning, ContentSummary: "The problem was unclear scope", TechnicalElements: []string{"api"}},
		{Phase: core.PhaseImplementation, ContentSummary: "The solution landed", BusinessImpacts: []string{"efficiency"}},
		{Phase: core.PhaseDebugging},
		{Phase: core.PhaseResults},
	}
	if got := completeness(full); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("expected 1.0, got %f", got)
	}

	thin := []core.SourceDocument{{Phase: core.PhasePlanning}}
	// coverage 1/4, no narrative elements
	if got := completeness(thin); math.Abs(got-0.125) > 1e-9 {
		t.Errorf("expected 0.125, got %f", got)
	}
}

func TestAggregate_DeterministicWithoutGenerator(t *testing.T) {
	agg := NewAggregator(NewPatternLibrary(), nil)
	docs := []core.SourceDocument{
		{
			ID:                "a",
			Phase:             core.PhasePlanning,
			TechnicalElements: []string{"api", "database"},
			Challenges:        []string{"unclear requirements from the start"},
		},
		{
			ID:                "b",
			Phase:             core.PhaseImplementation,
			TechnicalElements: []string{"database", "caching"},
			Solutions:         []string{"settled on an incremental rollout"},
		},
	}

	narrative := agg.Aggregate(context.Background(), docs, nil)

	if narrative.ProjectTheme != fallbackTheme {
		t.Errorf("expected fallback theme, got %q", narrative.ProjectTheme)
	}
	wantStack := []string{"api", "database", "caching"}
	if len(narrative.TechnicalStack) != len(wantStack) {
		t.Fatalf("expected stack %v, got %v", wantStack, narrative.TechnicalStack)
	}
	for i, el := range wantStack {
		if narrative.TechnicalStack[i] != el {
			t.Errorf("stack[%d]: expected %s, got %s", i, el, narrative.TechnicalStack[i])
		}
	}
	if narrative.NarrativeArc != "From planning to implementation" {
		t.Errorf("unexpected arc %q", narrative.NarrativeArc)
	}
	if narrative.CohesionScore != 0.3 {
		t.Errorf("expected cohesion floor without edges, got %f", narrative.CohesionScore)
	}
	if narrative.EstimatedPosts != 2 {
		t.Errorf("expected 2 estimated posts, got %d", narrative.EstimatedPosts)
	}
}

type scriptedGen struct {
	text string
	err  error
}

func (g *scriptedGen) Generate(_ context.Context, _ string, _ core.GenerateOptions) (core.GenerationResult, error) {
	if g.err != nil {
		return core.GenerationResult{}, g.err
	}
	return core.GenerationResult{Text: g.text, TokensUsed: 5, FinishReason: "stop"}, nil
}

func TestAggregate_GeneratorProducesThemeAndArc(t *testing.T) {
	agg := NewAggregator(NewPatternLibrary(), &scriptedGen{text: " A scrappy build, start to finish. "})
	docs := []core.SourceDocument{
		{ID: "a", Phase: core.PhasePlanning, ContentSummary: "planned the api"},
		{ID: "b", Phase: core.PhaseImplementation, ContentSummary: "built the api"},
	}

	narrative := agg.Aggregate(context.Background(), docs, nil)

	if narrative.ProjectTheme != "A scrappy build, start to finish." {
		t.Errorf("expected the generated theme, got %q", narrative.ProjectTheme)
	}
	if narrative.NarrativeArc != "A scrappy build, start to finish." {
		t.Errorf("expected the generated arc, got %q", narrative.NarrativeArc)
	}
}

func TestAggregate_GeneratorFailureFallsBack(t *testing.T) {
	agg := NewAggregator(NewPatternLibrary(), &scriptedGen{err: context.DeadlineExceeded})
	docs := []core.SourceDocument{
		{ID: "a", Phase: core.PhasePlanning},
		{ID: "b", Phase: core.PhaseImplementation},
	}

	narrative := agg.Aggregate(context.Background(), docs, nil)

	if narrative.ProjectTheme != fallbackTheme {
		t.Errorf("expected fallback theme, got %q", narrative.ProjectTheme)
	}
	if narrative.NarrativeArc != "From planning to implementation" {
		t.Errorf("expected the deterministic arc, got %q", narrative.NarrativeArc)
	}
}

func TestDedupeAcross(t *testing.T) {
	docs := []core.SourceDocument{
		{Themes: []string{"x", "y"}},
		{Themes: []string{"y", "z", "w"}},
	}
	got := dedupeAcross(docs, func(d core.SourceDocument) []string { return d.Themes }, 3)
	want := []string{"x", "y", "z"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

package analysis

import (
	"context"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sandevgo/chronicle/internal/core"
)

func newTestClassifier() *Classifier {
	return NewClassifier(NewPatternLibrary(), nil)
}

func TestPhaseScores_SumToOne(t *testing.T) {
	c := newTestClassifier()

	scores := c.PhaseScores("plan the design and implement the code to fix the bug", "journal.md")

	var sum float64
	for _, s := range scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("expected scores to sum to 1, got %f", sum)
	}
}

func TestPhaseScores_NoMatchesAllZero(t *testing.T) {
	c := newTestClassifier()

	scores := c.PhaseScores("the quick brown fox jumps over a lazy dog", "notes.txt")

	for phase, s := range scores {
		if s != 0 {
			t.Errorf("expected zero score for %s, got %f", phase, s)
		}
	}
}

func TestWinningPhase_TieBreaksCanonical(t *testing.T) {
	tests := []struct {
		name   string
		scores map[core.Phase]float64
		want   core.Phase
	}{
		{
			name:   "all zero falls back to planning",
			scores: map[core.Phase]float64{},
			want:   core.PhasePlanning,
		},
		{
			name: "implementation beats debugging on equal score",
			scores: map[core.Phase]float64{
				core.PhaseImplementation: 0.5,
				core.PhaseDebugging:      0.5,
			},
			want: core.PhaseImplementation,
		},
		{
			name: "clear winner",
			scores: map[core.Phase]float64{
				core.PhasePlanning: 0.1,
				core.PhaseResults:  0.9,
			},
			want: core.PhaseResults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := winningPhase(tt.scores); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestClassify_DebuggingDocument(t *testing.T) {
	c := newTestClassifier()

	text := "Found a nasty bug in the session cache. The error only showed under load. Spent hours in the debugger before the fix landed."
	doc := c.Classify(context.Background(), text, "debug-session.md")

	if doc.Phase != core.PhaseDebugging {
		t.Errorf("expected debugging phase, got %s", doc.Phase)
	}
	if doc.ProcessingStatus != core.StatusAnalyzed {
		t.Errorf("expected analyzed status, got %s", doc.ProcessingStatus)
	}
	if doc.ID == "" {
		t.Error("expected a document id")
	}
	if doc.WordCount != len(strings.Fields(text)) {
		t.Errorf("unexpected word count %d", doc.WordCount)
	}
	found := false
	for _, el := range doc.TechnicalElements {
		if el == "caching" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected caching in technical elements, got %v", doc.TechnicalElements)
	}
}

func TestClassify_EmptyInputNeverFails(t *testing.T) {
	c := newTestClassifier()

	doc := c.Classify(context.Background(), "", "")

	if doc.ProcessingStatus != core.StatusAnalyzed {
		t.Errorf("expected analyzed status, got %s", doc.ProcessingStatus)
	}
	if doc.Phase != core.PhasePlanning {
		t.Errorf("expected planning fallback, got %s", doc.Phase)
	}
	if doc.ComplexityScore != 0 {
		t.Errorf("expected zero complexity, got %f", doc.ComplexityScore)
	}
}

func TestComplexity_Bounds(t *testing.T) {
	c := newTestClassifier()

	if got := c.complexity("", 0); got != 0 {
		t.Errorf("expected 0 for empty input, got %f", got)
	}

	heavy := strings.Repeat("a", 6000) + " architecture trade-off scalability optimization"
	if got := c.complexity(heavy, 20); math.Abs(got-1) > 1e-9 {
		t.Errorf("expected saturated score 1, got %f", got)
	}
}

func TestComplexity_MonotoneInTechCount(t *testing.T) {
	c := newTestClassifier()

	low := c.complexity("some text", 2)
	high := c.complexity("some text", 5)
	if high <= low {
		t.Errorf("expected complexity to grow with tech count: %f <= %f", high, low)
	}
}

func TestMatchVocabularies_OrderAndCap(t *testing.T) {
	vocabs := []Vocabulary{
		{Name: "first", Keywords: []string{"alpha"}},
		{Name: "second", Keywords: []string{"beta"}},
		{Name: "third", Keywords: []string{"gamma"}},
	}

	got := matchVocabularies("gamma beta alpha", vocabs, 2)

	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("expected [first second], got %v", got)
	}
}

func TestExtractTriggerLines(t *testing.T) {
	text := "problem\nThe main blocker was the flaky integration environment.\nshort issue\nWe were stuck on the migration for two days."

	got := extractTriggerLines(text, []string{"blocker", "stuck", "problem", "issue"}, 5)

	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], "blocker") {
		t.Errorf("unexpected first line: %s", got[0])
	}
}

func TestFallbackSummary(t *testing.T) {
	text := "# Title\n\nFirst line here.\nSecond line.\nThird line.\nFourth line."

	got := FallbackSummary(text)

	want := "First line here. Second line. Third line."
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestFallbackSummary_Truncates(t *testing.T) {
	got := FallbackSummary(strings.Repeat("word ", 200))
	if len(got) > 300 {
		t.Errorf("expected summary capped at 300 chars, got %d", len(got))
	}
}

func TestTruncate_RuneBoundary(t *testing.T) {
	short := truncate("plain ascii", 300)
	if short != "plain ascii" {
		t.Errorf("expected short input untouched, got %q", short)
	}

	// Two-byte runes with a cut point landing mid-sequence.
	cyrillic := strings.Repeat("э", 200)
	got := truncate(cyrillic, 301)
	if !utf8.ValidString(got) {
		t.Fatalf("expected valid UTF-8, got %q", got)
	}
	if len(got) != 300 {
		t.Errorf("expected the cut backed off to 300 bytes, got %d", len(got))
	}
}

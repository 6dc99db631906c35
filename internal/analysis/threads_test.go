package analysis

import (
	"math"
	"testing"

	"github.com/sandevgo/chronicle/internal/core"
)

func TestExtractThreads_Empty(t *testing.T) {
	if got := ExtractThreads(NewPatternLibrary(), nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestThemeThreads_NeedsTwoDocuments(t *testing.T) {
	docs := []core.SourceDocument{
		doc("a", core.PhasePlanning, []string{"performance", "security"}, nil),
		doc("b", core.PhaseImplementation, []string{"performance"}, nil),
		doc("c", core.PhaseResults, []string{"data"}, nil),
	}

	threads := themeThreads(docs)

	if len(threads) != 1 {
		t.Fatalf("expected 1 theme thread, got %d", len(threads))
	}
	tt := threads[0]
	if tt.Name != "performance" || tt.Type != core.ThreadTheme {
		t.Errorf("unexpected thread %+v", tt)
	}
	if len(tt.DocumentIDs) != 2 {
		t.Errorf("expected 2 members, got %v", tt.DocumentIDs)
	}
	if math.Abs(tt.Strength-2.0/3) > 1e-9 {
		t.Errorf("expected strength 2/3, got %f", tt.Strength)
	}
}

func TestTechnicalProgression_OrdersByPhase(t *testing.T) {
	docs := []core.SourceDocument{
		doc("late", core.PhaseResults, nil, []string{"api"}),
		doc("early", core.PhasePlanning, nil, []string{"database"}),
		doc("plain", core.PhaseImplementation, nil, nil),
	}

	thread, ok := technicalProgression(docs)
	if !ok {
		t.Fatal("expected a technical progression thread")
	}
	if thread.Type != core.ThreadTechnicalProgression {
		t.Errorf("unexpected type %s", thread.Type)
	}
	if len(thread.DocumentIDs) != 2 || thread.DocumentIDs[0] != "early" || thread.DocumentIDs[1] != "late" {
		t.Errorf("expected [early late], got %v", thread.DocumentIDs)
	}
}

func TestTechnicalProgression_NeedsTwo(t *testing.T) {
	docs := []core.SourceDocument{
		doc("a", core.PhasePlanning, nil, []string{"api"}),
		doc("b", core.PhaseResults, nil, nil),
	}
	if _, ok := technicalProgression(docs); ok {
		t.Error("expected no thread with a single technical document")
	}
}

func TestProblemSolution_RequiresBothSides(t *testing.T) {
	challenge := core.SourceDocument{ID: "a", Challenges: []string{"the build kept failing"}}
	solution := core.SourceDocument{ID: "b", Solutions: []string{"pinned the toolchain version"}}
	plain := core.SourceDocument{ID: "c"}

	if _, ok := problemSolution([]core.SourceDocument{challenge, plain}); ok {
		t.Error("expected no thread without a solution document")
	}

	thread, ok := problemSolution([]core.SourceDocument{challenge, solution, plain})
	if !ok {
		t.Fatal("expected a problem/solution thread")
	}
	if thread.Type != core.ThreadProblemSolution {
		t.Errorf("unexpected type %s", thread.Type)
	}
	if len(thread.DocumentIDs) != 2 {
		t.Errorf("expected 2 members, got %v", thread.DocumentIDs)
	}
}

func TestLearningThread(t *testing.T) {
	lib := NewPatternLibrary()
	withLesson := func(id, text string) core.SourceDocument {
		return core.SourceDocument{ID: id, RawText: text}
	}

	if _, ok := learningThread(lib, []core.SourceDocument{
		withLesson("a", "I learned a lot about indexing"),
		withLesson("b", "nothing notable today"),
	}); ok {
		t.Error("expected no thread with one learning document")
	}

	thread, ok := learningThread(lib, []core.SourceDocument{
		withLesson("a", "I learned a lot about indexing"),
		withLesson("b", "the key insight was caching the parse step"),
		withLesson("c", "nothing notable today"),
	})
	if !ok {
		t.Fatal("expected a learning thread")
	}
	if thread.Type != core.ThreadLearning || len(thread.DocumentIDs) != 2 {
		t.Errorf("unexpected thread %+v", thread)
	}
}

package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/chronicle/internal/analysis"
	"github.com/sandevgo/chronicle/internal/core"
)

// toneByPhase is the fixed phase→tone recommendation map.
var toneByPhase = map[core.Phase]string{
	core.PhasePlanning:       "Behind-the-Build",
	core.PhaseImplementation: "Problem → Solution → Result",
	core.PhaseDebugging:      "What Broke",
	core.PhaseResults:        "Finished & Proud",
}

const defaultTone = "Mini Lesson"

// Generator turns a classified batch plus its narrative into an
// ordered, cross-referenced posting strategy.
type Generator struct {
	lib *analysis.PatternLibrary
}

func NewGenerator(lib *analysis.PatternLibrary) *Generator {
	return &Generator{lib: lib}
}

// Sequence produces the posting strategy. The narrative may be nil
// for the standalone path (sequencing a file set without a finalized
// narrative). Customization never mutates the input documents.
func (g *Generator) Sequence(docs []core.SourceDocument, narrative *core.ProjectNarrative, custom *core.Customization) (core.PostingStrategy, error) {
	working, err := applyCustomization(docs, custom)
	if err != nil {
		return core.PostingStrategy{}, err
	}

	ordered := orderDocuments(working, custom)

	strategy := core.PostingStrategy{
		Sequence:      make([]core.SequenceEntry, 0, len(ordered)),
		NarrativeFlow: flowLabel(ordered),
		TimelineHint:  timelineHint(len(ordered)),
	}

	for i, doc := range ordered {
		entry := core.SequenceEntry{
			Position:        i + 1,
			DocumentID:      doc.ID,
			Theme:           entryTheme(doc),
			RecommendedTone: ToneFor(doc.Phase),
			TargetAudience:  g.targetAudience(doc),
		}
		if entry.TargetAudience == core.AudienceTechnical {
			strategy.TechnicalPosts++
		} else {
			strategy.BusinessPosts++
		}
		strategy.Sequence = append(strategy.Sequence, entry)
	}

	strategy.CrossReferences = g.crossReferences(ordered)
	return strategy, nil
}

// applyCustomization returns a working copy of the documents with
// excluded themes and documents removed. Unknown excluded document ids
// are a caller error; batch state stays untouched.
func applyCustomization(docs []core.SourceDocument, custom *core.Customization) ([]core.SourceDocument, error) {
	working := make([]core.SourceDocument, len(docs))
	copy(working, docs)

	if custom == nil {
		return working, nil
	}

	if len(custom.ExcludedDocuments) > 0 {
		known := make(map[string]bool, len(docs))
		for _, doc := range docs {
			known[doc.ID] = true
		}
		excluded := make(map[string]bool, len(custom.ExcludedDocuments))
		for _, id := range custom.ExcludedDocuments {
			if !known[id] {
				return nil, fmt.Errorf("%w: unknown document %q", core.ErrInvalidCustomization, id)
			}
			excluded[id] = true
		}

		var kept []core.SourceDocument
		for _, doc := range working {
			if !excluded[doc.ID] {
				kept = append(kept, doc)
			}
		}
		working = kept
	}

	if len(custom.ExcludedThemes) > 0 {
		drop := make(map[string]bool, len(custom.ExcludedThemes))
		for _, theme := range custom.ExcludedThemes {
			drop[strings.ToLower(theme)] = true
		}
		for i := range working {
			var kept []string
			for _, theme := range working[i].Themes {
				if !drop[strings.ToLower(theme)] {
					kept = append(kept, theme)
				}
			}
			working[i].Themes = kept
		}
	}

	return working, nil
}

// orderDocuments applies an explicit id ordering verbatim when one is
// supplied (unknown ids silently dropped, unlisted documents appended
// in canonical order); otherwise sorts by canonical phase order.
func orderDocuments(docs []core.SourceDocument, custom *core.Customization) []core.SourceDocument {
	byPhase := make([]core.SourceDocument, len(docs))
	copy(byPhase, docs)
	sort.SliceStable(byPhase, func(i, j int) bool {
		return core.PhaseRank(byPhase[i].Phase) < core.PhaseRank(byPhase[j].Phase)
	})

	if custom == nil || len(custom.DocumentOrder) == 0 {
		return byPhase
	}

	byID := make(map[string]core.SourceDocument, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc
	}

	var ordered []core.SourceDocument
	placed := make(map[string]bool, len(docs))
	for _, id := range custom.DocumentOrder {
		doc, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		placed[id] = true
		ordered = append(ordered, doc)
	}
	for _, doc := range byPhase {
		if !placed[doc.ID] {
			ordered = append(ordered, doc)
		}
	}
	return ordered
}

// ToneFor maps a phase to its recommended posting tone.
func ToneFor(phase core.Phase) string {
	if tone, ok := toneByPhase[phase]; ok {
		return tone
	}
	return defaultTone
}

// targetAudience is technical when any of the document's themes is in
// the configurable technical-theme set.
func (g *Generator) targetAudience(doc core.SourceDocument) core.Audience {
	for _, theme := range doc.Themes {
		if g.lib.TechnicalThemes[strings.ToLower(theme)] {
			return core.AudienceTechnical
		}
	}
	return core.AudienceBusiness
}

func entryTheme(doc core.SourceDocument) string {
	if len(doc.Themes) > 0 {
		return doc.Themes[0]
	}
	return string(doc.Phase)
}

// flowLabel describes the phase progression of the sequence, with
// consecutive repeats collapsed.
func flowLabel(ordered []core.SourceDocument) string {
	var parts []string
	for _, doc := range ordered {
		p := string(doc.Phase)
		if len(parts) == 0 || parts[len(parts)-1] != p {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "empty sequence"
	}
	return strings.Join(parts, " → ")
}

func timelineHint(posts int) string {
	if posts == 0 {
		return "nothing to schedule"
	}
	weeks := (posts + 1) / 2
	if weeks < 1 {
		weeks = 1
	}
	return fmt.Sprintf("%d posts at 2 per week, roughly %d week(s)", posts, weeks)
}

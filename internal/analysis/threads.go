package analysis

import (
	"sort"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
)

// ExtractThreads derives content threads from a classified batch:
// shared-theme groups, one technical progression, one problem/solution
// pairing and one learning thread.
func ExtractThreads(lib *PatternLibrary, docs []core.SourceDocument) []core.ContentThread {
	if len(docs) == 0 {
		return nil
	}

	threads := themeThreads(docs)

	if t, ok := technicalProgression(docs); ok {
		threads = append(threads, t)
	}
	if t, ok := problemSolution(docs); ok {
		threads = append(threads, t)
	}
	if t, ok := learningThread(lib, docs); ok {
		threads = append(threads, t)
	}
	return threads
}

// themeThreads groups documents around every theme that appears in at
// least two of them. Thread strength is the occurrence fraction.
func themeThreads(docs []core.SourceDocument) []core.ContentThread {
	var order []string
	members := make(map[string][]string)
	for _, doc := range docs {
		for _, theme := range doc.Themes {
			if _, seen := members[theme]; !seen {
				order = append(order, theme)
			}
			members[theme] = append(members[theme], doc.ID)
		}
	}

	var threads []core.ContentThread
	for _, theme := range order {
		ids := members[theme]
		if len(ids) < 2 {
			continue
		}
		threads = append(threads, core.ContentThread{
			Type:        core.ThreadTheme,
			Name:        theme,
			DocumentIDs: ids,
			Strength:    float64(len(ids)) / float64(len(docs)),
		})
	}
	return threads
}

// technicalProgression orders the technically substantial documents by
// phase into a single thread.
func technicalProgression(docs []core.SourceDocument) (core.ContentThread, bool) {
	var technical []core.SourceDocument
	for _, doc := range docs {
		if len(doc.TechnicalElements) > 0 {
			technical = append(technical, doc)
		}
	}
	if len(technical) < 2 {
		return core.ContentThread{}, false
	}

	sort.SliceStable(technical, func(i, j int) bool {
		return core.PhaseRank(technical[i].Phase) < core.PhaseRank(technical[j].Phase)
	})

	ids := make([]string, len(technical))
	for i, doc := range technical {
		ids[i] = doc.ID
	}
	return core.ContentThread{
		Type:        core.ThreadTechnicalProgression,
		Name:        "Technical progression",
		DocumentIDs: ids,
		Strength:    float64(len(ids)) / float64(len(docs)),
	}, true
}

// problemSolution pairs challenge-bearing documents with
// solution-bearing ones. Requires at least one of each.
func problemSolution(docs []core.SourceDocument) (core.ContentThread, bool) {
	var hasChallenge, hasSolution bool
	var ids []string
	seen := make(map[string]bool)
	for _, doc := range docs {
		interesting := false
		if len(doc.Challenges) > 0 {
			hasChallenge = true
			interesting = true
		}
		if len(doc.Solutions) > 0 {
			hasSolution = true
			interesting = true
		}
		if interesting && !seen[doc.ID] {
			seen[doc.ID] = true
			ids = append(ids, doc.ID)
		}
	}
	if !hasChallenge || !hasSolution {
		return core.ContentThread{}, false
	}
	return core.ContentThread{
		Type:        core.ThreadProblemSolution,
		Name:        "Problems and solutions",
		DocumentIDs: ids,
		Strength:    float64(len(ids)) / float64(len(docs)),
	}, true
}

// learningThread collects documents whose raw text carries a learning
// signal; it needs at least two to form a thread.
func learningThread(lib *PatternLibrary, docs []core.SourceDocument) (core.ContentThread, bool) {
	var ids []string
	for _, doc := range docs {
		lower := strings.ToLower(doc.RawText)
		for _, kw := range lib.LearningKeywords {
			if strings.Contains(lower, kw) {
				ids = append(ids, doc.ID)
				break
			}
		}
	}
	if len(ids) < 2 {
		return core.ContentThread{}, false
	}
	return core.ContentThread{
		Type:        core.ThreadLearning,
		Name:        "Lessons learned",
		DocumentIDs: ids,
		Strength:    float64(len(ids)) / float64(len(docs)),
	}, true
}

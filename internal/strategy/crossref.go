package strategy

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
)

// referenceVariants are the phrasing templates per connection type.
// Each takes the 1-based position of the earlier post.
var referenceVariants = map[core.ConnectionType][]string{
	core.ConnContinuation: {
		"Picking up where part %d left off.",
		"This continues the story from part %d.",
		"If you missed part %d, start there.",
	},
	core.ConnDependency: {
		"This builds directly on the groundwork from part %d.",
		"Part %d covers the prerequisites for this one.",
		"You'll want the context from part %d first.",
	},
	core.ConnImprovement: {
		"A big step up from where things stood in part %d.",
		"Part %d shows how far this has come.",
		"Compare this with the earlier state in part %d.",
	},
	core.ConnComparison: {
		"A different angle on what part %d explored.",
		"Worth contrasting with the approach in part %d.",
		"Part %d took the other road; here's this one.",
	},
	core.ConnRelated: {
		"Part %d circles the same territory.",
		"Closely related to what part %d covered.",
	},
	core.ConnTechnical: {
		"Same stack, new ground — see part %d.",
		"The technical setup from part %d carries over here.",
	},
}

// connection is one scored (current, previous) link candidate.
type connection struct {
	Type     core.ConnectionType
	Strength int
}

// crossReferences walks the ordered sequence and links every post back
// to the prior posts it connects to. For each (current, previous) pair
// only the best-scoring connection is kept; a post with no positive
// match across all priors gets one default continuation reference to
// its immediate predecessor with strength 1.
func (g *Generator) crossReferences(ordered []core.SourceDocument) []core.CrossReference {
	var refs []core.CrossReference

	for i := 1; i < len(ordered); i++ {
		cur := ordered[i]
		found := false

		for j := 0; j < i; j++ {
			prev := ordered[j]
			conn, ok := g.bestConnection(cur, prev)
			if !ok {
				continue
			}
			found = true
			refs = append(refs, core.CrossReference{
				FromID:         cur.ID,
				ToID:           prev.ID,
				ConnectionType: conn.Type,
				ReferenceText:  referenceText(cur.ID, conn.Type, j+1),
				Strength:       conn.Strength,
			})
		}

		if !found {
			prev := ordered[i-1]
			refs = append(refs, core.CrossReference{
				FromID:         cur.ID,
				ToID:           prev.ID,
				ConnectionType: core.ConnContinuation,
				ReferenceText:  referenceText(cur.ID, core.ConnContinuation, i),
				Strength:       1,
			})
		}
	}
	return refs
}

// bestConnection scores the pair: keyword matches against the four
// connection-type templates in the current text, strengthened by
// content the pair shares. Without any template match the shared
// content alone can still justify a technical or related link.
func (g *Generator) bestConnection(cur, prev core.SourceDocument) (connection, bool) {
	lower := strings.ToLower(cur.RawText)

	templateOrder := []core.ConnectionType{
		core.ConnContinuation,
		core.ConnDependency,
		core.ConnImprovement,
		core.ConnComparison,
	}

	bestType := core.ConnContinuation
	bestMatches := 0
	for _, connType := range templateOrder {
		var matches int
		for _, kw := range g.lib.ConnectionPatterns[connType] {
			matches += strings.Count(lower, kw)
		}
		if matches > bestMatches {
			bestType = connType
			bestMatches = matches
		}
	}

	sharedTech := countShared(cur.TechnicalElements, prev.TechnicalElements)
	sharedThemes := countShared(cur.Themes, prev.Themes)

	switch {
	case bestMatches > 0:
		return connection{Type: bestType, Strength: bestMatches + sharedTech + sharedThemes}, true
	case sharedTech > 0:
		return connection{Type: core.ConnTechnical, Strength: sharedTech}, true
	case sharedThemes > 0:
		return connection{Type: core.ConnRelated, Strength: sharedThemes}, true
	default:
		return connection{}, false
	}
}

func countShared(a, b []string) int {
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		inA[s] = true
	}
	var shared int
	for _, s := range b {
		if inA[s] {
			shared++
			inA[s] = false
		}
	}
	return shared
}

// referenceText picks one phrasing variant. The pick is seeded by the
// document id and connection type: deterministic, not cryptographic.
func referenceText(docID string, connType core.ConnectionType, prevPosition int) string {
	variants := referenceVariants[connType]
	if len(variants) == 0 {
		variants = referenceVariants[core.ConnContinuation]
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(docID))
	_, _ = h.Write([]byte(connType))
	rnd := rand.New(rand.NewSource(int64(h.Sum64())))

	return fmt.Sprintf(variants[rnd.Intn(len(variants))], prevPosition)
}

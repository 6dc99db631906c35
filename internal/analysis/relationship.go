package analysis

import (
	"sort"

	"github.com/sandevgo/chronicle/internal/core"
)

// edgeStrengthFloor is the retention filter: weaker edges carry no
// narrative signal and are discarded.
const edgeStrengthFloor = 0.3

// phaseAdjacency holds the canonical forward weights. Relate checks
// both orientations, so the table stays one-directional.
var phaseAdjacency = map[[2]core.Phase]float64{
	{core.PhasePlanning, core.PhaseImplementation}:  0.8,
	{core.PhaseImplementation, core.PhaseDebugging}: 0.7,
	{core.PhaseDebugging, core.PhaseResults}:        0.6,
	{core.PhasePlanning, core.PhaseResults}:         0.5,
}

// Relate computes the relationship edge between two classified
// documents. Symmetric: Relate(a, b) equals Relate(b, a) in every
// signal except the id order.
func Relate(a, b core.SourceDocument) core.RelationshipEdge {
	themeOverlap := jaccard(a.Themes, b.Themes)
	techOverlap := jaccard(a.TechnicalElements, b.TechnicalElements)
	adjacency := phaseAdjacencyScore(a.Phase, b.Phase)
	strength := (themeOverlap + techOverlap + adjacency) / 3

	return core.RelationshipEdge{
		DocA:           a.ID,
		DocB:           b.ID,
		ThemeOverlap:   themeOverlap,
		TechOverlap:    techOverlap,
		PhaseAdjacency: adjacency,
		Strength:       strength,
		Type:           relationType(strength),
	}
}

// RelateAll computes all C(n,2) edges, keeps those above the strength
// floor and returns them sorted by descending strength.
func RelateAll(docs []core.SourceDocument) []core.RelationshipEdge {
	var edges []core.RelationshipEdge
	for i := 0; i < len(docs); i++ {
		for j := i + 1; j < len(docs); j++ {
			edge := Relate(docs[i], docs[j])
			if edge.Strength > edgeStrengthFloor {
				edges = append(edges, edge)
			}
		}
	}
	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Strength > edges[j].Strength
	})
	return edges
}

func relationType(strength float64) core.RelationshipType {
	switch {
	case strength > 0.7:
		return core.RelationSequential
	case strength > 0.5:
		return core.RelationThematic
	case strength > 0.3:
		return core.RelationTechnical
	default:
		return core.RelationWeak
	}
}

func phaseAdjacencyScore(a, b core.Phase) float64 {
	if w, ok := phaseAdjacency[[2]core.Phase{a, b}]; ok {
		return w
	}
	if w, ok := phaseAdjacency[[2]core.Phase{b, a}]; ok {
		return w
	}
	return 0
}

// jaccard is |a∩b| / |a∪b| over string sets, 0 for an empty union.
func jaccard(a, b []string) float64 {
	union := make(map[string]bool, len(a)+len(b))
	inA := make(map[string]bool, len(a))
	for _, s := range a {
		union[s] = true
		inA[s] = true
	}
	var intersection int
	for _, s := range b {
		if !union[s] {
			union[s] = true
		}
	}
	for _, s := range b {
		if inA[s] {
			intersection++
			inA[s] = false // count duplicates once
		}
	}
	if len(union) == 0 {
		return 0
	}
	return float64(intersection) / float64(len(union))
}

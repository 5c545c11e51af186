package viz

import (
	"cmp"
	"slices"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/graph"
)

// GapHighlight returns the papers to highlight for a structural gap: every
// bridge paper plus every node in either of the gap's clusters. The result
// is sorted.
func GapHighlight(g *graph.GraphData, gap analysis.StructuralGap) []string {
	set := make(map[string]bool)
	for _, bp := range gap.BridgePapers {
		if bp.PaperID != "" {
			set[bp.PaperID] = true
		}
	}
	if g != nil {
		for _, n := range g.Nodes {
			if n.ClusterID == gap.ClusterA.ID || n.ClusterID == gap.ClusterB.ID {
				set[n.ID] = true
			}
		}
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SortGaps returns the gaps ordered by descending strength. Ties keep
// their payload order.
func SortGaps(gaps []analysis.StructuralGap) []analysis.StructuralGap {
	out := slices.Clone(gaps)
	slices.SortStableFunc(out, func(a, b analysis.StructuralGap) int {
		return cmp.Compare(b.GapStrength, a.GapStrength)
	})
	return out
}

// GhostEdges converts a gap's potential edges into display edges between
// papers present in the graph.
func GhostEdges(g *graph.GraphData, gaps []analysis.StructuralGap) []analysis.PotentialEdge {
	if g == nil {
		return nil
	}
	var out []analysis.PotentialEdge
	for _, gap := range gaps {
		for _, pe := range gap.PotentialEdges {
			if g.HasNode(pe.Source) && g.HasNode(pe.Target) {
				out = append(out, pe)
			}
		}
	}
	return out
}

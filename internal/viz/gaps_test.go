package viz

import (
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

func TestGapHighlight(t *testing.T) {
	g := scenarioGraph()
	g.Nodes = append(g.Nodes, paper.Paper{ID: "p4", ClusterID: 2}, paper.Paper{ID: "p5", ClusterID: 2})

	gap := analysis.StructuralGap{
		GapID:        "gap-1-2",
		ClusterA:     analysis.ClusterRef{ID: 1},
		ClusterB:     analysis.ClusterRef{ID: 2},
		BridgePapers: []analysis.BridgePaper{{PaperID: "p1"}, {PaperID: "ext"}},
	}

	got := GapHighlight(g, gap)
	want := []string{"ext", "p1", "p3", "p4", "p5"}
	if !slices.Equal(got, want) {
		t.Errorf("GapHighlight() = %v, want %v", got, want)
	}
}

func TestGapHighlight_Completeness(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	rapid.Check(t, func(t *rapid.T) {
		g := &graph.GraphData{}
		for _, id := range ids {
			g.Nodes = append(g.Nodes, paper.Paper{ID: id, ClusterID: rapid.IntRange(-1, 3).Draw(t, "cluster_"+id)})
		}
		a := rapid.IntRange(0, 3).Draw(t, "a")
		b := rapid.IntRange(0, 3).Draw(t, "b")

		// Bridge papers are drawn from the two clusters, or from outside the graph.
		var bridges []analysis.BridgePaper
		for _, n := range g.Nodes {
			if (n.ClusterID == a || n.ClusterID == b) && rapid.Bool().Draw(t, "bridge_"+n.ID) {
				bridges = append(bridges, analysis.BridgePaper{PaperID: n.ID})
			}
		}
		if rapid.Bool().Draw(t, "external") {
			bridges = append(bridges, analysis.BridgePaper{PaperID: "external"})
		}

		gap := analysis.StructuralGap{
			ClusterA:     analysis.ClusterRef{ID: a},
			ClusterB:     analysis.ClusterRef{ID: b},
			BridgePapers: bridges,
		}
		got := make(map[string]bool)
		for _, id := range GapHighlight(g, gap) {
			got[id] = true
		}

		for _, n := range g.Nodes {
			inGap := n.ClusterID == a || n.ClusterID == b
			if inGap && !got[n.ID] {
				t.Fatalf("node %s in cluster %d missing", n.ID, n.ClusterID)
			}
			if !inGap && got[n.ID] {
				t.Fatalf("node %s from third cluster %d highlighted", n.ID, n.ClusterID)
			}
		}
		for _, bp := range bridges {
			if !got[bp.PaperID] {
				t.Fatalf("bridge %s missing", bp.PaperID)
			}
		}
	})
}

func TestSortGaps(t *testing.T) {
	gaps := []analysis.StructuralGap{
		{GapID: "weak", GapStrength: 0.2},
		{GapID: "strong", GapStrength: 0.9},
		{GapID: "mid-a", GapStrength: 0.5},
		{GapID: "mid-b", GapStrength: 0.5},
	}

	got := SortGaps(gaps)
	var order []string
	for _, g := range got {
		order = append(order, g.GapID)
	}
	want := []string{"strong", "mid-a", "mid-b", "weak"}
	if !slices.Equal(order, want) {
		t.Errorf("SortGaps() order = %v, want %v", order, want)
	}
	if gaps[0].GapID != "weak" {
		t.Error("SortGaps modified its input")
	}
}

func TestGhostEdges(t *testing.T) {
	g := scenarioGraph()
	gaps := []analysis.StructuralGap{{
		PotentialEdges: []analysis.PotentialEdge{
			{Source: "p1", Target: "p3", Similarity: 0.7},
			{Source: "p1", Target: "gone", Similarity: 0.6},
		},
	}}

	got := GhostEdges(g, gaps)
	if len(got) != 1 || got[0].Target != "p3" {
		t.Errorf("GhostEdges() = %+v, want only p1->p3", got)
	}
}

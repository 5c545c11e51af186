package viz

import (
	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/paper"
	"github.com/matsen/scholargraph/internal/store"
)

// View is the part of the graph a renderer should draw.
type View struct {
	Nodes           []paper.Paper             `json:"nodes"`
	Edges           []edge.Edge               `json:"edges"`
	ConceptualEdges []analysis.ConceptualEdge `json:"conceptual_edges,omitempty"`
	GhostEdges      []analysis.PotentialEdge  `json:"ghost_edges,omitempty"`
	Highlighted     []string                  `json:"highlighted,omitempty"`
}

// VisibleGraph projects the state through the hidden-cluster set and the
// visibility toggles. Edges touching a hidden node are dropped. Ghost edges
// appear only while the ghost-edge effect is on.
func VisibleGraph(st store.State) View {
	v := View{Nodes: []paper.Paper{}, Edges: []edge.Edge{}}
	if st.Graph == nil {
		return v
	}

	shown := make(map[string]bool, len(st.Graph.Nodes))
	for _, n := range st.Graph.Nodes {
		if st.HiddenClusters[n.ClusterID] {
			continue
		}
		shown[n.ID] = true
		v.Nodes = append(v.Nodes, n.Clone())
	}

	for _, e := range st.Graph.Edges {
		if !shown[e.Source] || !shown[e.Target] {
			continue
		}
		switch e.Type {
		case edge.TypeCitation:
			if !st.Visibility.CitationEdges {
				continue
			}
		case edge.TypeSimilarity:
			if !st.Visibility.SimilarityEdges {
				continue
			}
		case edge.TypeGhost:
			if !st.Effects.GhostEdges {
				continue
			}
		}
		v.Edges = append(v.Edges, e)
	}

	for _, ce := range st.ConceptualEdges {
		if shown[ce.Source] && shown[ce.Target] {
			v.ConceptualEdges = append(v.ConceptualEdges, ce)
		}
	}

	if st.Effects.GhostEdges && st.Gaps != nil {
		for _, pe := range GhostEdges(st.Graph, st.Gaps.Gaps) {
			if shown[pe.Source] && shown[pe.Target] {
				v.GhostEdges = append(v.GhostEdges, pe)
			}
		}
	}

	for _, id := range st.HighlightedIDs() {
		if shown[id] {
			v.Highlighted = append(v.Highlighted, id)
		}
	}
	return v
}

package store

import (
	"maps"
	"slices"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/graph"
)

// Visibility holds the edge, hull and label toggles.
type Visibility struct {
	CitationEdges   bool `json:"citation_edges"`
	SimilarityEdges bool `json:"similarity_edges"`
	ClusterHulls    bool `json:"cluster_hulls"`
	Labels          bool `json:"labels"`
}

// Effects holds the optional visual-effect toggles.
type Effects struct {
	Bloom      bool `json:"bloom"`
	GhostEdges bool `json:"ghost_edges"`
	GapOverlay bool `json:"gap_overlay"`
	Particles  bool `json:"particles"`
}

// State is everything the store holds. Values returned by Store.Snapshot
// are deep copies and may be modified freely.
type State struct {
	Graph *graph.GraphData `json:"graph,omitempty"`

	SelectedPaper   string          `json:"selected_paper,omitempty"`
	SelectedCluster *int            `json:"selected_cluster,omitempty"`
	MultiSelect     []string        `json:"multi_select,omitempty"`
	Hovered         string          `json:"hovered,omitempty"`
	Highlighted     map[string]bool `json:"highlighted,omitempty"`
	HiddenClusters  map[int]bool    `json:"hidden_clusters,omitempty"`
	BridgeNodes     map[string]bool `json:"bridge_nodes,omitempty"`

	Visibility Visibility `json:"visibility"`
	Effects    Effects    `json:"effects"`

	Trends          *analysis.TrendAnalysis   `json:"trends,omitempty"`
	Gaps            *analysis.GapAnalysis     `json:"gaps,omitempty"`
	Chat            []analysis.ChatMessage    `json:"chat,omitempty"`
	WatchQueries    []analysis.WatchQuery     `json:"watch_queries,omitempty"`
	CitationIntents []analysis.CitationIntent `json:"citation_intents,omitempty"`
	LitReview       *analysis.LitReview       `json:"lit_review,omitempty"`
	ConceptualEdges []analysis.ConceptualEdge `json:"conceptual_edges,omitempty"`

	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// DefaultState returns the state of a freshly constructed store.
func DefaultState() State {
	return State{
		Visibility: Visibility{
			CitationEdges:   true,
			SimilarityEdges: true,
			ClusterHulls:    true,
			Labels:          true,
		},
		Effects: Effects{Bloom: true},
	}
}

// HasGraph reports whether a graph is loaded.
func (s State) HasGraph() bool {
	return s.Graph != nil
}

// IsHighlighted reports whether a paper is in the highlighted set.
func (s State) IsHighlighted(id string) bool {
	return s.Highlighted[id]
}

// IsClusterHidden reports whether a cluster is hidden.
func (s State) IsClusterHidden(id int) bool {
	return s.HiddenClusters[id]
}

// HighlightedIDs returns the highlighted paper ids in sorted order.
func (s State) HighlightedIDs() []string {
	return sortedSet(s.Highlighted)
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Graph = s.Graph.Clone()
	if s.SelectedCluster != nil {
		id := *s.SelectedCluster
		out.SelectedCluster = &id
	}
	out.MultiSelect = slices.Clone(s.MultiSelect)
	out.Highlighted = maps.Clone(s.Highlighted)
	out.HiddenClusters = maps.Clone(s.HiddenClusters)
	out.BridgeNodes = maps.Clone(s.BridgeNodes)
	out.Trends = s.Trends.Clone()
	out.Gaps = s.Gaps.Clone()
	out.LitReview = s.LitReview.Clone()
	out.Chat = analysis.CloneEach(s.Chat)
	out.WatchQueries = analysis.CloneEach(s.WatchQueries)
	out.CitationIntents = analysis.CloneEach(s.CitationIntents)
	out.ConceptualEdges = slices.Clone(s.ConceptualEdges)
	return out
}

func sortedSet(m map[string]bool) []string {
	ids := make([]string, 0, len(m))
	for id, ok := range m {
		if ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func toSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}

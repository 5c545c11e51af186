package graph

import (
	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/paper"
)

// MergeStats counts what a merge admitted and what it dropped.
type MergeStats struct {
	NodesAdded        int `json:"nodes_added"`
	EdgesAdded        int `json:"edges_added"`
	DuplicateNodes    int `json:"duplicate_nodes"`
	InvalidNodes      int `json:"invalid_nodes"`
	DuplicateEdges    int `json:"duplicate_edges"`
	OrphanedEdges     int `json:"orphaned_edges"`
	UnknownClusterRef int `json:"unknown_cluster_refs"` // Admitted as unclustered
}

// Dropped returns the number of incoming entries that were not admitted.
func (s MergeStats) Dropped() int {
	return s.DuplicateNodes + s.InvalidNodes + s.DuplicateEdges + s.OrphanedEdges
}

// Merge integrates an incoming subgraph into current and returns a new graph.
//
// Nodes whose id already exists are dropped and the existing node is kept
// untouched. Edges are deduplicated on the literal ordered key source|target;
// edges with an endpoint missing from the merged node set are dropped.
// Clusters are never merged. Meta.Total grows by the number of nodes added.
//
// Merge has no side effects and is idempotent: merging the same batch twice
// is a no-op the second time. Merging into a nil graph returns nil.
func Merge(current *GraphData, nodes []paper.Paper, edges []edge.Edge) (*GraphData, MergeStats) {
	var stats MergeStats
	if current == nil {
		return nil, stats
	}

	nodeIDs := paper.IDSet(current.Nodes)
	clusterIDs := cluster.IDSet(current.Clusters)

	merged := current.Clone()

	for _, n := range nodes {
		if n.ID == "" {
			stats.InvalidNodes++
			continue
		}
		if nodeIDs[n.ID] {
			stats.DuplicateNodes++
			continue
		}
		added := n.Clone()
		if added.ClusterID != paper.Unclustered && !clusterIDs[added.ClusterID] {
			added.ClusterID = paper.Unclustered
			added.ClusterLabel = ""
			stats.UnknownClusterRef++
		}
		nodeIDs[added.ID] = true
		merged.Nodes = append(merged.Nodes, added)
		stats.NodesAdded++
	}

	edgeKeys := edge.KeySet(current.Edges)
	for _, e := range edges {
		if !nodeIDs[e.Source] || !nodeIDs[e.Target] {
			stats.OrphanedEdges++
			continue
		}
		key := e.Key()
		if edgeKeys[key] {
			stats.DuplicateEdges++
			continue
		}
		edgeKeys[key] = true
		merged.Edges = append(merged.Edges, e)
		stats.EdgesAdded++
	}

	merged.Meta.Total = current.Meta.Total + stats.NodesAdded
	return merged, stats
}

// Normalize rebuilds a graph received from outside by merging its nodes and
// edges into an empty graph with the same clusters, so every invariant Merge
// guarantees also holds for fresh search results and loaded graphs. The
// incoming Meta is kept.
func Normalize(g *GraphData) (*GraphData, MergeStats) {
	if g == nil {
		return nil, MergeStats{}
	}
	base := &GraphData{
		Nodes:    []paper.Paper{},
		Edges:    []edge.Edge{},
		Clusters: g.Clusters,
	}
	out, stats := Merge(base, g.Nodes, g.Edges)
	out.Meta = g.Meta
	if out.Meta.Total < len(out.Nodes) {
		out.Meta.Total = len(out.Nodes)
	}
	return out, stats
}

package graph

import (
	"fmt"
	"sort"

	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/paper"
)

// Issue is a single integrity problem found in a graph.
type Issue struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Issue types reported by Check.
const (
	IssueDuplicateNode    = "duplicate_node"
	IssueInvalidNode      = "invalid_node"
	IssueDuplicateEdge    = "duplicate_edge"
	IssueOrphanedEdge     = "orphaned_edge"
	IssueInvalidEdge      = "invalid_edge"
	IssueDuplicateCluster = "duplicate_cluster"
	IssueUnknownCluster   = "unknown_cluster"
)

// Check verifies the graph invariants and returns every violation found.
// A nil graph has no issues.
func Check(g *GraphData) []Issue {
	if g == nil {
		return nil
	}

	var issues []Issue

	seen := make(map[string]int)
	for _, n := range g.Nodes {
		if err := n.Validate(); err != nil {
			issues = append(issues, Issue{Type: IssueInvalidNode, ID: n.ID, Reason: err.Error()})
		}
		seen[n.ID]++
	}
	for _, id := range sortedKeys(seen) {
		if seen[id] > 1 {
			issues = append(issues, Issue{
				Type:   IssueDuplicateNode,
				ID:     id,
				Reason: fmt.Sprintf("count=%d", seen[id]),
			})
		}
	}

	for _, id := range cluster.FindDuplicateIDs(g.Clusters) {
		issues = append(issues, Issue{Type: IssueDuplicateCluster, ID: fmt.Sprint(id)})
	}

	clusterIDs := cluster.IDSet(g.Clusters)
	for _, n := range g.Nodes {
		if n.ClusterID != paper.Unclustered && !clusterIDs[n.ClusterID] {
			issues = append(issues, Issue{
				Type:   IssueUnknownCluster,
				ID:     n.ID,
				Reason: fmt.Sprintf("references non-existent cluster %d", n.ClusterID),
			})
		}
	}

	for _, e := range g.Edges {
		if err := e.Validate(); err != nil {
			issues = append(issues, Issue{Type: IssueInvalidEdge, Source: e.Source, Target: e.Target, Reason: err.Error()})
		}
	}

	orphaned, _ := edge.DetectOrphanedEdges(g.Edges, paper.IDSet(g.Nodes))
	for _, o := range orphaned {
		issues = append(issues, Issue{
			Type:   IssueOrphanedEdge,
			Source: o.Source,
			Target: o.Target,
			Reason: o.Reason,
		})
	}

	dups := edge.FindDuplicateEdges(g.Edges)
	for _, key := range sortedKeys(dups) {
		issues = append(issues, Issue{
			Type:   IssueDuplicateEdge,
			ID:     key,
			Reason: fmt.Sprintf("count=%d", dups[key]),
		})
	}

	return issues
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

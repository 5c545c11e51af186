package viz

import (
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

// ClusterDensity is the intra-cluster edge count of one cluster, normalized
// against the densest cluster.
type ClusterDensity struct {
	ClusterID  int     `json:"cluster_id"`
	Label      string  `json:"label"`
	IntraEdges int     `json:"intra_edges"`
	Ratio      float64 `json:"ratio"`
}

// ClusterDensities returns one entry per cluster, in cluster order.
// Edges between unclustered nodes never count. Ratios lie in [0,1] and the
// densest cluster has ratio 1 whenever any intra-cluster edge exists.
func ClusterDensities(g *graph.GraphData) []ClusterDensity {
	if g == nil {
		return nil
	}

	lookup := g.ClusterLookup()
	counts := make(map[int]int)
	for _, e := range g.Edges {
		src, ok := lookup[e.Source]
		if !ok || src == paper.Unclustered {
			continue
		}
		if dst, ok := lookup[e.Target]; ok && dst == src {
			counts[src]++
		}
	}

	maxCount := 1
	for _, c := range g.Clusters {
		if counts[c.ID] > maxCount {
			maxCount = counts[c.ID]
		}
	}

	out := make([]ClusterDensity, 0, len(g.Clusters))
	for _, c := range g.Clusters {
		n := counts[c.ID]
		out = append(out, ClusterDensity{
			ClusterID:  c.ID,
			Label:      c.Label,
			IntraEdges: n,
			Ratio:      float64(n) / float64(maxCount),
		})
	}
	return out
}

package viz

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/matsen/scholargraph/internal/graph"
)

// DefaultTopN is the number of ranked papers reported by ComputeStats.
const DefaultTopN = 5

// Stats summarizes the connectivity of a graph.
type Stats struct {
	Nodes         int          `json:"nodes"`
	Edges         int          `json:"edges"`
	Clusters      int          `json:"clusters"`
	Unclustered   int          `json:"unclustered"`
	Components    int          `json:"components"`
	LargestComp   int          `json:"largest_component"`
	Isolated      []string     `json:"isolated,omitempty"`
	TopDegree     []RankedNode `json:"top_degree,omitempty"`
	TopPageRank   []RankedNode `json:"top_pagerank,omitempty"`
	SelfLoopEdges int          `json:"self_loop_edges,omitempty"`
}

// RankedNode is a paper with a centrality score.
type RankedNode struct {
	ID    string  `json:"id"`
	Title string  `json:"title,omitempty"`
	Score float64 `json:"score"`
}

// ComputeStats builds directed and undirected views of the graph and reports
// component structure, degree and PageRank leaders. Self-loops are counted
// but not added to the gonum graphs, which reject them.
func ComputeStats(g *graph.GraphData, topN int) Stats {
	if g == nil {
		return Stats{}
	}
	if topN <= 0 {
		topN = DefaultTopN
	}

	st := Stats{
		Nodes:    len(g.Nodes),
		Edges:    len(g.Edges),
		Clusters: len(g.Clusters),
	}

	ids := make(map[string]int64, len(g.Nodes))
	names := make([]string, len(g.Nodes))
	undirected := simple.NewUndirectedGraph()
	directed := simple.NewDirectedGraph()
	for i, n := range g.Nodes {
		if !n.IsClustered() {
			st.Unclustered++
		}
		if _, dup := ids[n.ID]; dup {
			continue
		}
		id := int64(i)
		ids[n.ID] = id
		names[i] = n.ID
		undirected.AddNode(simple.Node(id))
		directed.AddNode(simple.Node(id))
	}

	degree := make(map[int64]int, len(ids))
	for _, e := range g.Edges {
		u, okU := ids[e.Source]
		v, okV := ids[e.Target]
		if !okU || !okV {
			continue
		}
		if u == v {
			st.SelfLoopEdges++
			continue
		}
		if !undirected.HasEdgeBetween(u, v) {
			undirected.SetEdge(undirected.NewEdge(undirected.Node(u), undirected.Node(v)))
		}
		directed.SetEdge(directed.NewEdge(directed.Node(u), directed.Node(v)))
		degree[u]++
		degree[v]++
	}

	for _, comp := range topo.ConnectedComponents(undirected) {
		st.Components++
		st.LargestComp = max(st.LargestComp, len(comp))
		if len(comp) == 1 {
			st.Isolated = append(st.Isolated, names[comp[0].ID()])
		}
	}
	slices.Sort(st.Isolated)

	titles := make(map[string]string, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, ok := titles[n.ID]; !ok {
			titles[n.ID] = n.Title
		}
	}

	var byDegree []RankedNode
	for id, d := range degree {
		byDegree = append(byDegree, RankedNode{ID: names[id], Title: titles[names[id]], Score: float64(d)})
	}
	st.TopDegree = topRanked(byDegree, topN)

	if directed.Edges().Len() > 0 {
		var byRank []RankedNode
		for id, score := range network.PageRank(directed, 0.85, 1e-6) {
			byRank = append(byRank, RankedNode{ID: names[id], Title: titles[names[id]], Score: score})
		}
		st.TopPageRank = topRanked(byRank, topN)
	}
	return st
}

func topRanked(nodes []RankedNode, n int) []RankedNode {
	slices.SortFunc(nodes, func(a, b RankedNode) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(nodes) > n {
		nodes = nodes[:n]
	}
	return nodes
}

package session

import (
	"math"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

// Ring placement for expanded papers. References sit on a ring below the
// parent and citing papers on a ring above it.
const (
	ExpandRadius = 4.0
	ExpandLift   = 1.5
)

// ExpandSubgraph converts the neighbours of parent into nodes and citation
// edges ready for merging. Edges always point from the citing paper to the
// cited one. New nodes inherit the parent's cluster.
func ExpandSubgraph(parent paper.Paper, res *client.ExpandResult) ([]paper.Paper, []edge.Edge) {
	if res == nil {
		return nil, nil
	}

	nodes := make([]paper.Paper, 0, len(res.References)+len(res.Citations))
	edges := make([]edge.Edge, 0, len(res.References)+len(res.Citations))

	for i, cp := range res.References {
		nodes = append(nodes, ringNode(parent, cp, i, len(res.References), -ExpandLift))
		edges = append(edges, citation(parent.ID, cp.PaperID))
	}
	for i, cp := range res.Citations {
		nodes = append(nodes, ringNode(parent, cp, i, len(res.Citations), ExpandLift))
		edges = append(edges, citation(cp.PaperID, parent.ID))
	}
	return nodes, edges
}

// ringNode places the i-th of n papers on a ring around parent.
// The angle depends only on i and n so repeated expansions agree.
func ringNode(parent paper.Paper, cp client.CitationPaper, i, n int, lift float64) paper.Paper {
	angle := 2 * math.Pi * float64(i) / float64(n)
	return paper.Paper{
		ID:            cp.PaperID,
		S2PaperID:     cp.PaperID,
		DOI:           cp.DOI,
		Title:         cp.Title,
		Year:          cp.Year,
		Venue:         cp.Venue,
		CitationCount: cp.CitationCount,
		IsOpenAccess:  cp.IsOpenAccess,
		X:             parent.X + ExpandRadius*math.Cos(angle),
		Y:             parent.Y + ExpandRadius*math.Sin(angle),
		Z:             parent.Z + lift,
		ClusterID:     parent.ClusterID,
		ClusterLabel:  parent.ClusterLabel,
	}
}

func citation(citing, cited string) edge.Edge {
	return edge.Edge{Source: citing, Target: cited, Type: edge.TypeCitation, Weight: 1}
}

// aliases maps the Semantic Scholar id of every node whose graph id differs
// from it to the graph id.
func aliases(g *graph.GraphData) map[string]string {
	if g == nil {
		return nil
	}
	m := make(map[string]string)
	for _, n := range g.Nodes {
		if n.S2PaperID != "" && n.S2PaperID != n.ID {
			m[n.S2PaperID] = n.ID
		}
	}
	return m
}

// ResolveAliases rewrites incoming ids that name a paper already in g by
// its Semantic Scholar id, so the merge sees such papers as duplicates of
// the existing node. Edges are rewritten to match and edges that collapse
// onto a single paper are dropped.
func ResolveAliases(g *graph.GraphData, nodes []paper.Paper, edges []edge.Edge) ([]paper.Paper, []edge.Edge) {
	alias := aliases(g)
	if len(alias) == 0 {
		return nodes, edges
	}
	resolve := func(id string) string {
		if to, ok := alias[id]; ok {
			return to
		}
		return id
	}

	outNodes := make([]paper.Paper, len(nodes))
	for i, n := range nodes {
		n.ID = resolve(n.ID)
		outNodes[i] = n
	}
	outEdges := make([]edge.Edge, 0, len(edges))
	for _, e := range edges {
		e.Source, e.Target = resolve(e.Source), resolve(e.Target)
		if e.Source == e.Target {
			continue
		}
		outEdges = append(outEdges, e)
	}
	return outNodes, outEdges
}

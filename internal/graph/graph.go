// Package graph holds the aggregate paper graph and its merge engine.
package graph

import (
	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/paper"
)

// GraphData is the only mutable source of truth for topology.
// Everything else held next to it is derived or overlay state.
type GraphData struct {
	Nodes    []paper.Paper     `json:"nodes"`
	Edges    []edge.Edge       `json:"edges"`
	Clusters []cluster.Cluster `json:"clusters"`
	Meta     Meta              `json:"meta"`
}

// Meta records where the graph came from.
type Meta struct {
	Total       int    `json:"total"`
	Query       string `json:"query,omitempty"`
	CreditsUsed int    `json:"credits_used,omitempty"` // External API credit usage counter
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}

// Clone returns a deep copy of the graph. Clone of nil is nil.
func (g *GraphData) Clone() *GraphData {
	if g == nil {
		return nil
	}
	out := &GraphData{
		Nodes:    make([]paper.Paper, len(g.Nodes)),
		Edges:    append([]edge.Edge(nil), g.Edges...),
		Clusters: make([]cluster.Cluster, len(g.Clusters)),
		Meta:     g.Meta,
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, c := range g.Clusters {
		out.Clusters[i] = c.Clone()
	}
	return out
}

// NodeByID returns the node with the given id.
func (g *GraphData) NodeByID(id string) (paper.Paper, bool) {
	if g == nil {
		return paper.Paper{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return paper.Paper{}, false
}

// ClusterByID returns the cluster with the given id.
func (g *GraphData) ClusterByID(id int) (cluster.Cluster, bool) {
	if g == nil {
		return cluster.Cluster{}, false
	}
	for _, c := range g.Clusters {
		if c.ID == id {
			return c, true
		}
	}
	return cluster.Cluster{}, false
}

// HasNode reports whether a node with the given id exists.
func (g *GraphData) HasNode(id string) bool {
	_, ok := g.NodeByID(id)
	return ok
}

// ClusterLookup maps every node id to its cluster id.
func (g *GraphData) ClusterLookup() map[string]int {
	if g == nil {
		return map[string]int{}
	}
	lookup := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		lookup[n.ID] = n.ClusterID
	}
	return lookup
}

// NodeIDs returns the node ids in graph order.
func (g *GraphData) NodeIDs() []string {
	if g == nil {
		return nil
	}
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

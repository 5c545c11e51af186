package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// Record kinds in a graph JSONL file.
const (
	KindMeta    = "meta"
	KindCluster = "cluster"
	KindNode    = "node"
	KindEdge    = "edge"
)

// record is one line of a graph JSONL file.
type record struct {
	Kind    string           `json:"kind"`
	Meta    *graph.Meta      `json:"meta,omitempty"`
	Cluster *cluster.Cluster `json:"cluster,omitempty"`
	Node    *paper.Paper     `json:"node,omitempty"`
	Edge    *edge.Edge       `json:"edge,omitempty"`
}

// WriteGraphJSONL writes a graph as one record per line: the meta record,
// then clusters, nodes and edges.
func WriteGraphJSONL(path string, g *graph.GraphData) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating graph file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)

	write := func(r record) error {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding %s record: %w", r.Kind, err)
		}
		return nil
	}

	if err := write(record{Kind: KindMeta, Meta: &g.Meta}); err != nil {
		return err
	}
	for i := range g.Clusters {
		if err := write(record{Kind: KindCluster, Cluster: &g.Clusters[i]}); err != nil {
			return err
		}
	}
	for i := range g.Nodes {
		if err := write(record{Kind: KindNode, Node: &g.Nodes[i]}); err != nil {
			return err
		}
	}
	for i := range g.Edges {
		if err := write(record{Kind: KindEdge, Edge: &g.Edges[i]}); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing graph file: %w", err)
	}
	return f.Close()
}

// ReadGraphJSONL reads a graph written by WriteGraphJSONL. Nodes and edges
// pass through the merge engine, so duplicates and orphaned edges are
// dropped and counted in the returned stats. Records may appear in any
// order.
func ReadGraphJSONL(path string) (*graph.GraphData, graph.MergeStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, graph.MergeStats{}, fmt.Errorf("opening graph file: %w", err)
	}
	defer f.Close()

	raw := &graph.GraphData{}
	scanner := bufio.NewScanner(f)

	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var r record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, graph.MergeStats{}, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		switch {
		case r.Kind == KindMeta && r.Meta != nil:
			raw.Meta = *r.Meta
		case r.Kind == KindCluster && r.Cluster != nil:
			raw.Clusters = append(raw.Clusters, *r.Cluster)
		case r.Kind == KindNode && r.Node != nil:
			raw.Nodes = append(raw.Nodes, *r.Node)
		case r.Kind == KindEdge && r.Edge != nil:
			raw.Edges = append(raw.Edges, *r.Edge)
		default:
			return nil, graph.MergeStats{}, fmt.Errorf("line %d: unknown or empty record kind %q", lineNum, r.Kind)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, graph.MergeStats{}, fmt.Errorf("reading graph file: %w", err)
	}

	g, stats := graph.Normalize(raw)
	return g, stats, nil
}

// Package edge defines the core domain types for paper graph edges.
package edge

import (
	"errors"
	"math"
)

// Type tags the kind of relation an edge represents.
type Type string

// Edge types.
const (
	TypeCitation   Type = "citation"
	TypeSimilarity Type = "similarity"
	TypeGhost      Type = "ghost" // derived from gap analysis potential edges
)

// KeySeparator joins source and target ids into an edge key.
const KeySeparator = "|"

// Edge represents a directed relation between two papers.
type Edge struct {
	// Identity: the literal ordered (Source, Target) pair
	Source string `json:"source"`
	Target string `json:"target"`

	Type   Type    `json:"type"`
	Intent string  `json:"intent,omitempty"` // methodology, background, result_comparison, ...
	Weight float64 `json:"weight"`
}

// Validation errors.
var (
	ErrEmptySource   = errors.New("source is required")
	ErrEmptyTarget   = errors.New("target is required")
	ErrInvalidType   = errors.New("type must be citation, similarity or ghost")
	ErrWeightOutside = errors.New("weight must be within [0,1]")
)

// Validate checks the structural requirements of an edge.
// Whether the endpoints exist is a graph-level check.
func (e *Edge) Validate() error {
	if e.Source == "" {
		return ErrEmptySource
	}
	if e.Target == "" {
		return ErrEmptyTarget
	}
	switch e.Type {
	case TypeCitation, TypeSimilarity, TypeGhost:
	default:
		return ErrInvalidType
	}
	if math.IsNaN(e.Weight) || e.Weight < 0 || e.Weight > 1 {
		return ErrWeightOutside
	}
	return nil
}

// Key returns the dedup key of this edge.
// Ordering is not canonicalized: (a,b) and (b,a) have different keys.
func (e *Edge) Key() string {
	return Key(e.Source, e.Target)
}

// Key builds the dedup key for an ordered pair.
func Key(source, target string) string {
	return source + KeySeparator + target
}

// KeySet builds the set of keys of the given edges.
func KeySet(edges []Edge) map[string]bool {
	keys := make(map[string]bool, len(edges))
	for _, e := range edges {
		keys[e.Key()] = true
	}
	return keys
}

// OrphanedEdgeInfo contains information about an edge with missing endpoints.
type OrphanedEdgeInfo struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Reason string `json:"reason"` // "missing_source", "missing_target", or "missing_both"
}

// DetectOrphanedEdges finds edges that reference papers not in the valid ID set.
// Returns orphaned edges with their reasons and the list of valid edges.
func DetectOrphanedEdges(edges []Edge, validIDs map[string]bool) (orphaned []OrphanedEdgeInfo, valid []Edge) {
	for _, e := range edges {
		sourceOK := validIDs[e.Source]
		targetOK := validIDs[e.Target]

		if sourceOK && targetOK {
			valid = append(valid, e)
			continue
		}

		info := OrphanedEdgeInfo{Source: e.Source, Target: e.Target}
		switch {
		case !sourceOK && !targetOK:
			info.Reason = "missing_both"
		case !sourceOK:
			info.Reason = "missing_source"
		default:
			info.Reason = "missing_target"
		}
		orphaned = append(orphaned, info)
	}
	return orphaned, valid
}

// FindDuplicateEdges finds edge keys that appear more than once in the list.
// Returns a map of key to count for keys that appear more than once.
func FindDuplicateEdges(edges []Edge) map[string]int {
	counts := make(map[string]int)
	for _, e := range edges {
		counts[e.Key()]++
	}

	duplicates := make(map[string]int)
	for key, count := range counts {
		if count > 1 {
			duplicates[key] = count
		}
	}
	return duplicates
}

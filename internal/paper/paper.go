// Package paper defines the core domain type for research paper nodes.
package paper

import "errors"

// Unclustered is the cluster id of a paper that belongs to no cluster.
const Unclustered = -1

// Paper represents a research paper positioned in 3-D layout space.
type Paper struct {
	// Identity
	ID        string `json:"id"`                    // Stable backend-assigned identifier
	S2PaperID string `json:"s2_paper_id,omitempty"` // Semantic Scholar id (may alias ID)
	DOI       string `json:"doi,omitempty"`

	// Metadata
	Title         string   `json:"title"`
	Year          int      `json:"year,omitempty"`
	Venue         string   `json:"venue,omitempty"`
	CitationCount int      `json:"citation_count"`
	Abstract      string   `json:"abstract,omitempty"`
	TLDR          string   `json:"tldr,omitempty"`
	Fields        []string `json:"fields,omitempty"`
	Authors       []Author `json:"authors,omitempty"`
	Topics        []Topic  `json:"topics,omitempty"`

	// Open access
	IsOpenAccess bool   `json:"is_open_access"`
	OAURL        string `json:"oa_url,omitempty"`

	// Layout (supplied by the backend, never computed here)
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// Grouping
	ClusterID    int    `json:"cluster_id"`
	ClusterLabel string `json:"cluster_label,omitempty"`
	IsBridge     bool   `json:"is_bridge,omitempty"`
}

// Author is a paper author as returned by the search backend.
type Author struct {
	Name     string `json:"name"`
	AuthorID string `json:"author_id,omitempty"`
}

// Topic is a topic tag with a relevance score.
type Topic struct {
	ID          string  `json:"id,omitempty"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

// Validation errors.
var (
	ErrEmptyID          = errors.New("paper id is required")
	ErrInvalidClusterID = errors.New("cluster_id must be -1 or a non-negative cluster id")
)

// Validate checks the structural requirements of a paper.
// Whether the cluster id references an existing cluster is a graph-level check.
func (p *Paper) Validate() error {
	if p.ID == "" {
		return ErrEmptyID
	}
	if p.ClusterID < Unclustered {
		return ErrInvalidClusterID
	}
	return nil
}

// IsClustered reports whether the paper belongs to a cluster.
func (p *Paper) IsClustered() bool {
	return p.ClusterID != Unclustered
}

// BackendID returns the id the search backend knows the paper by. Search
// results number their nodes and keep the Semantic Scholar id aside, so
// that id wins when present.
func (p *Paper) BackendID() string {
	if p.S2PaperID != "" {
		return p.S2PaperID
	}
	return p.ID
}

// Position returns the paper's layout coordinates.
func (p *Paper) Position() (x, y, z float64) {
	return p.X, p.Y, p.Z
}

// Clone returns a deep copy of the paper.
func (p Paper) Clone() Paper {
	c := p
	if p.Fields != nil {
		c.Fields = append([]string(nil), p.Fields...)
	}
	if p.Authors != nil {
		c.Authors = append([]Author(nil), p.Authors...)
	}
	if p.Topics != nil {
		c.Topics = append([]Topic(nil), p.Topics...)
	}
	return c
}

// IDSet builds a set of the given papers' ids.
func IDSet(papers []Paper) map[string]bool {
	ids := make(map[string]bool, len(papers))
	for _, p := range papers {
		ids[p.ID] = true
	}
	return ids
}

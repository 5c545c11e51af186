// Package cluster defines the topic grouping produced by the backend clusterer.
package cluster

import "errors"

// DefaultColor is used when the backend sends a cluster without a color.
const DefaultColor = "#888888"

// Cluster is a backend-assigned topical grouping of papers.
// The core never creates or splits clusters.
type Cluster struct {
	ID         int         `json:"id"`
	Label      string      `json:"label"`
	Topics     []string    `json:"topics,omitempty"`
	PaperCount int         `json:"paper_count"`           // Cached count, not validated
	HullPoints [][]float64 `json:"hull_points,omitempty"` // Convex hull for rendering
	Color      string      `json:"color,omitempty"`
}

// Validation errors.
var (
	ErrNegativeID  = errors.New("cluster id must be non-negative")
	ErrDuplicateID = errors.New("cluster with this id already exists")
)

// Validate checks the structural requirements of a cluster.
func (c *Cluster) Validate() error {
	if c.ID < 0 {
		return ErrNegativeID
	}
	return nil
}

// DisplayColor returns the cluster color, falling back to DefaultColor.
func (c *Cluster) DisplayColor() string {
	if c.Color == "" {
		return DefaultColor
	}
	return c.Color
}

// Clone returns a deep copy of the cluster.
func (c Cluster) Clone() Cluster {
	out := c
	if c.Topics != nil {
		out.Topics = append([]string(nil), c.Topics...)
	}
	if c.HullPoints != nil {
		out.HullPoints = make([][]float64, len(c.HullPoints))
		for i, pt := range c.HullPoints {
			out.HullPoints[i] = append([]float64(nil), pt...)
		}
	}
	return out
}

// IDSet builds the set of ids of the given clusters.
func IDSet(clusters []Cluster) map[int]bool {
	ids := make(map[int]bool, len(clusters))
	for _, c := range clusters {
		ids[c.ID] = true
	}
	return ids
}

// FindDuplicateIDs returns cluster ids that appear more than once.
func FindDuplicateIDs(clusters []Cluster) []int {
	seen := make(map[int]int)
	var dups []int
	for _, c := range clusters {
		seen[c.ID]++
		if seen[c.ID] == 2 {
			dups = append(dups, c.ID)
		}
	}
	return dups
}

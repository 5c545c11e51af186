package graph

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyName is returned when saving a graph without a name.
	ErrEmptyName = errors.New("saved graph name is required")

	// ErrSavedNotFound is returned when no saved graph has the requested id.
	ErrSavedNotFound = errors.New("saved graph not found")
)

// SavedSummary describes a saved graph without its contents.
type SavedSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SeedQuery  string    `json:"seed_query,omitempty"`
	PaperCount int       `json:"paper_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Saved is a named snapshot of a graph. A loaded graph is treated exactly
// like a fresh search result.
type Saved struct {
	SavedSummary
	Graph *GraphData `json:"graph"`
}

// ValidateName trims and checks a saved-graph name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

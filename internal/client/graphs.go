package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/graph"
)

// graphWire is a saved graph as the backend stores it. The graph itself
// travels inside layout_state.
type graphWire struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	SeedQuery   string       `json:"seed_query,omitempty"`
	PaperCount  int          `json:"paper_count"`
	CreatedAt   string       `json:"created_at,omitempty"`
	UpdatedAt   string       `json:"updated_at,omitempty"`
	PaperIDs    []string     `json:"paper_ids,omitempty"`
	LayoutState *layoutState `json:"layout_state,omitempty"`
}

type layoutState struct {
	Graph *graph.GraphData `json:"graph"`
}

func (w graphWire) summary() graph.SavedSummary {
	s := graph.SavedSummary{
		ID:         w.ID,
		Name:       w.Name,
		SeedQuery:  w.SeedQuery,
		PaperCount: w.PaperCount,
	}
	// Unparseable timestamps are left zero rather than failing the listing.
	if t, err := analysis.ParseTimestamp(w.CreatedAt); err == nil {
		s.CreatedAt = t
	}
	if t, err := analysis.ParseTimestamp(w.UpdatedAt); err == nil {
		s.UpdatedAt = t
	}
	return s
}

// ListGraphs lists the saved graphs of the current user.
func (c *Client) ListGraphs(ctx context.Context) ([]graph.SavedSummary, error) {
	var wire []graphWire
	if err := c.doJSON(ctx, http.MethodGet, "/api/graphs", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]graph.SavedSummary, 0, len(wire))
	for _, w := range wire {
		if w.ID == "" {
			continue
		}
		out = append(out, w.summary())
	}
	return out, nil
}

// SaveGraph stores a graph under a name.
func (c *Client) SaveGraph(ctx context.Context, name string, g *graph.GraphData) (*graph.Saved, error) {
	name, err := graph.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("saving %q: no graph loaded", name)
	}

	req := graphWire{
		Name:        name,
		SeedQuery:   g.Meta.Query,
		PaperIDs:    g.NodeIDs(),
		LayoutState: &layoutState{Graph: g},
	}
	var resp graphWire
	if err := c.doJSON(ctx, http.MethodPost, "/api/graphs", req, &resp); err != nil {
		return nil, err
	}
	return c.toSaved(resp, g)
}

// LoadGraph fetches a saved graph by id.
func (c *Client) LoadGraph(ctx context.Context, id string) (*graph.Saved, error) {
	var resp graphWire
	if err := c.doJSON(ctx, http.MethodGet, "/api/graphs/"+url.PathEscape(id), nil, &resp); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: graph %s", ErrNotFound, id)
		}
		return nil, err
	}
	return c.toSaved(resp, nil)
}

// UpdateGraph replaces the contents of a saved graph with g and renames it
// when name is not empty.
func (c *Client) UpdateGraph(ctx context.Context, id, name string, g *graph.GraphData) (*graph.Saved, error) {
	if g == nil {
		return nil, fmt.Errorf("updating graph %s: no graph loaded", id)
	}
	req := struct {
		Name        string       `json:"name,omitempty"`
		PaperIDs    []string     `json:"paper_ids"`
		LayoutState *layoutState `json:"layout_state"`
	}{name, g.NodeIDs(), &layoutState{Graph: g}}

	var resp graphWire
	if err := c.doJSON(ctx, http.MethodPut, "/api/graphs/"+url.PathEscape(id), req, &resp); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: graph %s", ErrNotFound, id)
		}
		return nil, err
	}
	return c.toSaved(resp, g)
}

// DeleteGraph deletes a saved graph.
func (c *Client) DeleteGraph(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/graphs/"+url.PathEscape(id), nil)
	if IsNotFound(err) {
		return fmt.Errorf("%w: graph %s", ErrNotFound, id)
	}
	return err
}

// toSaved converts a backend record, falling back to the graph that was
// just sent when the backend does not echo layout_state.
func (c *Client) toSaved(w graphWire, sent *graph.GraphData) (*graph.Saved, error) {
	g := sent
	if w.LayoutState != nil && w.LayoutState.Graph != nil {
		g = w.LayoutState.Graph
	}
	if g == nil {
		return nil, fmt.Errorf("%w: graph %s has no layout_state.graph", ErrInvalidResponse, w.ID)
	}

	normalized, stats := graph.Normalize(g)
	if stats.Dropped() > 0 {
		c.logger.Warn("saved graph had invalid entries", "id", w.ID, "dropped", stats.Dropped())
	}
	return &graph.Saved{SavedSummary: w.summary(), Graph: normalized}, nil
}

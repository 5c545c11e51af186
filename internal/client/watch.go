package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/matsen/scholargraph/internal/analysis"
)

// ListWatchQueries lists the current user's watch queries.
func (c *Client) ListWatchQueries(ctx context.Context) ([]analysis.WatchQuery, analysis.Quarantine, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/watch", nil)
	if err != nil {
		return nil, analysis.Quarantine{}, err
	}
	qs, q, err := analysis.ParseWatchQueries(data)
	if err != nil {
		return nil, q, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	c.logQuarantine("watch_queries", q)
	return qs, q, nil
}

// CreateWatchQuery registers a query the backend re-runs periodically.
func (c *Client) CreateWatchQuery(ctx context.Context, query string, filters map[string]any, notifyEmail bool) (analysis.WatchQuery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return analysis.WatchQuery{}, fmt.Errorf("watch query must not be empty")
	}
	body := struct {
		Query       string         `json:"query"`
		Filters     map[string]any `json:"filters,omitempty"`
		NotifyEmail bool           `json:"notify_email"`
	}{query, filters, notifyEmail}

	data, err := c.do(ctx, http.MethodPost, "/api/watch", body)
	if err != nil {
		return analysis.WatchQuery{}, err
	}
	wq, err := analysis.ParseWatchQuery(data)
	if err != nil {
		return analysis.WatchQuery{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	return wq, nil
}

// DeleteWatchQuery removes a watch query.
func (c *Client) DeleteWatchQuery(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/watch/"+url.PathEscape(id), nil)
	if IsNotFound(err) {
		return fmt.Errorf("%w: watch query %s", ErrNotFound, id)
	}
	return err
}

// CheckWatchQueries runs every watch query of the current user now.
func (c *Client) CheckWatchQueries(ctx context.Context) (analysis.WatchCheck, error) {
	var res analysis.WatchCheck
	if err := c.doJSON(ctx, http.MethodPost, "/api/watch/check", nil, &res); err != nil {
		return analysis.WatchCheck{}, err
	}
	return res, nil
}

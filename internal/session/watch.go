package session

import (
	"context"
	"strings"

	"github.com/matsen/scholargraph/internal/analysis"
)

// RefreshWatchQueries replaces the stored watch queries with the backend's.
// Watch queries do not depend on the graph.
func (s *Session) RefreshWatchQueries(ctx context.Context) ([]analysis.WatchQuery, error) {
	const mode = replaces
	t := s.begin(ChannelWatch)
	defer s.end(t)

	qs, q, err := s.backend.ListWatchQueries(ctx)
	if err != nil {
		return nil, s.fail(t, mode, "list watch queries", err)
	}
	s.logQuarantine("watch_queries", q)
	if err := s.commit(t, mode, func() { s.store.SetWatchQueries(qs) }); err != nil {
		return nil, err
	}
	return qs, nil
}

// CreateWatchQuery registers a new watch query and adds it to the store.
func (s *Session) CreateWatchQuery(ctx context.Context, query string, filters map[string]any, notifyEmail bool) (analysis.WatchQuery, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return analysis.WatchQuery{}, ErrEmptyQuery
	}
	t := s.begin(ChannelWatch)
	defer s.end(t)

	wq, err := s.backend.CreateWatchQuery(ctx, query, filters, notifyEmail)
	if err != nil {
		return analysis.WatchQuery{}, s.fail(t, 0, "create watch query", err)
	}
	if err := s.commit(t, 0, func() { s.store.AddWatchQuery(wq) }); err != nil {
		return analysis.WatchQuery{}, err
	}
	return wq, nil
}

// DeleteWatchQuery removes a watch query remotely and from the store.
func (s *Session) DeleteWatchQuery(ctx context.Context, id string) error {
	t := s.begin(ChannelWatch)
	defer s.end(t)

	if err := s.backend.DeleteWatchQuery(ctx, id); err != nil {
		return s.fail(t, 0, "delete watch query", err)
	}
	return s.commit(t, 0, func() { s.store.RemoveWatchQuery(id) })
}

// CheckWatchQueries asks the backend to re-run every watch query now and
// then reloads the list so new-paper counts are current.
func (s *Session) CheckWatchQueries(ctx context.Context) (analysis.WatchCheck, error) {
	const mode = replaces
	t := s.begin(ChannelWatch)
	defer s.end(t)

	res, err := s.backend.CheckWatchQueries(ctx)
	if err != nil {
		return analysis.WatchCheck{}, s.fail(t, mode, "check watch queries", err)
	}
	qs, q, err := s.backend.ListWatchQueries(ctx)
	if err != nil {
		return res, s.fail(t, mode, "list watch queries", err)
	}
	s.logQuarantine("watch_queries", q)
	if err := s.commit(t, mode, func() { s.store.SetWatchQueries(qs) }); err != nil {
		return res, err
	}
	s.logger.Info("watch queries checked", "queries", res.TotalQueries, "new_papers", res.NewPapersFound)
	return res, nil
}

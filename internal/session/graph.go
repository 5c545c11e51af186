package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/graph"
)

// ErrEmptyQuery is returned when a search or watch query is blank.
var ErrEmptyQuery = errors.New("query is required")

// Search runs a query and installs the result as the new graph.
func (s *Session) Search(ctx context.Context, query string, opts client.SearchOptions) (*graph.GraphData, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	return s.replaceGraph(ctx, "search", query, func() (*graph.GraphData, error) {
		return s.backend.Search(ctx, query, opts)
	})
}

// NaturalSearch runs a free-form question through the backend's query
// parser and installs the result like Search. The LLM key is forwarded only
// when the configured provider is Groq, the one parser the backend supports.
func (s *Session) NaturalSearch(ctx context.Context, query string, limit int) (*graph.GraphData, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	opts := client.NaturalSearchOptions{Limit: limit}
	if strings.EqualFold(s.llm.Provider, client.ProviderGroq) {
		opts.GroqAPIKey = s.llm.APIKey
	}
	return s.replaceGraph(ctx, "natural search", query, func() (*graph.GraphData, error) {
		return s.backend.NaturalSearch(ctx, query, opts)
	})
}

// SeedExplore builds a graph around a single seed paper and installs it
// like a search result.
func (s *Session) SeedExplore(ctx context.Context, opts client.SeedOptions) (*graph.GraphData, error) {
	opts.PaperID = strings.TrimSpace(opts.PaperID)
	if opts.PaperID == "" {
		return nil, ErrEmptyQuery
	}
	return s.replaceGraph(ctx, "seed explore", SeedQuery(opts.PaperID), func() (*graph.GraphData, error) {
		return s.backend.SeedExplore(ctx, opts)
	})
}

// SeedQuery is the query recorded for a graph grown from a seed paper.
func SeedQuery(paperID string) string {
	return "seed:" + paperID
}

// replaceGraph fetches a graph on the search channel and installs it. The
// latest of all graph-replacing requests wins.
func (s *Session) replaceGraph(ctx context.Context, op, query string, fetch func() (*graph.GraphData, error)) (*graph.GraphData, error) {
	const mode = replaces | replacesGraph
	t := s.begin(ChannelSearch)
	defer s.end(t)

	g, err := fetch()
	if err != nil {
		return nil, s.fail(t, mode, op, err)
	}
	if g.Meta.Query == "" {
		g.Meta.Query = query
	}
	if err := s.commit(t, mode, func() { s.store.SetGraphData(g) }); err != nil {
		return nil, err
	}
	s.logger.Info("graph replaced", "op", op, "query", g.Meta.Query, "nodes", len(g.Nodes), "edges", len(g.Edges))
	return g, nil
}

// Expand fetches the references and citations of a paper in the graph and
// merges them in. Expansions are additive, so concurrent expansions all
// apply unless the graph was replaced in the meantime. A limit of zero
// leaves the page size to the backend.
func (s *Session) Expand(ctx context.Context, paperID string, limit int) (graph.MergeStats, error) {
	const mode = graphScoped
	t, st := s.beginOnState(ChannelExpand)
	defer s.end(t)

	if !st.HasGraph() {
		return graph.MergeStats{}, ErrNoGraph
	}
	parent, ok := st.Graph.NodeByID(paperID)
	if !ok {
		return graph.MergeStats{}, fmt.Errorf("%w: %s", ErrUnknownPaper, paperID)
	}

	res, err := s.backend.Expand(ctx, parent.BackendID(), limit)
	if err != nil {
		return graph.MergeStats{}, s.fail(t, mode, "expand", err)
	}

	nodes, edges := ExpandSubgraph(parent, res)
	var stats graph.MergeStats
	err = s.commit(t, mode, func() {
		nodes, edges := ResolveAliases(s.store.Graph(), nodes, edges)
		stats = s.store.AddNodes(nodes, edges)
	})
	if err != nil {
		return graph.MergeStats{}, err
	}
	s.logger.Info("expand committed",
		"paper", paperID,
		"backend_id", parent.BackendID(),
		"nodes_added", stats.NodesAdded,
		"edges_added", stats.EdgesAdded,
		"dropped", stats.Dropped())
	return stats, nil
}

func (s *Session) repository() (GraphRepository, error) {
	if s.graphs == nil {
		return nil, ErrNoRepository
	}
	return s.graphs, nil
}

// ListSaved lists saved graphs.
func (s *Session) ListSaved(ctx context.Context) ([]graph.SavedSummary, error) {
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}
	t := s.begin(ChannelGraphs)
	defer s.end(t)

	list, err := repo.ListGraphs(ctx)
	if err != nil {
		return nil, s.fail(t, 0, "list saved graphs", err)
	}
	return list, nil
}

// SaveCurrent saves the current graph under name.
func (s *Session) SaveCurrent(ctx context.Context, name string) (*graph.Saved, error) {
	name, err := graph.ValidateName(name)
	if err != nil {
		return nil, err
	}
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}
	g := s.store.Graph()
	if g == nil {
		return nil, ErrNoGraph
	}

	t := s.begin(ChannelGraphs)
	defer s.end(t)

	saved, err := repo.SaveGraph(ctx, name, g)
	if err != nil {
		return nil, s.fail(t, 0, "save graph", err)
	}
	s.logger.Info("graph saved", "id", saved.ID, "name", saved.Name, "papers", saved.PaperCount)
	return saved, nil
}

// UpdateSaved overwrites a saved graph with the current graph. An empty
// name keeps the saved name.
func (s *Session) UpdateSaved(ctx context.Context, id, name string) (*graph.Saved, error) {
	if name != "" {
		var err error
		if name, err = graph.ValidateName(name); err != nil {
			return nil, err
		}
	}
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}
	g := s.store.Graph()
	if g == nil {
		return nil, ErrNoGraph
	}

	t := s.begin(ChannelGraphs)
	defer s.end(t)

	saved, err := repo.UpdateGraph(ctx, id, name, g)
	if err != nil {
		return nil, s.fail(t, 0, "update graph", err)
	}
	s.logger.Info("graph updated", "id", saved.ID, "name", saved.Name, "papers", saved.PaperCount)
	return saved, nil
}

// LoadSaved installs a saved graph exactly as if it were a fresh search
// result. It shares the search channel so that whichever of the two
// finishes last wins.
func (s *Session) LoadSaved(ctx context.Context, id string) (*graph.Saved, error) {
	repo, err := s.repository()
	if err != nil {
		return nil, err
	}

	const mode = replaces | replacesGraph
	t := s.begin(ChannelSearch)
	defer s.end(t)

	saved, err := repo.LoadGraph(ctx, id)
	if err != nil {
		return nil, s.fail(t, mode, "load graph", err)
	}
	if err := s.commit(t, mode, func() { s.store.SetGraphData(saved.Graph) }); err != nil {
		return nil, err
	}
	return saved, nil
}

// DeleteSaved deletes a saved graph. The loaded graph is not affected.
func (s *Session) DeleteSaved(ctx context.Context, id string) error {
	repo, err := s.repository()
	if err != nil {
		return err
	}
	t := s.begin(ChannelGraphs)
	defer s.end(t)

	if err := repo.DeleteGraph(ctx, id); err != nil {
		return s.fail(t, 0, "delete graph", err)
	}
	return nil
}

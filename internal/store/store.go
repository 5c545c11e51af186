// Package store holds the explored paper graph and its overlay state.
//
// A Store is constructed explicitly and owns one State. Every command takes
// the store lock, replaces the affected fields and returns; readers take
// deep-copied snapshots. Commands never fail: invalid input is dropped and
// graph-scoped commands are no-ops while no graph is loaded.
package store

import (
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

// Store is the authoritative container for the current graph.
type Store struct {
	mu     sync.RWMutex
	state  State
	logger *slog.Logger

	pairOnlyConceptual bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for merge and replacement events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPairOnlyConceptualDedup keys conceptual edges by (source, target)
// only, so the first relation reported for a pair wins.
func WithPairOnlyConceptualDedup() Option {
	return func(s *Store) {
		s.pairOnlyConceptual = true
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		state:  DefaultState(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Graph returns a copy of the current graph, or nil if none is loaded.
func (s *Store) Graph() *graph.GraphData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Graph.Clone()
}

// Restore replaces the whole state, e.g. from a saved workspace.
func (s *Store) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st.Clone()
}

func (s *Store) update(fn func(st *State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// updateGraph runs fn only while a graph is loaded.
func (s *Store) updateGraph(fn func(st *State)) {
	s.update(func(st *State) {
		if st.Graph == nil {
			return
		}
		fn(st)
	})
}

// SetGraphData replaces the graph wholesale. Every overlay computed against
// the previous graph is reset and the bridge set is re-seeded from nodes
// flagged as bridges. Visibility, effects, watch queries and the loading
// flag persist. The error is cleared.
func (s *Store) SetGraphData(g *graph.GraphData) {
	s.update(func(st *State) {
		next := State{
			Graph:        g.Clone(),
			Visibility:   st.Visibility,
			Effects:      st.Effects,
			WatchQueries: st.WatchQueries,
			Loading:      st.Loading,
		}
		if next.Graph != nil {
			for _, n := range next.Graph.Nodes {
				if n.IsBridge {
					if next.BridgeNodes == nil {
						next.BridgeNodes = make(map[string]bool)
					}
					next.BridgeNodes[n.ID] = true
				}
			}
			s.logger.Debug("graph replaced",
				"nodes", len(next.Graph.Nodes),
				"edges", len(next.Graph.Edges),
				"clusters", len(next.Graph.Clusters),
				"query", next.Graph.Meta.Query)
		}
		*st = next
	})
}

// AddNodes merges nodes and edges into the current graph. It is a no-op
// returning zero stats when no graph is loaded.
func (s *Store) AddNodes(nodes []paper.Paper, edges []edge.Edge) graph.MergeStats {
	var stats graph.MergeStats
	s.updateGraph(func(st *State) {
		st.Graph, stats = graph.Merge(st.Graph, nodes, edges)
		for _, n := range st.Graph.Nodes[len(st.Graph.Nodes)-stats.NodesAdded:] {
			if n.IsBridge {
				if st.BridgeNodes == nil {
					st.BridgeNodes = make(map[string]bool)
				}
				st.BridgeNodes[n.ID] = true
			}
		}
		s.logger.Debug("merged nodes",
			"nodes_added", stats.NodesAdded,
			"edges_added", stats.EdgesAdded,
			"dropped", stats.Dropped())
	})
	return stats
}

// SelectPaper selects a paper; an empty id deselects.
func (s *Store) SelectPaper(id string) {
	s.update(func(st *State) {
		if id != "" && st.Graph == nil {
			return
		}
		st.SelectedPaper = id
	})
}

// SelectCluster selects a cluster.
func (s *Store) SelectCluster(id int) {
	s.updateGraph(func(st *State) {
		st.SelectedCluster = &id
	})
}

// ClearSelectedCluster deselects the selected cluster.
func (s *Store) ClearSelectedCluster() {
	s.update(func(st *State) {
		st.SelectedCluster = nil
	})
}

// ToggleMultiSelect adds a paper to the multi-select list or removes it if
// already present.
func (s *Store) ToggleMultiSelect(id string) {
	if id == "" {
		return
	}
	s.updateGraph(func(st *State) {
		if i := slices.Index(st.MultiSelect, id); i >= 0 {
			st.MultiSelect = slices.Delete(slices.Clone(st.MultiSelect), i, i+1)
			return
		}
		st.MultiSelect = append(slices.Clip(st.MultiSelect), id)
	})
}

// ClearMultiSelect empties the multi-select list.
func (s *Store) ClearMultiSelect() {
	s.update(func(st *State) {
		st.MultiSelect = nil
	})
}

// SetHover sets the hover target.
func (s *Store) SetHover(id string) {
	s.updateGraph(func(st *State) {
		st.Hovered = id
	})
}

// ClearHover clears the hover target.
func (s *Store) ClearHover() {
	s.update(func(st *State) {
		st.Hovered = ""
	})
}

func (s *Store) toggle(flag func(st *State) *bool) {
	s.update(func(st *State) {
		f := flag(st)
		*f = !*f
	})
}

// ToggleCitationEdges shows or hides citation edges.
func (s *Store) ToggleCitationEdges() {
	s.toggle(func(st *State) *bool { return &st.Visibility.CitationEdges })
}

// ToggleSimilarityEdges shows or hides similarity edges.
func (s *Store) ToggleSimilarityEdges() {
	s.toggle(func(st *State) *bool { return &st.Visibility.SimilarityEdges })
}

// ToggleClusterHulls shows or hides the cluster hulls.
func (s *Store) ToggleClusterHulls() {
	s.toggle(func(st *State) *bool { return &st.Visibility.ClusterHulls })
}

// ToggleLabels shows or hides cluster labels.
func (s *Store) ToggleLabels() {
	s.toggle(func(st *State) *bool { return &st.Visibility.Labels })
}

// ToggleBloom switches the bloom effect.
func (s *Store) ToggleBloom() {
	s.toggle(func(st *State) *bool { return &st.Effects.Bloom })
}

// ToggleGhostEdges switches the ghost edges drawn for potential links across gaps.
func (s *Store) ToggleGhostEdges() {
	s.toggle(func(st *State) *bool { return &st.Effects.GhostEdges })
}

// ToggleGapOverlay switches the structural-gap overlay.
func (s *Store) ToggleGapOverlay() {
	s.toggle(func(st *State) *bool { return &st.Effects.GapOverlay })
}

// ToggleParticles switches the particles that flow along citation edges.
func (s *Store) ToggleParticles() {
	s.toggle(func(st *State) *bool { return &st.Effects.Particles })
}

// ToggleHiddenCluster hides a visible cluster or shows a hidden one.
func (s *Store) ToggleHiddenCluster(id int) {
	s.updateGraph(func(st *State) {
		hidden := make(map[int]bool, len(st.HiddenClusters)+1)
		for k, v := range st.HiddenClusters {
			hidden[k] = v
		}
		if hidden[id] {
			delete(hidden, id)
		} else {
			hidden[id] = true
		}
		st.HiddenClusters = hidden
	})
}

// SetTrendAnalysis replaces the trend analysis. Nil clears it.
func (s *Store) SetTrendAnalysis(t *analysis.TrendAnalysis) {
	s.updateGraph(func(st *State) {
		st.Trends = t.Clone()
	})
}

// SetGapAnalysis replaces the gap analysis. Nil clears it.
func (s *Store) SetGapAnalysis(g *analysis.GapAnalysis) {
	s.updateGraph(func(st *State) {
		st.Gaps = g.Clone()
	})
}

// AddChatMessage appends a message to the chat transcript.
func (s *Store) AddChatMessage(msg analysis.ChatMessage) {
	s.updateGraph(func(st *State) {
		st.Chat = append(slices.Clip(st.Chat), msg.Clone())
	})
}

// ClearChat empties the chat transcript.
func (s *Store) ClearChat() {
	s.update(func(st *State) {
		st.Chat = nil
	})
}

// SetWatchQueries replaces the watch-query list.
func (s *Store) SetWatchQueries(qs []analysis.WatchQuery) {
	s.update(func(st *State) {
		st.WatchQueries = analysis.CloneEach(qs)
	})
}

// AddWatchQuery adds a watch query, replacing any query with the same id.
func (s *Store) AddWatchQuery(q analysis.WatchQuery) {
	s.update(func(st *State) {
		qs := slices.Clone(st.WatchQueries)
		if i := slices.IndexFunc(qs, func(w analysis.WatchQuery) bool { return w.ID == q.ID }); i >= 0 {
			qs[i] = q.Clone()
		} else {
			qs = append(qs, q.Clone())
		}
		st.WatchQueries = qs
	})
}

// RemoveWatchQuery removes the watch query with the given id.
func (s *Store) RemoveWatchQuery(id string) {
	s.update(func(st *State) {
		st.WatchQueries = slices.DeleteFunc(slices.Clone(st.WatchQueries), func(w analysis.WatchQuery) bool {
			return w.ID == id
		})
	})
}

// SetCitationIntents replaces the citation-intent list.
func (s *Store) SetCitationIntents(intents []analysis.CitationIntent) {
	s.updateGraph(func(st *State) {
		st.CitationIntents = analysis.CloneEach(intents)
	})
}

// SetLitReview replaces the literature review. Nil clears it.
func (s *Store) SetLitReview(lr *analysis.LitReview) {
	s.updateGraph(func(st *State) {
		st.LitReview = lr.Clone()
	})
}

// AddConceptualEdges appends a batch of conceptual edges, skipping invalid
// edges, edges whose endpoints are not in the graph and edges whose key is
// already present. It returns the number added.
func (s *Store) AddConceptualEdges(batch []analysis.ConceptualEdge) int {
	added := 0
	s.updateGraph(func(st *State) {
		ids := paper.IDSet(st.Graph.Nodes)
		seen := make(map[string]bool, len(st.ConceptualEdges)+len(batch))
		for _, ce := range st.ConceptualEdges {
			seen[s.conceptualKey(ce)] = true
		}
		next := slices.Clip(st.ConceptualEdges)
		for _, ce := range batch {
			if err := analysis.ValidateConceptualEdge(&ce); err != nil {
				s.logger.Debug("dropping conceptual edge", "source", ce.Source, "target", ce.Target, "error", err)
				continue
			}
			if !ids[ce.Source] || !ids[ce.Target] {
				continue
			}
			key := s.conceptualKey(ce)
			if seen[key] {
				continue
			}
			seen[key] = true
			next = append(next, ce)
			added++
		}
		st.ConceptualEdges = next
	})
	return added
}

func (s *Store) conceptualKey(ce analysis.ConceptualEdge) string {
	key := edge.Key(ce.Source, ce.Target)
	if s.pairOnlyConceptual {
		return key
	}
	return key + edge.KeySeparator + ce.RelationType
}

// ClearConceptualEdges removes all conceptual edges.
func (s *Store) ClearConceptualEdges() {
	s.update(func(st *State) {
		st.ConceptualEdges = nil
	})
}

// SetHighlightedPapers replaces the highlighted-paper set.
func (s *Store) SetHighlightedPapers(ids []string) {
	s.updateGraph(func(st *State) {
		st.Highlighted = toSet(ids)
	})
}

// ClearHighlightedPapers empties the highlighted-paper set.
func (s *Store) ClearHighlightedPapers() {
	s.update(func(st *State) {
		st.Highlighted = nil
	})
}

// SetBridgeNodes replaces the bridge-node set.
func (s *Store) SetBridgeNodes(ids []string) {
	s.updateGraph(func(st *State) {
		st.BridgeNodes = toSet(ids)
	})
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) {
		st.Loading = loading
	})
}

// SetError records a human-readable error message.
func (s *Store) SetError(msg string) {
	s.update(func(st *State) {
		st.Error = msg
	})
}

// ClearError clears the error message.
func (s *Store) ClearError() {
	s.SetError("")
}

package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/store"
	"github.com/matsen/scholargraph/internal/viz"
)

var (
	// ErrNoGapAnalysis is returned by gap operations before gaps were analyzed.
	ErrNoGapAnalysis = errors.New("no gap analysis loaded")

	// ErrNoLLM is returned when an operation needs LLM credentials and none
	// are configured.
	ErrNoLLM = errors.New("llm provider and api key are required")
)

// AnalyzeTrends classifies the clusters of the current graph.
func (s *Session) AnalyzeTrends(ctx context.Context) (*analysis.TrendAnalysis, error) {
	const mode = replaces | graphScoped
	t, st := s.beginOnState(ChannelTrends)
	defer s.end(t)

	g := st.Graph
	if g == nil {
		return nil, ErrNoGraph
	}

	trends, q, err := s.backend.AnalyzeTrends(ctx, g.Nodes, g.Clusters)
	if err != nil {
		return nil, s.fail(t, mode, "trend analysis", err)
	}
	s.logQuarantine("trends", q)
	if err := s.commit(t, mode, func() { s.store.SetTrendAnalysis(trends) }); err != nil {
		return nil, err
	}
	return trends, nil
}

// AnalyzeGaps finds structural gaps between the clusters of the current graph.
func (s *Session) AnalyzeGaps(ctx context.Context) (*analysis.GapAnalysis, error) {
	const mode = replaces | graphScoped
	t, st := s.beginOnState(ChannelGaps)
	defer s.end(t)

	g := st.Graph
	if g == nil {
		return nil, ErrNoGraph
	}

	gaps, q, err := s.backend.AnalyzeGaps(ctx, g.Nodes, g.Clusters, g.Edges)
	if err != nil {
		return nil, s.fail(t, mode, "gap analysis", err)
	}
	s.logQuarantine("gaps", q)
	if err := s.commit(t, mode, func() { s.store.SetGapAnalysis(gaps) }); err != nil {
		return nil, err
	}
	return gaps, nil
}

// GenerateHypotheses asks for research questions across one gap and records
// them on that gap. Results for different gaps do not supersede each other.
func (s *Session) GenerateHypotheses(ctx context.Context, gapID string) (*analysis.Hypotheses, error) {
	const mode = graphScoped
	t, st := s.beginOnState(ChannelHypotheses)
	defer s.end(t)

	gap, err := findGap(st, gapID)
	if err != nil {
		return nil, err
	}

	h, err := s.backend.GenerateHypotheses(ctx, gap, s.llm)
	if err != nil {
		return nil, s.fail(t, mode, "hypothesis generation", err)
	}
	err = s.commit(t, mode, func() {
		current := s.store.Snapshot().Gaps
		if current == nil {
			return
		}
		next := *current
		next.Gaps = slices.Clone(current.Gaps)
		for i := range next.Gaps {
			if next.Gaps[i].GapID == gapID {
				next.Gaps[i].ResearchQuestions = slices.Clone(h.Hypotheses)
			}
		}
		s.store.SetGapAnalysis(&next)
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

func findGap(st store.State, gapID string) (analysis.StructuralGap, error) {
	if !st.HasGraph() {
		return analysis.StructuralGap{}, ErrNoGraph
	}
	if st.Gaps == nil {
		return analysis.StructuralGap{}, ErrNoGapAnalysis
	}
	gap, ok := st.Gaps.FindGap(gapID)
	if !ok {
		return analysis.StructuralGap{}, fmt.Errorf("%w: %s", ErrUnknownGap, gapID)
	}
	return gap, nil
}

// SelectGap highlights the papers of a gap's two clusters plus its bridge
// papers and returns the highlighted ids.
func (s *Session) SelectGap(gapID string) ([]string, error) {
	st := s.store.Snapshot()
	gap, err := findGap(st, gapID)
	if err != nil {
		return nil, err
	}
	ids := viz.GapHighlight(st.Graph, gap)
	s.store.SetHighlightedPapers(ids)
	return ids, nil
}

// StreamConceptualEdges streams inferred conceptual edges for every paper in
// the graph and commits them batch by batch. Starting a stream clears the
// previous conceptual edges; a newer stream stops an older one.
func (s *Session) StreamConceptualEdges(ctx context.Context, onProgress client.ProgressFunc) (client.StreamResult, error) {
	const mode = replaces | graphScoped
	t, st := s.beginOnState(ChannelConceptual)
	defer s.end(t)

	g := st.Graph
	if g == nil {
		return client.StreamResult{}, ErrNoGraph
	}

	if err := s.commit(t, mode, s.store.ClearConceptualEdges); err != nil {
		return client.StreamResult{}, err
	}

	added := 0
	onBatch := func(batch []analysis.ConceptualEdge) error {
		return s.commit(t, mode, func() { added += s.store.AddConceptualEdges(batch) })
	}
	progress := func(stage, message string) {
		s.logger.Debug("conceptual stream progress", "stage", stage, "message", message)
		if onProgress != nil {
			onProgress(stage, message)
		}
	}

	res, err := s.backend.StreamConceptualEdges(ctx, g.NodeIDs(), s.batch, onBatch, progress)
	s.logQuarantine("conceptual_edges", res.Quarantined)
	if errors.Is(err, ErrStale) {
		return res, ErrStale
	}
	if err != nil {
		return res, s.fail(t, mode, "conceptual analysis", err)
	}
	s.logger.Info("conceptual stream finished", "delivered", res.Delivered, "added", added, "completed", res.Completed)
	return res, nil
}

// FetchCitationIntents classifies the citations of one paper in the graph.
// With enhanced set the configured LLM refines each intent. Paper ids in
// the result are translated to graph ids where the graph knows the paper.
func (s *Session) FetchCitationIntents(ctx context.Context, paperID string, enhanced bool) ([]analysis.CitationIntent, error) {
	const mode = replaces | graphScoped
	t, st := s.beginOnState(ChannelIntents)
	defer s.end(t)

	if !st.HasGraph() {
		return nil, ErrNoGraph
	}
	p, ok := st.Graph.NodeByID(paperID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPaper, paperID)
	}

	var opts client.IntentOptions
	if enhanced {
		if s.llm.Provider == "" || s.llm.APIKey == "" {
			return nil, ErrNoLLM
		}
		llm := s.llm
		opts.LLM = &llm
	}

	intents, q, err := s.backend.CitationIntents(ctx, p.BackendID(), opts)
	if err != nil {
		return nil, s.fail(t, mode, "citation intents", err)
	}
	s.logQuarantine("citation_intents", q)

	alias := aliases(st.Graph)
	for i := range intents {
		if id, ok := alias[intents[i].CitingID]; ok {
			intents[i].CitingID = id
		}
		if id, ok := alias[intents[i].CitedID]; ok {
			intents[i].CitedID = id
		}
	}
	if err := s.commit(t, mode, func() { s.store.SetCitationIntents(intents) }); err != nil {
		return nil, err
	}
	return intents, nil
}

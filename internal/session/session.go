// Package session drives the fetch, merge and commit cycle against the
// backend. Every operation takes a ticket on its channel before fetching and
// commits to the store only while the ticket is still current, so a slow
// response never overwrites state produced by a newer one.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
	"github.com/matsen/scholargraph/internal/store"
)

var (
	// ErrStale is returned when a response arrived after newer state was
	// committed and was discarded.
	ErrStale = errors.New("stale response discarded")

	// ErrNoGraph is returned by operations that need a loaded graph.
	ErrNoGraph = errors.New("no graph loaded")

	// ErrUnknownPaper is returned when a paper id is not in the graph.
	ErrUnknownPaper = errors.New("paper not in graph")

	// ErrUnknownGap is returned when a gap id is not in the gap analysis.
	ErrUnknownGap = errors.New("gap not found")

	// ErrNoRepository is returned by saved-graph operations when the session
	// was built without a repository.
	ErrNoRepository = errors.New("no saved-graph repository configured")
)

// Backend is the remote search and analysis service.
type Backend interface {
	Search(ctx context.Context, query string, opts client.SearchOptions) (*graph.GraphData, error)
	NaturalSearch(ctx context.Context, query string, opts client.NaturalSearchOptions) (*graph.GraphData, error)
	SeedExplore(ctx context.Context, opts client.SeedOptions) (*graph.GraphData, error)
	Expand(ctx context.Context, paperID string, limit int) (*client.ExpandResult, error)
	CitationIntents(ctx context.Context, paperID string, opts client.IntentOptions) ([]analysis.CitationIntent, analysis.Quarantine, error)

	AnalyzeTrends(ctx context.Context, nodes []paper.Paper, clusters []cluster.Cluster) (*analysis.TrendAnalysis, analysis.Quarantine, error)
	AnalyzeGaps(ctx context.Context, nodes []paper.Paper, clusters []cluster.Cluster, edges []edge.Edge) (*analysis.GapAnalysis, analysis.Quarantine, error)
	GenerateHypotheses(ctx context.Context, gap analysis.StructuralGap, llm client.LLM) (*analysis.Hypotheses, error)
	StreamConceptualEdges(ctx context.Context, paperIDs []string, batchSize int, onBatch client.BatchFunc, onProgress client.ProgressFunc) (client.StreamResult, error)

	Chat(ctx context.Context, req client.ChatRequest) (analysis.ChatMessage, error)
	GenerateLitReview(ctx context.Context, req client.LitReviewRequest) (*analysis.LitReview, error)

	ListWatchQueries(ctx context.Context) ([]analysis.WatchQuery, analysis.Quarantine, error)
	CreateWatchQuery(ctx context.Context, query string, filters map[string]any, notifyEmail bool) (analysis.WatchQuery, error)
	DeleteWatchQuery(ctx context.Context, id string) error
	CheckWatchQueries(ctx context.Context) (analysis.WatchCheck, error)
}

// GraphRepository stores named graphs. Both the backend client and the local
// SQLite repository implement it.
type GraphRepository interface {
	ListGraphs(ctx context.Context) ([]graph.SavedSummary, error)
	SaveGraph(ctx context.Context, name string, g *graph.GraphData) (*graph.Saved, error)
	LoadGraph(ctx context.Context, id string) (*graph.Saved, error)
	UpdateGraph(ctx context.Context, id, name string, g *graph.GraphData) (*graph.Saved, error)
	DeleteGraph(ctx context.Context, id string) error
}

// Session coordinates one store with a backend and a graph repository.
type Session struct {
	store   *store.Store
	backend Backend
	graphs  GraphRepository
	seq     *sequencer
	logger  *slog.Logger
	llm     client.LLM
	batch   int
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLLM sets the language-model credentials forwarded to hypothesis, chat
// and literature-review requests.
func WithLLM(llm client.LLM) Option {
	return func(s *Session) {
		s.llm = llm
	}
}

// WithStreamBatch sets how many conceptual edges are committed at a time.
func WithStreamBatch(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.batch = n
		}
	}
}

// New creates a session. graphs may be nil when saved graphs are not used.
func New(st *store.Store, backend Backend, graphs GraphRepository, opts ...Option) *Session {
	s := &Session{
		store:   st,
		backend: backend,
		graphs:  graphs,
		seq:     newSequencer(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		batch:   client.DefaultStreamBatch,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the session's store.
func (s *Session) Store() *store.Store {
	return s.store
}

// InFlight reports whether any request on ch is still running.
func (s *Session) InFlight(ch Channel) bool {
	return s.seq.inFlight(ch) > 0
}

// begin opens a request on ch. Search and expand also raise the loading flag.
func (s *Session) begin(ch Channel) ticket {
	return s.open(ch, nil)
}

// beginOnState opens a request on ch together with a snapshot of the state
// it works on. A graph replaced after the snapshot always makes the ticket
// stale for graph-scoped commits.
func (s *Session) beginOnState(ch Channel) (ticket, store.State) {
	var st store.State
	t := s.open(ch, func() { st = s.store.Snapshot() })
	return t, st
}

func (s *Session) open(ch Channel, read func()) ticket {
	t := s.seq.begin(ch, read)
	if drivesLoading(ch) {
		s.store.SetLoading(true)
	}
	return t
}

// end closes a request and lowers the loading flag once no search or expand
// remains in flight.
func (s *Session) end(t ticket) {
	s.seq.end(t)
	if drivesLoading(t.ch) && !s.InFlight(ChannelSearch) && !s.InFlight(ChannelExpand) {
		s.store.SetLoading(false)
	}
}

func drivesLoading(ch Channel) bool {
	return ch == ChannelSearch || ch == ChannelExpand
}

// commit applies fn if t is still current, returning ErrStale otherwise.
func (s *Session) commit(t ticket, mode int, fn func()) error {
	if s.seq.commit(t, mode, fn) {
		return nil
	}
	s.logger.Debug("discarding stale response", "channel", t.ch, "seq", t.seq)
	return ErrStale
}

// fail records a fetch failure. Failures of requests that were already
// superseded are reported as stale and leave the store untouched.
func (s *Session) fail(t ticket, mode int, op string, err error) error {
	if !s.seq.current(t, mode) {
		s.logger.Debug("discarding stale failure", "channel", t.ch, "seq", t.seq, "error", err)
		return ErrStale
	}
	s.logger.Warn("request failed", "op", op, "channel", t.ch, "error", err)
	s.store.SetError(Describe(op, err))
	return fmt.Errorf("%s: %w", op, err)
}

// Describe turns an error into the message shown to a user.
func Describe(op string, err error) string {
	var reason string
	switch {
	case client.IsAuthError(err):
		reason = "authentication failed, sign in again"
	case client.IsRateLimited(err):
		reason = "too many requests, try again shortly"
	case client.IsNotFound(err), errors.Is(err, graph.ErrSavedNotFound):
		reason = "not found"
	case errors.Is(err, client.ErrNetworkError):
		reason = "could not reach the server"
	case errors.Is(err, client.ErrInvalidResponse):
		reason = "the server sent an unexpected response"
	case errors.Is(err, context.Canceled):
		reason = "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timed out"
	default:
		reason = err.Error()
	}
	return fmt.Sprintf("%s failed: %s", op, reason)
}

// logQuarantine records rejected analysis records.
func (s *Session) logQuarantine(op string, q analysis.Quarantine) {
	if q.Len() > 0 {
		s.logger.Info("records quarantined", "op", op, "count", q.Len())
	}
}

package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMalformed indicates a payload that could not be parsed at all.
// Individually malformed records are quarantined instead.
var ErrMalformed = errors.New("malformed analysis payload")

// Rejected describes one record dropped at the boundary.
type Rejected struct {
	Kind   string `json:"kind"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// Quarantine collects the records rejected while parsing one payload.
type Quarantine struct {
	Rejected []Rejected `json:"rejected,omitempty"`
}

// Len returns the number of rejected records.
func (q *Quarantine) Len() int {
	return len(q.Rejected)
}

func (q *Quarantine) add(kind string, index int, err error) {
	q.Rejected = append(q.Rejected, Rejected{Kind: kind, Index: index, Reason: err.Error()})
}

// Merge appends another quarantine's records.
func (q *Quarantine) Merge(other Quarantine) {
	q.Rejected = append(q.Rejected, other.Rejected...)
}

type trendWire struct {
	ClusterID            *int           `json:"cluster_id"`
	ClusterLabel         string         `json:"cluster_label"`
	Classification       string         `json:"classification"`
	PaperCount           int            `json:"paper_count"`
	YearRange            []int          `json:"year_range"`
	YearDistribution     map[string]int `json:"year_distribution"`
	TrendStrength        float64        `json:"trend_strength"`
	Velocity             float64        `json:"velocity"`
	RepresentativePapers []string       `json:"representative_papers"`
}

// ParseTrendAnalysis parses a trend payload, quarantining malformed trends.
// A trend filed under the wrong bucket is rejected.
func ParseTrendAnalysis(data []byte) (*TrendAnalysis, Quarantine, error) {
	var q Quarantine
	var wire struct {
		Emerging  []json.RawMessage `json:"emerging"`
		Stable    []json.RawMessage `json:"stable"`
		Declining []json.RawMessage `json:"declining"`
		Summary   map[string]any    `json:"summary"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, q, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := &TrendAnalysis{
		Emerging:  []ClusterTrend{},
		Stable:    []ClusterTrend{},
		Declining: []ClusterTrend{},
		Summary:   wire.Summary,
	}
	buckets := []struct {
		class string
		raw   []json.RawMessage
		dst   *[]ClusterTrend
	}{
		{Emerging, wire.Emerging, &out.Emerging},
		{Stable, wire.Stable, &out.Stable},
		{Declining, wire.Declining, &out.Declining},
	}
	for _, b := range buckets {
		for i, raw := range b.raw {
			tr, err := parseTrend(raw, b.class)
			if err != nil {
				q.add("trend."+b.class, i, err)
				continue
			}
			*b.dst = append(*b.dst, tr)
		}
	}
	return out, q, nil
}

func parseTrend(raw json.RawMessage, bucket string) (ClusterTrend, error) {
	var w trendWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return ClusterTrend{}, err
	}
	if w.ClusterID == nil {
		return ClusterTrend{}, errors.New("cluster_id is required")
	}
	if w.Classification == "" {
		w.Classification = bucket
	}
	if w.Classification != bucket {
		return ClusterTrend{}, fmt.Errorf("classification %q filed under %q", w.Classification, bucket)
	}
	if w.PaperCount < 0 {
		return ClusterTrend{}, errors.New("paper_count must be non-negative")
	}

	dist := make(map[int]int, len(w.YearDistribution))
	for k, v := range w.YearDistribution {
		year, err := strconv.Atoi(strings.TrimSpace(k))
		if err != nil {
			return ClusterTrend{}, fmt.Errorf("year_distribution key %q is not a year", k)
		}
		if v < 0 {
			return ClusterTrend{}, fmt.Errorf("year_distribution[%d] is negative", year)
		}
		dist[year] = v
	}

	tr := ClusterTrend{
		ClusterID:            *w.ClusterID,
		ClusterLabel:         w.ClusterLabel,
		Classification:       w.Classification,
		PaperCount:           w.PaperCount,
		YearDistribution:     dist,
		TrendStrength:        w.TrendStrength,
		Velocity:             w.Velocity,
		RepresentativePapers: w.RepresentativePapers,
	}
	if len(w.YearRange) == 2 {
		tr.YearRange = [2]int{w.YearRange[0], w.YearRange[1]}
	}
	return tr, nil
}

type gapWire struct {
	GapID             string          `json:"gap_id"`
	ClusterA          map[string]any  `json:"cluster_a"`
	ClusterB          map[string]any  `json:"cluster_b"`
	GapStrength       *float64        `json:"gap_strength"`
	BridgePapers      []BridgePaper   `json:"bridge_papers"`
	PotentialEdges    []PotentialEdge `json:"potential_edges"`
	ResearchQuestions []string        `json:"research_questions"`
}

// ParseGapAnalysis parses a gap payload, quarantining malformed gaps.
// Bridge papers without an id are dropped from otherwise valid gaps.
func ParseGapAnalysis(data []byte) (*GapAnalysis, Quarantine, error) {
	var q Quarantine
	var wire struct {
		Gaps                      []json.RawMessage `json:"gaps"`
		ClusterConnectivityMatrix map[string]int    `json:"cluster_connectivity_matrix"`
		Summary                   map[string]any    `json:"summary"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, q, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := &GapAnalysis{
		Gaps:                      []StructuralGap{},
		ClusterConnectivityMatrix: wire.ClusterConnectivityMatrix,
		Summary:                   wire.Summary,
	}
	for i, raw := range wire.Gaps {
		gap, err := parseGap(raw)
		if err != nil {
			q.add("gap", i, err)
			continue
		}
		out.Gaps = append(out.Gaps, gap)
	}
	return out, q, nil
}

// ParseStructuralGap parses a single gap record.
func ParseStructuralGap(data []byte) (StructuralGap, error) {
	return parseGap(data)
}

func parseGap(raw json.RawMessage) (StructuralGap, error) {
	var w gapWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return StructuralGap{}, err
	}
	if w.GapID == "" {
		return StructuralGap{}, errors.New("gap_id is required")
	}
	a, err := parseClusterRef(w.ClusterA)
	if err != nil {
		return StructuralGap{}, fmt.Errorf("cluster_a: %w", err)
	}
	b, err := parseClusterRef(w.ClusterB)
	if err != nil {
		return StructuralGap{}, fmt.Errorf("cluster_b: %w", err)
	}
	if w.GapStrength == nil {
		return StructuralGap{}, errors.New("gap_strength is required")
	}
	if s := *w.GapStrength; math.IsNaN(s) || s < 0 || s > 1 {
		return StructuralGap{}, fmt.Errorf("gap_strength %v outside [0,1]", s)
	}

	bridges := make([]BridgePaper, 0, len(w.BridgePapers))
	for _, bp := range w.BridgePapers {
		if bp.PaperID != "" {
			bridges = append(bridges, bp)
		}
	}

	return StructuralGap{
		GapID:             w.GapID,
		ClusterA:          a,
		ClusterB:          b,
		GapStrength:       *w.GapStrength,
		BridgePapers:      bridges,
		PotentialEdges:    w.PotentialEdges,
		ResearchQuestions: w.ResearchQuestions,
	}, nil
}

// parseClusterRef accepts the loosely typed {id, label, ...} cluster dicts the
// backend emits. Numeric ids may arrive as JSON numbers or strings.
func parseClusterRef(m map[string]any) (ClusterRef, error) {
	if m == nil {
		return ClusterRef{}, errors.New("missing")
	}
	var ref ClusterRef
	switch id := m["id"].(type) {
	case float64:
		if id != math.Trunc(id) {
			return ClusterRef{}, fmt.Errorf("id %v is not an integer", id)
		}
		ref.ID = int(id)
	case string:
		n, err := strconv.Atoi(id)
		if err != nil {
			return ClusterRef{}, fmt.Errorf("id %q is not an integer", id)
		}
		ref.ID = n
	default:
		return ClusterRef{}, errors.New("id is required")
	}
	if label, ok := m["label"].(string); ok {
		ref.Label = label
	}
	return ref, nil
}

// ParseConceptualEdge validates one conceptual edge event.
// A missing color is filled from RelationColors.
func ParseConceptualEdge(data []byte) (ConceptualEdge, error) {
	var ce ConceptualEdge
	if err := json.Unmarshal(data, &ce); err != nil {
		return ConceptualEdge{}, err
	}
	if err := ValidateConceptualEdge(&ce); err != nil {
		return ConceptualEdge{}, err
	}
	return ce, nil
}

// ValidateConceptualEdge checks a conceptual edge and fills its color.
func ValidateConceptualEdge(ce *ConceptualEdge) error {
	if ce.Source == "" || ce.Target == "" {
		return errors.New("source and target are required")
	}
	if ce.RelationType == "" {
		return errors.New("relation_type is required")
	}
	if math.IsNaN(ce.Weight) || ce.Weight < 0 || ce.Weight > 1 {
		return fmt.Errorf("weight %v outside [0,1]", ce.Weight)
	}
	if ce.Color == "" {
		if c, ok := RelationColors[ce.RelationType]; ok {
			ce.Color = c
		} else {
			ce.Color = RelationColors[RelationSimilarityShared]
		}
	}
	return nil
}

// ParseCitationIntents parses an intent list, quarantining malformed entries.
func ParseCitationIntents(data []byte) ([]CitationIntent, Quarantine, error) {
	var q Quarantine
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, q, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	intents := make([]CitationIntent, 0, len(raw))
	for i, r := range raw {
		var ci CitationIntent
		if err := json.Unmarshal(r, &ci); err != nil {
			q.add("citation_intent", i, err)
			continue
		}
		if ci.CitingID == "" || ci.CitedID == "" {
			q.add("citation_intent", i, errors.New("citing_id and cited_id are required"))
			continue
		}
		if ci.Intent == "" {
			q.add("citation_intent", i, errors.New("intent is required"))
			continue
		}
		intents = append(intents, ci)
	}
	return intents, q, nil
}

type watchWire struct {
	ID            string         `json:"id"`
	Query         string         `json:"query"`
	Filters       map[string]any `json:"filters"`
	NotifyEmail   *bool          `json:"notify_email"`
	LastChecked   string         `json:"last_checked"`
	CreatedAt     string         `json:"created_at"`
	NewPaperCount int            `json:"new_paper_count"`
}

// ParseWatchQuery parses a single watch query record.
func ParseWatchQuery(data []byte) (WatchQuery, error) {
	var w watchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return WatchQuery{}, err
	}
	if w.ID == "" {
		return WatchQuery{}, errors.New("id is required")
	}
	if strings.TrimSpace(w.Query) == "" {
		return WatchQuery{}, errors.New("query is required")
	}

	wq := WatchQuery{
		ID:            w.ID,
		Query:         w.Query,
		Filters:       w.Filters,
		NotifyEmail:   true,
		NewPaperCount: w.NewPaperCount,
	}
	if w.NotifyEmail != nil {
		wq.NotifyEmail = *w.NotifyEmail
	}
	if w.CreatedAt != "" {
		t, err := ParseTimestamp(w.CreatedAt)
		if err != nil {
			return WatchQuery{}, fmt.Errorf("created_at: %w", err)
		}
		wq.CreatedAt = t
	}
	if w.LastChecked != "" {
		t, err := ParseTimestamp(w.LastChecked)
		if err != nil {
			return WatchQuery{}, fmt.Errorf("last_checked: %w", err)
		}
		wq.LastChecked = &t
	}
	return wq, nil
}

// ParseWatchQueries parses a watch query list, quarantining malformed entries.
func ParseWatchQueries(data []byte) ([]WatchQuery, Quarantine, error) {
	var q Quarantine
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, q, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]WatchQuery, 0, len(raw))
	for i, r := range raw {
		wq, err := ParseWatchQuery(r)
		if err != nil {
			q.add("watch_query", i, err)
			continue
		}
		out = append(out, wq)
	}
	return out, q, nil
}

// timestampLayouts covers RFC 3339 and the naive ISO format some backends emit.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses RFC 3339 or naive ISO timestamps as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

package analysis

import (
	"maps"
	"slices"
)

// Clone returns a deep copy. Clone of nil is nil.
func (t *TrendAnalysis) Clone() *TrendAnalysis {
	if t == nil {
		return nil
	}
	return &TrendAnalysis{
		Emerging:  cloneTrends(t.Emerging),
		Stable:    cloneTrends(t.Stable),
		Declining: cloneTrends(t.Declining),
		Summary:   cloneJSONMap(t.Summary),
	}
}

func cloneTrends(in []ClusterTrend) []ClusterTrend {
	if in == nil {
		return nil
	}
	out := make([]ClusterTrend, len(in))
	for i, tr := range in {
		tr.YearDistribution = maps.Clone(tr.YearDistribution)
		tr.RepresentativePapers = slices.Clone(tr.RepresentativePapers)
		out[i] = tr
	}
	return out
}

// Clone returns a deep copy. Clone of nil is nil.
func (g *GapAnalysis) Clone() *GapAnalysis {
	if g == nil {
		return nil
	}
	out := &GapAnalysis{
		ClusterConnectivityMatrix: maps.Clone(g.ClusterConnectivityMatrix),
		Summary:                   cloneJSONMap(g.Summary),
	}
	if g.Gaps != nil {
		out.Gaps = make([]StructuralGap, len(g.Gaps))
		for i, gap := range g.Gaps {
			out.Gaps[i] = gap.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the gap.
func (g StructuralGap) Clone() StructuralGap {
	g.BridgePapers = slices.Clone(g.BridgePapers)
	g.PotentialEdges = slices.Clone(g.PotentialEdges)
	g.ResearchQuestions = slices.Clone(g.ResearchQuestions)
	return g
}

// Clone returns a deep copy of the message.
func (m ChatMessage) Clone() ChatMessage {
	m.Citations = slices.Clone(m.Citations)
	m.HighlightedPapers = slices.Clone(m.HighlightedPapers)
	m.Followups = slices.Clone(m.Followups)
	return m
}

// Clone returns a deep copy. Clone of nil is nil.
func (lr *LitReview) Clone() *LitReview {
	if lr == nil {
		return nil
	}
	out := *lr
	out.References = slices.Clone(lr.References)
	out.Metadata = cloneJSONMap(lr.Metadata)
	if lr.Sections != nil {
		out.Sections = make([]ReviewSection, len(lr.Sections))
		for i, sec := range lr.Sections {
			sec.PaperRefs = slices.Clone(sec.PaperRefs)
			out.Sections[i] = sec
		}
	}
	return &out
}

// Clone returns a deep copy of the intent.
func (ci CitationIntent) Clone() CitationIntent {
	if ci.Confidence != nil {
		c := *ci.Confidence
		ci.Confidence = &c
	}
	return ci
}

// Clone returns a deep copy of the watch query.
func (w WatchQuery) Clone() WatchQuery {
	w.Filters = cloneJSONMap(w.Filters)
	if w.LastChecked != nil {
		t := *w.LastChecked
		w.LastChecked = &t
	}
	return w
}

// CloneEach deep-copies every element of a slice of cloneable records.
func CloneEach[T interface{ Clone() T }](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}

// cloneJSONMap copies a decoded JSON object, descending into nested
// objects and arrays.
func cloneJSONMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneJSONValue(v)
	}
	return out
}

func cloneJSONValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneJSONMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneJSONValue(e)
		}
		return out
	default:
		return v
	}
}

// Package analysis defines the analysis records fetched from the backend and
// stored next to the graph: trends, structural gaps, conceptual edges,
// citation intents, chat, literature reviews and watch queries.
//
// Records are cross-referenced to the graph by paper and cluster id only;
// nothing here mutates the base graph.
package analysis

import "time"

// Trend classifications.
const (
	Emerging  = "emerging"
	Stable    = "stable"
	Declining = "declining"
)

// TrendAnalysis partitions clusters into three fixed buckets.
// The partition is supplied by the backend and never recomputed locally.
type TrendAnalysis struct {
	Emerging  []ClusterTrend `json:"emerging"`
	Stable    []ClusterTrend `json:"stable"`
	Declining []ClusterTrend `json:"declining"`
	Summary   map[string]any `json:"summary,omitempty"`
}

// ClusterTrend is the temporal profile of one cluster.
type ClusterTrend struct {
	ClusterID            int         `json:"cluster_id"`
	ClusterLabel         string      `json:"cluster_label"`
	Classification       string      `json:"classification"`
	PaperCount           int         `json:"paper_count"`
	YearRange            [2]int      `json:"year_range"`
	YearDistribution     map[int]int `json:"year_distribution"`
	TrendStrength        float64     `json:"trend_strength"`
	Velocity             float64     `json:"velocity"`
	RepresentativePapers []string    `json:"representative_papers,omitempty"`
}

// All returns every trend across the three buckets.
func (t *TrendAnalysis) All() []ClusterTrend {
	if t == nil {
		return nil
	}
	all := make([]ClusterTrend, 0, len(t.Emerging)+len(t.Stable)+len(t.Declining))
	all = append(all, t.Emerging...)
	all = append(all, t.Stable...)
	return append(all, t.Declining...)
}

// ForCluster returns the trend for a cluster id.
func (t *TrendAnalysis) ForCluster(id int) (ClusterTrend, bool) {
	for _, tr := range t.All() {
		if tr.ClusterID == id {
			return tr, true
		}
	}
	return ClusterTrend{}, false
}

// GapAnalysis lists structural gaps between clusters.
type GapAnalysis struct {
	Gaps                      []StructuralGap `json:"gaps"`
	ClusterConnectivityMatrix map[string]int  `json:"cluster_connectivity_matrix,omitempty"`
	Summary                   map[string]any  `json:"summary,omitempty"`
}

// FindGap returns the gap with the given id.
func (g *GapAnalysis) FindGap(id string) (StructuralGap, bool) {
	if g == nil {
		return StructuralGap{}, false
	}
	for _, gap := range g.Gaps {
		if gap.GapID == id {
			return gap, true
		}
	}
	return StructuralGap{}, false
}

// StructuralGap is a sparsely linked pair of clusters.
type StructuralGap struct {
	GapID             string          `json:"gap_id"`
	ClusterA          ClusterRef      `json:"cluster_a"`
	ClusterB          ClusterRef      `json:"cluster_b"`
	GapStrength       float64         `json:"gap_strength"` // 0 = well connected, 1 = no connection
	BridgePapers      []BridgePaper   `json:"bridge_papers"`
	PotentialEdges    []PotentialEdge `json:"potential_edges,omitempty"`
	ResearchQuestions []string        `json:"research_questions,omitempty"`
}

// BridgePaperIDs returns the ids of the gap's bridge papers.
func (g StructuralGap) BridgePaperIDs() []string {
	ids := make([]string, len(g.BridgePapers))
	for i, bp := range g.BridgePapers {
		ids[i] = bp.PaperID
	}
	return ids
}

// ClusterRef references a cluster from an analysis record.
type ClusterRef struct {
	ID    int    `json:"id"`
	Label string `json:"label,omitempty"`
}

// BridgePaper connects two otherwise sparsely linked clusters.
type BridgePaper struct {
	PaperID string  `json:"paper_id"`
	Title   string  `json:"title,omitempty"`
	Score   float64 `json:"score"`
}

// PotentialEdge is a suggested link across a gap, rendered as a ghost edge.
type PotentialEdge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Similarity float64 `json:"similarity"`
}

// Hypotheses are generated research questions for one gap.
type Hypotheses struct {
	GapID      string   `json:"gap_id"`
	Hypotheses []string `json:"hypotheses"`
	Provider   string   `json:"provider,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// Conceptual relation types.
const (
	RelationMethodologyShared = "methodology_shared"
	RelationTheoryShared      = "theory_shared"
	RelationClaimSupports     = "claim_supports"
	RelationClaimContradicts  = "claim_contradicts"
	RelationContextShared     = "context_shared"
	RelationSimilarityShared  = "similarity_shared"
)

// RelationColors maps relation types to display colors.
var RelationColors = map[string]string{
	RelationMethodologyShared: "#9B59B6",
	RelationTheoryShared:      "#4A90D9",
	RelationClaimSupports:     "#2ECC71",
	RelationClaimContradicts:  "#E74C3C",
	RelationContextShared:     "#F39C12",
	RelationSimilarityShared:  "#95A5A6",
}

// ConceptualEdge is an inferred conceptual relation between two papers.
type ConceptualEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	RelationType string  `json:"relation_type"`
	Weight       float64 `json:"weight"`
	Explanation  string  `json:"explanation,omitempty"`
	Color        string  `json:"color,omitempty"`
}

// CitationIntent classifies why one paper cites another.
type CitationIntent struct {
	CitingID       string   `json:"citing_id"`
	CitingTitle    string   `json:"citing_title,omitempty"`
	CitedID        string   `json:"cited_id"`
	Intent         string   `json:"intent"`
	EnhancedIntent string   `json:"enhanced_intent,omitempty"`
	IsInfluential  bool     `json:"is_influential"`
	Confidence     *float64 `json:"confidence,omitempty"`
	Reasoning      string   `json:"reasoning,omitempty"`
	Context        string   `json:"context,omitempty"`
	Source         string   `json:"source,omitempty"` // "s2" or "llm"
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the graph chat transcript.
type ChatMessage struct {
	Role              string        `json:"role"`
	Content           string        `json:"content"`
	Citations         []CitationRef `json:"citations,omitempty"`
	HighlightedPapers []string      `json:"highlighted_papers,omitempty"`
	Followups         []string      `json:"suggested_followups,omitempty"`
}

// CitationRef points from an assistant answer to a paper in the graph.
type CitationRef struct {
	PaperID string `json:"paper_id"`
	Title   string `json:"title,omitempty"`
	Index   int    `json:"index"`
}

// LitReview is a generated literature review over the current graph.
type LitReview struct {
	Title      string          `json:"title"`
	Markdown   string          `json:"markdown"`
	Sections   []ReviewSection `json:"sections"`
	References []string        `json:"references,omitempty"`
	Metadata   map[string]any  `json:"metadata,omitempty"`
}

// ReviewSection is one section of a literature review.
type ReviewSection struct {
	Heading   string   `json:"heading"`
	Content   string   `json:"content"`
	PaperRefs []string `json:"paper_refs,omitempty"`
}

// WatchQuery is a saved search that the backend re-runs periodically.
type WatchQuery struct {
	ID            string         `json:"id"`
	Query         string         `json:"query"`
	Filters       map[string]any `json:"filters,omitempty"`
	NotifyEmail   bool           `json:"notify_email"`
	LastChecked   *time.Time     `json:"last_checked,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	NewPaperCount int            `json:"new_paper_count"`
}

// WatchCheck summarizes a manual run of every watch query.
type WatchCheck struct {
	TotalQueries   int `json:"total_queries"`
	NewPapersFound int `json:"new_papers_found"`
	EmailsSent     int `json:"emails_sent"`
}

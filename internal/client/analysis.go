package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/paper"
)

// LLM names the language-model provider and user key forwarded with
// generation requests.
type LLM struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
	Model    string `json:"model,omitempty"`
}

type analysisRequest struct {
	Papers   []paper.Paper     `json:"papers"`
	Clusters []cluster.Cluster `json:"clusters"`
	Edges    []edge.Edge       `json:"edges"`
}

// AnalyzeTrends classifies each cluster as emerging, stable or declining.
func (c *Client) AnalyzeTrends(ctx context.Context, nodes []paper.Paper, clusters []cluster.Cluster) (*analysis.TrendAnalysis, analysis.Quarantine, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/analysis/trends", analysisRequest{Papers: nodes, Clusters: clusters})
	if err != nil {
		return nil, analysis.Quarantine{}, err
	}
	ta, q, err := analysis.ParseTrendAnalysis(data)
	if err != nil {
		return nil, q, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	c.logQuarantine("trends", q)
	return ta, q, nil
}

// AnalyzeGaps finds sparsely connected cluster pairs.
func (c *Client) AnalyzeGaps(ctx context.Context, nodes []paper.Paper, clusters []cluster.Cluster, edges []edge.Edge) (*analysis.GapAnalysis, analysis.Quarantine, error) {
	if edges == nil {
		edges = []edge.Edge{}
	}
	data, err := c.do(ctx, http.MethodPost, "/api/analysis/gaps", analysisRequest{Papers: nodes, Clusters: clusters, Edges: edges})
	if err != nil {
		return nil, analysis.Quarantine{}, err
	}
	ga, q, err := analysis.ParseGapAnalysis(data)
	if err != nil {
		return nil, q, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	c.logQuarantine("gaps", q)
	return ga, q, nil
}

// GenerateHypotheses asks the backend's language model for research
// questions that would bridge a gap.
func (c *Client) GenerateHypotheses(ctx context.Context, gap analysis.StructuralGap, llm LLM) (*analysis.Hypotheses, error) {
	body := struct {
		LLM
		Gap analysis.StructuralGap `json:"gap"`
	}{LLM: llm, Gap: gap}

	var h analysis.Hypotheses
	path := "/api/analysis/gaps/" + url.PathEscape(gap.GapID) + "/hypotheses"
	if err := c.doJSON(ctx, http.MethodPost, path, body, &h); err != nil {
		return nil, err
	}
	if h.GapID == "" {
		h.GapID = gap.GapID
	}
	return &h, nil
}

// ChatRequest is a question about the current graph.
type ChatRequest struct {
	Query    string
	Nodes    []paper.Paper
	Edges    []edge.Edge
	Clusters []cluster.Cluster
	History  []analysis.ChatMessage
	LLM      LLM
}

type graphInput struct {
	Nodes    []paper.Paper     `json:"nodes"`
	Edges    []edge.Edge       `json:"edges"`
	Clusters []cluster.Cluster `json:"clusters"`
}

type historyEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat answers a question grounded in the graph. The returned message has
// the assistant role.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (analysis.ChatMessage, error) {
	history := make([]historyEntry, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, historyEntry{Role: m.Role, Content: m.Content})
	}
	body := struct {
		Query string     `json:"query"`
		Graph graphInput `json:"graph_data"`
		LLM
		History []historyEntry `json:"conversation_history"`
	}{
		Query:   req.Query,
		Graph:   graphInput{Nodes: req.Nodes, Edges: req.Edges, Clusters: req.Clusters},
		LLM:     req.LLM,
		History: history,
	}

	var resp struct {
		Answer            string                 `json:"answer"`
		Citations         []analysis.CitationRef `json:"citations"`
		HighlightedPapers []string               `json:"highlighted_papers"`
		Followups         []string               `json:"suggested_followups"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", body, &resp); err != nil {
		return analysis.ChatMessage{}, err
	}
	return analysis.ChatMessage{
		Role:              analysis.RoleAssistant,
		Content:           resp.Answer,
		Citations:         resp.Citations,
		HighlightedPapers: resp.HighlightedPapers,
		Followups:         resp.Followups,
	}, nil
}

// LitReviewRequest asks for a literature review of the current graph.
type LitReviewRequest struct {
	Nodes    []paper.Paper
	Edges    []edge.Edge
	Clusters []cluster.Cluster
	Trends   *analysis.TrendAnalysis
	Gaps     []analysis.StructuralGap
	LLM      LLM
}

// GenerateLitReview generates a literature review. Trend and gap analyses
// are included when present.
func (c *Client) GenerateLitReview(ctx context.Context, req LitReviewRequest) (*analysis.LitReview, error) {
	var trends json.RawMessage
	if req.Trends != nil {
		b, err := json.Marshal(req.Trends)
		if err != nil {
			return nil, fmt.Errorf("marshaling trends: %w", err)
		}
		trends = b
	}
	body := struct {
		Graph graphInput `json:"graph_data"`
		LLM
		IncludeTrends bool                     `json:"include_trends"`
		IncludeGaps   bool                     `json:"include_gaps"`
		Trends        json.RawMessage          `json:"trends,omitempty"`
		Gaps          []analysis.StructuralGap `json:"gaps,omitempty"`
		CitationStyle string                   `json:"citation_style"`
	}{
		Graph:         graphInput{Nodes: req.Nodes, Edges: req.Edges, Clusters: req.Clusters},
		LLM:           req.LLM,
		IncludeTrends: req.Trends != nil,
		IncludeGaps:   len(req.Gaps) > 0,
		Trends:        trends,
		Gaps:          req.Gaps,
		CitationStyle: "apa",
	}

	var lr analysis.LitReview
	if err := c.doJSON(ctx, http.MethodPost, "/api/lit-review/generate", body, &lr); err != nil {
		return nil, err
	}
	if lr.Markdown == "" && len(lr.Sections) == 0 {
		return nil, fmt.Errorf("%w: empty literature review", ErrInvalidResponse)
	}
	return &lr, nil
}

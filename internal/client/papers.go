package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/matsen/scholargraph/internal/analysis"
	"github.com/matsen/scholargraph/internal/graph"
)

// DefaultSearchLimit is the number of papers requested when none is given.
const DefaultSearchLimit = 200

// MaxExpandLimit is the largest page of references or citations the backend
// returns per expansion.
const MaxExpandLimit = 100

// ProviderGroq names the LLM provider the natural-language query parser uses.
const ProviderGroq = "groq"

// SearchOptions narrows a search. Zero values are omitted.
type SearchOptions struct {
	Limit         int      `json:"limit,omitempty"`
	YearStart     int      `json:"year_start,omitempty"`
	YearEnd       int      `json:"year_end,omitempty"`
	FieldsOfStudy []string `json:"fields_of_study,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
	SearchOptions
}

// CitationPaper is a citing or referenced paper returned by expand.
type CitationPaper struct {
	PaperID       string `json:"paper_id"`
	Title         string `json:"title"`
	Year          int    `json:"year,omitempty"`
	CitationCount int    `json:"citation_count"`
	Venue         string `json:"venue,omitempty"`
	IsOpenAccess  bool   `json:"is_open_access"`
	DOI           string `json:"doi,omitempty"`
}

// ExpandResult lists the neighbours of one paper.
type ExpandResult struct {
	References      []CitationPaper `json:"references"`
	Citations       []CitationPaper `json:"citations"`
	TotalReferences int             `json:"total_references"`
	TotalCitations  int             `json:"total_citations"`
}

// NaturalSearchOptions tunes a natural-language search.
type NaturalSearchOptions struct {
	GroqAPIKey string `json:"groq_api_key,omitempty"`
	Limit      int    `json:"limit,omitempty"`
}

// SeedOptions describes a graph grown from one paper. PaperID is a
// Semantic Scholar id or a "DOI:" prefixed DOI. Zero values take the
// backend defaults.
type SeedOptions struct {
	PaperID           string `json:"paper_id"`
	Depth             int    `json:"depth,omitempty"`
	MaxPapers         int    `json:"max_papers,omitempty"`
	IncludeReferences *bool  `json:"include_references,omitempty"`
	IncludeCitations  *bool  `json:"include_citations,omitempty"`
}

// Search runs a query and returns a normalized graph.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*graph.GraphData, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	return c.fetchGraph(ctx, "/api/search", query, searchRequest{Query: query, SearchOptions: opts})
}

// NaturalSearch lets the backend turn a question into search parameters.
// Without a Groq key the backend falls back to a keyword search.
func (c *Client) NaturalSearch(ctx context.Context, query string, opts NaturalSearchOptions) (*graph.GraphData, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	body := struct {
		Query string `json:"query"`
		NaturalSearchOptions
	}{query, opts}
	return c.fetchGraph(ctx, "/api/search/natural", query, body)
}

// SeedExplore builds a citation graph around a seed paper.
func (c *Client) SeedExplore(ctx context.Context, opts SeedOptions) (*graph.GraphData, error) {
	g, err := c.fetchGraph(ctx, "/api/seed-explore", "", opts)
	if IsNotFound(err) {
		return nil, fmt.Errorf("%w: seed paper %s", ErrNotFound, opts.PaperID)
	}
	return g, err
}

// fetchGraph posts body to path and normalizes the returned graph.
func (c *Client) fetchGraph(ctx context.Context, path, query string, body any) (*graph.GraphData, error) {
	var g graph.GraphData
	if err := c.doJSON(ctx, http.MethodPost, path, body, &g); err != nil {
		return nil, err
	}
	if g.Meta.Query == "" {
		g.Meta.Query = query
	}

	out, stats := graph.Normalize(&g)
	if stats.Dropped() > 0 || stats.UnknownClusterRef > 0 {
		c.logger.Warn("graph response had invalid entries",
			"path", path,
			"query", query,
			"dropped", stats.Dropped(),
			"unknown_cluster_refs", stats.UnknownClusterRef)
	}
	return out, nil
}

// Expand fetches the references and citations of a paper. paperID is the
// backend's id for the paper. A positive limit caps each list.
func (c *Client) Expand(ctx context.Context, paperID string, limit int) (*ExpandResult, error) {
	if limit > MaxExpandLimit {
		return nil, fmt.Errorf("expand limit %d exceeds %d", limit, MaxExpandLimit)
	}
	var res ExpandResult
	path := "/api/papers/" + url.PathEscape(paperID) + "/expand"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	if err := c.doJSON(ctx, http.MethodPost, path, nil, &res); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: paper %s", ErrNotFound, paperID)
		}
		return nil, err
	}

	res.References = dropAnonymous(res.References)
	res.Citations = dropAnonymous(res.Citations)
	return &res, nil
}

func dropAnonymous(papers []CitationPaper) []CitationPaper {
	out := papers[:0:0]
	for _, p := range papers {
		if p.PaperID != "" {
			out = append(out, p)
		}
	}
	return out
}

// IntentOptions selects LLM-enhanced intent classification when LLM is set.
type IntentOptions struct {
	LLM *LLM
}

// CitationIntents fetches the classified citation intents for a paper.
func (c *Client) CitationIntents(ctx context.Context, paperID string, opts IntentOptions) ([]analysis.CitationIntent, analysis.Quarantine, error) {
	path := "/api/papers/" + url.PathEscape(paperID) + "/intents"
	if opts.LLM != nil {
		path += "?" + url.Values{
			"enhanced": {"true"},
			"provider": {opts.LLM.Provider},
			"api_key":  {opts.LLM.APIKey},
		}.Encode()
	}
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, analysis.Quarantine{}, err
	}
	intents, q, err := analysis.ParseCitationIntents(data)
	if err != nil {
		return nil, q, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	c.logQuarantine("citation_intents", q)
	return intents, q, nil
}

func (c *Client) logQuarantine(kind string, q analysis.Quarantine) {
	if q.Len() == 0 {
		return
	}
	reasons, _ := json.Marshal(q.Rejected)
	c.logger.Warn("quarantined malformed records", "kind", kind, "count", q.Len(), "rejected", string(reasons))
}

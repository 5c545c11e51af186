package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/session"
	"github.com/matsen/scholargraph/internal/store"
	"github.com/matsen/scholargraph/internal/viz"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantExit int
		wantCode string
	}{
		{"no graph", session.ErrNoGraph, ExitDataError, codeNoGraph},
		{"unknown paper", fmt.Errorf("%w: p9", session.ErrUnknownPaper), ExitDataError, codeInvalidInput},
		{"empty query", session.ErrEmptyQuery, ExitDataError, codeInvalidInput},
		{"empty name", graph.ErrEmptyName, ExitDataError, codeInvalidInput},
		{"saved missing", fmt.Errorf("load: %w", graph.ErrSavedNotFound), ExitNotFound, codeNotFound},
		{"backend 404", &client.APIError{StatusCode: http.StatusNotFound}, ExitNotFound, codeNotFound},
		{"backend 401", &client.APIError{StatusCode: http.StatusUnauthorized}, ExitAuthError, codeAuth},
		{"rate limited", fmt.Errorf("search: %w", client.ErrRateLimited), ExitAPIError, codeRateLimited},
		{"network", client.ErrNetworkError, ExitAPIError, codeNetwork},
		{"backend 500", &client.APIError{StatusCode: http.StatusInternalServerError}, ExitAPIError, codeAPI},
		{"bad payload", client.ErrInvalidResponse, ExitAPIError, codeAPI},
		{"no repository", session.ErrNoRepository, ExitConfigError, codeConfig},
		{"stale", session.ErrStale, ExitError, codeStale},
		{"cancelled", context.Canceled, ExitError, codeCancelled},
		{"other", errors.New("boom"), ExitError, codeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exit, code := classifyError(tt.err)
			if exit != tt.wantExit || code != tt.wantCode {
				t.Errorf("classifyError(%v) = (%d, %q), want (%d, %q)", tt.err, exit, code, tt.wantExit, tt.wantCode)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title here", 10, "a longe..."},
		{"abcdef", 3, "abc"},
		{"Übersicht über Bäume", 8, "Übers..."},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four five six", 10, "  ")
	want := "  one two\n  three four\n  five six"
	if got != want {
		t.Errorf("wrapText() = %q, want %q", got, want)
	}
	if got := wrapText("   ", 10, "  "); got != "" {
		t.Errorf("wrapText(blank) = %q, want empty", got)
	}
	long := wrapText("supercalifragilistic word", 5, "")
	if !strings.HasPrefix(long, "supercalifragilistic\n") {
		t.Errorf("long word should sit alone on its line: %q", long)
	}
}

func TestRenderSparkline(t *testing.T) {
	bars := viz.Sparkline(map[int]int{2019: 0, 2020: 5, 2021: 10})
	got := renderSparkline(bars)
	if got != "▁▄█" {
		t.Errorf("renderSparkline() = %q, want %q", got, "▁▄█")
	}
	if got := renderSparkline(nil); got != "" {
		t.Errorf("renderSparkline(nil) = %q", got)
	}
}

func TestToggles(t *testing.T) {
	if len(toggleNames) != 8 {
		t.Fatalf("toggleNames = %v, want 8 names", toggleNames)
	}
	st := store.New()
	for _, name := range toggleNames {
		tg := toggles[name]
		before := tg.get(st.Snapshot())
		tg.flip(st)
		if after := tg.get(st.Snapshot()); after == before {
			t.Errorf("toggle %s did not flip", name)
		}
	}

	values := toggleValues(store.DefaultState())
	for _, name := range []string{"citation", "similarity", "hulls", "labels", "bloom"} {
		if !values[name] {
			t.Errorf("default %s = off, want on", name)
		}
	}
	for _, name := range []string{"ghost", "gap-overlay", "particles"} {
		if values[name] {
			t.Errorf("default %s = on, want off", name)
		}
	}
}

func TestConfigHelpers(t *testing.T) {
	if got := maskSecret(""); got != "" {
		t.Errorf("maskSecret(empty) = %q", got)
	}
	if got := maskSecret("short"); got != "****" {
		t.Errorf("maskSecret(short) = %q", got)
	}
	if got := maskSecret("sk-abcdefgh1234"); got != "****1234" {
		t.Errorf("maskSecret(long) = %q", got)
	}
	if got := normalizeKey("LLM_API_KEY"); got != "llm-api-key" {
		t.Errorf("normalizeKey() = %q", got)
	}
	for _, k := range configKeys {
		if _, ok := configFields[k]; !ok {
			t.Errorf("config key %s has no field", k)
		}
	}
	if len(configKeys) != len(configFields) {
		t.Errorf("configKeys has %d keys, configFields %d", len(configKeys), len(configFields))
	}
}

func TestReadGraphFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "graph.json")
	content := `{
  "nodes": [
    {"id": "p1", "title": "A", "cluster_id": 0},
    {"id": "p1", "title": "A again", "cluster_id": 0},
    {"id": "p2", "title": "B", "cluster_id": 0}
  ],
  "edges": [
    {"source": "p1", "target": "p2", "type": "citation", "weight": 1},
    {"source": "p1", "target": "p9", "type": "citation", "weight": 1}
  ],
  "clusters": [{"id": 0, "label": "c0", "paper_count": 2}],
  "meta": {"total": 2, "query": "q"}
}`
	if err := os.WriteFile(jsonPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	g, stats, err := readGraphFile(jsonPath)
	if err != nil {
		t.Fatalf("readGraphFile(json) error = %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Edges) != 1 {
		t.Errorf("graph = %d nodes, %d edges, want 2, 1", len(g.Nodes), len(g.Edges))
	}
	if stats.DuplicateNodes != 1 || stats.OrphanedEdges != 1 {
		t.Errorf("stats = %+v", stats)
	}

	if !isJSONL("x.JSONL") || isJSONL("x.json") {
		t.Error("isJSONL misclassified extensions")
	}

	if _, _, err := readGraphFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("readGraphFile(missing) should fail")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readGraphFile(bad); err == nil {
		t.Error("readGraphFile(bad) should fail")
	}
}

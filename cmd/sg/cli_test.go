package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/matsen/scholargraph/internal/storage"
)

const searchResponse = `{
  "nodes": [
    {"id": "p1", "title": "Phylogenetic inference", "year": 2019, "citation_count": 40, "cluster_id": 0, "x": 0, "y": 0, "z": 0},
    {"id": "p2", "title": "B cell lineages", "year": 2021, "citation_count": 12, "cluster_id": 0, "x": 1, "y": 1, "z": 0, "is_bridge": true}
  ],
  "edges": [{"source": "p1", "target": "p2", "type": "citation", "weight": 1}],
  "clusters": [{"id": 0, "label": "phylogenetics", "paper_count": 2}],
  "meta": {"total": 2}
}`

const expandResponse = `{
  "references": [{"paper_id": "r1", "title": "Older work", "year": 2010, "citation_count": 300}],
  "citations": [{"paper_id": "c1", "title": "Newer work", "year": 2023, "citation_count": 1}],
  "total_references": 1,
  "total_citations": 1
}`

// fakeBackend serves search and expand.
func fakeBackend(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, searchResponse)
	})
	mux.HandleFunc("POST /api/seed-explore", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["paper_id"] != "p1" {
			http.Error(w, `{"detail": "Seed paper not found"}`, http.StatusNotFound)
			return
		}
		if req["include_citations"] != false {
			t.Errorf("seed request = %v, want include_citations false", req)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, searchResponse)
	})
	mux.HandleFunc("POST /api/papers/{id}/expand", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("limit"); got != "" && got != "10" {
			t.Errorf("expand limit = %q", got)
		}
		if r.PathValue("id") != "p1" {
			http.Error(w, `{"detail": "unknown paper"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, expandResponse)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

// setupCLI isolates config and workspace and points the CLI at url.
func setupCLI(t *testing.T, url string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("SG_API_URL", url)
	t.Setenv("SG_TOKEN", "")
	t.Setenv("SG_LOG_LEVEL", "error")
	t.Setenv("SG_WORKSPACE_DIR", filepath.Join(dir, "ws"))

	humanOutput = false
	configPath = ""
	workspaceDir = ""
	searchNatural = false
	expandLimit = 0
	seedNoCitations = false
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	return filepath.Join(dir, "ws")
}

// runCLI executes the root command in-process and returns its stdout.
func runCLI(t *testing.T, args ...string) []byte {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	orig := os.Stdout
	os.Stdout = w

	done := make(chan []byte)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		done <- buf.Bytes()
	}()

	rootCmd.SetArgs(args)
	execErr := rootCmd.Execute()

	w.Close()
	os.Stdout = orig
	out := <-done
	r.Close()

	if execErr != nil {
		t.Fatalf("sg %v: %v", args, execErr)
	}
	return out
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decoding %s: %v", data, err)
	}
	return v
}

func TestCLI_SearchExpandAndOverlays(t *testing.T) {
	srv, calls := fakeBackend(t)
	ws := setupCLI(t, srv.URL)

	summary := decode[GraphSummary](t, runCLI(t, "search", "b", "cell", "phylogenetics"))
	if summary.Nodes != 2 || summary.Edges != 1 || summary.Clusters != 1 {
		t.Fatalf("search summary = %+v", summary)
	}
	if summary.Query != "b cell phylogenetics" {
		t.Errorf("query = %q", summary.Query)
	}

	expand := decode[ExpandResponse](t, runCLI(t, "expand", "p1"))
	if expand.Stats.NodesAdded != 2 || expand.Stats.EdgesAdded != 2 {
		t.Errorf("expand stats = %+v", expand.Stats)
	}
	if expand.Graph.Nodes != 4 {
		t.Errorf("graph after expand has %d nodes, want 4", expand.Graph.Nodes)
	}

	hl := decode[HighlightResponse](t, runCLI(t, "highlight", "p1", "r1"))
	if hl.Count != 2 {
		t.Errorf("highlight = %+v", hl)
	}

	tg := decode[ToggleResponse](t, runCLI(t, "toggle", "ghost"))
	if tg.Name != "ghost" || !tg.Enabled {
		t.Errorf("toggle = %+v", tg)
	}

	status := decode[WorkspaceStatus](t, runCLI(t, "status"))
	if status.Graph == nil || status.Graph.Nodes != 4 || status.Graph.Edges != 3 {
		t.Fatalf("status graph = %+v", status.Graph)
	}
	if status.Highlighted != 2 || status.BridgeNodes != 1 {
		t.Errorf("status overlays = highlighted %d, bridges %d", status.Highlighted, status.BridgeNodes)
	}
	if !status.Toggles["ghost"] || !status.Toggles["citation"] {
		t.Errorf("toggles = %v", status.Toggles)
	}

	papersResp := decode[PapersResponse](t, runCLI(t, "papers", "--highlighted"))
	if papersResp.Count != 2 || papersResp.Papers[0].ID != "r1" {
		t.Errorf("highlighted papers = %+v", papersResp)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("backend calls = %d, want 2", got)
	}

	st, err := storage.LoadWorkspace(filepath.Join(ws, storage.WorkspaceFile))
	if err != nil {
		t.Fatalf("LoadWorkspace() error = %v", err)
	}
	if len(st.Graph.Nodes) != 4 || !st.Effects.GhostEdges || st.Loading {
		t.Errorf("persisted workspace = %d nodes, ghost %v, loading %v",
			len(st.Graph.Nodes), st.Effects.GhostEdges, st.Loading)
	}
}

func TestCLI_NewSearchResetsOverlays(t *testing.T) {
	srv, _ := fakeBackend(t)
	setupCLI(t, srv.URL)

	runCLI(t, "search", "first")
	runCLI(t, "highlight", "p1")
	runCLI(t, "toggle", "labels")
	runCLI(t, "search", "second")

	status := decode[WorkspaceStatus](t, runCLI(t, "status"))
	if status.Highlighted != 0 {
		t.Errorf("highlights survived a new search: %d", status.Highlighted)
	}
	if status.Toggles["labels"] {
		t.Error("labels toggle should persist across searches as off")
	}
	if status.Graph == nil || status.Graph.Query != "second" {
		t.Errorf("graph = %+v", status.Graph)
	}
}

func TestCLI_SeedThenExpandWithLimit(t *testing.T) {
	srv, calls := fakeBackend(t)
	setupCLI(t, srv.URL)

	summary := decode[GraphSummary](t, runCLI(t, "seed", "p1", "--no-citations"))
	if summary.Nodes != 2 || summary.Query != "seed:p1" {
		t.Fatalf("seed summary = %+v", summary)
	}

	expand := decode[ExpandResponse](t, runCLI(t, "expand", "p1", "--limit", "10"))
	if expand.Graph.Nodes != 4 {
		t.Errorf("graph after expand has %d nodes, want 4", expand.Graph.Nodes)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("backend calls = %d, want 2", got)
	}
}

package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGraphJSONL_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.jsonl")
	g := testGraph()

	if err := WriteGraphJSONL(path, g); err != nil {
		t.Fatalf("WriteGraphJSONL() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if want := 1 + len(g.Clusters) + len(g.Nodes) + len(g.Edges); len(lines) != want {
		t.Errorf("line count = %d, want %d", len(lines), want)
	}
	if !strings.Contains(lines[0], `"kind":"meta"`) {
		t.Errorf("first line = %s, want meta record", lines[0])
	}

	got, stats, err := ReadGraphJSONL(path)
	if err != nil {
		t.Fatalf("ReadGraphJSONL() error = %v", err)
	}
	if stats.Dropped() != 0 {
		t.Errorf("Dropped() = %d, want 0", stats.Dropped())
	}
	if len(got.Nodes) != 3 || len(got.Edges) != 2 || len(got.Clusters) != 2 {
		t.Errorf("sizes = %d/%d/%d, want 3/2/2", len(got.Nodes), len(got.Edges), len(got.Clusters))
	}
	if got.Meta.Query != g.Meta.Query {
		t.Errorf("Meta.Query = %q, want %q", got.Meta.Query, g.Meta.Query)
	}
}

func TestReadGraphJSONL_NormalizesInput(t *testing.T) {
	content := `{"kind":"edge","edge":{"source":"a","target":"b","type":"citation","weight":1}}
{"kind":"node","node":{"id":"a","title":"A","cluster_id":-1}}

{"kind":"node","node":{"id":"b","title":"B","cluster_id":-1}}
{"kind":"node","node":{"id":"a","title":"A again","cluster_id":-1}}
{"kind":"edge","edge":{"source":"a","target":"ghost","type":"citation","weight":1}}
`
	path := filepath.Join(t.TempDir(), "graph.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	g, stats, err := ReadGraphJSONL(path)
	if err != nil {
		t.Fatalf("ReadGraphJSONL() error = %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Errorf("edges = %d, want 1 (edge before its nodes is kept)", len(g.Edges))
	}
	if stats.DuplicateNodes != 1 || stats.OrphanedEdges != 1 {
		t.Errorf("stats = %+v, want 1 duplicate node and 1 orphaned edge", stats)
	}
}

func TestReadGraphJSONL_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"malformed", "{not json}\n", "parsing line 1"},
		{"unknown kind", `{"kind":"author"}` + "\n", "unknown or empty record kind"},
		{"kind without payload", `{"kind":"node"}` + "\n", "unknown or empty record kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, _, err := ReadGraphJSONL(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ReadGraphJSONL() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	if _, _, err := ReadGraphJSONL(filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("ReadGraphJSONL() on missing file should fail")
	}
}

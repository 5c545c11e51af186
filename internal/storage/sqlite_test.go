package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/scholargraph/internal/cluster"
	"github.com/matsen/scholargraph/internal/edge"
	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

func testGraph() *graph.GraphData {
	return &graph.GraphData{
		Nodes: []paper.Paper{
			{
				ID:      "p1",
				Title:   "Bayesian Phylogenetics of B Cell Lineages",
				Authors: []paper.Author{{Name: "Frederick Matsen"}},
			},
			{ID: "p2", Title: "Antibody Affinity Maturation", ClusterID: 0},
			{ID: "p3", Title: "Germinal Center Dynamics", ClusterID: 1, IsBridge: true},
		},
		Edges: []edge.Edge{
			{Source: "p1", Target: "p2", Type: edge.TypeCitation, Weight: 1},
			{Source: "p2", Target: "p3", Type: edge.TypeSimilarity, Weight: 0.4},
		},
		Clusters: []cluster.Cluster{
			{ID: 0, Label: "Phylogenetics"},
			{ID: 1, Label: "Immunology"},
		},
		Meta: graph.Meta{Total: 40, Query: "b cell phylogenetics"},
	}
}

// setupTestDB opens a database with a deterministic clock and id source.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "graphs.db"))
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	n := 0
	db.newID = func() string {
		n++
		return fmt.Sprintf("graph-%d", n)
	}
	return db
}

func TestSaveAndLoadGraph(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveGraph(ctx, "  B cells  ", testGraph())
	if err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}
	if saved.ID != "graph-1" {
		t.Errorf("ID = %q, want graph-1", saved.ID)
	}
	if saved.Name != "B cells" {
		t.Errorf("Name = %q, want trimmed name", saved.Name)
	}
	if saved.SeedQuery != "b cell phylogenetics" || saved.PaperCount != 3 {
		t.Errorf("summary = %+v", saved.SavedSummary)
	}

	loaded, err := db.LoadGraph(ctx, saved.ID)
	if err != nil {
		t.Fatalf("LoadGraph() error = %v", err)
	}
	if !loaded.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", loaded.CreatedAt, saved.CreatedAt)
	}
	if len(loaded.Graph.Nodes) != 3 || len(loaded.Graph.Edges) != 2 || len(loaded.Graph.Clusters) != 2 {
		t.Errorf("loaded graph sizes = %d/%d/%d, want 3/2/2",
			len(loaded.Graph.Nodes), len(loaded.Graph.Edges), len(loaded.Graph.Clusters))
	}
	if loaded.Graph.Meta.Total != 40 {
		t.Errorf("Meta.Total = %d, want 40", loaded.Graph.Meta.Total)
	}
	if n, _ := loaded.Graph.NodeByID("p3"); !n.IsBridge {
		t.Error("bridge flag lost in round trip")
	}
}

func TestSaveGraph_EmptyName(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.SaveGraph(context.Background(), " ", testGraph())
	if !errors.Is(err, graph.ErrEmptyName) {
		t.Errorf("SaveGraph() error = %v, want ErrEmptyName", err)
	}
}

func TestListGraphs_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"first", "second", "third"} {
		if _, err := db.SaveGraph(ctx, name, testGraph()); err != nil {
			t.Fatalf("SaveGraph(%s) error = %v", name, err)
		}
	}

	list, err := db.ListGraphs(ctx)
	if err != nil {
		t.Fatalf("ListGraphs() error = %v", err)
	}
	var names []string
	for _, s := range list {
		names = append(names, s.Name)
	}
	want := []string{"third", "second", "first"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Errorf("ListGraphs() names = %v, want %v", names, want)
	}

	count, err := db.Count(ctx)
	if err != nil || count != 3 {
		t.Errorf("Count() = %d, %v, want 3", count, err)
	}
}

func TestLoadGraph_NotFound(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.LoadGraph(context.Background(), "missing")
	if !errors.Is(err, graph.ErrSavedNotFound) {
		t.Errorf("LoadGraph() error = %v, want ErrSavedNotFound", err)
	}
}

func TestDeleteGraph(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveGraph(ctx, "doomed", testGraph())
	if err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}
	if err := db.DeleteGraph(ctx, saved.ID); err != nil {
		t.Fatalf("DeleteGraph() error = %v", err)
	}
	if _, err := db.LoadGraph(ctx, saved.ID); !errors.Is(err, graph.ErrSavedNotFound) {
		t.Errorf("LoadGraph() after delete error = %v, want ErrSavedNotFound", err)
	}
	if err := db.DeleteGraph(ctx, saved.ID); !errors.Is(err, graph.ErrSavedNotFound) {
		t.Errorf("second DeleteGraph() error = %v, want ErrSavedNotFound", err)
	}

	hits, err := db.FindPapers(ctx, "phylogenetics", 10)
	if err != nil {
		t.Fatalf("FindPapers() error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("FindPapers() after delete = %v, want none", hits)
	}
}

func TestUpdateGraph(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveGraph(ctx, "B cells", testGraph())
	if err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}

	g := testGraph()
	g.Nodes = append(g.Nodes, paper.Paper{ID: "p4", Title: "Somatic Hypermutation Models", ClusterID: 1})
	updated, err := db.UpdateGraph(ctx, saved.ID, "", g)
	if err != nil {
		t.Fatalf("UpdateGraph() error = %v", err)
	}
	if updated.Name != "B cells" {
		t.Errorf("Name = %q, want the saved name kept", updated.Name)
	}
	if updated.PaperCount != 4 || len(updated.Graph.Nodes) != 4 {
		t.Errorf("PaperCount = %d, nodes = %d, want 4", updated.PaperCount, len(updated.Graph.Nodes))
	}
	if !updated.CreatedAt.Equal(saved.CreatedAt) || !updated.UpdatedAt.After(saved.UpdatedAt) {
		t.Errorf("timestamps = %v/%v, saved %v/%v",
			updated.CreatedAt, updated.UpdatedAt, saved.CreatedAt, saved.UpdatedAt)
	}

	hits, err := db.FindPapers(ctx, "hypermutation", 10)
	if err != nil {
		t.Fatalf("FindPapers() error = %v", err)
	}
	if len(hits) != 1 || hits[0].PaperID != "p4" {
		t.Errorf("FindPapers() after update = %v, want p4", hits)
	}
	if hits, _ := db.FindPapers(ctx, "affinity", 10); len(hits) != 1 {
		t.Errorf("FindPapers(affinity) = %v, want one hit after reindexing", hits)
	}

	renamed, err := db.UpdateGraph(ctx, saved.ID, " Germinal centers ", g)
	if err != nil {
		t.Fatalf("UpdateGraph(rename) error = %v", err)
	}
	if renamed.Name != "Germinal centers" {
		t.Errorf("Name = %q, want trimmed new name", renamed.Name)
	}

	if _, err := db.UpdateGraph(ctx, "missing", "", g); !errors.Is(err, graph.ErrSavedNotFound) {
		t.Errorf("UpdateGraph(missing) error = %v, want ErrSavedNotFound", err)
	}
}

func TestFindPapers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	saved, err := db.SaveGraph(ctx, "B cells", testGraph())
	if err != nil {
		t.Fatalf("SaveGraph() error = %v", err)
	}

	tests := []struct {
		name    string
		query   string
		wantIDs []string
	}{
		{"title word", "affinity", []string{"p2"}},
		{"author", "Matsen", []string{"p1"}},
		{"hyphenated phrase", "B-cell", []string{"p1"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := db.FindPapers(ctx, tt.query, 10)
			if err != nil {
				t.Fatalf("FindPapers(%q) error = %v", tt.query, err)
			}
			var ids []string
			for _, h := range hits {
				ids = append(ids, h.PaperID)
				if h.GraphID != saved.ID || h.GraphName != "B cells" {
					t.Errorf("hit = %+v, want graph %s", h, saved.ID)
				}
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) {
				t.Errorf("FindPapers(%q) ids = %v, want %v", tt.query, ids, tt.wantIDs)
			}
		})
	}
}

func TestPrepareFTSQuery(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"antibody", "antibody"},
		{"  spaced  ", "spaced"},
		{"B-cell", `"B-cell"`},
		{`say "hi"`, `"say ""hi"""`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := prepareFTSQuery(tt.input); got != tt.want {
			t.Errorf("prepareFTSQuery(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

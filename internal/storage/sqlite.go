// Package storage handles local persistence: saved graphs in SQLite, graph
// exchange files in JSONL and the CLI workspace snapshot in JSON.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/paper"
)

// DB wraps a SQLite database of saved graphs.
type DB struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

const selectSavedFields = `id, name, seed_query, paper_count, created_at, updated_at`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{
		db:    db,
		now:   time.Now,
		newID: uuid.NewString,
	}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS saved_graphs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seed_query TEXT,
			paper_count INTEGER NOT NULL,
			graph_json TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_saved_graphs_updated ON saved_graphs(updated_at);

		-- Papers of every saved graph, for finding which graph holds a paper
		CREATE VIRTUAL TABLE IF NOT EXISTS saved_papers_fts USING fts5(
			graph_id UNINDEXED,
			paper_id UNINDEXED,
			title,
			abstract,
			authors_text
		);
	`

	_, err := db.Exec(schema)
	return err
}

// SaveGraph stores g under name with a fresh id.
func (d *DB) SaveGraph(ctx context.Context, name string, g *graph.GraphData) (*graph.Saved, error) {
	name, err := graph.ValidateName(name)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.New("cannot save an empty graph")
	}

	graphJSON, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshaling graph: %w", err)
	}

	now := d.now().UTC()
	saved := &graph.Saved{
		SavedSummary: graph.SavedSummary{
			ID:         d.newID(),
			Name:       name,
			SeedQuery:  g.Meta.Query,
			PaperCount: len(g.Nodes),
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Graph: g.Clone(),
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saved_graphs (id, name, seed_query, paper_count, graph_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, saved.ID, saved.Name, nullableStringValue(saved.SeedQuery), saved.PaperCount,
		string(graphJSON), now.UnixMilli(), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("inserting saved graph %s: %w", saved.ID, err)
	}

	if err := indexPapers(ctx, tx, saved.ID, g.Nodes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing saved graph: %w", err)
	}
	return saved, nil
}

// UpdateGraph replaces the graph stored under id, renaming it when name is
// not empty. The creation time is kept.
func (d *DB) UpdateGraph(ctx context.Context, id, name string, g *graph.GraphData) (*graph.Saved, error) {
	if name != "" {
		var err error
		if name, err = graph.ValidateName(name); err != nil {
			return nil, err
		}
	}
	if g == nil {
		return nil, errors.New("cannot save an empty graph")
	}
	graphJSON, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshaling graph: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE saved_graphs
		SET name = COALESCE(NULLIF(?, ''), name), seed_query = ?, paper_count = ?, graph_json = ?, updated_at = ?
		WHERE id = ?
	`, name, nullableStringValue(g.Meta.Query), len(g.Nodes), string(graphJSON), d.now().UTC().UnixMilli(), id)
	if err != nil {
		return nil, fmt.Errorf("updating saved graph %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", graph.ErrSavedNotFound, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_papers_fts WHERE graph_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clearing fts for %s: %w", id, err)
	}
	if err := indexPapers(ctx, tx, id, g.Nodes); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing saved graph: %w", err)
	}
	return d.LoadGraph(ctx, id)
}

// indexPapers adds the papers of a saved graph to the search table.
func indexPapers(ctx context.Context, tx *sql.Tx, graphID string, nodes []paper.Paper) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO saved_papers_fts (graph_id, paper_id, title, abstract, authors_text)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing fts insert: %w", err)
	}
	defer stmt.Close()

	for _, n := range nodes {
		if _, err := stmt.ExecContext(ctx, graphID, n.ID, n.Title, n.Abstract, formatAuthorsText(n.Authors)); err != nil {
			return fmt.Errorf("inserting fts for %s: %w", n.ID, err)
		}
	}
	return nil
}

// formatAuthorsText creates a searchable text representation of authors.
func formatAuthorsText(authors []paper.Author) string {
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// ListGraphs returns every saved graph, most recently updated first.
func (d *DB) ListGraphs(ctx context.Context) ([]graph.SavedSummary, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+selectSavedFields+` FROM saved_graphs ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing saved graphs: %w", err)
	}
	defer rows.Close()

	var out []graph.SavedSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadGraph returns a saved graph. The stored graph is normalized on the way
// out, exactly like a backend response.
func (d *DB) LoadGraph(ctx context.Context, id string) (*graph.Saved, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+selectSavedFields+`, graph_json FROM saved_graphs WHERE id = ?`, id)

	var s graph.SavedSummary
	var seedQuery sql.NullString
	var created, updated int64
	var graphJSON string
	err := row.Scan(&s.ID, &s.Name, &seedQuery, &s.PaperCount, &created, &updated, &graphJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", graph.ErrSavedNotFound, id)
		}
		return nil, fmt.Errorf("loading saved graph %s: %w", id, err)
	}
	s.SeedQuery = seedQuery.String
	s.CreatedAt = time.UnixMilli(created).UTC()
	s.UpdatedAt = time.UnixMilli(updated).UTC()

	var g graph.GraphData
	if err := json.Unmarshal([]byte(graphJSON), &g); err != nil {
		return nil, fmt.Errorf("parsing graph JSON for %s: %w", id, err)
	}
	normalized, _ := graph.Normalize(&g)
	return &graph.Saved{SavedSummary: s, Graph: normalized}, nil
}

// DeleteGraph removes a saved graph and its search entries.
func (d *DB) DeleteGraph(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM saved_graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting saved graph %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", graph.ErrSavedNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_papers_fts WHERE graph_id = ?`, id); err != nil {
		return fmt.Errorf("deleting fts for %s: %w", id, err)
	}
	return tx.Commit()
}

// PaperHit is a paper found in a saved graph.
type PaperHit struct {
	GraphID   string `json:"graph_id"`
	GraphName string `json:"graph_name"`
	PaperID   string `json:"paper_id"`
	Title     string `json:"title"`
}

// FindPapers performs a full-text search over the papers of all saved graphs.
func (d *DB) FindPapers(ctx context.Context, query string, limit int) ([]PaperHit, error) {
	ftsQuery := prepareFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT saved_papers_fts.graph_id, g.name, saved_papers_fts.paper_id, saved_papers_fts.title
		FROM saved_papers_fts
		JOIN saved_graphs g ON g.id = saved_papers_fts.graph_id
		WHERE saved_papers_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("searching saved papers: %w", err)
	}
	defer rows.Close()

	var hits []PaperHit
	for rows.Next() {
		var h PaperHit
		if err := rows.Scan(&h.GraphID, &h.GraphName, &h.PaperID, &h.Title); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// Count returns the number of saved graphs.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saved_graphs").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(s scanner) (graph.SavedSummary, error) {
	var out graph.SavedSummary
	var seedQuery sql.NullString
	var created, updated int64
	if err := s.Scan(&out.ID, &out.Name, &seedQuery, &out.PaperCount, &created, &updated); err != nil {
		return graph.SavedSummary{}, err
	}
	out.SeedQuery = seedQuery.String
	out.CreatedAt = time.UnixMilli(created).UTC()
	out.UpdatedAt = time.UnixMilli(updated).UTC()
	return out, nil
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// prepareFTSQuery escapes special characters for FTS5 queries.
func prepareFTSQuery(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	// FTS5 uses double quotes for phrase matching
	if strings.ContainsAny(query, "\"*+-:(){}[]^~") {
		query = strings.ReplaceAll(query, "\"", "\"\"")
		return "\"" + query + "\""
	}

	return query
}

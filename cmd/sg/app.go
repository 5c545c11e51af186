package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/matsen/scholargraph/internal/client"
	"github.com/matsen/scholargraph/internal/config"
	"github.com/matsen/scholargraph/internal/session"
	"github.com/matsen/scholargraph/internal/storage"
	"github.com/matsen/scholargraph/internal/store"
)

// app bundles everything a command needs. Every command restores the
// workspace snapshot on start and writes it back on exit.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	client  *client.Client
	db      *storage.DB
	session *session.Session
}

// mustLoadConfig loads the config or exits with ExitConfigError.
func mustLoadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if workspaceDir != "" {
		cfg.WorkspaceDir = config.ExpandPath(workspaceDir)
	}
	return cfg
}

// mustOpenApp builds the store, backend client and session. With local set,
// saved graphs live in the workspace SQLite database instead of the backend.
func mustOpenApp(local bool) *app {
	cfg := mustLoadConfig()
	logger := cfg.Logger(os.Stderr)

	var storeOpts []store.Option
	storeOpts = append(storeOpts, store.WithLogger(logger))
	if cfg.PairOnlyDedup() {
		storeOpts = append(storeOpts, store.WithPairOnlyConceptualDedup())
	}
	st := store.New(storeOpts...)

	saved, err := storage.LoadWorkspace(workspacePath(cfg))
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	st.Restore(saved)

	c := client.New(
		client.WithBaseURL(cfg.APIURL),
		client.WithTokenSource(client.StaticToken(cfg.Token)),
		client.WithRateLimit(cfg.RateLimit),
		client.WithLogger(logger),
	)

	a := &app{cfg: cfg, logger: logger, store: st, client: c}

	var repo session.GraphRepository = c
	if local {
		a.db = mustOpenDatabase(cfg)
		repo = a.db
	}

	a.session = session.New(st, c, repo,
		session.WithLogger(logger),
		session.WithLLM(client.LLM{
			Provider: cfg.LLMProvider,
			APIKey:   cfg.LLMAPIKey,
			Model:    cfg.LLMModel,
		}),
	)
	return a
}

// mustOpenDatabase opens the local saved-graph database.
func mustOpenDatabase(cfg *config.Config) *storage.DB {
	if err := os.MkdirAll(cfg.WorkspaceDir, 0755); err != nil {
		exitWithError(ExitConfigError, "creating workspace directory: %v", err)
	}
	db, err := storage.OpenDB(cfg.DBPath())
	if err != nil {
		exitWithError(ExitConfigError, "opening database: %v", err)
	}
	return db
}

func workspacePath(cfg *config.Config) string {
	return filepath.Join(cfg.WorkspaceDir, storage.WorkspaceFile)
}

// commandContext returns a context cancelled on interrupt.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// close persists the workspace and releases the database.
func (a *app) close() {
	if err := storage.SaveWorkspace(workspacePath(a.cfg), a.store.Snapshot()); err != nil {
		a.logger.Error("saving workspace", "error", err)
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("closing database", "error", err)
		}
	}
}

// fail persists the workspace, then reports err with the exit code its
// class maps to.
func (a *app) fail(op string, err error) {
	a.close()
	exitCode, code := classifyError(err)
	exitWithCode(exitCode, code, session.Describe(op, err))
}

// mustGraph exits with ExitDataError when no graph is loaded.
func (a *app) mustGraph() store.State {
	st := a.store.Snapshot()
	if !st.HasGraph() {
		a.close()
		exitWithCode(ExitDataError, codeNoGraph, fmt.Sprintf("%v: run sg search first", session.ErrNoGraph))
	}
	return st
}

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/scholargraph/internal/graph"
	"github.com/matsen/scholargraph/internal/store"
)

// WorkspaceVersion is the current workspace file format.
const WorkspaceVersion = 1

// WorkspaceFile is the file name of the workspace inside its directory.
const WorkspaceFile = "workspace.json"

// ErrWorkspaceVersion is returned for workspace files of another format.
var ErrWorkspaceVersion = errors.New("unsupported workspace version")

// Workspace is the on-disk form of a store snapshot.
type Workspace struct {
	Version int         `json:"version"`
	SavedAt time.Time   `json:"saved_at"`
	State   store.State `json:"state"`
}

// SaveWorkspace writes a store snapshot to path. The file is replaced
// atomically so a crash never leaves a truncated workspace.
func SaveWorkspace(path string, st store.State) error {
	st.Loading = false
	data, err := json.MarshalIndent(Workspace{
		Version: WorkspaceVersion,
		SavedAt: time.Now().UTC(),
		State:   st,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding workspace: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating workspace directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".workspace-*.json")
	if err != nil {
		return fmt.Errorf("creating temp workspace: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing workspace: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing workspace: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing workspace: %w", err)
	}
	return nil
}

// LoadWorkspace reads a store snapshot from path. A missing file yields the
// default state. The graph is re-normalized so a hand-edited workspace can
// never break the graph invariants.
func LoadWorkspace(path string) (store.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store.DefaultState(), nil
		}
		return store.State{}, fmt.Errorf("reading workspace: %w", err)
	}

	ws := Workspace{State: store.DefaultState()}
	if err := json.Unmarshal(data, &ws); err != nil {
		return store.State{}, fmt.Errorf("parsing workspace %s: %w", path, err)
	}
	if ws.Version != WorkspaceVersion {
		return store.State{}, fmt.Errorf("%w: %d", ErrWorkspaceVersion, ws.Version)
	}

	st := ws.State
	st.Loading = false
	if st.Graph != nil {
		st.Graph, _ = graph.Normalize(st.Graph)
	}
	return st, nil
}

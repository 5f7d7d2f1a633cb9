package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
)

// FileStore persists each tournament as a JSON file on disk.
// Files are stored as {dir}/{tournament-id}.json.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(id string) string {
	return filepath.Join(f.dir, id+".json")
}

// read loads a tournament. A missing file is an empty tournament.
func (f *FileStore) read(id string) (*tournament, error) {
	if err := checkTournamentID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return &tournament{ID: id}, nil
		}
		return nil, fmt.Errorf("reading tournament %s: %w", id, err)
	}

	var t tournament
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding tournament %s: %w", id, err)
	}
	return &t, nil
}

func (f *FileStore) write(t *tournament) error {
	t.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding tournament %s: %w", t.ID, err)
	}

	// Write to temp file then rename for atomic writes
	tmp := f.path(t.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing tournament %s: %w", t.ID, err)
	}
	if err := os.Rename(tmp, f.path(t.ID)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming tournament file %s: %w", t.ID, err)
	}
	return nil
}

func (f *FileStore) view(id string) (*tournament, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.read(id)
}

func (f *FileStore) update(id string, fn func(t *tournament) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, err := f.read(id)
	if err != nil {
		return err
	}
	if err := fn(t); err != nil {
		return err
	}
	return f.write(t)
}

func (f *FileStore) SaveGroups(_ context.Context, tournamentID string, groups []config.Group) error {
	return f.update(tournamentID, func(t *tournament) error {
		t.Groups = cloneGroups(groups)
		return nil
	})
}

func (f *FileStore) ListGroups(_ context.Context, tournamentID string) ([]config.Group, error) {
	t, err := f.view(tournamentID)
	if err != nil {
		return nil, err
	}
	return nonNilGroups(t.Groups), nil
}

func (f *FileStore) ReplaceFixtures(_ context.Context, tournamentID string, fixtures []schedule.Fixture) error {
	return f.update(tournamentID, func(t *tournament) error {
		t.Fixtures = append([]schedule.Fixture{}, fixtures...)
		return nil
	})
}

func (f *FileStore) ListFixtures(_ context.Context, tournamentID string) ([]schedule.Fixture, error) {
	t, err := f.view(tournamentID)
	if err != nil {
		return nil, err
	}
	return append([]schedule.Fixture{}, t.Fixtures...), nil
}

func (f *FileStore) RenameTeam(_ context.Context, tournamentID, oldName, newName string) error {
	return f.update(tournamentID, func(t *tournament) error {
		return t.renameTeam(oldName, newName)
	})
}

func (f *FileStore) AddResult(_ context.Context, tournamentID string, r standings.Result) (standings.Result, error) {
	r, err := prepareResult(r)
	if err != nil {
		return standings.Result{}, err
	}
	err = f.update(tournamentID, func(t *tournament) error {
		t.upsertResult(r)
		return nil
	})
	if err != nil {
		return standings.Result{}, err
	}
	return r, nil
}

func (f *FileStore) ListResults(_ context.Context, tournamentID string) ([]standings.Result, error) {
	t, err := f.view(tournamentID)
	if err != nil {
		return nil, err
	}
	return append([]standings.Result{}, t.Results...), nil
}

func (f *FileStore) SaveBracket(_ context.Context, tournamentID string, b *knockout.Bracket) error {
	return f.update(tournamentID, func(t *tournament) error {
		t.Bracket = cloneBracket(b)
		return nil
	})
}

func (f *FileStore) GetBracket(_ context.Context, tournamentID string) (*knockout.Bracket, error) {
	t, err := f.view(tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Bracket == nil {
		return nil, ErrNotFound
	}
	return t.Bracket, nil
}

func (f *FileStore) Reset(_ context.Context, tournamentID string) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path(tournamentID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting tournament %s: %w", tournamentID, err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

func nonNilGroups(groups []config.Group) []config.Group {
	if groups == nil {
		return []config.Group{}
	}
	return groups
}

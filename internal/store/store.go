package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// ErrInvalidID is returned for blank or path-like tournament ids.
	ErrInvalidID = errors.New("invalid tournament id")
)

// Store persists everything that belongs to a tournament. Every method is
// scoped by tournament id; lists for an unknown tournament are empty.
type Store interface {
	SaveGroups(ctx context.Context, tournamentID string, groups []config.Group) error
	ListGroups(ctx context.Context, tournamentID string) ([]config.Group, error)

	// ReplaceFixtures swaps the whole fixture list in one step. Readers see
	// either the old list or the new one, never a mix.
	ReplaceFixtures(ctx context.Context, tournamentID string, fixtures []schedule.Fixture) error
	ListFixtures(ctx context.Context, tournamentID string) ([]schedule.Fixture, error)

	// RenameTeam replaces a team name in groups, fixtures, results and the
	// knockout bracket.
	RenameTeam(ctx context.Context, tournamentID, oldName, newName string) error

	AddResult(ctx context.Context, tournamentID string, r standings.Result) (standings.Result, error)
	ListResults(ctx context.Context, tournamentID string) ([]standings.Result, error)

	SaveBracket(ctx context.Context, tournamentID string, b *knockout.Bracket) error
	GetBracket(ctx context.Context, tournamentID string) (*knockout.Bracket, error)

	// Reset removes all data for the tournament.
	Reset(ctx context.Context, tournamentID string) error
	Close() error
}

// Watcher is implemented by stores that can push fixture changes. The
// channel receives the current list immediately and again after every
// change, and is closed when ctx is done.
type Watcher interface {
	WatchFixtures(ctx context.Context, tournamentID string) (<-chan []schedule.Fixture, error)
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendFile:
		return NewFileStore(cfg.Path)
	case config.BackendSQLite:
		return NewSQLiteStore(ctx, cfg.Path)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	case config.BackendFirestore:
		return NewFirestoreStore(ctx, cfg.ProjectID, cfg.CredentialsFile)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Watcher = (*MemoryStore)(nil)
	_ Store   = (*FileStore)(nil)
	_ Store   = (*SQLStore)(nil)
	_ Store   = (*FirestoreStore)(nil)
	_ Watcher = (*FirestoreStore)(nil)
)

package store

import (
	"context"
	"sync"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
)

// MemoryStore keeps tournaments in memory. Data is lost when the process
// exits.
type MemoryStore struct {
	mu          sync.RWMutex
	tournaments map[string]*tournament
	watchers    map[string][]chan []schedule.Fixture
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tournaments: make(map[string]*tournament),
		watchers:    make(map[string][]chan []schedule.Fixture),
	}
}

// get returns the tournament, creating it if needed. Caller holds the write lock.
func (m *MemoryStore) get(id string) *tournament {
	t, ok := m.tournaments[id]
	if !ok {
		t = &tournament{ID: id}
		m.tournaments[id] = t
	}
	return t
}

// view returns a copy of the tournament or an empty one.
func (m *MemoryStore) view(id string) *tournament {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.tournaments[id]; ok {
		return t.clone()
	}
	return (&tournament{ID: id}).clone()
}

func (m *MemoryStore) update(id string, fn func(t *tournament) error) error {
	if err := checkTournamentID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.get(id)
	next := t.clone()
	if err := fn(next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now()
	m.tournaments[id] = next
	return nil
}

func (m *MemoryStore) SaveGroups(_ context.Context, tournamentID string, groups []config.Group) error {
	return m.update(tournamentID, func(t *tournament) error {
		t.Groups = cloneGroups(groups)
		return nil
	})
}

func (m *MemoryStore) ListGroups(_ context.Context, tournamentID string) ([]config.Group, error) {
	return m.view(tournamentID).Groups, nil
}

func (m *MemoryStore) ReplaceFixtures(_ context.Context, tournamentID string, fixtures []schedule.Fixture) error {
	err := m.update(tournamentID, func(t *tournament) error {
		t.Fixtures = append([]schedule.Fixture{}, fixtures...)
		return nil
	})
	if err != nil {
		return err
	}
	m.notify(tournamentID)
	return nil
}

func (m *MemoryStore) ListFixtures(_ context.Context, tournamentID string) ([]schedule.Fixture, error) {
	return m.view(tournamentID).Fixtures, nil
}

func (m *MemoryStore) RenameTeam(_ context.Context, tournamentID, oldName, newName string) error {
	err := m.update(tournamentID, func(t *tournament) error {
		return t.renameTeam(oldName, newName)
	})
	if err != nil {
		return err
	}
	m.notify(tournamentID)
	return nil
}

func (m *MemoryStore) AddResult(_ context.Context, tournamentID string, r standings.Result) (standings.Result, error) {
	r, err := prepareResult(r)
	if err != nil {
		return standings.Result{}, err
	}
	err = m.update(tournamentID, func(t *tournament) error {
		t.upsertResult(r)
		return nil
	})
	if err != nil {
		return standings.Result{}, err
	}
	return r, nil
}

func (m *MemoryStore) ListResults(_ context.Context, tournamentID string) ([]standings.Result, error) {
	return m.view(tournamentID).Results, nil
}

func (m *MemoryStore) SaveBracket(_ context.Context, tournamentID string, b *knockout.Bracket) error {
	return m.update(tournamentID, func(t *tournament) error {
		t.Bracket = cloneBracket(b)
		return nil
	})
}

func (m *MemoryStore) GetBracket(_ context.Context, tournamentID string) (*knockout.Bracket, error) {
	b := m.view(tournamentID).Bracket
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *MemoryStore) Reset(_ context.Context, tournamentID string) error {
	m.mu.Lock()
	delete(m.tournaments, tournamentID)
	m.mu.Unlock()
	m.notify(tournamentID)
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, chans := range m.watchers {
		for _, ch := range chans {
			close(ch)
		}
		delete(m.watchers, id)
	}
	return nil
}

func (m *MemoryStore) WatchFixtures(ctx context.Context, tournamentID string) (<-chan []schedule.Fixture, error) {
	if err := checkTournamentID(tournamentID); err != nil {
		return nil, err
	}
	ch := make(chan []schedule.Fixture, 1)

	m.mu.Lock()
	ch <- m.fixturesLocked(tournamentID)
	m.watchers[tournamentID] = append(m.watchers[tournamentID], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		chans := m.watchers[tournamentID]
		for i, c := range chans {
			if c == ch {
				m.watchers[tournamentID] = append(chans[:i], chans[i+1:]...)
				close(ch)
				return
			}
		}
	}()
	return ch, nil
}

func (m *MemoryStore) fixturesLocked(id string) []schedule.Fixture {
	if t, ok := m.tournaments[id]; ok {
		return append([]schedule.Fixture{}, t.Fixtures...)
	}
	return []schedule.Fixture{}
}

// notify pushes the latest fixtures to every watcher. A watcher that has not
// consumed the previous list only sees the newest one.
func (m *MemoryStore) notify(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.watchers[id] {
		select {
		case <-ch:
		default:
		}
		ch <- m.fixturesLocked(id)
	}
}

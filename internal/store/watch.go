package store

import (
	"context"
	"log/slog"
	"reflect"
	"time"

	"github.com/derekprior/kickoff/internal/schedule"
)

// DefaultPollInterval is how often Watch re-reads stores that cannot push.
const DefaultPollInterval = 2 * time.Second

// Watch streams fixture lists for a tournament. Stores implementing Watcher
// push changes; others are polled every interval and only changed lists are
// sent.
func Watch(ctx context.Context, s Store, tournamentID string, interval time.Duration) (<-chan []schedule.Fixture, error) {
	if w, ok := s.(Watcher); ok {
		return w.WatchFixtures(ctx, tournamentID)
	}
	if err := checkTournamentID(tournamentID); err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ch := make(chan []schedule.Fixture, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []schedule.Fixture
		first := true
		for {
			fixtures, err := s.ListFixtures(ctx, tournamentID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("polling fixtures", "tournament", tournamentID, "error", err)
			} else if first || !reflect.DeepEqual(fixtures, last) {
				first = false
				last = fixtures
				select {
				case ch <- fixtures:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch, nil
}

package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"cloud.google.com/go/firestore"
	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collections under tournaments/{id}.
const (
	colGroups   = "groups"
	colFixtures = "fixtures"
	colResults  = "matches"
	colKnockout = "knockout"
)

// FirestoreStore keeps each tournament under tournaments/{id} with one
// subcollection per kind of record.
type FirestoreStore struct {
	client *firestore.Client
	logger *slog.Logger
}

type fsGroup struct {
	ID    string   `firestore:"id"`
	Name  string   `firestore:"name"`
	Teams []string `firestore:"teams"`
	Seq   int      `firestore:"seq"`
}

type fsFixture struct {
	GroupID  string `firestore:"groupId"`
	HomeTeam string `firestore:"homeTeam"`
	AwayTeam string `firestore:"awayTeam"`
	Matchday int    `firestore:"matchday"`
	Round    int    `firestore:"round"`
	Seq      int    `firestore:"seq"`
}

func (f fsFixture) fixture() schedule.Fixture {
	return schedule.Fixture{
		HomeTeam: f.HomeTeam,
		AwayTeam: f.AwayTeam,
		Matchday: f.Matchday,
		Round:    f.Round,
		GroupID:  f.GroupID,
	}
}

type fsWrite struct {
	id   string
	data interface{}
}

func NewFirestoreStore(ctx context.Context, projectID, credentialsFile string) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &FirestoreStore{client: client, logger: slog.Default()}, nil
}

func (s *FirestoreStore) doc(tournamentID string) *firestore.DocumentRef {
	return s.client.Collection("tournaments").Doc(tournamentID)
}

func (s *FirestoreStore) col(tournamentID, name string) *firestore.CollectionRef {
	return s.doc(tournamentID).Collection(name)
}

func seqID(i int) string {
	return fmt.Sprintf("%04d", i)
}

// replace overwrites a subcollection in one transaction. Documents not in
// writes are deleted.
func (s *FirestoreStore) replace(ctx context.Context, tournamentID, name string, writes []fsWrite) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	col := s.col(tournamentID, name)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		existing, err := tx.Documents(col).GetAll()
		if err != nil {
			return err
		}
		keep := make(map[string]bool, len(writes))
		for _, w := range writes {
			keep[w.id] = true
		}
		for _, d := range existing {
			if !keep[d.Ref.ID] {
				if err := tx.Delete(d.Ref); err != nil {
					return err
				}
			}
		}
		for _, w := range writes {
			if err := tx.Set(col.Doc(w.id), w.data); err != nil {
				return err
			}
		}
		return s.touch(tx, tournamentID)
	})
}

func (s *FirestoreStore) touch(tx *firestore.Transaction, tournamentID string) error {
	return tx.Set(s.doc(tournamentID), map[string]interface{}{
		"id":        tournamentID,
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
}

func (s *FirestoreStore) SaveGroups(ctx context.Context, tournamentID string, groups []config.Group) error {
	writes := make([]fsWrite, len(groups))
	for i, g := range groups {
		writes[i] = fsWrite{id: seqID(i), data: fsGroup{ID: g.ID, Name: g.Name, Teams: g.Teams, Seq: i}}
	}
	return s.replace(ctx, tournamentID, colGroups, writes)
}

func (s *FirestoreStore) ListGroups(ctx context.Context, tournamentID string) ([]config.Group, error) {
	it := s.col(tournamentID, colGroups).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer it.Stop()

	groups := []config.Group{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		var g fsGroup
		if err := doc.DataTo(&g); err != nil {
			return nil, fmt.Errorf("decoding group %s: %w", doc.Ref.ID, err)
		}
		groups = append(groups, config.Group{ID: g.ID, Name: g.Name, Teams: g.Teams})
	}
	return groups, nil
}

func (s *FirestoreStore) ReplaceFixtures(ctx context.Context, tournamentID string, fixtures []schedule.Fixture) error {
	writes := make([]fsWrite, len(fixtures))
	for i, f := range fixtures {
		writes[i] = fsWrite{id: seqID(i), data: fsFixture{
			GroupID:  f.GroupID,
			HomeTeam: f.HomeTeam,
			AwayTeam: f.AwayTeam,
			Matchday: f.Matchday,
			Round:    f.Round,
			Seq:      i,
		}}
	}
	return s.replace(ctx, tournamentID, colFixtures, writes)
}

func (s *FirestoreStore) ListFixtures(ctx context.Context, tournamentID string) ([]schedule.Fixture, error) {
	it := s.col(tournamentID, colFixtures).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer it.Stop()
	return decodeFixtures(it)
}

func decodeFixtures(it *firestore.DocumentIterator) ([]schedule.Fixture, error) {
	fixtures := []schedule.Fixture{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list fixtures: %w", err)
		}
		var f fsFixture
		if err := doc.DataTo(&f); err != nil {
			return nil, fmt.Errorf("decoding fixture %s: %w", doc.Ref.ID, err)
		}
		fixtures = append(fixtures, f.fixture())
	}
	return fixtures, nil
}

// RenameTeam reads every affected collection and rewrites the changed
// documents in one transaction.
func (s *FirestoreStore) RenameTeam(ctx context.Context, tournamentID, oldName, newName string) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		groupDocs, err := tx.Documents(s.col(tournamentID, colGroups)).GetAll()
		if err != nil {
			return err
		}
		fixtureDocs, err := tx.Documents(s.col(tournamentID, colFixtures)).GetAll()
		if err != nil {
			return err
		}
		resultDocs, err := tx.Documents(s.col(tournamentID, colResults)).GetAll()
		if err != nil {
			return err
		}
		matchDocs, err := tx.Documents(s.col(tournamentID, colKnockout)).GetAll()
		if err != nil {
			return err
		}

		groups := make([]fsGroup, len(groupDocs))
		rosters := make([]config.Group, len(groupDocs))
		for i, d := range groupDocs {
			if err := d.DataTo(&groups[i]); err != nil {
				return err
			}
			rosters[i] = config.Group{ID: groups[i].ID, Teams: groups[i].Teams}
		}
		if err := checkRename(rosters, oldName, newName); err != nil {
			return err
		}

		for i, d := range groupDocs {
			g := groups[i]
			changed := false
			for j, team := range g.Teams {
				if team == oldName {
					g.Teams[j] = newName
					changed = true
				}
			}
			if changed {
				if err := tx.Set(d.Ref, g); err != nil {
					return err
				}
			}
		}
		for _, d := range fixtureDocs {
			var f fsFixture
			if err := d.DataTo(&f); err != nil {
				return err
			}
			if f.HomeTeam != oldName && f.AwayTeam != oldName {
				continue
			}
			f.HomeTeam, f.AwayTeam = swapName(f.HomeTeam, oldName, newName), swapName(f.AwayTeam, oldName, newName)
			if err := tx.Set(d.Ref, f); err != nil {
				return err
			}
		}
		for _, d := range resultDocs {
			var r standings.Result
			if err := d.DataTo(&r); err != nil {
				return err
			}
			if r.HomeTeam != oldName && r.AwayTeam != oldName {
				continue
			}
			r.HomeTeam, r.AwayTeam = swapName(r.HomeTeam, oldName, newName), swapName(r.AwayTeam, oldName, newName)
			if err := tx.Set(d.Ref, r); err != nil {
				return err
			}
		}
		for _, d := range matchDocs {
			var m knockout.Match
			if err := d.DataTo(&m); err != nil {
				return err
			}
			if m.HomeTeam != oldName && m.AwayTeam != oldName {
				continue
			}
			m.HomeTeam, m.AwayTeam = swapName(m.HomeTeam, oldName, newName), swapName(m.AwayTeam, oldName, newName)
			if err := tx.Set(d.Ref, m); err != nil {
				return err
			}
		}
		return s.touch(tx, tournamentID)
	})
}

func swapName(name, oldName, newName string) string {
	if name == oldName {
		return newName
	}
	return name
}

func (s *FirestoreStore) AddResult(ctx context.Context, tournamentID string, r standings.Result) (standings.Result, error) {
	if err := checkTournamentID(tournamentID); err != nil {
		return standings.Result{}, err
	}
	r, err := prepareResult(r)
	if err != nil {
		return standings.Result{}, err
	}
	if _, err := s.col(tournamentID, colResults).Doc(r.ID).Set(ctx, r); err != nil {
		return standings.Result{}, fmt.Errorf("saving result: %w", err)
	}
	return r, nil
}

func (s *FirestoreStore) ListResults(ctx context.Context, tournamentID string) ([]standings.Result, error) {
	it := s.col(tournamentID, colResults).OrderBy("playedAt", firestore.Asc).Documents(ctx)
	defer it.Stop()

	results := []standings.Result{}
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		}
		var r standings.Result
		if err := doc.DataTo(&r); err != nil {
			return nil, fmt.Errorf("decoding result %s: %w", doc.Ref.ID, err)
		}
		results = append(results, r)
	}
	return results, nil
}

func (s *FirestoreStore) SaveBracket(ctx context.Context, tournamentID string, b *knockout.Bracket) error {
	writes := make([]fsWrite, len(b.Matches))
	for i, m := range b.Matches {
		writes[i] = fsWrite{id: m.ID, data: m}
	}
	return s.replace(ctx, tournamentID, colKnockout, writes)
}

func (s *FirestoreStore) GetBracket(ctx context.Context, tournamentID string) (*knockout.Bracket, error) {
	docs, err := s.col(tournamentID, colKnockout).Documents(ctx).GetAll()
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bracket: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	b := &knockout.Bracket{Matches: make([]knockout.Match, len(docs))}
	for i, d := range docs {
		if err := d.DataTo(&b.Matches[i]); err != nil {
			return nil, fmt.Errorf("decoding knockout match %s: %w", d.Ref.ID, err)
		}
	}
	sort.SliceStable(b.Matches, func(i, j int) bool {
		mi, mj := b.Matches[i], b.Matches[j]
		if stageOrder[mi.Stage] != stageOrder[mj.Stage] {
			return stageOrder[mi.Stage] < stageOrder[mj.Stage]
		}
		return mi.Number < mj.Number
	})
	return b, nil
}

var stageOrder = map[knockout.Stage]int{
	knockout.Quarter: 0,
	knockout.Semi:    1,
	knockout.Final:   2,
}

func (s *FirestoreStore) Reset(ctx context.Context, tournamentID string) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var refs []*firestore.DocumentRef
		for _, name := range []string{colGroups, colFixtures, colResults, colKnockout} {
			docs, err := tx.Documents(s.col(tournamentID, name)).GetAll()
			if err != nil {
				return err
			}
			for _, d := range docs {
				refs = append(refs, d.Ref)
			}
		}
		for _, ref := range refs {
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		return tx.Delete(s.doc(tournamentID))
	})
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// WatchFixtures streams the fixture list from Firestore query snapshots.
func (s *FirestoreStore) WatchFixtures(ctx context.Context, tournamentID string) (<-chan []schedule.Fixture, error) {
	if err := checkTournamentID(tournamentID); err != nil {
		return nil, err
	}
	it := s.col(tournamentID, colFixtures).OrderBy("seq", firestore.Asc).Snapshots(ctx)
	ch := make(chan []schedule.Fixture, 1)

	go func() {
		defer close(ch)
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if c := status.Code(err); c != codes.Canceled && c != codes.DeadlineExceeded && ctx.Err() == nil {
					s.logger.Warn("fixture watch stopped", "tournament", tournamentID, "error", err)
				}
				return
			}
			fixtures, err := decodeFixtures(snap.Documents)
			if err != nil {
				s.logger.Warn("decoding fixture snapshot", "tournament", tournamentID, "error", err)
				continue
			}
			select {
			case ch <- fixtures:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

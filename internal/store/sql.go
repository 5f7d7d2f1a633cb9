package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timeLayout keeps fractional seconds at a fixed width so stored times sort
// as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore implements Store on database/sql for SQLite and Postgres.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serializes writers and keeps ":memory:" databases whole.
	db.SetMaxOpenConns(1)
	return newSQLStore(ctx, db, dialectSQLite, "sqlite")
}

func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQLStore(ctx, db, dialectPostgres, "postgres")
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect, name string) (*SQLStore, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", name, err)
	}
	s := &SQLStore{db: db, dialect: d}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLStore) SaveGroups(ctx context.Context, tournamentID string, groups []config.Group) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM group_teams WHERE tournament_id = ?`), tournamentID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM tournament_groups WHERE tournament_id = ?`), tournamentID); err != nil {
			return err
		}
		for i, g := range groups {
			if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO tournament_groups (tournament_id, id, name, seq) VALUES (?, ?, ?, ?)`),
				tournamentID, g.ID, g.Name, i); err != nil {
				return fmt.Errorf("insert group %s: %w", g.ID, err)
			}
			for j, team := range g.Teams {
				if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO group_teams (tournament_id, group_id, team, seq) VALUES (?, ?, ?, ?)`),
					tournamentID, g.ID, team, j); err != nil {
					return fmt.Errorf("insert team %s: %w", team, err)
				}
			}
		}
		return nil
	})
}

func (s *SQLStore) ListGroups(ctx context.Context, tournamentID string) ([]config.Group, error) {
	return listGroups(ctx, s.db, s.rebind, tournamentID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listGroups(ctx context.Context, q queryer, rebind func(string) string, tournamentID string) ([]config.Group, error) {
	rows, err := q.QueryContext(ctx, rebind(`SELECT id, name FROM tournament_groups WHERE tournament_id = ? ORDER BY seq`), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := []config.Group{}
	index := map[string]int{}
	for rows.Next() {
		var g config.Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.Teams = []string{}
		index[g.ID] = len(groups)
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = q.QueryContext(ctx, rebind(`SELECT group_id, team FROM group_teams WHERE tournament_id = ? ORDER BY group_id, seq`), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var groupID, team string
		if err := rows.Scan(&groupID, &team); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		if i, ok := index[groupID]; ok {
			groups[i].Teams = append(groups[i].Teams, team)
		}
	}
	return groups, rows.Err()
}

func (s *SQLStore) ReplaceFixtures(ctx context.Context, tournamentID string, fixtures []schedule.Fixture) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM fixtures WHERE tournament_id = ?`), tournamentID); err != nil {
			return err
		}
		for i, f := range fixtures {
			if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO fixtures (tournament_id, seq, group_id, home_team, away_team, matchday, round) VALUES (?, ?, ?, ?, ?, ?, ?)`),
				tournamentID, i, f.GroupID, f.HomeTeam, f.AwayTeam, f.Matchday, f.Round); err != nil {
				return fmt.Errorf("insert fixture %s: %w", f, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) ListFixtures(ctx context.Context, tournamentID string) ([]schedule.Fixture, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT group_id, home_team, away_team, matchday, round FROM fixtures WHERE tournament_id = ? ORDER BY seq`), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	defer rows.Close()

	fixtures := []schedule.Fixture{}
	for rows.Next() {
		var f schedule.Fixture
		if err := rows.Scan(&f.GroupID, &f.HomeTeam, &f.AwayTeam, &f.Matchday, &f.Round); err != nil {
			return nil, fmt.Errorf("scan fixture: %w", err)
		}
		fixtures = append(fixtures, f)
	}
	return fixtures, rows.Err()
}

func (s *SQLStore) RenameTeam(ctx context.Context, tournamentID, oldName, newName string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		groups, err := listGroups(ctx, tx, s.rebind, tournamentID)
		if err != nil {
			return err
		}
		if err := checkRename(groups, oldName, newName); err != nil {
			return err
		}
		updates := []string{
			`UPDATE group_teams SET team = ? WHERE tournament_id = ? AND team = ?`,
			`UPDATE fixtures SET home_team = ? WHERE tournament_id = ? AND home_team = ?`,
			`UPDATE fixtures SET away_team = ? WHERE tournament_id = ? AND away_team = ?`,
			`UPDATE results SET home_team = ? WHERE tournament_id = ? AND home_team = ?`,
			`UPDATE results SET away_team = ? WHERE tournament_id = ? AND away_team = ?`,
			`UPDATE knockout_matches SET home_team = ? WHERE tournament_id = ? AND home_team = ?`,
			`UPDATE knockout_matches SET away_team = ? WHERE tournament_id = ? AND away_team = ?`,
		}
		for _, q := range updates {
			if _, err := tx.ExecContext(ctx, s.rebind(q), newName, tournamentID, oldName); err != nil {
				return fmt.Errorf("rename %s: %w", oldName, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) AddResult(ctx context.Context, tournamentID string, r standings.Result) (standings.Result, error) {
	if err := checkTournamentID(tournamentID); err != nil {
		return standings.Result{}, err
	}
	r, err := prepareResult(r)
	if err != nil {
		return standings.Result{}, err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM results WHERE tournament_id = ? AND id = ?`), tournamentID, r.ID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO results (id, tournament_id, group_id, home_team, away_team, home_score, away_score, played_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			r.ID, tournamentID, r.GroupID, r.HomeTeam, r.AwayTeam, r.HomeScore, r.AwayScore, r.PlayedAt.UTC().Format(timeLayout))
		return err
	})
	if err != nil {
		return standings.Result{}, fmt.Errorf("insert result: %w", err)
	}
	return r, nil
}

func (s *SQLStore) ListResults(ctx context.Context, tournamentID string) ([]standings.Result, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, group_id, home_team, away_team, home_score, away_score, played_at FROM results WHERE tournament_id = ? ORDER BY played_at, id`), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []standings.Result{}
	for rows.Next() {
		var r standings.Result
		var playedAt string
		if err := rows.Scan(&r.ID, &r.GroupID, &r.HomeTeam, &r.AwayTeam, &r.HomeScore, &r.AwayScore, &playedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.PlayedAt, err = time.Parse(timeLayout, playedAt); err != nil {
			return nil, fmt.Errorf("parse played_at %q: %w", playedAt, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLStore) SaveBracket(ctx context.Context, tournamentID string, b *knockout.Bracket) error {
	if err := checkTournamentID(tournamentID); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM knockout_matches WHERE tournament_id = ?`), tournamentID); err != nil {
			return err
		}
		for i, m := range b.Matches {
			if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO knockout_matches (tournament_id, id, seq, stage, number, home_team, away_team, home_score, away_score) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				tournamentID, m.ID, i, string(m.Stage), m.Number, m.HomeTeam, m.AwayTeam, nullInt(m.HomeScore), nullInt(m.AwayScore)); err != nil {
				return fmt.Errorf("insert knockout match %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) GetBracket(ctx context.Context, tournamentID string) (*knockout.Bracket, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT id, stage, number, home_team, away_team, home_score, away_score FROM knockout_matches WHERE tournament_id = ? ORDER BY seq`), tournamentID)
	if err != nil {
		return nil, fmt.Errorf("get bracket: %w", err)
	}
	defer rows.Close()

	b := &knockout.Bracket{}
	for rows.Next() {
		var m knockout.Match
		var stage string
		var home, away sql.NullInt64
		if err := rows.Scan(&m.ID, &stage, &m.Number, &m.HomeTeam, &m.AwayTeam, &home, &away); err != nil {
			return nil, fmt.Errorf("scan knockout match: %w", err)
		}
		m.Stage = knockout.Stage(stage)
		m.HomeScore = intPtr(home)
		m.AwayScore = intPtr(away)
		b.Matches = append(b.Matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(b.Matches) == 0 {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *SQLStore) Reset(ctx context.Context, tournamentID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"group_teams", "tournament_groups", "fixtures", "results", "knockout_matches"} {
			if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM `+table+` WHERE tournament_id = ?`), tournamentID); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

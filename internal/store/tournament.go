package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/google/uuid"
)

// tournament is the document kept by the memory and file stores.
type tournament struct {
	ID        string             `json:"id"`
	Groups    []config.Group     `json:"groups"`
	Fixtures  []schedule.Fixture `json:"fixtures"`
	Results   []standings.Result `json:"matches"`
	Bracket   *knockout.Bracket  `json:"knockout,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

func (t *tournament) renameTeam(oldName, newName string) error {
	if err := checkRename(t.Groups, oldName, newName); err != nil {
		return err
	}
	for gi := range t.Groups {
		for ti, team := range t.Groups[gi].Teams {
			if team == oldName {
				t.Groups[gi].Teams[ti] = newName
			}
		}
	}
	t.Fixtures, _ = schedule.RenameTeam(t.Fixtures, oldName, newName)
	for i := range t.Results {
		if t.Results[i].HomeTeam == oldName {
			t.Results[i].HomeTeam = newName
		}
		if t.Results[i].AwayTeam == oldName {
			t.Results[i].AwayTeam = newName
		}
	}
	if t.Bracket != nil {
		t.Bracket.RenameTeam(oldName, newName)
	}
	return nil
}

// upsertResult replaces a result with the same id or appends it.
func (t *tournament) upsertResult(r standings.Result) {
	for i := range t.Results {
		if t.Results[i].ID == r.ID {
			t.Results[i] = r
			return
		}
	}
	t.Results = append(t.Results, r)
}

func (t *tournament) clone() *tournament {
	return &tournament{
		ID:        t.ID,
		Groups:    cloneGroups(t.Groups),
		Fixtures:  append([]schedule.Fixture{}, t.Fixtures...),
		Results:   append([]standings.Result{}, t.Results...),
		Bracket:   cloneBracket(t.Bracket),
		UpdatedAt: t.UpdatedAt,
	}
}

// checkRename requires oldName to be on a roster and newName to be free.
// Changing only the case of a name is allowed.
func checkRename(groups []config.Group, oldName, newName string) error {
	if strings.TrimSpace(newName) == "" {
		return fmt.Errorf("%w: new team name is blank", schedule.ErrInvalidRoster)
	}
	found := false
	for _, g := range groups {
		for _, team := range g.Teams {
			if team == oldName {
				found = true
				continue
			}
			if strings.EqualFold(team, newName) {
				return fmt.Errorf("%w: team %q already exists", ErrConflict, team)
			}
		}
	}
	if !found {
		return fmt.Errorf("%w: team %q", ErrNotFound, oldName)
	}
	return nil
}

// prepareResult validates r and fills in the id and play time.
func prepareResult(r standings.Result) (standings.Result, error) {
	if err := r.Validate(); err != nil {
		return standings.Result{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now().UTC()
	}
	return r, nil
}

func checkTournamentID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: tournament id is required", ErrInvalidID)
	}
	if strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func cloneGroups(groups []config.Group) []config.Group {
	out := make([]config.Group, len(groups))
	for i, g := range groups {
		out[i] = config.Group{ID: g.ID, Name: g.Name, Teams: append([]string{}, g.Teams...)}
	}
	return out
}

func cloneBracket(b *knockout.Bracket) *knockout.Bracket {
	if b == nil {
		return nil
	}
	out := &knockout.Bracket{Matches: make([]knockout.Match, len(b.Matches))}
	for i, m := range b.Matches {
		if m.HomeScore != nil {
			h := *m.HomeScore
			m.HomeScore = &h
		}
		if m.AwayScore != nil {
			a := *m.AwayScore
			m.AwayScore = &a
		}
		out.Matches[i] = m
	}
	return out
}

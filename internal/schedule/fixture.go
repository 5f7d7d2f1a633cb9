package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrInvalidRoster is returned when a group's team list cannot be scheduled.
	ErrInvalidRoster = errors.New("invalid roster")
	// ErrInvalidFixture is returned when a fixture record is missing a field.
	ErrInvalidFixture = errors.New("invalid fixture")
)

// Fixture is one scheduled, not necessarily played, match.
type Fixture struct {
	HomeTeam string `json:"homeTeam" firestore:"homeTeam"`
	AwayTeam string `json:"awayTeam" firestore:"awayTeam"`
	Matchday int    `json:"matchday" firestore:"matchday"`
	Round    int    `json:"round" firestore:"round"`
	GroupID  string `json:"groupId" firestore:"groupId"`
}

// NewFixture builds a Fixture and rejects partially populated records.
func NewFixture(home, away string, matchday, round int, groupID string) (Fixture, error) {
	f := Fixture{
		HomeTeam: home,
		AwayTeam: away,
		Matchday: matchday,
		Round:    round,
		GroupID:  groupID,
	}
	if err := f.Validate(); err != nil {
		return Fixture{}, err
	}
	return f, nil
}

// Validate reports whether every required field is set.
func (f Fixture) Validate() error {
	switch {
	case strings.TrimSpace(f.HomeTeam) == "":
		return fmt.Errorf("%w: home team is required", ErrInvalidFixture)
	case strings.TrimSpace(f.AwayTeam) == "":
		return fmt.Errorf("%w: away team is required", ErrInvalidFixture)
	case f.HomeTeam == f.AwayTeam:
		return fmt.Errorf("%w: %s cannot play itself", ErrInvalidFixture, f.HomeTeam)
	case f.Matchday < 1:
		return fmt.Errorf("%w: matchday must be positive, got %d", ErrInvalidFixture, f.Matchday)
	case f.Round != 1 && f.Round != 2:
		return fmt.Errorf("%w: round must be 1 or 2, got %d", ErrInvalidFixture, f.Round)
	case strings.TrimSpace(f.GroupID) == "":
		return fmt.Errorf("%w: group id is required", ErrInvalidFixture)
	}
	return nil
}

// Involves reports whether team plays in the fixture.
func (f Fixture) Involves(team string) bool {
	return f.HomeTeam == team || f.AwayTeam == team
}

func (f Fixture) String() string {
	return fmt.Sprintf("%s vs %s (group %s, matchday %d, round %d)", f.HomeTeam, f.AwayTeam, f.GroupID, f.Matchday, f.Round)
}

// MaxMatchday returns the highest matchday number assigned, or 0 for an
// empty schedule.
func MaxMatchday(fixtures []Fixture) int {
	highest := 0
	for _, f := range fixtures {
		if f.Matchday > highest {
			highest = f.Matchday
		}
	}
	return highest
}

// ByMatchday returns the fixtures played on the given matchday, optionally
// restricted to one group (empty groupID means all groups).
func ByMatchday(fixtures []Fixture, matchday int, groupID string) []Fixture {
	var out []Fixture
	for _, f := range fixtures {
		if f.Matchday != matchday {
			continue
		}
		if groupID != "" && f.GroupID != groupID {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ByGroup splits fixtures by group id.
func ByGroup(fixtures []Fixture) map[string][]Fixture {
	out := make(map[string][]Fixture)
	for _, f := range fixtures {
		out[f.GroupID] = append(out[f.GroupID], f)
	}
	return out
}

// RenameTeam replaces every occurrence of oldName with newName. It returns a
// new slice and the number of fixtures touched; matchdays are left as they are.
func RenameTeam(fixtures []Fixture, oldName, newName string) ([]Fixture, int) {
	out := make([]Fixture, len(fixtures))
	changed := 0
	for i, f := range fixtures {
		touched := false
		if f.HomeTeam == oldName {
			f.HomeTeam = newName
			touched = true
		}
		if f.AwayTeam == oldName {
			f.AwayTeam = newName
			touched = true
		}
		if touched {
			changed++
		}
		out[i] = f
	}
	return out, changed
}

// Sort orders fixtures by group, round, matchday, home team and away team.
func Sort(fixtures []Fixture) {
	sort.SliceStable(fixtures, func(i, j int) bool {
		a, b := fixtures[i], fixtures[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.Matchday != b.Matchday {
			return a.Matchday < b.Matchday
		}
		if a.HomeTeam != b.HomeTeam {
			return a.HomeTeam < b.HomeTeam
		}
		return a.AwayTeam < b.AwayTeam
	})
}

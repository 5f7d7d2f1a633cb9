package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/strategy"
)

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Fixtures int
	Home     int
	Away     int
}

// Generate builds the double round robin schedule for one group. Fewer than
// two teams yields an empty schedule and no error.
func Generate(teams []string, groupID string) ([]Fixture, error) {
	return GenerateWith(&strategy.DoubleRoundRobin{}, teams, groupID)
}

// GenerateWith builds a schedule for one group using the given pairing
// strategy. Each round is packed into matchdays first-fit: a fixture goes to
// the earliest matchday where neither team already plays. Later rounds start
// after the last matchday actually used by the previous round. A nil
// strategy means double round robin.
func GenerateWith(strat strategy.Strategy, teams []string, groupID string) ([]Fixture, error) {
	if strat == nil {
		strat = &strategy.DoubleRoundRobin{}
	}
	if err := checkRoster(teams); err != nil {
		return nil, err
	}
	if len(teams) < 2 {
		return []Fixture{}, nil
	}
	if strings.TrimSpace(groupID) == "" {
		return nil, fmt.Errorf("%w: group id is required", ErrInvalidRoster)
	}

	var fixtures []Fixture
	offset := 0
	for _, pairings := range strat.Pairings(teams) {
		slots, used := packMatchdays(pairings)
		for i, p := range pairings {
			f, err := NewFixture(p.Home, p.Away, offset+slots[i]+1, p.Round, groupID)
			if err != nil {
				return nil, err
			}
			fixtures = append(fixtures, f)
		}
		offset += used
	}

	sort.SliceStable(fixtures, func(i, j int) bool {
		if fixtures[i].Round != fixtures[j].Round {
			return fixtures[i].Round < fixtures[j].Round
		}
		return fixtures[i].Matchday < fixtures[j].Matchday
	})
	return fixtures, nil
}

// GenerateGroups schedules every group independently. Generation is
// all-or-nothing: one invalid roster fails the whole call.
func GenerateGroups(strat strategy.Strategy, groups []config.Group) ([]Fixture, error) {
	var all []Fixture
	for _, g := range groups {
		fixtures, err := GenerateWith(strat, g.Teams, g.ID)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.ID, err)
		}
		all = append(all, fixtures...)
	}
	if all == nil {
		all = []Fixture{}
	}
	return all, nil
}

// packMatchdays assigns each pairing a zero-based matchday slot and returns
// the slots along with the number of slots opened.
func packMatchdays(pairings []strategy.Pairing) ([]int, int) {
	busy := make(map[string]map[int]bool)
	mark := func(team string, slot int) {
		if busy[team] == nil {
			busy[team] = make(map[int]bool)
		}
		busy[team][slot] = true
	}

	slots := make([]int, len(pairings))
	opened := 0
	for i, p := range pairings {
		slot := 0
		for ; slot < opened; slot++ {
			if !busy[p.Home][slot] && !busy[p.Away][slot] {
				break
			}
		}
		if slot == opened {
			opened++
		}
		mark(p.Home, slot)
		mark(p.Away, slot)
		slots[i] = slot
	}
	return slots, opened
}

func checkRoster(teams []string) error {
	seen := make(map[string]bool, len(teams))
	for _, t := range teams {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: blank team name", ErrInvalidRoster)
		}
		if seen[t] {
			return fmt.Errorf("%w: duplicate team %q", ErrInvalidRoster, t)
		}
		seen[t] = true
	}
	return nil
}

// Summarize counts fixtures per team.
func Summarize(fixtures []Fixture) map[string]*TeamMetrics {
	metrics := make(map[string]*TeamMetrics)
	get := func(team string) *TeamMetrics {
		m, ok := metrics[team]
		if !ok {
			m = &TeamMetrics{}
			metrics[team] = m
		}
		return m
	}
	for _, f := range fixtures {
		home := get(f.HomeTeam)
		home.Fixtures++
		home.Home++
		away := get(f.AwayTeam)
		away.Fixtures++
		away.Away++
	}
	return metrics
}

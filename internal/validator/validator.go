package validator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/excel"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/strategy"
	"github.com/xuri/excelize/v2"
)

const (
	TypeError   = "error"
	TypeWarning = "warning"
)

// Violation represents a problem found in a fixture list. Row is the
// spreadsheet row, or 0 when the fixtures did not come from a workbook.
type Violation struct {
	Row     int
	Type    string // "error" or "warning"
	Message string
}

type parsedFixture struct {
	Row int
	schedule.Fixture
}

// Rules is what a fixture list is checked against: the group rosters and
// how many times each pair meets.
type Rules struct {
	Groups []config.Group
	Rounds int
}

// RulesFor builds Rules from the configured strategy. A nil groups slice
// means the groups in the config file; callers holding a stored roster pass
// it instead.
func RulesFor(cfg *config.Config, groups []config.Group) (Rules, error) {
	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		return Rules{}, err
	}
	if groups == nil {
		groups = cfg.Groups
	}
	return Rules{Groups: groups, Rounds: strat.Rounds()}, nil
}

func (r Rules) rounds() int {
	if r.Rounds < 1 {
		return 2
	}
	return r.Rounds
}

// Validate reads the master sheet of an exported workbook and checks it
// against the rules.
func Validate(rules Rules, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	fixtures, violations, err := readFixtures(f, rules.Groups)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures: %w", err)
	}
	return append(violations, check(rules, fixtures)...), nil
}

// CheckFixtures runs the same checks as Validate on an in-memory list.
func CheckFixtures(rules Rules, fixtures []schedule.Fixture) []Violation {
	parsed := make([]parsedFixture, len(fixtures))
	for i, f := range fixtures {
		parsed[i] = parsedFixture{Fixture: f}
	}
	return check(rules, parsed)
}

func check(rules Rules, fixtures []parsedFixture) []Violation {
	groups := rules.Groups
	var violations []Violation

	// Hard constraints
	violations = append(violations, checkUnknownTeams(groups, fixtures)...)
	violations = append(violations, checkDoubleBooking(groups, fixtures)...)
	if rules.rounds() == 1 {
		violations = append(violations, checkSingleLegs(groups, fixtures)...)
	} else {
		violations = append(violations, checkPairings(groups, fixtures)...)
	}
	violations = append(violations, checkRoundOverlap(groups, fixtures)...)
	violations = append(violations, checkDensity(groups, fixtures)...)

	// Soft constraints. A single round robin puts the smaller name at home,
	// so its balance is fixed by the roster.
	if rules.rounds() > 1 {
		violations = append(violations, checkHomeAwayBalance(groups, fixtures)...)
	}
	return violations
}

func readFixtures(f *excelize.File, groups []config.Group) ([]parsedFixture, []Violation, error) {
	rows, err := f.GetRows(excel.MasterSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", excel.MasterSheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", excel.MasterSheet)
	}

	groupIDs := make(map[string]string)
	for _, g := range groups {
		groupIDs[g.ID] = g.ID
		if g.Name != "" {
			groupIDs[g.Name] = g.ID
		}
	}

	var fixtures []parsedFixture
	var violations []Violation
	for i, row := range rows {
		if i == 0 || len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue // header or blackout row
		}
		rowNum := i + 1
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		matchday, err := strconv.Atoi(cell(0))
		if err != nil {
			violations = append(violations, Violation{Row: rowNum, Type: TypeError, Message: fmt.Sprintf("invalid matchday %q", cell(0))})
			continue
		}
		round, err := strconv.Atoi(cell(3))
		if err != nil {
			violations = append(violations, Violation{Row: rowNum, Type: TypeError, Message: fmt.Sprintf("invalid round %q", cell(3))})
			continue
		}
		groupID, ok := groupIDs[cell(2)]
		if !ok {
			violations = append(violations, Violation{Row: rowNum, Type: TypeError, Message: fmt.Sprintf("unknown group %q", cell(2))})
			continue
		}

		fx, err := schedule.NewFixture(cell(4), cell(5), matchday, round, groupID)
		if err != nil {
			violations = append(violations, Violation{Row: rowNum, Type: TypeError, Message: err.Error()})
			continue
		}
		fixtures = append(fixtures, parsedFixture{Row: rowNum, Fixture: fx})
	}
	return fixtures, violations, nil
}

func forGroup(fixtures []parsedFixture, groupID string) []parsedFixture {
	var out []parsedFixture
	for _, f := range fixtures {
		if f.GroupID == groupID {
			out = append(out, f)
		}
	}
	return out
}

func checkUnknownTeams(groups []config.Group, fixtures []parsedFixture) []Violation {
	rosters := make(map[string]map[string]bool)
	for _, g := range groups {
		rosters[g.ID] = make(map[string]bool)
		for _, team := range g.Teams {
			rosters[g.ID][team] = true
		}
	}

	var violations []Violation
	for _, f := range fixtures {
		roster, ok := rosters[f.GroupID]
		if !ok {
			violations = append(violations, Violation{Row: f.Row, Type: TypeError, Message: fmt.Sprintf("%s: unknown group %q", f, f.GroupID)})
			continue
		}
		for _, team := range []string{f.HomeTeam, f.AwayTeam} {
			if !roster[team] {
				violations = append(violations, Violation{
					Row:     f.Row,
					Type:    TypeError,
					Message: fmt.Sprintf("%s is not in group %s", team, f.GroupID),
				})
			}
		}
	}
	return violations
}

func checkDoubleBooking(groups []config.Group, fixtures []parsedFixture) []Violation {
	type teamDay struct {
		team     string
		matchday int
	}

	var violations []Violation
	for _, g := range groups {
		seen := make(map[teamDay]int)
		for _, f := range forGroup(fixtures, g.ID) {
			for _, team := range []string{f.HomeTeam, f.AwayTeam} {
				key := teamDay{team, f.Matchday}
				seen[key]++
				if seen[key] == 2 {
					violations = append(violations, Violation{
						Row:     f.Row,
						Type:    TypeError,
						Message: fmt.Sprintf("%s plays more than once on matchday %d", team, f.Matchday),
					})
				}
			}
		}
	}
	return violations
}

// checkPairings requires every pair in a group to meet exactly twice, once
// at each ground, in different rounds.
func checkPairings(groups []config.Group, fixtures []parsedFixture) []Violation {
	type pairing struct{ home, away string }

	var violations []Violation
	for _, g := range groups {
		legs := make(map[pairing][]parsedFixture)
		for _, f := range forGroup(fixtures, g.ID) {
			key := pairing{f.HomeTeam, f.AwayTeam}
			legs[key] = append(legs[key], f)
		}

		teams := append([]string{}, g.Teams...)
		sort.Strings(teams)
		for i, a := range teams {
			for _, b := range teams[i+1:] {
				first, second := legs[pairing{a, b}], legs[pairing{b, a}]
				for _, p := range []struct {
					home, away string
					legs       []parsedFixture
				}{{a, b, first}, {b, a, second}} {
					switch {
					case len(p.legs) == 0:
						violations = append(violations, Violation{
							Type:    TypeError,
							Message: fmt.Sprintf("%s vs %s is missing from group %s", p.home, p.away, g.ID),
						})
					case len(p.legs) > 1:
						violations = append(violations, Violation{
							Row:     p.legs[1].Row,
							Type:    TypeError,
							Message: fmt.Sprintf("%s vs %s is scheduled %d times", p.home, p.away, len(p.legs)),
						})
					}
				}
				if len(first) == 1 && len(second) == 1 && first[0].Round == second[0].Round {
					violations = append(violations, Violation{
						Row:     second[0].Row,
						Type:    TypeError,
						Message: fmt.Sprintf("both legs of %s vs %s are in round %d", a, b, first[0].Round),
					})
				}
			}
		}
	}
	return violations
}

// checkSingleLegs requires every pair in a group to meet exactly once, in
// round 1, at either ground.
func checkSingleLegs(groups []config.Group, fixtures []parsedFixture) []Violation {
	type pairing struct{ a, b string }

	var violations []Violation
	for _, g := range groups {
		meetings := make(map[pairing][]parsedFixture)
		for _, f := range forGroup(fixtures, g.ID) {
			a, b := f.HomeTeam, f.AwayTeam
			if b < a {
				a, b = b, a
			}
			meetings[pairing{a, b}] = append(meetings[pairing{a, b}], f)
		}

		teams := append([]string{}, g.Teams...)
		sort.Strings(teams)
		for i, a := range teams {
			for _, b := range teams[i+1:] {
				legs := meetings[pairing{a, b}]
				switch {
				case len(legs) == 0:
					violations = append(violations, Violation{
						Type:    TypeError,
						Message: fmt.Sprintf("%s vs %s is missing from group %s", a, b, g.ID),
					})
				case len(legs) > 1:
					violations = append(violations, Violation{
						Row:     legs[1].Row,
						Type:    TypeError,
						Message: fmt.Sprintf("%s vs %s is scheduled %d times", a, b, len(legs)),
					})
				}
				for _, f := range legs {
					if f.Round != 1 {
						violations = append(violations, Violation{
							Row:     f.Row,
							Type:    TypeError,
							Message: fmt.Sprintf("%s vs %s is in round %d of a single round robin", f.HomeTeam, f.AwayTeam, f.Round),
						})
					}
				}
			}
		}
	}
	return violations
}

// checkRoundOverlap requires every round-1 matchday to come before every
// round-2 matchday within a group.
func checkRoundOverlap(groups []config.Group, fixtures []parsedFixture) []Violation {
	var violations []Violation
	for _, g := range groups {
		lastFirst, firstSecond := 0, 0
		var firstSecondRow int
		for _, f := range forGroup(fixtures, g.ID) {
			switch f.Round {
			case 1:
				if f.Matchday > lastFirst {
					lastFirst = f.Matchday
				}
			case 2:
				if firstSecond == 0 || f.Matchday < firstSecond {
					firstSecond = f.Matchday
					firstSecondRow = f.Row
				}
			}
		}
		if firstSecond != 0 && firstSecond <= lastFirst {
			violations = append(violations, Violation{
				Row:  firstSecondRow,
				Type: TypeError,
				Message: fmt.Sprintf("group %s: round 2 starts on matchday %d but round 1 runs until matchday %d",
					g.ID, firstSecond, lastFirst),
			})
		}
	}
	return violations
}

// checkDensity requires a group's matchdays to run 1..max without gaps.
func checkDensity(groups []config.Group, fixtures []parsedFixture) []Violation {
	var violations []Violation
	for _, g := range groups {
		used := make(map[int]bool)
		highest := 0
		for _, f := range forGroup(fixtures, g.ID) {
			used[f.Matchday] = true
			if f.Matchday > highest {
				highest = f.Matchday
			}
		}
		for md := 1; md < highest; md++ {
			if !used[md] {
				violations = append(violations, Violation{
					Type:    TypeError,
					Message: fmt.Sprintf("group %s has no fixtures on matchday %d", g.ID, md),
				})
			}
		}
	}
	return violations
}

func checkHomeAwayBalance(groups []config.Group, fixtures []parsedFixture) []Violation {
	var violations []Violation
	for _, g := range groups {
		home := make(map[string]int)
		away := make(map[string]int)
		for _, f := range forGroup(fixtures, g.ID) {
			home[f.HomeTeam]++
			away[f.AwayTeam]++
		}
		for _, team := range g.Teams {
			diff := home[team] - away[team]
			if diff > 1 || diff < -1 {
				violations = append(violations, Violation{
					Type:    TypeWarning,
					Message: fmt.Sprintf("%s has %d home and %d away fixtures", team, home[team], away[team]),
				})
			}
		}
	}
	return violations
}

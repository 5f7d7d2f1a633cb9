package standings

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrInvalidResult is returned for a result that cannot be applied.
var ErrInvalidResult = errors.New("invalid result")

// Points awarded per outcome.
const (
	PointsWin  = 3
	PointsDraw = 1
)

// Result is a played group match.
type Result struct {
	ID        string    `json:"id" firestore:"id"`
	GroupID   string    `json:"groupId" firestore:"groupId"`
	HomeTeam  string    `json:"homeTeam" firestore:"homeTeam"`
	AwayTeam  string    `json:"awayTeam" firestore:"awayTeam"`
	HomeScore int       `json:"homeScore" firestore:"homeScore"`
	AwayScore int       `json:"awayScore" firestore:"awayScore"`
	PlayedAt  time.Time `json:"playedAt" firestore:"playedAt"`
}

func (r Result) Validate() error {
	switch {
	case strings.TrimSpace(r.GroupID) == "":
		return fmt.Errorf("%w: group id is required", ErrInvalidResult)
	case strings.TrimSpace(r.HomeTeam) == "" || strings.TrimSpace(r.AwayTeam) == "":
		return fmt.Errorf("%w: both teams are required", ErrInvalidResult)
	case r.HomeTeam == r.AwayTeam:
		return fmt.Errorf("%w: %s cannot play itself", ErrInvalidResult, r.HomeTeam)
	case r.HomeScore < 0 || r.AwayScore < 0:
		return fmt.Errorf("%w: scores cannot be negative (%d-%d)", ErrInvalidResult, r.HomeScore, r.AwayScore)
	}
	return nil
}

// TeamRecord is one row of a group table.
type TeamRecord struct {
	Team           string `json:"team"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Points         int    `json:"points"`
}

func (r *TeamRecord) apply(scored, conceded int) {
	r.Played++
	r.GoalsFor += scored
	r.GoalsAgainst += conceded
	r.GoalDifference = r.GoalsFor - r.GoalsAgainst
	switch {
	case scored > conceded:
		r.Wins++
	case scored == conceded:
		r.Draws++
	default:
		r.Losses++
	}
	r.Points = r.Wins*PointsWin + r.Draws*PointsDraw
}

// Compute builds the table for one group. Results naming a team outside the
// roster are ignored. Rows are ordered by points, then goal difference; ties
// keep roster order.
func Compute(teams []string, results []Result) []TeamRecord {
	index := make(map[string]*TeamRecord, len(teams))
	table := make([]TeamRecord, len(teams))
	for i, team := range teams {
		table[i].Team = team
		index[team] = &table[i]
	}

	for _, r := range results {
		home, away := index[r.HomeTeam], index[r.AwayTeam]
		if home == nil || away == nil || home == away {
			continue
		}
		home.apply(r.HomeScore, r.AwayScore)
		away.apply(r.AwayScore, r.HomeScore)
	}

	sort.SliceStable(table, func(i, j int) bool {
		if table[i].Points != table[j].Points {
			return table[i].Points > table[j].Points
		}
		return table[i].GoalDifference > table[j].GoalDifference
	})
	return table
}

// Top returns the first n rows of a table.
func Top(table []TeamRecord, n int) []TeamRecord {
	if n > len(table) {
		n = len(table)
	}
	return table[:n]
}

// ForGroup filters results down to one group.
func ForGroup(results []Result, groupID string) []Result {
	var out []Result
	for _, r := range results {
		if r.GroupID == groupID {
			out = append(out, r)
		}
	}
	return out
}

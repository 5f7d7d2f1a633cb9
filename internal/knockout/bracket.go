package knockout

import (
	"errors"
	"fmt"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/standings"
)

var (
	ErrGroupStageIncomplete = errors.New("group stage must be complete to seed the knockout bracket")
	ErrUnknownMatch         = errors.New("unknown knockout match")
	ErrMatchNotReady        = errors.New("knockout match is waiting for a previous winner")
	ErrDrawNotAllowed       = errors.New("knockout matches cannot end in a draw")
	ErrInvalidScore         = errors.New("scores cannot be negative")
)

type Stage string

const (
	Quarter Stage = "quarter"
	Semi    Stage = "semi"
	Final   Stage = "final"
)

// Bracket sizing: four groups send their top two to an eight-team bracket.
const (
	Groups             = 4
	QualifiersPerGroup = 2
	Teams              = Groups * QualifiersPerGroup
)

// Match is one knockout tie. Scores are nil until the match is played.
type Match struct {
	ID        string `json:"id" firestore:"id"`
	Stage     Stage  `json:"round" firestore:"round"`
	Number    int    `json:"matchNumber" firestore:"matchNumber"`
	HomeTeam  string `json:"homeTeam" firestore:"homeTeam"`
	AwayTeam  string `json:"awayTeam" firestore:"awayTeam"`
	HomeScore *int   `json:"homeScore" firestore:"homeScore"`
	AwayScore *int   `json:"awayScore" firestore:"awayScore"`
}

// Played reports whether both scores are recorded.
func (m *Match) Played() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Winner returns the winning team of a played match.
func (m *Match) Winner() (string, bool) {
	if !m.Played() || *m.HomeScore == *m.AwayScore {
		return "", false
	}
	if *m.HomeScore > *m.AwayScore {
		return m.HomeTeam, true
	}
	return m.AwayTeam, true
}

// Bracket holds the seven matches q1..q4, s1, s2 and f1.
type Bracket struct {
	Matches []Match `json:"matches"`
}

// quarterSeeds indexes into the flattened top-two list
// [A1, A2, B1, B2, C1, C2, D1, D2] for the home and away side of q1..q4.
var quarterSeeds = [4][2]int{
	{0, 5},
	{2, 7},
	{4, 3},
	{6, 1},
}

// Seed builds a fresh bracket from the eight qualified teams.
func Seed(qualified []string) (*Bracket, error) {
	if len(qualified) != Teams {
		return nil, fmt.Errorf("%w: need %d qualified teams, have %d", ErrGroupStageIncomplete, Teams, len(qualified))
	}

	b := &Bracket{}
	for i, seeds := range quarterSeeds {
		b.Matches = append(b.Matches, Match{
			ID:       fmt.Sprintf("q%d", i+1),
			Stage:    Quarter,
			Number:   i + 1,
			HomeTeam: qualified[seeds[0]],
			AwayTeam: qualified[seeds[1]],
		})
	}
	for i := 1; i <= 2; i++ {
		b.Matches = append(b.Matches, Match{ID: fmt.Sprintf("s%d", i), Stage: Semi, Number: i})
	}
	b.Matches = append(b.Matches, Match{ID: "f1", Stage: Final, Number: 1})
	return b, nil
}

// Qualifiers returns the flattened top two of every group, in group order.
// Each group must have at least two teams and there must be exactly four
// groups.
func Qualifiers(groups []config.Group, results []standings.Result) ([]string, error) {
	if len(groups) != Groups {
		return nil, fmt.Errorf("%w: need %d groups, have %d", ErrGroupStageIncomplete, Groups, len(groups))
	}

	var qualified []string
	for _, g := range groups {
		table := standings.Compute(g.Teams, standings.ForGroup(results, g.ID))
		top := standings.Top(table, QualifiersPerGroup)
		if len(top) < QualifiersPerGroup {
			return nil, fmt.Errorf("%w: group %q has %d teams", ErrGroupStageIncomplete, g.ID, len(top))
		}
		for _, r := range top {
			qualified = append(qualified, r.Team)
		}
	}
	return qualified, nil
}

// Match returns the match with the given id.
func (b *Bracket) Match(id string) (*Match, error) {
	for i := range b.Matches {
		if b.Matches[i].ID == id {
			return &b.Matches[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMatch, id)
}

// RecordScore scores a match and moves its winner on. Quarter k feeds semi
// (k+1)/2, odd k into the home slot and even k into the away slot; semi 1
// feeds the final's home slot and semi 2 its away slot.
func (b *Bracket) RecordScore(id string, homeScore, awayScore int) error {
	m, err := b.Match(id)
	if err != nil {
		return err
	}
	if homeScore < 0 || awayScore < 0 {
		return ErrInvalidScore
	}
	if m.HomeTeam == "" || m.AwayTeam == "" {
		return fmt.Errorf("%w: %s", ErrMatchNotReady, id)
	}
	if homeScore == awayScore {
		return fmt.Errorf("%w: %s %d-%d", ErrDrawNotAllowed, id, homeScore, awayScore)
	}

	m.HomeScore = &homeScore
	m.AwayScore = &awayScore
	winner, _ := m.Winner()

	next, home := nextSlot(m)
	if next == "" {
		return nil
	}
	target, err := b.Match(next)
	if err != nil {
		return err
	}
	if home {
		target.HomeTeam = winner
	} else {
		target.AwayTeam = winner
	}
	return nil
}

func nextSlot(m *Match) (string, bool) {
	switch m.Stage {
	case Quarter:
		return fmt.Sprintf("s%d", (m.Number+1)/2), m.Number%2 == 1
	case Semi:
		return "f1", m.Number == 1
	}
	return "", false
}

// Stage returns the matches of one stage in bracket order.
func (b *Bracket) Stage(stage Stage) []Match {
	var out []Match
	for _, m := range b.Matches {
		if m.Stage == stage {
			out = append(out, m)
		}
	}
	return out
}

// Champion returns the winner of the final once it is played.
func (b *Bracket) Champion() (string, bool) {
	f, err := b.Match("f1")
	if err != nil {
		return "", false
	}
	return f.Winner()
}

// RenameTeam replaces a team name in every slot of the bracket.
func (b *Bracket) RenameTeam(oldName, newName string) int {
	changed := 0
	for i := range b.Matches {
		m := &b.Matches[i]
		if m.HomeTeam == oldName {
			m.HomeTeam = newName
			changed++
		}
		if m.AwayTeam == oldName {
			m.AwayTeam = newName
			changed++
		}
	}
	return changed
}

package share

import (
	"fmt"
	"strings"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/schedule"
)

const ruleWidth = 50

// MatchdayText renders one matchday as a chat message: a header, one block
// of numbered fixtures per group that plays that day, and a footer.
func MatchdayText(groups []config.Group, fixtures []schedule.Fixture, matchday int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏆 TOURNAMENT FIXTURES - MATCHDAY %d\n\n", matchday)

	for _, g := range groups {
		day := schedule.ByMatchday(fixtures, matchday, g.ID)
		if len(day) == 0 {
			continue
		}
		fmt.Fprintf(&b, "📋 %s\n", groupName(g))
		for i, f := range day {
			fmt.Fprintf(&b, "%d. %s vs %s\n", i+1, f.HomeTeam, f.AwayTeam)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "⚽ Good luck to all teams!\n#Tournament #Matchday%d", matchday)
	return b.String()
}

// AllText renders every matchday in order, each followed by a rule line.
func AllText(groups []config.Group, fixtures []schedule.Fixture) string {
	var b strings.Builder
	b.WriteString("🏆 COMPLETE TOURNAMENT FIXTURES\n\n")
	rule := strings.Repeat("=", ruleWidth)
	for md := 1; md <= schedule.MaxMatchday(fixtures); md++ {
		b.WriteString(MatchdayText(groups, fixtures, md))
		b.WriteString("\n\n" + rule + "\n\n")
	}
	return b.String()
}

func groupName(g config.Group) string {
	if g.Name != "" {
		return g.Name
	}
	return g.ID
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/schedule"
)

// AddTeam appends a team to a stored group. Names are unique across the
// tournament, compared case-insensitively. Fixtures are left alone until the
// next generation.
func AddTeam(ctx context.Context, s Store, tournamentID, groupID, name string) ([]config.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: team name is blank", schedule.ErrInvalidRoster)
	}
	return editGroup(ctx, s, tournamentID, groupID, func(groups []config.Group, g *config.Group) error {
		for _, other := range groups {
			for _, team := range other.Teams {
				if strings.EqualFold(team, name) {
					return fmt.Errorf("%w: team %q already exists in group %q", ErrConflict, team, other.ID)
				}
			}
		}
		g.Teams = append(g.Teams, name)
		return nil
	})
}

// RemoveTeam drops a team from a stored group. Its fixtures and results stay
// until the schedule is regenerated.
func RemoveTeam(ctx context.Context, s Store, tournamentID, groupID, name string) ([]config.Group, error) {
	return editGroup(ctx, s, tournamentID, groupID, func(_ []config.Group, g *config.Group) error {
		for i, team := range g.Teams {
			if team == name {
				g.Teams = append(g.Teams[:i:i], g.Teams[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: team %q in group %q", ErrNotFound, name, groupID)
	})
}

func editGroup(ctx context.Context, s Store, tournamentID, groupID string, edit func(groups []config.Group, g *config.Group) error) ([]config.Group, error) {
	groups, err := s.ListGroups(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	groups = cloneGroups(groups)

	var target *config.Group
	for i := range groups {
		if groups[i].ID == groupID {
			target = &groups[i]
		}
	}
	if target == nil {
		return nil, fmt.Errorf("%w: group %q", ErrNotFound, groupID)
	}
	if err := edit(groups, target); err != nil {
		return nil, err
	}
	if err := s.SaveGroups(ctx, tournamentID, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

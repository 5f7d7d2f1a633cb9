package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/excel"
	"github.com/derekprior/kickoff/internal/knockout"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/server"
	"github.com/derekprior/kickoff/internal/share"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/derekprior/kickoff/internal/store"
	"github.com/derekprior/kickoff/internal/strategy"
	"github.com/derekprior/kickoff/internal/validator"
)

// App ties a loaded config to its store for one command invocation.
type App struct {
	cfg   *config.Config
	store store.Store
}

func NewApp(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Backend, err)
	}
	return &App{cfg: cfg, store: st}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func (a *App) id() string {
	return a.cfg.Tournament.ID
}

// roster returns the stored groups, or the configured ones when nothing is
// stored yet.
func (a *App) roster(ctx context.Context) ([]config.Group, error) {
	groups, err := a.store.ListGroups(ctx, a.id())
	if err != nil {
		return nil, fmt.Errorf("loading groups: %w", err)
	}
	if len(groups) == 0 {
		return a.cfg.Groups, nil
	}
	return groups, nil
}

func (a *App) Generate(ctx context.Context, outputPath, textPath string, reload bool) error {
	strat, err := strategy.Get(a.cfg.Strategy)
	if err != nil {
		return err
	}

	groups := a.cfg.Groups
	if !reload {
		if groups, err = a.roster(ctx); err != nil {
			return err
		}
	}

	teams := 0
	for _, g := range groups {
		teams += len(g.Teams)
	}
	fmt.Printf("Scheduling %d teams in %d groups...\n", teams, len(groups))

	fixtures, err := schedule.GenerateGroups(strat, groups)
	if err != nil {
		return err
	}
	if err := a.store.SaveGroups(ctx, a.id(), groups); err != nil {
		return fmt.Errorf("saving groups: %w", err)
	}
	if err := a.store.ReplaceFixtures(ctx, a.id(), fixtures); err != nil {
		return fmt.Errorf("saving fixtures, nothing was changed; try again: %w", err)
	}

	matchdays := schedule.MaxMatchday(fixtures)
	fmt.Printf("✓ %d fixtures over %d matchdays\n", len(fixtures), matchdays)

	metrics := schedule.Summarize(fixtures)
	fmt.Println("\nPer Team Metrics:")
	fmt.Printf("  %-15s %-8s %8s %4s %4s\n", "Team", "Group", "Fixtures", "Home", "Away")
	for _, g := range groups {
		for _, team := range g.Teams {
			m := metrics[team]
			if m == nil {
				m = &schedule.TeamMetrics{}
			}
			fmt.Printf("  %-15s %-8s %8d %4d %4d\n", team, g.ID, m.Fixtures, m.Home, m.Away)
		}
	}

	workbookCfg := *a.cfg
	workbookCfg.Groups = groups
	dates := schedule.MatchdayDates(a.cfg.Season, matchdays)
	f, err := excel.Generate(&workbookCfg, fixtures, dates)
	if err != nil {
		return fmt.Errorf("generating Excel: %w", err)
	}

	results, err := a.store.ListResults(ctx, a.id())
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}
	if len(results) > 0 {
		for _, g := range groups {
			table := standings.Compute(g.Teams, standings.ForGroup(results, g.ID))
			if _, err := excel.WriteStandings(f, g.Name, table); err != nil {
				return fmt.Errorf("writing standings: %w", err)
			}
		}
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("saving file: %w", err)
	}
	fmt.Printf("\n✓ Fixtures saved to %s\n", outputPath)

	if textPath != "" {
		if err := os.WriteFile(textPath, []byte(share.AllText(groups, fixtures)), 0644); err != nil {
			return fmt.Errorf("writing text: %w", err)
		}
		fmt.Printf("✓ Shareable text saved to %s\n", textPath)
	}
	return nil
}

// Validate checks an exported workbook against the stored roster, which is
// the one fixtures generate wrote it from.
func (a *App) Validate(ctx context.Context, fixturesPath string) error {
	groups, err := a.roster(ctx)
	if err != nil {
		return err
	}
	rules, err := validator.RulesFor(a.cfg, groups)
	if err != nil {
		return err
	}
	violations, err := validator.Validate(rules, fixturesPath)
	if err != nil {
		return fmt.Errorf("validating: %w", err)
	}

	failures := 0
	warnings := 0
	for _, v := range violations {
		switch v.Type {
		case validator.TypeError:
			failures++
			if v.Row > 0 {
				fmt.Printf("✗ Row %d: %s\n", v.Row, v.Message)
			} else {
				fmt.Printf("✗ %s\n", v.Message)
			}
		case validator.TypeWarning:
			warnings++
			fmt.Printf("⚠ %s\n", v.Message)
		}
	}

	fmt.Printf("\nValidation complete: %d errors, %d warnings\n", failures, warnings)
	if failures > 0 {
		return fmt.Errorf("%d fixture errors found", failures)
	}
	return nil
}

func (a *App) Share(ctx context.Context, which, pngPath string) error {
	groups, err := a.roster(ctx)
	if err != nil {
		return err
	}
	fixtures, err := a.store.ListFixtures(ctx, a.id())
	if err != nil {
		return fmt.Errorf("loading fixtures: %w", err)
	}
	if len(fixtures) == 0 {
		return fmt.Errorf("no fixtures for tournament %q; run fixtures generate first", a.id())
	}

	if which == "all" {
		if pngPath != "" {
			return fmt.Errorf("--png needs a single matchday")
		}
		fmt.Println(share.AllText(groups, fixtures))
		return nil
	}

	md, err := strconv.Atoi(which)
	if err != nil || md < 1 {
		return fmt.Errorf("invalid matchday %q", which)
	}
	if last := schedule.MaxMatchday(fixtures); md > last {
		return fmt.Errorf("matchday %d does not exist; the schedule has %d", md, last)
	}
	fmt.Println(share.MatchdayText(groups, fixtures, md))

	if pngPath != "" {
		out, err := os.Create(pngPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", pngPath, err)
		}
		defer out.Close()
		if err := share.WritePNG(out, share.MatchdayImage(groups, fixtures, md)); err != nil {
			return fmt.Errorf("writing PNG: %w", err)
		}
		fmt.Printf("✓ Matchday %d card saved to %s\n", md, pngPath)
	}
	return nil
}

func (a *App) RenameTeam(ctx context.Context, oldName, newName string) error {
	groups, err := a.roster(ctx)
	if err != nil {
		return err
	}
	if err := a.store.SaveGroups(ctx, a.id(), groups); err != nil {
		return fmt.Errorf("saving groups: %w", err)
	}
	if err := a.store.RenameTeam(ctx, a.id(), oldName, newName); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("no team named %q", oldName)
		case errors.Is(err, store.ErrConflict):
			return fmt.Errorf("cannot rename %s: %w", oldName, err)
		}
		return err
	}

	fmt.Printf("✓ Renamed %s to %s\n", oldName, newName)
	for _, team := range a.cfg.AllTeams() {
		if team == oldName {
			fmt.Printf("⚠ The config file still lists %s; stored groups take precedence unless you run fixtures generate --reload\n", oldName)
			break
		}
	}
	return nil
}

func (a *App) AddTeam(ctx context.Context, groupID, name string) error {
	groups, err := a.editRoster(ctx, groupID, name, store.AddTeam)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("cannot add %s: %w", name, err)
		}
		return err
	}
	fmt.Printf("✓ Added %s to group %s (%d teams)\n", strings.TrimSpace(name), groupID, teamsIn(groups, groupID))
	fmt.Println("⚠ Run fixtures generate to reschedule the group")
	return nil
}

func (a *App) RemoveTeam(ctx context.Context, groupID, name string) error {
	groups, err := a.editRoster(ctx, groupID, name, store.RemoveTeam)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Removed %s from group %s (%d teams)\n", name, groupID, teamsIn(groups, groupID))
	fmt.Println("⚠ Run fixtures generate to reschedule the group")
	return nil
}

func (a *App) editRoster(ctx context.Context, groupID, name string,
	edit func(context.Context, store.Store, string, string, string) ([]config.Group, error)) ([]config.Group, error) {
	groups, err := a.roster(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.store.SaveGroups(ctx, a.id(), groups); err != nil {
		return nil, fmt.Errorf("saving groups: %w", err)
	}
	return edit(ctx, a.store, a.id(), groupID, name)
}

func teamsIn(groups []config.Group, groupID string) int {
	for _, g := range groups {
		if g.ID == groupID {
			return len(g.Teams)
		}
	}
	return 0
}

func (a *App) RecordResult(ctx context.Context, groupID, home, away string, homeScore, awayScore int) error {
	groups, err := a.roster(ctx)
	if err != nil {
		return err
	}
	var group *config.Group
	for i := range groups {
		if groups[i].ID == groupID {
			group = &groups[i]
		}
	}
	if group == nil {
		return fmt.Errorf("unknown group %q", groupID)
	}
	for _, team := range []string{home, away} {
		if !contains(group.Teams, team) {
			return fmt.Errorf("%s is not in group %s", team, group.Name)
		}
	}

	r, err := a.store.AddResult(ctx, a.id(), standings.Result{
		GroupID:   groupID,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: homeScore,
		AwayScore: awayScore,
	})
	if err != nil {
		return err
	}
	fmt.Printf("✓ Recorded %s %d-%d %s (%s)\n", r.HomeTeam, r.HomeScore, r.AwayScore, r.AwayTeam, group.Name)
	return nil
}

func (a *App) Standings(ctx context.Context, groupID string) error {
	groups, err := a.roster(ctx)
	if err != nil {
		return err
	}
	results, err := a.store.ListResults(ctx, a.id())
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	printed := 0
	for _, g := range groups {
		if groupID != "" && g.ID != groupID {
			continue
		}
		if printed > 0 {
			fmt.Println()
		}
		printed++
		printTable(g.Name, standings.Compute(g.Teams, standings.ForGroup(results, g.ID)))
	}
	if printed == 0 {
		return fmt.Errorf("unknown group %q", groupID)
	}
	return nil
}

func printTable(name string, table []standings.TeamRecord) {
	fmt.Printf("%s\n", name)
	fmt.Printf("  %3s %-15s %3s %3s %3s %3s %4s %4s %4s %4s\n", "Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts")
	for i, r := range table {
		fmt.Printf("  %3d %-15s %3d %3d %3d %3d %4d %4d %+4d %4d\n",
			i+1, r.Team, r.Played, r.Wins, r.Draws, r.Losses, r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points)
	}
}

func (a *App) SeedKnockout(ctx context.Context) error {
	if !a.cfg.Knockout.Enabled {
		return fmt.Errorf("the knockout stage is disabled; set knockout.enabled in the config")
	}
	groups, err := a.roster(ctx)
	if err != nil {
		return err
	}
	results, err := a.store.ListResults(ctx, a.id())
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	qualified, err := knockout.Qualifiers(groups, results)
	if err != nil {
		return err
	}
	b, err := knockout.Seed(qualified)
	if err != nil {
		return err
	}
	if err := a.store.SaveBracket(ctx, a.id(), b); err != nil {
		return fmt.Errorf("saving bracket: %w", err)
	}
	fmt.Println("✓ Knockout bracket seeded")
	printBracket(b)
	return nil
}

func (a *App) ScoreKnockout(ctx context.Context, matchID string, homeScore, awayScore int) error {
	b, err := a.store.GetBracket(ctx, a.id())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no knockout bracket yet; run knockout seed first")
	}
	if err != nil {
		return err
	}
	if err := b.RecordScore(matchID, homeScore, awayScore); err != nil {
		return err
	}
	if err := a.store.SaveBracket(ctx, a.id(), b); err != nil {
		return fmt.Errorf("saving bracket: %w", err)
	}

	m, _ := b.Match(matchID)
	winner, _ := m.Winner()
	fmt.Printf("✓ %s: %s %d-%d %s, %s advances\n", m.ID, m.HomeTeam, homeScore, awayScore, m.AwayTeam, winner)
	if champ, ok := b.Champion(); ok {
		fmt.Printf("🏆 %s are the champions\n", champ)
	}
	return nil
}

func (a *App) ShowKnockout(ctx context.Context) error {
	b, err := a.store.GetBracket(ctx, a.id())
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no knockout bracket yet; run knockout seed first")
	}
	if err != nil {
		return err
	}
	printBracket(b)
	return nil
}

func printBracket(b *knockout.Bracket) {
	for _, stage := range []knockout.Stage{knockout.Quarter, knockout.Semi, knockout.Final} {
		fmt.Printf("\n%s\n", strings.ToUpper(string(stage)))
		for _, m := range b.Stage(stage) {
			home, away := orTBD(m.HomeTeam), orTBD(m.AwayTeam)
			if m.Played() {
				fmt.Printf("  %-3s %-15s %2d - %-2d %s\n", m.ID, home, *m.HomeScore, *m.AwayScore, away)
			} else {
				fmt.Printf("  %-3s %-15s  vs   %s\n", m.ID, home, away)
			}
		}
	}
	if champ, ok := b.Champion(); ok {
		fmt.Printf("\n🏆 Champion: %s\n", champ)
	}
}

func orTBD(team string) string {
	if team == "" {
		return "TBD"
	}
	return team
}

func (a *App) Reset(ctx context.Context) error {
	if err := a.store.Reset(ctx, a.id()); err != nil {
		return err
	}
	fmt.Printf("✓ Tournament %s reset\n", a.id())
	return nil
}

func (a *App) Serve(ctx context.Context) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	srv, err := server.New(a.cfg, a.store, logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

func parseScores(home, away string) (int, int, error) {
	h, err := strconv.Atoi(home)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid home score %q", home)
	}
	aw, err := strconv.Atoi(away)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid away score %q", away)
	}
	return h, aw, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/excel"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/strategy"
	"github.com/xuri/excelize/v2"
)

func date(y, m, d int) config.Date {
	return config.Date{Time: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)}
}

func fullTestConfig() *config.Config {
	return &config.Config{
		Season: config.Season{
			StartDate:            date(2026, 6, 6),
			DaysBetweenMatchdays: 7,
			BlackoutDates: []config.BlackoutDate{
				{Date: date(2026, 6, 20), Reason: "Cup final"},
			},
		},
		Groups: []config.Group{
			{ID: "a", Name: "Group A", Teams: []string{"Lions", "Tigers", "Bears", "Wolves", "Foxes"}},
			{ID: "b", Name: "Group B", Teams: []string{"Eagles", "Hawks", "Owls", "Falcons"}},
		},
	}
}

func rulesFor(t *testing.T, cfg *config.Config) Rules {
	t.Helper()
	rules, err := RulesFor(cfg, nil)
	if err != nil {
		t.Fatalf("RulesFor error: %v", err)
	}
	return rules
}

func writeWorkbook(t *testing.T, cfg *config.Config) string {
	t.Helper()
	strat, err := strategy.Get(cfg.Strategy)
	if err != nil {
		t.Fatalf("strategy.Get error: %v", err)
	}
	fixtures, err := schedule.GenerateGroups(strat, cfg.Groups)
	if err != nil {
		t.Fatalf("GenerateGroups error: %v", err)
	}
	f, err := excel.Generate(cfg, fixtures, schedule.MatchdayDates(cfg.Season, schedule.MaxMatchday(fixtures)))
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	path := t.TempDir() + "/fixtures.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}
	return path
}

func TestValidateGeneratedSchedule(t *testing.T) {
	cfg := fullTestConfig()
	violations, err := Validate(rulesFor(t, cfg), writeWorkbook(t, cfg))
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected %s on row %d: %s", v.Type, v.Row, v.Message)
	}
}

func TestValidateSingleRoundRobin(t *testing.T) {
	cfg := fullTestConfig()
	cfg.Strategy = "single_round_robin"
	rules := rulesFor(t, cfg)
	if rules.Rounds != 1 {
		t.Fatalf("rounds = %d, want 1", rules.Rounds)
	}

	violations, err := Validate(rules, writeWorkbook(t, cfg))
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected %s on row %d: %s", v.Type, v.Row, v.Message)
	}
}

func TestValidateStoredRoster(t *testing.T) {
	cfg := fullTestConfig()
	renamed := fullTestConfig()
	renamed.Groups[0].Teams[1] = "Pumas"
	path := writeWorkbook(t, renamed)

	rules, err := RulesFor(cfg, renamed.Groups)
	if err != nil {
		t.Fatalf("RulesFor error: %v", err)
	}
	violations, err := Validate(rules, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	for _, v := range violations {
		t.Errorf("unexpected %s on row %d: %s", v.Type, v.Row, v.Message)
	}

	if v := errorsOnly(mustValidate(t, rulesFor(t, cfg), path)); len(v) == 0 {
		t.Error("the config roster should not match a workbook generated from the renamed roster")
	}
}

func mustValidate(t *testing.T, rules Rules, path string) []Violation {
	t.Helper()
	v, err := Validate(rules, path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	return v
}

func TestValidateEditedWorkbook(t *testing.T) {
	cfg := fullTestConfig()
	path := writeWorkbook(t, cfg)

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	// Row 2 is Bears vs Foxes on matchday 1; make it Bears vs Lions.
	f.SetCellValue(excel.MasterSheet, "F2", "Lions")
	if err := f.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	f.Close()

	violations, err := Validate(rulesFor(t, cfg), path)
	if err != nil {
		t.Fatalf("Validate() error: %v", err)
	}

	want := []string{
		"Lions plays more than once on matchday 1",
		"Bears vs Foxes is missing",
		"Bears vs Lions is scheduled 2 times",
	}
	for _, w := range want {
		found := false
		for _, v := range violations {
			if strings.Contains(v.Message, w) && v.Type == TypeError {
				found = true
			}
		}
		if !found {
			t.Errorf("missing violation %q in %v", w, violations)
		}
	}
}

func TestValidateMissingFile(t *testing.T) {
	if _, err := Validate(rulesFor(t, fullTestConfig()), t.TempDir()+"/missing.xlsx"); err == nil {
		t.Error("expected error for missing file")
	}
}

func groups() []config.Group {
	return []config.Group{{ID: "a", Teams: []string{"A", "B", "C"}}}
}

func fx(home, away string, matchday, round int) schedule.Fixture {
	return schedule.Fixture{HomeTeam: home, AwayTeam: away, Matchday: matchday, Round: round, GroupID: "a"}
}

func validFixtures() []schedule.Fixture {
	return []schedule.Fixture{
		fx("A", "B", 1, 1), fx("A", "C", 2, 1), fx("B", "C", 3, 1),
		fx("B", "A", 4, 2), fx("C", "A", 5, 2), fx("C", "B", 6, 2),
	}
}

func errorsOnly(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if v.Type == TypeError {
			out = append(out, v)
		}
	}
	return out
}

func TestCheckFixtures(t *testing.T) {
	t.Run("valid schedule", func(t *testing.T) {
		if v := CheckFixtures(Rules{Groups: groups()}, validFixtures()); len(v) != 0 {
			t.Errorf("expected 0 violations, got %v", v)
		}
	})

	tests := []struct {
		name   string
		mutate func(f []schedule.Fixture) []schedule.Fixture
		want   string
	}{
		{
			name: "double booking",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				f[1].Matchday = 1
				return f
			},
			want: "A plays more than once on matchday 1",
		},
		{
			name: "missing leg",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				return f[:5]
			},
			want: "C vs B is missing",
		},
		{
			name: "legs in the same round",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				f[5].Round = 1
				return f
			},
			want: "both legs of B vs C are in round 1",
		},
		{
			name: "round overlap",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				f[3].Matchday = 3
				f[2].Matchday = 4
				return f
			},
			want: "round 2 starts on matchday 3",
		},
		{
			name: "gap in matchdays",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				f[5].Matchday = 8
				return f
			},
			want: "no fixtures on matchday 6",
		},
		{
			name: "unknown team",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				return append(f, fx("A", "Z", 7, 2))
			},
			want: "Z is not in group a",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := errorsOnly(CheckFixtures(Rules{Groups: groups()}, tt.mutate(validFixtures())))
			found := false
			for _, vi := range v {
				if strings.Contains(vi.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected violation containing %q, got %v", tt.want, v)
			}
		})
	}
}

func TestCheckHomeAwayBalance(t *testing.T) {
	fixtures := []parsedFixture{
		{Fixture: fx("A", "B", 1, 1)},
		{Fixture: fx("A", "C", 2, 1)},
		{Fixture: fx("A", "B", 3, 2)},
	}
	v := checkHomeAwayBalance(groups(), fixtures)
	if len(v) != 2 {
		t.Fatalf("expected warnings for A and B, got %v", v)
	}
	if v[0].Type != TypeWarning || !strings.HasPrefix(v[0].Message, "A has 3 home") {
		t.Errorf("warning = %+v", v[0])
	}
}

func TestCheckSingleRoundRobin(t *testing.T) {
	single := Rules{Groups: groups(), Rounds: 1}
	valid := func() []schedule.Fixture {
		return []schedule.Fixture{fx("A", "B", 1, 1), fx("A", "C", 2, 1), fx("B", "C", 3, 1)}
	}

	t.Run("valid schedule", func(t *testing.T) {
		if v := CheckFixtures(single, valid()); len(v) != 0 {
			t.Errorf("expected 0 violations, got %v", v)
		}
	})

	t.Run("either ground counts", func(t *testing.T) {
		f := valid()
		f[2] = fx("C", "B", 3, 1)
		if v := errorsOnly(CheckFixtures(single, f)); len(v) != 0 {
			t.Errorf("expected 0 errors, got %v", v)
		}
	})

	tests := []struct {
		name   string
		mutate func(f []schedule.Fixture) []schedule.Fixture
		want   string
	}{
		{
			name:   "missing pair",
			mutate: func(f []schedule.Fixture) []schedule.Fixture { return f[:2] },
			want:   "B vs C is missing from group a",
		},
		{
			name: "pair twice",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				return append(f, fx("B", "A", 4, 1))
			},
			want: "A vs B is scheduled 2 times",
		},
		{
			name: "second round",
			mutate: func(f []schedule.Fixture) []schedule.Fixture {
				f[2].Round = 2
				f[2].Matchday = 4
				return f
			},
			want: "B vs C is in round 2 of a single round robin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := errorsOnly(CheckFixtures(single, tt.mutate(valid())))
			found := false
			for _, vi := range v {
				if strings.Contains(vi.Message, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("expected violation containing %q, got %v", tt.want, v)
			}
		})
	}
}

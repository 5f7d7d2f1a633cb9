package excel

import (
	"testing"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/xuri/excelize/v2"
)

func date(y, m, d int) config.Date {
	return config.Date{Time: time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)}
}

func testData(t *testing.T) (*config.Config, []schedule.Fixture, map[int]time.Time) {
	t.Helper()
	cfg := &config.Config{
		Season: config.Season{
			StartDate:            date(2026, 6, 6),
			DaysBetweenMatchdays: 7,
			BlackoutDates: []config.BlackoutDate{
				{Date: date(2026, 6, 20), Reason: "Pitch maintenance"},
			},
		},
		Groups: []config.Group{
			{ID: "a", Name: "Group A", Teams: []string{"Angels", "Astros", "Cubs"}},
			{ID: "b", Name: "Group B", Teams: []string{"Padres", "Giants"}},
		},
	}
	fixtures, err := schedule.GenerateGroups(nil, cfg.Groups)
	if err != nil {
		t.Fatalf("GenerateGroups error: %v", err)
	}
	return cfg, fixtures, schedule.MatchdayDates(cfg.Season, schedule.MaxMatchday(fixtures))
}

func TestGenerateWorkbook(t *testing.T) {
	cfg, fixtures, dates := testData(t)

	f, err := Generate(cfg, fixtures, dates)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	t.Run("has sheets", func(t *testing.T) {
		for _, name := range []string{MasterSheet, "Group A", "Group B", "Angels", "Astros", "Cubs", "Padres", "Giants"} {
			idx, err := f.GetSheetIndex(name)
			if err != nil {
				t.Fatalf("GetSheetIndex error: %v", err)
			}
			if idx < 0 {
				t.Errorf("sheet %s not found", name)
			}
		}
	})

	t.Run("master sheet has headers", func(t *testing.T) {
		for i, want := range MasterHeaders {
			val, _ := f.GetCellValue(MasterSheet, cellRef(i+1, 1))
			if val != want {
				t.Errorf("%s = %q, want %q", cellRef(i+1, 1), val, want)
			}
		}
	})

	t.Run("master sheet rows", func(t *testing.T) {
		rows, _ := f.GetRows(MasterSheet)
		want := [][]string{
			{"1", "06/06/2026", "Group A", "1", "Angels", "Astros"},
			{"1", "06/06/2026", "Group B", "1", "Giants", "Padres"},
			{"2", "06/13/2026", "Group A", "1", "Angels", "Cubs"},
			{"2", "06/13/2026", "Group B", "2", "Padres", "Giants"},
			{"", "06/20/2026", "", "", "Pitch maintenance"},
			{"3", "06/21/2026", "Group A", "1", "Astros", "Cubs"},
		}
		for i, w := range want {
			row := rows[i+1]
			for j := range w {
				if j >= len(row) || row[j] != w[j] {
					t.Errorf("row %d = %v, want %v", i+2, row, w)
					break
				}
			}
		}

		games := 0
		for _, row := range rows[1:] {
			if len(row) > 0 && row[0] != "" {
				games++
			}
		}
		if games != len(fixtures) {
			t.Errorf("game rows = %d, want %d", games, len(fixtures))
		}
	})

	t.Run("team sheet has that team's fixtures", func(t *testing.T) {
		rows, _ := f.GetRows("Angels")
		if got := len(rows) - 1; got != 4 {
			t.Errorf("Angels sheet has %d fixtures, want 4", got)
		}
		if rows[1][2] != "Astros" || rows[1][3] != "Home" {
			t.Errorf("first Angels row = %v, want Astros at home", rows[1])
		}
	})

	t.Run("default Sheet1 removed", func(t *testing.T) {
		idx, _ := f.GetSheetIndex("Sheet1")
		if idx >= 0 {
			t.Error("Sheet1 should be removed")
		}
	})
}

func TestGenerateWithoutDates(t *testing.T) {
	cfg, fixtures, _ := testData(t)
	f, err := Generate(cfg, fixtures, nil)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	val, _ := f.GetCellValue(MasterSheet, "B2")
	if val != "" {
		t.Errorf("B2 = %q, want blank date", val)
	}
}

func TestSheetNames(t *testing.T) {
	names := newSheetNames()
	names.reserve(MasterSheet)

	tests := []struct {
		in, want string
	}{
		{"Lions", "Lions"},
		{"lions", "lions (2)"},
		{"fixtures", "fixtures (2)"},
		{"A/B: Reserves?", "A-B- Reserves-"},
		{"Real Sociedad de Fútbol Juvenil B", "Real Sociedad de Fútbol Juvenil"},
	}
	for _, tt := range tests {
		if got := names.next(tt.in); got != tt.want {
			t.Errorf("next(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteStandings(t *testing.T) {
	cfg, fixtures, dates := testData(t)
	f, _ := Generate(cfg, fixtures, dates)

	table := standings.Compute([]string{"Angels", "Astros", "Cubs"}, []standings.Result{
		{GroupID: "a", HomeTeam: "Astros", AwayTeam: "Angels", HomeScore: 2, AwayScore: 0},
	})
	sheet, err := WriteStandings(f, "Group A", table)
	if err != nil {
		t.Fatalf("WriteStandings error: %v", err)
	}
	if sheet != "Standings Group A" {
		t.Errorf("sheet = %q", sheet)
	}
	rows, _ := f.GetRows(sheet)
	if rows[1][1] != "Astros" || rows[1][9] != "3" {
		t.Errorf("leader row = %v, want Astros with 3 points", rows[1])
	}
}

func TestWriteAndRead(t *testing.T) {
	cfg, fixtures, dates := testData(t)

	f, err := Generate(cfg, fixtures, dates)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	path := t.TempDir() + "/test.xlsx"
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs error: %v", err)
	}

	f2, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error: %v", err)
	}
	defer f2.Close()

	val, _ := f2.GetCellValue(MasterSheet, "A1")
	if val != "Matchday" {
		t.Errorf("re-read A1 = %q, want Matchday", val)
	}
}

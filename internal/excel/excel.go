package excel

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/derekprior/kickoff/internal/config"
	"github.com/derekprior/kickoff/internal/schedule"
	"github.com/derekprior/kickoff/internal/standings"
	"github.com/xuri/excelize/v2"
)

// MasterSheet is the sheet listing every fixture. The validator reads it back.
const MasterSheet = "Fixtures"

// MasterHeaders are the columns of the master sheet, in order.
var MasterHeaders = []string{"Matchday", "Date", "Group", "Round", "Home", "Away"}

const dateFormat = "01/02/2006"

type styles struct {
	header int
	cell   int
	center int
}

func newStyles(f *excelize.File) styles {
	var s styles
	s.header, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 14, Family: "Arial"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E7B4A"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	s.cell, _ = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Size: 14, Family: "Arial"},
	})
	s.center, _ = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 14, Family: "Arial"},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return s
}

// Generate creates a workbook with the master fixture list, one sheet per
// group and one per team. dates may be nil when the season has no start date.
func Generate(cfg *config.Config, fixtures []schedule.Fixture, dates map[int]time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetDefaultFont("Arial")
	st := newStyles(f)
	names := newSheetNames()
	names.reserve(MasterSheet)

	if err := writeMasterSheet(f, st, cfg, fixtures, dates); err != nil {
		return nil, fmt.Errorf("writing master sheet: %w", err)
	}
	for _, g := range cfg.Groups {
		if err := writeGroupSheet(f, st, names.next(g.Name), g, fixtures, dates); err != nil {
			return nil, fmt.Errorf("writing group %s sheet: %w", g.ID, err)
		}
	}
	byGroup := schedule.ByGroup(fixtures)
	for _, g := range cfg.Groups {
		for _, team := range g.Teams {
			if err := writeTeamSheet(f, st, names.next(team), team, byGroup[g.ID], dates); err != nil {
				return nil, fmt.Errorf("writing team %s sheet: %w", team, err)
			}
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func dateCell(dates map[int]time.Time, matchday int) string {
	if d, ok := dates[matchday]; ok {
		return d.Format(dateFormat)
	}
	return ""
}

func writeHeaders(f *excelize.File, st styles, sheet string, headers []string) {
	for i, h := range headers {
		f.SetCellValue(sheet, cellRef(i+1, 1), h)
	}
	if st.header != 0 {
		f.SetCellStyle(sheet, cellRef(1, 1), cellRef(len(headers), 1), st.header)
	}
}

func styleRow(f *excelize.File, st styles, sheet string, row, cols int) {
	if st.cell == 0 {
		return
	}
	f.SetCellStyle(sheet, cellRef(1, row), cellRef(cols, row), st.cell)
}

func writeMasterSheet(f *excelize.File, st styles, cfg *config.Config, fixtures []schedule.Fixture, dates map[int]time.Time) error {
	sheet := MasterSheet
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	writeHeaders(f, st, sheet, MasterHeaders)

	row := 2
	blackouts := schedule.Blackouts(cfg.Season, dates)
	sort.Slice(blackouts, func(i, j int) bool { return blackouts[i].Date.Before(blackouts[j].Date) })
	for md := 1; md <= schedule.MaxMatchday(fixtures); md++ {
		// Blackouts falling before this matchday's date get their own row.
		for len(blackouts) > 0 && dates[md].After(blackouts[0].Date) {
			f.SetCellValue(sheet, cellRef(2, row), blackouts[0].Date.Format(dateFormat))
			f.SetCellValue(sheet, cellRef(5, row), blackouts[0].Reason)
			styleRow(f, st, sheet, row, len(MasterHeaders))
			blackouts = blackouts[1:]
			row++
		}
		for _, g := range cfg.Groups {
			for _, fx := range schedule.ByMatchday(fixtures, md, g.ID) {
				f.SetCellValue(sheet, cellRef(1, row), fx.Matchday)
				f.SetCellValue(sheet, cellRef(2, row), dateCell(dates, md))
				f.SetCellValue(sheet, cellRef(3, row), g.Name)
				f.SetCellValue(sheet, cellRef(4, row), fx.Round)
				f.SetCellValue(sheet, cellRef(5, row), fx.HomeTeam)
				f.SetCellValue(sheet, cellRef(6, row), fx.AwayTeam)
				styleRow(f, st, sheet, row, len(MasterHeaders))
				if st.center != 0 {
					f.SetCellStyle(sheet, cellRef(1, row), cellRef(1, row), st.center)
					f.SetCellStyle(sheet, cellRef(4, row), cellRef(4, row), st.center)
				}
				row++
			}
		}
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 16, "D": 8, "E": 28, "F": 28}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	// Blackout rows have a date but no matchday; shade them light red.
	if row > 2 {
		redFill, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FFC7CE"}},
			Font: &excelize.Font{Size: 14, Family: "Arial"},
		})
		f.SetConditionalFormat(sheet, fmt.Sprintf("A2:F%d", row-1), []excelize.ConditionalFormatOptions{
			{
				Type:     "formula",
				Criteria: `AND($A2="",$B2<>"")`,
				Format:   &redFill,
			},
		})
	}
	return nil
}

func writeGroupSheet(f *excelize.File, st styles, sheet string, g config.Group, fixtures []schedule.Fixture, dates map[int]time.Time) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"Matchday", "Date", "Round", "Home", "Away"}
	writeHeaders(f, st, sheet, headers)

	row := 2
	for md := 1; md <= schedule.MaxMatchday(fixtures); md++ {
		for _, fx := range schedule.ByMatchday(fixtures, md, g.ID) {
			f.SetCellValue(sheet, cellRef(1, row), fx.Matchday)
			f.SetCellValue(sheet, cellRef(2, row), dateCell(dates, md))
			f.SetCellValue(sheet, cellRef(3, row), fx.Round)
			f.SetCellValue(sheet, cellRef(4, row), fx.HomeTeam)
			f.SetCellValue(sheet, cellRef(5, row), fx.AwayTeam)
			styleRow(f, st, sheet, row, len(headers))
			row++
		}
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 8, "D": 28, "E": 28}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

func writeTeamSheet(f *excelize.File, st styles, sheet, team string, fixtures []schedule.Fixture, dates map[int]time.Time) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	headers := []string{"Matchday", "Date", "Opponent", "Home/Away", "Round"}
	writeHeaders(f, st, sheet, headers)

	row := 2
	for md := 1; md <= schedule.MaxMatchday(fixtures); md++ {
		for _, fx := range schedule.ByMatchday(fixtures, md, "") {
			var opponent, homeAway string
			switch team {
			case fx.HomeTeam:
				opponent, homeAway = fx.AwayTeam, "Home"
			case fx.AwayTeam:
				opponent, homeAway = fx.HomeTeam, "Away"
			default:
				continue
			}
			f.SetCellValue(sheet, cellRef(1, row), fx.Matchday)
			f.SetCellValue(sheet, cellRef(2, row), dateCell(dates, md))
			f.SetCellValue(sheet, cellRef(3, row), opponent)
			f.SetCellValue(sheet, cellRef(4, row), homeAway)
			f.SetCellValue(sheet, cellRef(5, row), fx.Round)
			styleRow(f, st, sheet, row, len(headers))
			row++
		}
	}

	widths := map[string]float64{"A": 12, "B": 14, "C": 28, "D": 14, "E": 8}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// WriteStandings adds a standings sheet for one group and returns its name.
func WriteStandings(f *excelize.File, groupName string, table []standings.TeamRecord) (string, error) {
	names := newSheetNames()
	for _, existing := range f.GetSheetList() {
		names.reserve(existing)
	}
	sheet := names.next("Standings " + groupName)
	if _, err := f.NewSheet(sheet); err != nil {
		return "", err
	}
	st := newStyles(f)
	headers := []string{"Pos", "Team", "P", "W", "D", "L", "GF", "GA", "GD", "Pts"}
	writeHeaders(f, st, sheet, headers)

	for i, r := range table {
		row := i + 2
		values := []interface{}{i + 1, r.Team, r.Played, r.Wins, r.Draws, r.Losses, r.GoalsFor, r.GoalsAgainst, r.GoalDifference, r.Points}
		for col, v := range values {
			f.SetCellValue(sheet, cellRef(col+1, row), v)
		}
		styleRow(f, st, sheet, row, len(headers))
	}
	f.SetColWidth(sheet, "B", "B", 28)
	return sheet, nil
}

// sheetNames hands out unique, valid sheet names. Excel caps names at 31
// characters, forbids []:*?/\ and compares them case-insensitively.
type sheetNames map[string]bool

func newSheetNames() sheetNames { return sheetNames{} }

func (s sheetNames) reserve(name string) {
	s[strings.ToLower(name)] = true
}

func (s sheetNames) next(name string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, name)
	clean = truncate(strings.TrimSpace(clean), 31)
	if clean == "" {
		clean = "Sheet"
	}

	candidate := clean
	for n := 2; s[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncate(clean, 31-len(suffix)) + suffix
	}
	s.reserve(candidate)
	return candidate
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func cellRef(col, row int) string {
	return fmt.Sprintf("%s%d", colLetter(col), row)
}

func colLetter(col int) string {
	result := ""
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}

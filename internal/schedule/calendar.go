package schedule

import (
	"time"

	"github.com/derekprior/kickoff/internal/config"
)

// Blackout is a date on which no matchday is played.
type Blackout struct {
	Date   time.Time
	Reason string
}

// MatchdayDates maps matchday numbers 1..maxMatchday onto calendar dates.
// Matchday 1 falls on the season start date and each following matchday
// DaysBetweenMatchdays later. A matchday landing on a blackout date moves to
// the next free day, and later matchdays step from the moved date.
// Returns nil when the season has no start date.
func MatchdayDates(season config.Season, maxMatchday int) map[int]time.Time {
	if season.StartDate.Time.IsZero() || maxMatchday < 1 {
		return nil
	}

	step := season.DaysBetweenMatchdays
	if step < 1 {
		step = 7
	}

	blackouts := make(map[time.Time]bool)
	for _, b := range season.BlackoutDates {
		blackouts[b.Date.Time] = true
	}

	dates := make(map[int]time.Time, maxMatchday)
	d := season.StartDate.Time
	for md := 1; md <= maxMatchday; md++ {
		for blackouts[d] {
			d = d.AddDate(0, 0, 1)
		}
		dates[md] = d
		d = d.AddDate(0, 0, step)
	}
	return dates
}

// Blackouts returns the blackout dates that fall inside the played calendar.
func Blackouts(season config.Season, dates map[int]time.Time) []Blackout {
	if len(dates) == 0 {
		return nil
	}
	last := season.StartDate.Time
	for _, d := range dates {
		if d.After(last) {
			last = d
		}
	}

	var out []Blackout
	for _, b := range season.BlackoutDates {
		if b.Date.Time.Before(season.StartDate.Time) || b.Date.Time.After(last) {
			continue
		}
		out = append(out, Blackout{Date: b.Date.Time, Reason: b.Reason})
	}
	return out
}

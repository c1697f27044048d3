// Package calendar holds the pure date helpers behind the month grid and streaks.
package calendar

import "time"

// DateFormat is the ISO layout used for every stored entry date.
const DateFormat = "2006-01-02"

// MonthDates returns every date of the month as YYYY-MM-DD in ascending order.
//
// The end bound is found by jumping from day 28 four days forward and truncating
// to day 1, which always lands in the following month whatever its length.
func MonthDates(year int, month time.Month) []string {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := time.Date(year, month, 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 4)
	end := time.Date(next.Year(), next.Month(), 1, 0, 0, 0, 0, time.UTC)

	dates := make([]string, 0, 31)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(DateFormat))
	}
	return dates
}

// MonthBounds returns the first and last date of the month.
func MonthBounds(year int, month time.Month) (first, last string) {
	dates := MonthDates(year, month)
	return dates[0], dates[len(dates)-1]
}

// Shift moves a year/month pair by delta months.
func Shift(year int, month time.Month, delta int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, delta, 0)
	return t.Year(), t.Month()
}

// Today truncates now to a calendar day in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	n := now.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

// Format renders a day as YYYY-MM-DD.
func Format(day time.Time) string {
	return day.Format(DateFormat)
}

// WindowStart returns the first day of a window of n days ending at today.
func WindowStart(today time.Time, n int) time.Time {
	if n < 1 {
		n = 1
	}
	return today.AddDate(0, 0, -(n - 1))
}

// CountStreak counts consecutive days ending at today that appear in positives.
// positives must be sorted descending with no duplicates, as returned by the store.
// A gap, or a first element that is not today, ends the count.
func CountStreak(today time.Time, positives []string) int {
	count := 0
	expect := today
	for _, d := range positives {
		if d != Format(expect) {
			break
		}
		count++
		expect = expect.AddDate(0, 0, -1)
	}
	return count
}

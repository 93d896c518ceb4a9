package models

import "time"

// MonthOf returns the first day of t's month at midnight UTC. Every date the
// simulator stores is normalized through it.
func MonthOf(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves a first-of-month date by n calendar months.
func AddMonths(t time.Time, n int) time.Time {
	return MonthOf(t).AddDate(0, n, 0)
}

// FormatMonth renders a month as YYYY-MM-DD.
func FormatMonth(t time.Time) string {
	return t.Format("2006-01-02")
}

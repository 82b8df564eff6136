package utils

import "time"

// WindowStart returns the beginning of a lookback window of the given
// number of hours, ending at t.
func WindowStart(t time.Time, hours int) time.Time {
	if hours <= 0 {
		hours = 24
	}
	return t.Add(-time.Duration(hours) * time.Hour)
}

// DayKey formats a time as a date key used in report file names.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// FormatUTC renders a timestamp the way report metadata expects it.
func FormatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

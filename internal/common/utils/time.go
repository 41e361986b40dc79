package utils

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for report date parameters (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string into a UTC midnight instant.
//
// Parameters:
//   - s: Date string in YYYY-MM-DD format
//
// Returns:
//   - time.Time: Midnight UTC on the given date
//   - error: Parsing error if the format is invalid
//
// Examples:
//
//	ParseDate("2025-11-22") // 2025-11-22 00:00:00 +0000 UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats a time as a YYYY-MM-DD date string.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// TruncateToDay truncates a time to the start of the day (midnight).
//
// Sets the time to 00:00:00.000 while preserving the date and timezone.
// Unlike time.Truncate, this works correctly across timezone boundaries.
//
// Example: 2023-01-01 12:34:56.789 EST → 2023-01-01 00:00:00.000 EST
func TruncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns the Monday of the week containing t, at midnight.
//
// Weeks run Monday through Sunday.
func StartOfWeek(t time.Time) time.Time {
	day := TruncateToDay(t)
	// time.Weekday numbers Sunday as 0; shift so Monday is 0
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// LastFullWeek returns the most recent complete Monday-Sunday week strictly
// before the given day.
//
// Parameters:
//   - today: The reference day (only its date part is used)
//
// Returns:
//   - start: Monday of the last complete week, midnight
//   - end: Sunday of the last complete week, midnight
//
// Example: for a Wednesday 2025-11-26, returns 2025-11-17 .. 2025-11-23.
func LastFullWeek(today time.Time) (start, end time.Time) {
	day := TruncateToDay(today)
	// Walk back to the most recent Sunday before today
	offset := int(day.Weekday())
	if offset == 0 {
		offset = 7
	}
	end = day.AddDate(0, 0, -offset)
	start = end.AddDate(0, 0, -6)
	return start, end
}

// MonthStart returns midnight on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths shifts a time by the given number of calendar months.
//
// Thin wrapper over time.Time.AddDate kept for symmetry with MonthStart;
// note Go normalizes overflow (Jan 31 + 1 month = Mar 2 or 3).
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// DaysBetween returns the number of whole days from start to end.
//
// Both times are truncated to their day before subtracting, so the result
// depends only on the calendar dates. Negative when end precedes start.
func DaysBetween(start, end time.Time) int {
	s := TruncateToDay(start)
	e := TruncateToDay(end)
	return int(e.Sub(s).Hours() / 24)
}

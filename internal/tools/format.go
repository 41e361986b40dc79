package tools

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"servicetitan-mcp/internal/models"
)

// dash is the placeholder for missing values in report cells.
const dash = "—"

// localized formats numbers with English thousands separators, matching
// how the dashboard renders dollar amounts.
var localized = message.NewPrinter(language.English)

func fmtCurrency(amount float64) string {
	return localized.Sprintf("$%.2f", amount)
}

// fmtDollarShort is the compact whole-dollar form used in trend columns.
func fmtDollarShort(amount float64) string {
	return localized.Sprintf("$%.0f", amount)
}

// fmtHours renders a fractional hour count as "7h 30m", dropping the
// zero component.
func fmtHours(hours float64) string {
	totalMin := int(math.Round(hours * 60))
	h := totalMin / 60
	m := totalMin % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// fmtTimeUTC renders a timestamp as a clock time, e.g. "9:30 AM UTC".
func fmtTimeUTC(t models.APITime) string {
	if t.IsZero() {
		return dash
	}
	return t.UTC().Format("3:04 PM") + " UTC"
}

// formatDateRange renders the resolved range for report headers: a full
// date for single days, "Jan 02 – Jan 08, 2026" otherwise.
func formatDateRange(start, end time.Time) string {
	if start.Equal(end) {
		return start.Format("January 2, 2006")
	}
	return start.Format("Jan 02") + " – " + end.Format("Jan 02, 2006")
}

// monthBucket identifies one calendar month of a trend window.
type monthBucket struct {
	year  int
	month int
}

// monthBuckets lists every (year, month) from start through end inclusive.
func monthBuckets(start, end time.Time) []monthBucket {
	var out []monthBucket
	y, m := start.Year(), int(start.Month())
	endY, endM := end.Year(), int(end.Month())
	for y < endY || (y == endY && m <= endM) {
		out = append(out, monthBucket{year: y, month: m})
		m++
		if m > 12 {
			m, y = 1, y+1
		}
	}
	return out
}

// monthLabel is the column header for a trend month. The two-digit year
// suffix only appears when the window crosses a year boundary.
func monthLabel(b monthBucket, crossYear bool) string {
	label := time.Date(b.year, time.Month(b.month), 1, 0, 0, 0, 0, time.UTC).Format("Jan")
	if crossYear {
		return fmt.Sprintf("%s %d", label, b.year%100)
	}
	return label
}

// runeLen counts characters, not bytes. Table alignment breaks on names
// and placeholder glyphs otherwise.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func padLeft(s string, width int) string {
	if n := runeLen(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}

func padRight(s string, width int) string {
	if n := runeLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// rule draws a horizontal separator of the given width.
func rule(width int) string {
	return strings.Repeat("─", width)
}

// columnWidth returns the widest name, with a floor for the header.
func columnWidth(names []string, floor int) int {
	w := floor
	for _, n := range names {
		if c := runeLen(n); c > w {
			w = c
		}
	}
	return w
}

// dateOrDash renders the calendar day of a timestamp, or the placeholder.
func dateOrDash(t models.APITime) string {
	if key := t.DateKey(); key != "" {
		return key
	}
	return dash
}

// orDash substitutes the placeholder for empty strings.
func orDash(s string) string {
	if s == "" {
		return dash
	}
	return s
}

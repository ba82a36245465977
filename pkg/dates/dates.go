package dates

import "time"

// ISOLayout is the canonical date format used across the entity records.
// All engine comparisons rely on its lexicographic ordering.
const ISOLayout = "2006-01-02"

// GridDay is one cell of the 6-week month grid.
type GridDay struct {
	Date    time.Time `json:"-"`
	ISO     string    `json:"date"`
	InMonth bool      `json:"in_month"`
}

// MonthGrid builds the 42-cell calendar grid for the given month, starting on
// Monday and padded with the surrounding months' days.
func MonthGrid(year int, month time.Month) []GridDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	// Monday-first offset: Sunday counts as the seventh column.
	lead := int(first.Weekday()) - 1
	if lead < 0 {
		lead = 6
	}

	days := make([]GridDay, 0, 42)
	cursor := first.AddDate(0, 0, -lead)
	for len(days) < 42 {
		days = append(days, GridDay{
			Date:    cursor,
			ISO:     FormatISO(cursor),
			InMonth: cursor.Month() == month,
		})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return days
}

// IsClassDay reports whether lessons are hosted on the given date. The center
// runs classes on Monday, Thursday and Saturday.
func IsClassDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Monday, time.Thursday, time.Saturday:
		return true
	}
	return false
}

// FormatISO renders a date as YYYY-MM-DD.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// ParseISO parses a YYYY-MM-DD string. The boolean is false for malformed
// input so callers can route bad dates to their "unknown" handling.
func ParseISO(raw string) (time.Time, bool) {
	t, err := time.Parse(ISOLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// MonthsBefore reports whether candidate lies strictly more than n calendar
// months before the reference date.
func MonthsBefore(candidate, reference time.Time, n int) bool {
	return candidate.Before(reference.AddDate(0, -n, 0))
}

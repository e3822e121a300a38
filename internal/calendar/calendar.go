// Package calendar provides pure date and time-of-day helpers for
// building weekly duty schedules. All functions are deterministic and
// side-effect free.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

// DayInfo describes a single calendar day within a generated week.
type DayInfo struct {
	Date           time.Time `json:"-"`
	DateISO        string    `json:"dateISO"`
	DayNumber      int       `json:"dayNumber"`
	DayName        string    `json:"dayName"`
	DayNameShort   string    `json:"dayNameShort"`
	MonthName      string    `json:"monthName"`
	MonthNameShort string    `json:"monthNameShort"`
	Year           int       `json:"year"`
	Weekday        int       `json:"weekday"` // 0 = Sunday
	IsWeekend      bool      `json:"isWeekend"`
	DayIndex       int       `json:"dayIndex"` // 0 = Monday anchor
}

// ParseISODate interprets s as a local calendar date in YYYY-MM-DD form.
// Empty or malformed input falls back to today; the second return value
// reports whether s actually parsed. The fallback is a tolerant default,
// not an error: callers that care must check ok.
func ParseISODate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return today(), false
	}
	t, err := time.ParseInLocation(isoDateLayout, s, time.Local)
	if err != nil {
		return today(), false
	}
	return t, true
}

// FormatISODate renders t as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// IsMonday reports whether t falls on a Monday.
func IsMonday(t time.Time) bool {
	return t.Weekday() == time.Monday
}

// NearestMonday normalizes t to the Monday of its calendar week.
// The correction is backward-only: Monday is returned unchanged, Sunday
// maps six days back, every other weekday maps to the Monday that began
// its week. The function is idempotent.
func NearestMonday(t time.Time) time.Time {
	switch wd := t.Weekday(); wd {
	case time.Monday:
		return t
	case time.Sunday:
		return t.AddDate(0, 0, -6)
	default:
		return t.AddDate(0, 0, 1-int(wd))
	}
}

// AddDays returns t shifted by the given number of calendar days.
func AddDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// GenerateWeek produces the seven consecutive calendar days of the week
// containing anchor, starting on Monday. The anchor is normalized via
// NearestMonday first.
func GenerateWeek(anchor time.Time) []DayInfo {
	start := NearestMonday(anchor)

	week := make([]DayInfo, 0, 7)
	for i := 0; i < 7; i++ {
		d := AddDays(start, i)
		wd := d.Weekday()
		week = append(week, DayInfo{
			Date:           d,
			DateISO:        FormatISODate(d),
			DayNumber:      d.Day(),
			DayName:        wd.String(),
			DayNameShort:   wd.String()[:3],
			MonthName:      d.Month().String(),
			MonthNameShort: d.Month().String()[:3],
			Year:           d.Year(),
			Weekday:        int(wd),
			IsWeekend:      wd == time.Saturday || wd == time.Sunday,
			DayIndex:       i,
		})
	}
	return week
}

// FormatTime12h converts a 24-hour "HH:MM" string to "h:MM AM/PM".
// Midnight renders as "12:00 AM" and noon as "12:00 PM". Empty or
// malformed input yields an empty string rather than an error.
func FormatTime12h(hhmm string) string {
	if hhmm == "" {
		return ""
	}
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return ""
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return ""
	}

	period := "AM"
	if hours >= 12 {
		period = "PM"
	}
	h12 := hours % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, minutes, period)
}

// ISOWeekNumber returns the ISO-8601 week number of t (the week
// containing the year's first Thursday is week 1).
func ISOWeekNumber(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

// FormatWeekRange renders a human label spanning Monday..Sunday of the
// week starting at monday, collapsing the month name when both ends
// fall in the same month: "Jan 5 - 11, 2026" or "Jan 29 - Feb 4, 2026".
func FormatWeekRange(monday time.Time) string {
	end := AddDays(monday, 6)
	startMonth := monday.Month().String()[:3]
	endMonth := end.Month().String()[:3]
	if startMonth == endMonth {
		return fmt.Sprintf("%s %d - %d, %d", startMonth, monday.Day(), end.Day(), monday.Year())
	}
	return fmt.Sprintf("%s %d - %s %d, %d", startMonth, monday.Day(), endMonth, end.Day(), end.Year())
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
}

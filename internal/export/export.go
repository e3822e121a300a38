// Package export renders read-only projections of a schedule: CSV,
// pretty JSON, shareable plain text, XLSX and a printable HTML grid.
// Nothing in this package mutates the schedule it is handed.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"dutyroster/internal/calendar"
	"dutyroster/internal/models"
)

// Unassigned is the placeholder rendered for empty slots in CSV, text
// and XLSX output.
const Unassigned = "Unassigned"

var shiftTitles = map[models.ShiftID]string{
	models.Shift1: "Shift 1",
	models.Shift2: "Shift 2",
	models.Shift3: "Shift 3",
}

// timeRange renders a slot's window as "12:00 PM - 8:00 PM".
func timeRange(a *models.ShiftAssignment) string {
	return calendar.FormatTime12h(a.Start) + " - " + calendar.FormatTime12h(a.End)
}

func employeeOr(a *models.ShiftAssignment, placeholder string) string {
	if a.Assigned() {
		return a.Employee
	}
	return placeholder
}

// CSV renders one header row plus one row per day with per-shift time
// range and employee columns.
func CSV(s *models.Schedule) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Day", "Date"}
	for _, id := range models.AllShifts() {
		header = append(header, shiftTitles[id]+" Time", shiftTitles[id]+" Employee")
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}

	for i := range s.Days {
		day := &s.Days[i]
		row := []string{
			day.DayName,
			fmt.Sprintf("%s %d %d", day.MonthNameShort, day.DayNumber, day.Year),
		}
		for _, id := range models.AllShifts() {
			a := day.Shifts[id]
			row = append(row, timeRange(a), employeeOr(a, Unassigned))
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON renders the full schedule pretty-printed. The output parses back
// into an equivalent Schedule.
func JSON(s *models.Schedule) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode schedule: %w", err)
	}
	return data, nil
}

// Text renders the shareable plain-text format: a name header followed
// by per-day blocks listing each shift's window and employee.
func Text(s *models.Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n", s.Name)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━\n\n")

	for i := range s.Days {
		day := &s.Days[i]
		fmt.Fprintf(&b, "📆 %s, %s %d\n", day.DayName, day.MonthNameShort, day.DayNumber)
		for _, id := range models.AllShifts() {
			a := day.Shifts[id]
			fmt.Fprintf(&b, "  • %s (%s): %s\n", shiftTitles[id], timeRange(a), employeeOr(a, Unassigned))
		}
		b.WriteString("\n")
	}
	return b.String()
}

var filenameJunk = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
var whitespace = regexp.MustCompile(`\s+`)

// SanitizeFilename strips characters unsafe for download filenames and
// collapses whitespace to underscores.
func SanitizeFilename(name string) string {
	clean := filenameJunk.ReplaceAllString(name, "")
	clean = whitespace.ReplaceAllString(strings.TrimSpace(clean), "_")
	if clean == "" {
		return "schedule"
	}
	return clean
}

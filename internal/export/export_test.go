package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dutyroster/internal/models"
)

func testSchedule(t *testing.T) *models.Schedule {
	t.Helper()
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	s := models.NewSchedule("sch_test", "Week 2 - Jan 5 - 11, 2026", start, models.DefaultShiftConfig(), start)
	a, ok := s.Assignment("2026-01-05", models.Shift1)
	require.True(t, ok)
	a.Employee = "Alice"
	a, ok = s.Assignment("2026-01-07", models.Shift2)
	require.True(t, ok)
	a.Employee = "Bob"
	return s
}

func TestCSV(t *testing.T) {
	s := testSchedule(t)

	data, err := CSV(s)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 8, "header plus seven day rows")

	assert.Equal(t, []string{
		"Day", "Date",
		"Shift 1 Time", "Shift 1 Employee",
		"Shift 2 Time", "Shift 2 Employee",
		"Shift 3 Time", "Shift 3 Employee",
	}, records[0])

	monday := records[1]
	assert.Equal(t, "Monday", monday[0])
	assert.Equal(t, "Jan 5 2026", monday[1])
	assert.Equal(t, "12:00 PM - 8:00 PM", monday[2])
	assert.Equal(t, "Alice", monday[3])
	assert.Equal(t, Unassigned, monday[5])
	assert.Equal(t, Unassigned, monday[7])

	wednesday := records[3]
	assert.Equal(t, "Wednesday", wednesday[0])
	assert.Equal(t, "8:00 PM - 4:00 AM", wednesday[4])
	assert.Equal(t, "Bob", wednesday[5])
}

func TestJSON_RoundTrips(t *testing.T) {
	s := testSchedule(t)

	data, err := JSON(s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("{\n")), "pretty-printed")

	var back models.Schedule
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, s.ID, back.ID)
	assert.Len(t, back.Days, 7)
	a, ok := back.Assignment("2026-01-05", models.Shift1)
	require.True(t, ok)
	assert.Equal(t, "Alice", a.Employee)
}

func TestText(t *testing.T) {
	s := testSchedule(t)

	out := Text(s)

	assert.True(t, strings.HasPrefix(out, "📅 Week 2 - Jan 5 - 11, 2026\n"))
	assert.Contains(t, out, "📆 Monday, Jan 5")
	assert.Contains(t, out, "• Shift 1 (12:00 PM - 8:00 PM): Alice")
	assert.Contains(t, out, "• Shift 2 (8:00 PM - 4:00 AM): "+Unassigned)
	assert.Contains(t, out, "📆 Sunday, Jan 11")
	assert.Equal(t, 7, strings.Count(out, "📆"))
}

func TestXLSX(t *testing.T) {
	s := testSchedule(t)

	var buf bytes.Buffer
	require.NoError(t, XLSX(s, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(s.Name)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, "Day", rows[0][0])
	assert.Equal(t, "Monday", rows[1][0])
	assert.Equal(t, "Alice", rows[1][3])
}

func TestHTML(t *testing.T) {
	s := testSchedule(t)

	data, err := HTML(s)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "<title>Week 2 - Jan 5 - 11, 2026</title>")
	assert.Contains(t, out, "Mon<br>Jan 5")
	assert.Contains(t, out, ">Alice</td>")
	assert.Contains(t, out, "&mdash;")
	assert.Contains(t, out, `class="weekend"`)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Week 2 - Jan 5 - 11, 2026", "Week_2_-_Jan_5_-_11_2026"},
		{"  spaced   out  ", "spaced_out"},
		{"///", "schedule"},
		{"", "schedule"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

// Package models defines the duty-roster domain types: the employee
// roster, the three fixed shift windows, and the weekly schedule built
// from them.
package models

import (
	"strings"
	"time"

	"dutyroster/internal/calendar"
)

// ShiftID identifies one of the three fixed shifts of a day.
type ShiftID string

const (
	Shift1 ShiftID = "shift1"
	Shift2 ShiftID = "shift2"
	Shift3 ShiftID = "shift3"
)

// AllShifts returns the shift identifiers in their fixed fill order.
func AllShifts() []ShiftID {
	return []ShiftID{Shift1, Shift2, Shift3}
}

// Valid reports whether the id is one of the three known shifts.
func (id ShiftID) Valid() bool {
	switch id {
	case Shift1, Shift2, Shift3:
		return true
	}
	return false
}

// ColorTag is a display hint attached to a roster member.
type ColorTag string

const (
	ColorNone   ColorTag = ""
	ColorGreen  ColorTag = "green"
	ColorPurple ColorTag = "purple"
	ColorBlue   ColorTag = "blue"
	ColorOrange ColorTag = "orange"
)

// Employee is a roster member. Names are unique case-insensitively and
// referenced from shift assignments by value, not identity.
type Employee struct {
	Name  string   `json:"name"`
	Color ColorTag `json:"color,omitempty"`
}

// SameName compares employee names case-insensitively.
func (e Employee) SameName(name string) bool {
	return strings.EqualFold(e.Name, strings.TrimSpace(name))
}

// ShiftDefinition is the configured time window of one shift. Start and
// End are 24-hour "HH:MM" strings; a window may cross midnight.
type ShiftDefinition struct {
	ID    ShiftID `json:"id"`
	Label string  `json:"label"`
	Start string  `json:"start"`
	End   string  `json:"end"`
}

// ShiftConfig holds the three global shift definitions.
type ShiftConfig struct {
	Shift1 ShiftDefinition `json:"shift1"`
	Shift2 ShiftDefinition `json:"shift2"`
	Shift3 ShiftDefinition `json:"shift3"`
}

// DefaultShiftConfig returns the built-in shift windows: Day 12:00-20:00,
// Night 20:00-04:00, Morning 04:00-12:00. This is the single convention
// used throughout; persisted settings override it.
func DefaultShiftConfig() ShiftConfig {
	return ShiftConfig{
		Shift1: ShiftDefinition{ID: Shift1, Label: "Day Shift", Start: "12:00", End: "20:00"},
		Shift2: ShiftDefinition{ID: Shift2, Label: "Night Shift", Start: "20:00", End: "04:00"},
		Shift3: ShiftDefinition{ID: Shift3, Label: "Morning Shift", Start: "04:00", End: "12:00"},
	}
}

// Get returns the definition for the given shift id.
func (c ShiftConfig) Get(id ShiftID) (ShiftDefinition, bool) {
	switch id {
	case Shift1:
		return c.Shift1, true
	case Shift2:
		return c.Shift2, true
	case Shift3:
		return c.Shift3, true
	}
	return ShiftDefinition{}, false
}

// Set replaces the definition for the given shift id.
func (c *ShiftConfig) Set(id ShiftID, def ShiftDefinition) {
	def.ID = id
	switch id {
	case Shift1:
		c.Shift1 = def
	case Shift2:
		c.Shift2 = def
	case Shift3:
		c.Shift3 = def
	}
}

// ShiftAssignment is one slot of the schedule: the shift window on a
// concrete day plus the assigned employee name. An empty Employee means
// the slot is unassigned.
type ShiftAssignment struct {
	Label    string `json:"label,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Employee string `json:"employee,omitempty"`
}

// Assigned reports whether the slot has an employee.
func (a ShiftAssignment) Assigned() bool {
	return a.Employee != ""
}

// DayEntry is one calendar day of a schedule with its three shift slots.
type DayEntry struct {
	DateISO        string                       `json:"dateISO"`
	DayNumber      int                          `json:"dayNumber"`
	DayName        string                       `json:"dayName"`
	DayNameShort   string                       `json:"dayNameShort"`
	MonthName      string                       `json:"monthName"`
	MonthNameShort string                       `json:"monthNameShort"`
	Year           int                          `json:"year"`
	Weekday        int                          `json:"weekday"` // 0 = Sunday
	IsWeekend      bool                         `json:"isWeekend"`
	DayIndex       int                          `json:"dayIndex"`
	Shifts         map[ShiftID]*ShiftAssignment `json:"shifts"`
}

// Shift returns the assignment slot for the given shift id.
func (d *DayEntry) Shift(id ShiftID) (*ShiftAssignment, bool) {
	a, ok := d.Shifts[id]
	return a, ok
}

// Schedule is one week of duty assignments: exactly 7 days of 3 shift
// slots each, generated from a Monday anchor. Days is ordered Monday
// first; lookups by date must go through Day, never map iteration.
type Schedule struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	StartDateISO string     `json:"startDate"`
	EndDateISO   string     `json:"endDate"`
	CreatedAt    time.Time  `json:"createdAt"`
	SavedAt      *time.Time `json:"savedAt,omitempty"`
	Days         []DayEntry `json:"days"`
}

// TotalSlots is the fixed slot count of every schedule: 7 days of 3
// shifts. Kept as a constant on purpose; it must change in lockstep
// with the shift structure.
const TotalSlots = 21

// Day returns the entry for the given ISO date.
func (s *Schedule) Day(dateISO string) (*DayEntry, bool) {
	for i := range s.Days {
		if s.Days[i].DateISO == dateISO {
			return &s.Days[i], true
		}
	}
	return nil, false
}

// Assignment returns the slot at (dateISO, shiftID).
func (s *Schedule) Assignment(dateISO string, shiftID ShiftID) (*ShiftAssignment, bool) {
	day, ok := s.Day(dateISO)
	if !ok {
		return nil, false
	}
	return day.Shift(shiftID)
}

// Clone returns a deep copy of the schedule. The in-memory schedule and
// its persisted counterpart are always independent copies; a clone never
// shares mutable state with its source.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	out := *s
	if s.SavedAt != nil {
		saved := *s.SavedAt
		out.SavedAt = &saved
	}
	out.Days = make([]DayEntry, len(s.Days))
	for i, day := range s.Days {
		copied := day
		copied.Shifts = make(map[ShiftID]*ShiftAssignment, len(day.Shifts))
		for id, a := range day.Shifts {
			slot := *a
			copied.Shifts[id] = &slot
		}
		out.Days[i] = copied
	}
	return &out
}

// NewSchedule builds an empty week anchored at the nearest Monday of
// start, attaching a copy of the given shift config to every day.
func NewSchedule(id, name string, start time.Time, cfg ShiftConfig, createdAt time.Time) *Schedule {
	week := calendar.GenerateWeek(start)

	days := make([]DayEntry, 0, len(week))
	for _, info := range week {
		shifts := make(map[ShiftID]*ShiftAssignment, 3)
		for _, shiftID := range AllShifts() {
			def, _ := cfg.Get(shiftID)
			shifts[shiftID] = &ShiftAssignment{
				Label: def.Label,
				Start: def.Start,
				End:   def.End,
			}
		}
		days = append(days, DayEntry{
			DateISO:        info.DateISO,
			DayNumber:      info.DayNumber,
			DayName:        info.DayName,
			DayNameShort:   info.DayNameShort,
			MonthName:      info.MonthName,
			MonthNameShort: info.MonthNameShort,
			Year:           info.Year,
			Weekday:        info.Weekday,
			IsWeekend:      info.IsWeekend,
			DayIndex:       info.DayIndex,
			Shifts:         shifts,
		})
	}

	return &Schedule{
		ID:           id,
		Name:         name,
		StartDateISO: days[0].DateISO,
		EndDateISO:   days[6].DateISO,
		CreatedAt:    createdAt,
		Days:         days,
	}
}

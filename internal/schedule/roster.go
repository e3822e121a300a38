package schedule

import (
	"sort"
	"strings"

	"dutyroster/internal/events"
	"dutyroster/internal/models"
	"dutyroster/internal/storage"
)

// AddEmployee appends a new roster member. The name is trimmed; empty
// names and case-insensitive duplicates are rejected. The roster is
// persisted on success.
func (s *Service) AddEmployee(name string, color models.ColorTag) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}

	s.mu.Lock()
	for _, e := range s.roster {
		if e.SameName(trimmed) {
			s.mu.Unlock()
			return false
		}
	}
	s.roster = append(s.roster, models.Employee{Name: trimmed, Color: color})
	s.persist(storage.KeyEmployees, s.roster, "save_roster")
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.RosterChanged, Payload: map[string]string{"action": "add", "name": trimmed}})
	return true
}

// RemoveEmployee removes a roster member, cascading first into the
// current schedule: every slot assigned to the member is cleared before
// the roster entry goes away, so no orphaned names linger. Returns false
// when the name is not on the roster.
func (s *Service) RemoveEmployee(name string) bool {
	s.mu.Lock()
	idx := -1
	for i, e := range s.roster {
		if e.SameName(name) {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return false
	}
	removed := s.roster[idx].Name

	cascaded := false
	if s.current != nil {
		for i := range s.current.Days {
			for _, slot := range s.current.Days[i].Shifts {
				if strings.EqualFold(slot.Employee, removed) {
					slot.Employee = ""
					cascaded = true
				}
			}
		}
	}

	s.roster = append(s.roster[:idx], s.roster[idx+1:]...)
	s.persist(storage.KeyEmployees, s.roster, "save_roster")
	if cascaded {
		s.persistCurrent()
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.RosterChanged, Payload: map[string]string{"action": "remove", "name": removed}})
	return true
}

// Roster returns a copy of the roster in insertion order.
func (s *Service) Roster() []models.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Employee, len(s.roster))
	copy(out, s.roster)
	return out
}

// SetRoster replaces the whole roster, dropping case-insensitive
// duplicates while keeping first-seen order, and persists it.
func (s *Service) SetRoster(employees []models.Employee) {
	s.mu.Lock()
	seen := make(map[string]bool, len(employees))
	roster := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			continue
		}
		lower := strings.ToLower(name)
		if seen[lower] {
			continue
		}
		seen[lower] = true
		roster = append(roster, models.Employee{Name: name, Color: e.Color})
	}
	s.roster = roster
	s.persist(storage.KeyEmployees, s.roster, "save_roster")
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.RosterChanged, Payload: map[string]string{"action": "replace"}})
}

// DutyCount is one row of the per-employee fairness tally.
type DutyCount struct {
	Employee string `json:"employee"`
	Count    int    `json:"count"`
}

// DutyCounts tallies assigned shifts per roster member in the current
// schedule. Members with zero assignments are included; names found in
// the schedule but absent from the roster are not (orphaned references
// are tolerated but never counted). Sorted by count descending, ties by
// name ascending.
func (s *Service) DutyCounts() []DutyCount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make([]DutyCount, len(s.roster))
	index := make(map[string]int, len(s.roster))
	for i, e := range s.roster {
		counts[i] = DutyCount{Employee: e.Name}
		index[strings.ToLower(e.Name)] = i
	}

	if s.current != nil {
		for i := range s.current.Days {
			for _, shiftID := range models.AllShifts() {
				slot := s.current.Days[i].Shifts[shiftID]
				if !slot.Assigned() {
					continue
				}
				if pos, ok := index[strings.ToLower(slot.Employee)]; ok {
					counts[pos].Count++
				}
			}
		}
	}

	sort.SliceStable(counts, func(a, b int) bool {
		if counts[a].Count != counts[b].Count {
			return counts[a].Count > counts[b].Count
		}
		return counts[a].Employee < counts[b].Employee
	})
	return counts
}

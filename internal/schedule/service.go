// Package schedule owns the duty-roster state: the current week being
// edited, the employee roster and the shift-time configuration. All
// mutations go through the Service; persistence is best-effort and
// never corrupts in-memory state.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dutyroster/internal/calendar"
	"dutyroster/internal/events"
	"dutyroster/internal/metrics"
	"dutyroster/internal/models"
	"dutyroster/internal/storage"
)

// Service is the schedule store. Construct with New and call Init once
// before use. Operations are synchronous and guarded by a single lock;
// validation and missing-entity failures are reported as sentinel
// booleans, never panics.
type Service struct {
	mu          sync.RWMutex
	current     *models.Schedule
	roster      []models.Employee
	shiftConfig models.ShiftConfig

	store  storage.Store
	bus    *events.Bus
	logger *zerolog.Logger

	now   func() time.Time
	newID func() string
}

// New creates a Service around its collaborators. The id generator and
// clock are injectable for tests.
func New(store storage.Store, bus *events.Bus, logger *zerolog.Logger) *Service {
	return &Service{
		shiftConfig: models.DefaultShiftConfig(),
		store:       store,
		bus:         bus,
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return "sch_" + uuid.NewString() },
	}
}

// Init loads the roster, shift settings and the last current-schedule
// snapshot from the store. Missing records fall back to defaults; read
// failures are logged and degrade to session-only operation.
func (s *Service) Init(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var roster []models.Employee
	if found, err := s.store.Get(ctx, storage.KeyEmployees, &roster); err != nil {
		s.logger.Error().Err(err).Msg("failed to load roster")
		metrics.IncStorageError("load_roster")
	} else if found {
		s.roster = roster
	}

	var cfg models.ShiftConfig
	if found, err := s.store.Get(ctx, storage.KeySettings, &cfg); err != nil {
		s.logger.Error().Err(err).Msg("failed to load shift settings")
		metrics.IncStorageError("load_settings")
	} else if found {
		s.shiftConfig = cfg
	}

	var current models.Schedule
	if found, err := s.store.Get(ctx, storage.KeyCurrent, &current); err != nil {
		s.logger.Error().Err(err).Msg("failed to load current schedule snapshot")
		metrics.IncStorageError("load_current")
	} else if found && len(current.Days) == 7 {
		s.current = &current
	}

	s.logger.Info().
		Int("roster_size", len(s.roster)).
		Bool("has_current", s.current != nil).
		Msg("schedule service initialized")
}

// persist writes a record best-effort: a failed write is logged and
// counted but in-memory state stays authoritative.
func (s *Service) persist(key string, value any, op string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Set(ctx, key, value); err != nil {
		s.logger.Error().Err(err).Str("op", op).Msg("persistence failed")
		metrics.IncStorageError(op)
		return false
	}
	return true
}

func (s *Service) persistCurrent() {
	if s.current != nil {
		s.persist(storage.KeyCurrent, s.current, "save_current")
	}
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// CreateSchedule generates a fresh 7-day schedule anchored at the
// nearest Monday of startDateISO, attaching the current shift config to
// every day. An empty name is synthesized from the ISO week number and
// the week range. Replaces the current schedule unconditionally: any
// unsaved prior schedule is discarded silently, so callers that want to
// keep edits must save first.
func (s *Service) CreateSchedule(startDateISO, name string) *models.Schedule {
	start, _ := calendar.ParseISODate(startDateISO)
	anchor := calendar.NearestMonday(start)

	if name == "" {
		name = fmt.Sprintf("Week %d - %s", calendar.ISOWeekNumber(anchor), calendar.FormatWeekRange(anchor))
	}

	s.mu.Lock()
	sched := models.NewSchedule(s.newID(), name, anchor, s.shiftConfig, s.now())
	s.current = sched
	s.persistCurrent()
	out := sched.Clone()
	s.mu.Unlock()

	metrics.IncScheduleCreated()
	s.bus.Publish(events.Event{Type: events.ScheduleCreated, Payload: map[string]string{"id": out.ID, "name": out.Name}})
	s.logger.Info().Str("id", out.ID).Str("start", out.StartDateISO).Msg("schedule created")
	return out
}

// CurrentSchedule returns a deep copy of the schedule being edited, or
// nil when none exists.
func (s *Service) CurrentSchedule() *models.Schedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// SetCurrentSchedule replaces the in-memory current schedule with a copy
// of sched. Passing nil clears it.
func (s *Service) SetCurrentSchedule(sched *models.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = sched.Clone()
	s.persistCurrent()
}

// Assign puts employee on the (dateISO, shiftID) slot, overwriting any
// existing assignment. The same employee may hold several slots on one
// day; rosters need back-to-back shifts. Returns false when there is no
// current schedule, the date is not part of it, or the shift id is
// unknown.
func (s *Service) Assign(dateISO string, shiftID models.ShiftID, employee string) bool {
	if !shiftID.Valid() {
		return false
	}

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	slot, ok := s.current.Assignment(dateISO, shiftID)
	if !ok {
		s.mu.Unlock()
		return false
	}
	slot.Employee = employee
	s.persistCurrent()
	s.mu.Unlock()

	action := "assign"
	if employee == "" {
		action = "unassign"
	}
	metrics.IncAssignment(action)
	s.bus.Publish(events.Event{Type: events.AssignmentChanged, Payload: map[string]string{
		"date": dateISO, "shift": string(shiftID), "employee": employee,
	}})
	return true
}

// Unassign clears the (dateISO, shiftID) slot.
func (s *Service) Unassign(dateISO string, shiftID models.ShiftID) bool {
	return s.Assign(dateISO, shiftID, "")
}

// Assignment reads back the employee on a slot. The second return value
// is false when the slot does not exist.
func (s *Service) Assignment(dateISO string, shiftID models.ShiftID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return "", false
	}
	slot, ok := s.current.Assignment(dateISO, shiftID)
	if !ok {
		return "", false
	}
	return slot.Employee, true
}

// AutoFillOptions selects the fill mode. The default (zero value) fills
// only unassigned slots; Overwrite reassigns every slot.
type AutoFillOptions struct {
	Overwrite bool
}

// AutoFill assigns roster members round-robin across the 7 days in date
// order and the 3 shifts in fixed order. Already-assigned slots are left
// untouched unless opts.Overwrite is set. Returns false when there is no
// current schedule or the roster is empty.
func (s *Service) AutoFill(opts AutoFillOptions) bool {
	s.mu.Lock()
	if s.current == nil || len(s.roster) == 0 {
		s.mu.Unlock()
		return false
	}

	counter := 0
	for i := range s.current.Days {
		day := &s.current.Days[i]
		for _, shiftID := range models.AllShifts() {
			slot := day.Shifts[shiftID]
			if slot.Assigned() && !opts.Overwrite {
				continue
			}
			slot.Employee = s.roster[counter%len(s.roster)].Name
			counter++
		}
	}
	s.persistCurrent()
	s.mu.Unlock()

	metrics.IncAutoFill()
	s.bus.Publish(events.Event{Type: events.AssignmentChanged, Payload: map[string]string{"source": "autofill"}})
	return true
}

// ClearAssignments empties every slot. Returns false when there is no
// current schedule.
func (s *Service) ClearAssignments() bool {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}
	for i := range s.current.Days {
		for _, slot := range s.current.Days[i].Shifts {
			slot.Employee = ""
		}
	}
	s.persistCurrent()
	s.mu.Unlock()

	metrics.IncAssignment("clear")
	s.bus.Publish(events.Event{Type: events.AssignmentChanged, Payload: map[string]string{"source": "clear"}})
	return true
}

// Stats summarizes the current schedule's 21 slots.
type Stats struct {
	TotalShifts int            `json:"totalShifts"`
	Assigned    int            `json:"assignedShifts"`
	Unassigned  int            `json:"unassignedShifts"`
	PerEmployee map[string]int `json:"employeeShiftCount"`
}

// ComputeStats counts assigned and unassigned slots. TotalShifts is the
// fixed 21 of the weekly 3-shift structure. Returns nil when there is no
// current schedule.
func (s *Service) ComputeStats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}

	stats := &Stats{
		TotalShifts: models.TotalSlots,
		PerEmployee: make(map[string]int),
	}
	for i := range s.current.Days {
		for _, shiftID := range models.AllShifts() {
			slot := s.current.Days[i].Shifts[shiftID]
			if slot.Assigned() {
				stats.Assigned++
				stats.PerEmployee[slot.Employee]++
			} else {
				stats.Unassigned++
			}
		}
	}
	return stats
}

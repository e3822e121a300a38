package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dutyroster/internal/events"
	"dutyroster/internal/metrics"
	"dutyroster/internal/models"
	"dutyroster/internal/storage"
)

// MaxSavedSchedules bounds the persisted saved list; the oldest entry
// is evicted when the cap is exceeded.
const MaxSavedSchedules = 50

func (s *Service) loadSaved(ctx context.Context) []models.Schedule {
	var saved []models.Schedule
	if found, err := s.store.Get(ctx, storage.KeySchedules, &saved); err != nil {
		s.logger.Error().Err(err).Msg("failed to load saved schedules")
		metrics.IncStorageError("load_schedules")
		return nil
	} else if !found {
		return nil
	}
	return saved
}

// SaveCurrentSchedule upserts the current schedule by id into the
// most-recent-first saved list, stamping a saved-at timestamp and
// truncating to MaxSavedSchedules. Returns false when there is no
// current schedule or the write fails.
func (s *Service) SaveCurrentSchedule() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return false
	}

	savedAt := s.now()
	s.current.SavedAt = &savedAt
	entry := *s.current.Clone()

	saved := s.loadSaved(ctx)
	replaced := false
	for i := range saved {
		if saved[i].ID == entry.ID {
			saved[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		saved = append([]models.Schedule{entry}, saved...)
	}
	if len(saved) > MaxSavedSchedules {
		saved = saved[:MaxSavedSchedules]
	}

	ok := s.persist(storage.KeySchedules, saved, "save_schedules")
	s.mu.Unlock()

	if !ok {
		return false
	}
	metrics.IncScheduleSaved()
	s.bus.Publish(events.Event{Type: events.ScheduleSaved, Payload: map[string]string{"id": entry.ID, "name": entry.Name}})
	s.logger.Info().Str("id", entry.ID).Msg("schedule saved")
	return true
}

// SavedSchedules returns copies of the persisted list, most recent
// first.
func (s *Service) SavedSchedules() []models.Schedule {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	defer s.mu.RUnlock()
	saved := s.loadSaved(ctx)
	out := make([]models.Schedule, len(saved))
	for i := range saved {
		out[i] = *saved[i].Clone()
	}
	return out
}

// LoadSchedule replaces the current schedule with a copy of the
// persisted entry, discarding unsaved edits without warning. Returns nil
// with no side effects when the id is unknown.
func (s *Service) LoadSchedule(id string) *models.Schedule {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range s.loadSaved(ctx) {
		if entry.ID == id {
			s.current = entry.Clone()
			s.persistCurrent()
			return s.current.Clone()
		}
	}
	return nil
}

// DeleteSchedule removes the entry from the saved list. When the deleted
// id matches the current in-memory schedule, the current reference is
// cleared too.
func (s *Service) DeleteSchedule(id string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.Lock()
	saved := s.loadSaved(ctx)
	kept := saved[:0]
	found := false
	for _, entry := range saved {
		if entry.ID == id {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		s.mu.Unlock()
		return false
	}
	s.persist(storage.KeySchedules, kept, "save_schedules")

	if s.current != nil && s.current.ID == id {
		s.current = nil
		if err := s.store.Delete(ctx, storage.KeyCurrent); err != nil {
			s.logger.Error().Err(err).Msg("failed to clear current snapshot")
			metrics.IncStorageError("delete_current")
		}
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.ScheduleDeleted, Payload: map[string]string{"id": id}})
	return true
}

// backupEnvelope is the full-export wire format, matching the browser
// era backups so old files import cleanly.
type backupEnvelope struct {
	Schedules  []models.Schedule  `json:"schedules"`
	Employees  []models.Employee  `json:"employees"`
	Settings   models.ShiftConfig `json:"settings"`
	ExportedAt string             `json:"exportedAt"`
}

// ExportAll serializes every persisted record into one pretty-printed
// JSON document.
func (s *Service) ExportAll() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	env := backupEnvelope{
		Schedules:  s.loadSaved(ctx),
		Employees:  append([]models.Employee(nil), s.roster...),
		Settings:   s.shiftConfig,
		ExportedAt: s.now().Format(time.RFC3339),
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// ImportAll restores a backup produced by ExportAll, replacing the saved
// list, roster and settings. The current schedule is left untouched.
func (s *Service) ImportAll(data []byte) error {
	var env backupEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}

	s.mu.Lock()
	if env.Schedules != nil {
		if len(env.Schedules) > MaxSavedSchedules {
			env.Schedules = env.Schedules[:MaxSavedSchedules]
		}
		s.persist(storage.KeySchedules, env.Schedules, "save_schedules")
	}
	if env.Employees != nil {
		s.roster = env.Employees
		s.persist(storage.KeyEmployees, s.roster, "save_roster")
	}
	if env.Settings != (models.ShiftConfig{}) {
		s.shiftConfig = env.Settings
		s.persist(storage.KeySettings, s.shiftConfig, "save_settings")
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.RosterChanged, Payload: map[string]string{"action": "import"}})
	return nil
}

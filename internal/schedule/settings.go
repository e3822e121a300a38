package schedule

import (
	"dutyroster/internal/events"
	"dutyroster/internal/models"
	"dutyroster/internal/storage"
)

// ShiftPatch is a partial update of a shift definition. Empty fields
// retain the old value; a non-empty new value wins.
type ShiftPatch struct {
	Label string `json:"label,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// UpdateShiftDefinition merges patch into the global config, persists
// it, and prospectively patches the matching shift's window across all
// 7 days of the current schedule. Employee assignments are untouched,
// and schedules already in the saved list are never retroactively
// altered. Returns false for an unknown shift id.
func (s *Service) UpdateShiftDefinition(shiftID models.ShiftID, patch ShiftPatch) bool {
	if !shiftID.Valid() {
		return false
	}

	s.mu.Lock()
	def, _ := s.shiftConfig.Get(shiftID)
	if patch.Label != "" {
		def.Label = patch.Label
	}
	if patch.Start != "" {
		def.Start = patch.Start
	}
	if patch.End != "" {
		def.End = patch.End
	}
	s.shiftConfig.Set(shiftID, def)
	s.persist(storage.KeySettings, s.shiftConfig, "save_settings")

	if s.current != nil {
		for i := range s.current.Days {
			if slot, ok := s.current.Days[i].Shift(shiftID); ok {
				slot.Label = def.Label
				slot.Start = def.Start
				slot.End = def.End
			}
		}
		s.persistCurrent()
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.SettingsChanged, Payload: map[string]string{"shift": string(shiftID)}})
	return true
}

// ShiftConfig returns a copy of the current shift configuration.
func (s *Service) ShiftConfig() models.ShiftConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shiftConfig
}

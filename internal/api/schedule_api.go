package api

import (
	"encoding/json"
	"io"
	"net/http"

	"dutyroster/internal/metrics"
	"dutyroster/internal/models"
	"dutyroster/internal/schedule"
)

// CreateScheduleRequest is the request body for POST /api/schedule.
type CreateScheduleRequest struct {
	StartDate string `json:"startDate,omitempty"` // Format: YYYY-MM-DD; empty means today
	Name      string `json:"name,omitempty"`
}

// AssignRequest is the request body for assign and unassign.
type AssignRequest struct {
	Date     string `json:"date"`
	Shift    string `json:"shift"`
	Employee string `json:"employee,omitempty"`
}

// AutoFillRequest is the request body for POST /api/schedule/autofill.
type AutoFillRequest struct {
	Overwrite bool `json:"overwrite,omitempty"`
}

// OpResponse is the uniform outcome envelope for mutating operations.
type OpResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// handleSchedule returns or creates the current schedule.
// GET /api/schedule | POST /api/schedule
func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule")
	switch r.Method {
	case http.MethodGet:
		current := s.svc.CurrentSchedule()
		if current == nil {
			writeError(w, http.StatusNotFound, "no current schedule")
			return
		}
		writeJSON(w, http.StatusOK, current)

	case http.MethodPost:
		var req CreateScheduleRequest
		if !decodeBody(w, r, &req) {
			return
		}
		created := s.svc.CreateSchedule(req.StartDate, req.Name)
		writeJSON(w, http.StatusCreated, created)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSaveSchedule stores the current schedule in the saved list.
// POST /api/schedule/save
func (s *HTTPServer) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_save")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.svc.SaveCurrentSchedule() {
		writeJSON(w, http.StatusConflict, OpResponse{Error: "no current schedule to save"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

// handleAssign puts an employee on a slot, or clears it.
// POST /api/schedule/assign | DELETE /api/schedule/assign
func (s *HTTPServer) handleAssign(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_assign")
	if r.Method != http.MethodPost && r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date == "" || req.Shift == "" {
		writeJSON(w, http.StatusBadRequest, OpResponse{Error: "date and shift are required"})
		return
	}

	var ok bool
	if r.Method == http.MethodDelete {
		ok = s.svc.Unassign(req.Date, models.ShiftID(req.Shift))
	} else {
		ok = s.svc.Assign(req.Date, models.ShiftID(req.Shift), req.Employee)
	}
	if !ok {
		writeJSON(w, http.StatusConflict, OpResponse{Error: "assignment rejected: unknown date, shift, or no current schedule"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

// handleUnassign clears a slot.
// POST /api/schedule/unassign
func (s *HTTPServer) handleUnassign(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_unassign")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AssignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date == "" || req.Shift == "" {
		writeJSON(w, http.StatusBadRequest, OpResponse{Error: "date and shift are required"})
		return
	}

	if !s.svc.Unassign(req.Date, models.ShiftID(req.Shift)) {
		writeJSON(w, http.StatusConflict, OpResponse{Error: "unassign rejected: unknown date, shift, or no current schedule"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

// handleAutoFill distributes the roster round-robin over open slots.
// POST /api/schedule/autofill
func (s *HTTPServer) handleAutoFill(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_autofill")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req AutoFillRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if !s.svc.AutoFill(schedule.AutoFillOptions{Overwrite: req.Overwrite}) {
		writeJSON(w, http.StatusConflict, OpResponse{Error: "auto-fill requires a current schedule and a non-empty roster"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

// handleClear empties every slot of the current schedule.
// POST /api/schedule/clear
func (s *HTTPServer) handleClear(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_clear")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.svc.ClearAssignments() {
		writeJSON(w, http.StatusConflict, OpResponse{Error: "no current schedule"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

// handleStats returns assigned/unassigned slot counts.
// GET /api/schedule/stats
func (s *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedule_stats")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats := s.svc.ComputeStats()
	if stats == nil {
		writeError(w, http.StatusNotFound, "no current schedule")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ScheduleSummary is one saved-list entry without the day grid.
type ScheduleSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	SavedAt   string `json:"savedAt,omitempty"`
}

// handleSchedules lists saved schedules, newest first.
// GET /api/schedules
func (s *HTTPServer) handleSchedules(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedules")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	saved := s.svc.SavedSchedules()
	summaries := make([]ScheduleSummary, 0, len(saved))
	for _, sch := range saved {
		summary := ScheduleSummary{
			ID:        sch.ID,
			Name:      sch.Name,
			StartDate: sch.StartDateISO,
			EndDate:   sch.EndDateISO,
		}
		if sch.SavedAt != nil {
			summary.SavedAt = sch.SavedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		summaries = append(summaries, summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": summaries})
}

// LoadScheduleRequest is the request body for POST /api/schedules/load.
type LoadScheduleRequest struct {
	ID string `json:"id"`
}

// handleLoadSchedule makes a saved schedule current.
// POST /api/schedules/load
func (s *HTTPServer) handleLoadSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedules_load")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoadScheduleRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, OpResponse{Error: "id is required"})
		return
	}

	loaded := s.svc.LoadSchedule(req.ID)
	if loaded == nil {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	writeJSON(w, http.StatusOK, loaded)
}

// handleSavedSchedule reads or removes one saved schedule. GET does not
// touch the current schedule; loading goes through /api/schedules/load.
// GET /api/schedules/{id} | DELETE /api/schedules/{id}
func (s *HTTPServer) handleSavedSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("schedules_by_id")

	id := pathTail(r.URL.Path, "/api/schedules/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "schedule id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		for _, sch := range s.svc.SavedSchedules() {
			if sch.ID == id {
				writeJSON(w, http.StatusOK, sch)
				return
			}
		}
		writeError(w, http.StatusNotFound, "schedule not found")

	case http.MethodDelete:
		if !s.svc.DeleteSchedule(id) {
			writeError(w, http.StatusNotFound, "schedule not found")
			return
		}
		writeJSON(w, http.StatusOK, OpResponse{Success: true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleBackup streams a full JSON snapshot of saved schedules, roster
// and settings.
// GET /api/backup
func (s *HTTPServer) handleBackup(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("backup")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, err := s.svc.ExportAll()
	if err != nil {
		s.log.Error().Err(err).Msg("backup export failed")
		writeError(w, http.StatusInternalServerError, "failed to export data")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="dutyroster_backup.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRestore replaces saved schedules, roster and settings from a
// backup snapshot.
// POST /api/restore
func (s *HTTPServer) handleRestore(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("restore")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := s.svc.ImportAll(data); err != nil {
		writeJSON(w, http.StatusBadRequest, OpResponse{Error: "invalid backup payload"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

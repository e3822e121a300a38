package api

import (
	"net/http"

	"dutyroster/internal/metrics"
	"dutyroster/internal/models"
	"dutyroster/internal/schedule"
)

// AddEmployeeRequest is the request body for POST /api/roster.
type AddEmployeeRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// handleRoster lists or extends the employee roster.
// GET /api/roster | POST /api/roster
func (s *HTTPServer) handleRoster(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("roster")
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"employees": s.svc.Roster()})

	case http.MethodPost:
		var req AddEmployeeRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if !s.svc.AddEmployee(req.Name, models.ColorTag(req.Color)) {
			writeJSON(w, http.StatusConflict, OpResponse{Error: "name is empty or already on the roster"})
			return
		}
		writeJSON(w, http.StatusCreated, OpResponse{Success: true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRemoveEmployee drops a roster member and clears their slots in
// the current schedule.
// DELETE /api/roster/{name}
func (s *HTTPServer) handleRemoveEmployee(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("roster_remove")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	name := pathTail(r.URL.Path, "/api/roster/")
	if name == "" {
		writeError(w, http.StatusBadRequest, "employee name is required")
		return
	}

	if !s.svc.RemoveEmployee(name) {
		writeError(w, http.StatusNotFound, "employee not found")
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

// handleDutyCounts tallies assigned shifts per roster member.
// GET /api/duty-counts
func (s *HTTPServer) handleDutyCounts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("duty_counts")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	counts := s.svc.DutyCounts()
	if counts == nil {
		counts = []schedule.DutyCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"counts": counts})
}

// handleShiftSettings returns the three shift definitions.
// GET /api/settings/shifts
func (s *HTTPServer) handleShiftSettings(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("settings_shifts")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.svc.ShiftConfig())
}

// handleUpdateShift merges a partial shift-definition update.
// PATCH /api/settings/shifts/{id}
func (s *HTTPServer) handleUpdateShift(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("settings_shifts_update")
	if r.Method != http.MethodPatch {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	shiftID := models.ShiftID(pathTail(r.URL.Path, "/api/settings/shifts/"))
	if shiftID == "" {
		writeError(w, http.StatusBadRequest, "shift id is required")
		return
	}

	var patch schedule.ShiftPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	if !s.svc.UpdateShiftDefinition(shiftID, patch) {
		writeJSON(w, http.StatusBadRequest, OpResponse{Error: "unknown shift id"})
		return
	}
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}

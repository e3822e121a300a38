package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dutyroster/internal/events"
	"dutyroster/internal/models"
	"dutyroster/internal/schedule"
	"dutyroster/internal/storage"
)

const testAPIKey = "valid-key"

type testServer struct {
	*httptest.Server
	svc *schedule.Service
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	svc := schedule.New(storage.NewMemoryStore(), events.NewBus(), &logger)
	svc.Init(context.Background())

	srv := NewHTTPServer(svc, &logger, Config{
		APIKey:    testAPIKey,
		RateLimit: 1000,
		RateBurst: 1000,
	})

	ts := &testServer{
		Server: httptest.NewServer(srv.Handler()),
		svc:    svc,
	}
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("x-api-key", testAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestScheduleLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/schedule", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/schedule", CreateScheduleRequest{StartDate: "2026-01-07"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Schedule
	decodeJSON(t, resp, &created)
	assert.Equal(t, "2026-01-05", created.StartDateISO, "anchored to Monday")
	assert.Len(t, created.Days, 7)

	resp = ts.do(t, http.MethodGet, "/api/schedule", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var current models.Schedule
	decodeJSON(t, resp, &current)
	assert.Equal(t, created.ID, current.ID)
}

func TestAssignEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodPost, "/api/schedule", CreateScheduleRequest{StartDate: "2026-01-05"}).Body.Close()

	tests := []struct {
		name       string
		body       AssignRequest
		wantStatus int
	}{
		{
			name:       "valid assignment",
			body:       AssignRequest{Date: "2026-01-05", Shift: "shift1", Employee: "Alice"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "date outside week",
			body:       AssignRequest{Date: "2026-02-01", Shift: "shift1", Employee: "Alice"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "unknown shift",
			body:       AssignRequest{Date: "2026-01-05", Shift: "shift9", Employee: "Alice"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "missing fields",
			body:       AssignRequest{Employee: "Alice"},
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/schedule/assign", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			resp.Body.Close()
		})
	}

	resp := ts.do(t, http.MethodPost, "/api/schedule/unassign", AssignRequest{Date: "2026-01-05", Shift: "shift1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	ts.do(t, http.MethodPost, "/api/schedule/assign", AssignRequest{Date: "2026-01-05", Shift: "shift1", Employee: "Alice"}).Body.Close()
	resp = ts.do(t, http.MethodDelete, "/api/schedule/assign", AssignRequest{Date: "2026-01-05", Shift: "shift1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "DELETE on assign clears the slot")
	resp.Body.Close()
}

func TestRosterEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/roster", AddEmployeeRequest{Name: "Alice", Color: "green"})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/roster", AddEmployeeRequest{Name: "alice"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "case-insensitive duplicate")
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/roster", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Employees []models.Employee `json:"employees"`
	}
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Employees, 1)
	assert.Equal(t, "Alice", listing.Employees[0].Name)

	resp = ts.do(t, http.MethodDelete, "/api/roster/Alice", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/roster/Alice", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAutoFillAndStats(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodPost, "/api/schedule", CreateScheduleRequest{StartDate: "2026-01-05"}).Body.Close()

	resp := ts.do(t, http.MethodPost, "/api/schedule/autofill", AutoFillRequest{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "empty roster")
	resp.Body.Close()

	ts.do(t, http.MethodPost, "/api/roster", AddEmployeeRequest{Name: "Alice"}).Body.Close()
	ts.do(t, http.MethodPost, "/api/roster", AddEmployeeRequest{Name: "Bob"}).Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/schedule/autofill", AutoFillRequest{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats schedule.Stats
	decodeJSON(t, resp, &stats)
	assert.Equal(t, models.TotalSlots, stats.TotalShifts)
	assert.Equal(t, models.TotalSlots, stats.Assigned)
	assert.Equal(t, 0, stats.Unassigned)

	resp = ts.do(t, http.MethodGet, "/api/duty-counts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var counts struct {
		Counts []schedule.DutyCount `json:"counts"`
	}
	decodeJSON(t, resp, &counts)
	require.Len(t, counts.Counts, 2)
	assert.Equal(t, models.TotalSlots, counts.Counts[0].Count+counts.Counts[1].Count)

	resp = ts.do(t, http.MethodPost, "/api/schedule/clear", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestSavedScheduleEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/schedule", CreateScheduleRequest{StartDate: "2026-01-05"})
	var created models.Schedule
	decodeJSON(t, resp, &created)

	resp = ts.do(t, http.MethodPost, "/api/schedule/save", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/schedules", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var listing struct {
		Schedules []ScheduleSummary `json:"schedules"`
	}
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Schedules, 1)
	assert.Equal(t, created.ID, listing.Schedules[0].ID)
	assert.NotEmpty(t, listing.Schedules[0].SavedAt)

	resp = ts.do(t, http.MethodGet, "/api/schedules/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Schedule
	decodeJSON(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Len(t, fetched.Days, 7)

	resp = ts.do(t, http.MethodPost, "/api/schedules/load", LoadScheduleRequest{ID: created.ID})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodPost, "/api/schedules/load", LoadScheduleRequest{ID: "sch_missing"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/schedules/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodDelete, "/api/schedules/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestShiftSettingsEndpoints(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.do(t, http.MethodPatch, "/api/settings/shifts/shift1", schedule.ShiftPatch{Start: "13:00"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.do(t, http.MethodGet, "/api/settings/shifts", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cfg models.ShiftConfig
	decodeJSON(t, resp, &cfg)
	assert.Equal(t, "13:00", cfg.Shift1.Start)
	assert.Equal(t, "20:00", cfg.Shift1.End, "unpatched field keeps prior value")

	resp = ts.do(t, http.MethodPatch, "/api/settings/shifts/shift9", schedule.ShiftPatch{Start: "13:00"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExportEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodPost, "/api/schedule", CreateScheduleRequest{StartDate: "2026-01-05"}).Body.Close()
	ts.do(t, http.MethodPost, "/api/schedule/assign", AssignRequest{Date: "2026-01-05", Shift: "shift1", Employee: "Alice"}).Body.Close()

	tests := []struct {
		format      string
		contentType string
	}{
		{"csv", "text/csv; charset=utf-8"},
		{"json", "application/json"},
		{"text", "text/plain; charset=utf-8"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
		{"html", "text/html; charset=utf-8"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, "/api/export/"+tt.format, nil)
			defer resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")

			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			if tt.format == "csv" || tt.format == "text" {
				assert.Contains(t, string(data), "Alice")
			}
		})
	}

	resp := ts.do(t, http.MethodGet, "/api/export/pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestBackupRestore(t *testing.T) {
	ts := setupTestServer(t)
	ts.do(t, http.MethodPost, "/api/roster", AddEmployeeRequest{Name: "Alice"}).Body.Close()
	ts.do(t, http.MethodPost, "/api/schedule", CreateScheduleRequest{StartDate: "2026-01-05"}).Body.Close()
	ts.do(t, http.MethodPost, "/api/schedule/save", nil).Body.Close()

	resp := ts.do(t, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snapshot, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	other := setupTestServer(t)
	req, err := http.NewRequest(http.MethodPost, other.URL+"/api/restore", bytes.NewReader(snapshot))
	require.NoError(t, err)
	req.Header.Set("x-api-key", testAPIKey)
	restoreResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, restoreResp.StatusCode)
	restoreResp.Body.Close()

	resp = other.do(t, http.MethodGet, "/api/roster", nil)
	var listing struct {
		Employees []models.Employee `json:"employees"`
	}
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Employees, 1)
	assert.Equal(t, "Alice", listing.Employees[0].Name)

	resp = other.do(t, http.MethodPost, "/api/restore", map[string]string{"junk": "x"})
	assert.Equal(t, http.StatusOK, resp.StatusCode, "unknown fields tolerated, unrecognized records untouched")
	resp.Body.Close()

	resp = other.do(t, http.MethodGet, "/api/roster", nil)
	decodeJSON(t, resp, &listing)
	require.Len(t, listing.Employees, 1, "restored roster survives a no-op import")

	req, err = http.NewRequest(http.MethodPost, other.URL+"/api/restore", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	req.Header.Set("x-api-key", testAPIKey)
	badResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode, "malformed JSON rejected")
	badResp.Body.Close()
}

func TestAPIKeyAuth(t *testing.T) {
	ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/schedule", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "mutating call without key")
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/api/roster", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, "reads stay open")
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodPost, ts.URL+"/api/schedule", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	req.Header.Set("x-api-key", "wrong")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRateLimiting(t *testing.T) {
	logger := zerolog.Nop()
	svc := schedule.New(storage.NewMemoryStore(), events.NewBus(), &logger)
	svc.Init(context.Background())
	srv := NewHTTPServer(svc, &logger, Config{RateLimit: 1, RateBurst: 1})

	handler := srv.Handler()
	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

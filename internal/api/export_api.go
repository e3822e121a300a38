package api

import (
	"bytes"
	"fmt"
	"net/http"

	"dutyroster/internal/export"
	"dutyroster/internal/metrics"
)

// handleExport renders the current schedule in the requested format.
// GET /api/export/{csv|json|text|xlsx|html}
func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	format := pathTail(r.URL.Path, "/api/export/")
	if format == "" {
		writeError(w, http.StatusBadRequest, "export format is required")
		return
	}

	current := s.svc.CurrentSchedule()
	if current == nil {
		writeError(w, http.StatusNotFound, "no current schedule")
		return
	}
	base := export.SanitizeFilename(current.Name)

	var (
		data        []byte
		contentType string
		filename    string
		err         error
	)

	switch format {
	case "csv":
		data, err = export.CSV(current)
		contentType = "text/csv; charset=utf-8"
		filename = base + ".csv"
	case "json":
		data, err = export.JSON(current)
		contentType = "application/json"
		filename = base + ".json"
	case "text":
		data = []byte(export.Text(current))
		contentType = "text/plain; charset=utf-8"
		filename = base + ".txt"
	case "xlsx":
		var buf bytes.Buffer
		err = export.XLSX(current, &buf)
		data = buf.Bytes()
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = base + ".xlsx"
	case "html":
		data, err = export.HTML(current)
		contentType = "text/html; charset=utf-8"
		filename = base + ".html"
	default:
		writeError(w, http.StatusBadRequest, "unknown export format; expected csv, json, text, xlsx or html")
		return
	}

	if err != nil {
		s.log.Error().Err(err).Str("format", format).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

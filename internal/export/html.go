package export

import (
	"bytes"
	"fmt"
	"html/template"

	"dutyroster/internal/models"
)

// printTemplate is a self-contained printable page: one table row per
// shift, one column per day, styled for paper.
var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
  body { font-family: Arial, Helvetica, sans-serif; margin: 24px; color: #222; }
  h1 { font-size: 20px; margin-bottom: 4px; }
  .range { color: #666; margin-bottom: 16px; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #999; padding: 6px 8px; text-align: center; font-size: 13px; }
  th { background: #f0f0f0; }
  th.weekend { background: #fde8e8; }
  td.empty { color: #aaa; }
  .shift-label { font-weight: bold; text-align: left; white-space: nowrap; }
  .window { color: #666; font-size: 11px; }
  @media print { body { margin: 0; } }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<div class="range">{{.Range}}</div>
<table>
  <tr>
    <th></th>
    {{- range .Days}}
    <th{{if .IsWeekend}} class="weekend"{{end}}>{{.DayNameShort}}<br>{{.MonthNameShort}} {{.DayNumber}}</th>
    {{- end}}
  </tr>
  {{- range .Rows}}
  <tr>
    <td class="shift-label">{{.Label}}<br><span class="window">{{.Window}}</span></td>
    {{- range .Cells}}
    {{- if .Assigned}}
    <td>{{.Employee}}</td>
    {{- else}}
    <td class="empty">&mdash;</td>
    {{- end}}
    {{- end}}
  </tr>
  {{- end}}
</table>
</body>
</html>
`))

type printCell struct {
	Employee string
	Assigned bool
}

type printRow struct {
	Label  string
	Window string
	Cells  []printCell
}

type printPage struct {
	Name  string
	Range string
	Days  []models.DayEntry
	Rows  []printRow
}

// HTML renders a printable week grid: days across, shifts down.
func HTML(s *models.Schedule) ([]byte, error) {
	page := printPage{
		Name:  s.Name,
		Range: fmt.Sprintf("%s to %s", s.StartDateISO, s.EndDateISO),
		Days:  s.Days,
	}

	for _, id := range models.AllShifts() {
		row := printRow{Label: shiftTitles[id]}
		for i := range s.Days {
			a := s.Days[i].Shifts[id]
			if row.Window == "" {
				row.Window = timeRange(a)
			}
			if a.Label != "" {
				row.Label = a.Label
			}
			row.Cells = append(row.Cells, printCell{Employee: a.Employee, Assigned: a.Assigned()})
		}
		page.Rows = append(page.Rows, row)
	}

	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, page); err != nil {
		return nil, fmt.Errorf("render print view: %w", err)
	}
	return buf.Bytes(), nil
}

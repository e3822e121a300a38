package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"dutyroster/internal/models"
)

// xlsxWriter wraps excelize with a row cursor so callers append rows
// without tracking coordinates.
type xlsxWriter struct {
	file       *excelize.File
	sheet      string
	currentRow int
}

func newXLSXWriter(sheet string) (*xlsxWriter, error) {
	// Excel caps sheet names at 31 chars.
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)
	return &xlsxWriter{file: f, sheet: sheet, currentRow: 1}, nil
}

func (w *xlsxWriter) writeHeader(columns []string) error {
	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.sheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

func (w *xlsxWriter) writeRow(row []interface{}) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.sheet, cell, val); err != nil {
			return err
		}
	}
	w.currentRow++
	return nil
}

// XLSX renders the schedule as a single-sheet workbook with the same
// column layout as CSV.
func XLSX(s *models.Schedule, out io.Writer) error {
	w, err := newXLSXWriter(s.Name)
	if err != nil {
		return err
	}
	defer w.file.Close()

	header := []string{"Day", "Date"}
	for _, id := range models.AllShifts() {
		header = append(header, shiftTitles[id]+" Time", shiftTitles[id]+" Employee")
	}
	if err := w.writeHeader(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range s.Days {
		day := &s.Days[i]
		row := []interface{}{
			day.DayName,
			fmt.Sprintf("%s %d %d", day.MonthNameShort, day.DayNumber, day.Year),
		}
		for _, id := range models.AllShifts() {
			a := day.Shifts[id]
			row = append(row, timeRange(a), employeeOr(a, Unassigned))
		}
		if err := w.writeRow(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := w.file.Write(out); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// Package google mirrors the current schedule into a Google Sheets
// spreadsheet so the week is viewable without running the service.
package google

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"dutyroster/internal/calendar"
	"dutyroster/internal/models"
)

// Config holds the Sheets sync settings.
type Config struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetName       string `yaml:"sheet_name"`
}

// valuesUpdater is the slice of the Sheets API used by the sync.
type valuesUpdater interface {
	Update(ctx context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error
}

type sheetsUpdater struct {
	svc *sheets.Service
}

func (u *sheetsUpdater) Update(ctx context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error {
	vr := &sheets.ValueRange{Values: values}
	_, err := u.svc.Spreadsheets.Values.
		Update(spreadsheetID, rangeA1, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// SheetsService writes schedule snapshots to one sheet. A nil
// SheetsService is a valid no-op.
type SheetsService struct {
	updater       valuesUpdater
	spreadsheetID string
	sheetName     string
	log           *zerolog.Logger
}

// New builds a SheetsService, or nil when the sync is disabled.
func New(ctx context.Context, cfg Config, logger *zerolog.Logger) (*SheetsService, error) {
	if !cfg.Enabled || cfg.CredentialsFile == "" || cfg.SpreadsheetID == "" {
		return nil, nil
	}

	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	if cfg.SheetName == "" {
		cfg.SheetName = "Schedule"
	}

	return &SheetsService{
		updater:       &sheetsUpdater{svc: svc},
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		log:           logger,
	}, nil
}

// SyncSchedule overwrites the sheet with the schedule grid: a title
// row, a header row and one row per day.
func (s *SheetsService) SyncSchedule(ctx context.Context, sched *models.Schedule) error {
	if s == nil || sched == nil {
		return nil
	}

	values := scheduleRows(sched)
	rangeA1 := fmt.Sprintf("%s!A1", s.sheetName)
	if err := s.updater.Update(ctx, s.spreadsheetID, rangeA1, values); err != nil {
		return fmt.Errorf("update spreadsheet: %w", err)
	}

	s.log.Info().
		Str("schedule_id", sched.ID).
		Str("spreadsheet_id", s.spreadsheetID).
		Msg("schedule synced to sheets")
	return nil
}

func scheduleRows(sched *models.Schedule) [][]interface{} {
	values := [][]interface{}{
		{sched.Name},
		{"Day", "Date", "Shift 1", "Shift 2", "Shift 3"},
	}

	for i := range sched.Days {
		day := &sched.Days[i]
		row := []interface{}{
			day.DayName,
			fmt.Sprintf("%s %d %d", day.MonthNameShort, day.DayNumber, day.Year),
		}
		for _, id := range models.AllShifts() {
			a := day.Shifts[id]
			cell := "-"
			if a.Assigned() {
				cell = fmt.Sprintf("%s (%s - %s)", a.Employee,
					calendar.FormatTime12h(a.Start), calendar.FormatTime12h(a.End))
			}
			row = append(row, cell)
		}
		values = append(values, row)
	}
	return values
}

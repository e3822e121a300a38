package google

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dutyroster/internal/models"
)

type fakeUpdater struct {
	spreadsheetID string
	rangeA1       string
	values        [][]interface{}
}

func (f *fakeUpdater) Update(_ context.Context, spreadsheetID, rangeA1 string, values [][]interface{}) error {
	f.spreadsheetID = spreadsheetID
	f.rangeA1 = rangeA1
	f.values = values
	return nil
}

func TestNew_DisabledReturnsNil(t *testing.T) {
	logger := zerolog.Nop()
	svc, err := New(context.Background(), Config{Enabled: false}, &logger)
	require.NoError(t, err)
	assert.Nil(t, svc)

	svc, err = New(context.Background(), Config{Enabled: true, SpreadsheetID: "x"}, &logger)
	require.NoError(t, err)
	assert.Nil(t, svc, "missing credentials file disables the sync")
}

func TestSyncSchedule(t *testing.T) {
	logger := zerolog.Nop()
	updater := &fakeUpdater{}
	svc := &SheetsService{
		updater:       updater,
		spreadsheetID: "sheet-123",
		sheetName:     "Schedule",
		log:           &logger,
	}

	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	sched := models.NewSchedule("sch_x", "Week 2 - Jan 5 - 11, 2026", start, models.DefaultShiftConfig(), start)
	a, _ := sched.Assignment("2026-01-05", models.Shift1)
	a.Employee = "Alice"

	require.NoError(t, svc.SyncSchedule(context.Background(), sched))

	assert.Equal(t, "sheet-123", updater.spreadsheetID)
	assert.Equal(t, "Schedule!A1", updater.rangeA1)
	require.Len(t, updater.values, 9, "title, header and seven days")

	assert.Equal(t, []interface{}{"Week 2 - Jan 5 - 11, 2026"}, updater.values[0])
	assert.Equal(t, []interface{}{"Day", "Date", "Shift 1", "Shift 2", "Shift 3"}, updater.values[1])

	monday := updater.values[2]
	assert.Equal(t, "Monday", monday[0])
	assert.Equal(t, "Jan 5 2026", monday[1])
	assert.Equal(t, "Alice (12:00 PM - 8:00 PM)", monday[2])
	assert.Equal(t, "-", monday[3])
}

func TestSyncSchedule_NilReceiverIsNoOp(t *testing.T) {
	var svc *SheetsService
	assert.NoError(t, svc.SyncSchedule(context.Background(), nil))
}

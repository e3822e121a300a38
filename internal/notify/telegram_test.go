package notify

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"dutyroster/internal/events"
	"dutyroster/internal/models"
	"dutyroster/internal/schedule"
	"dutyroster/internal/storage"
)

type fakeBot struct {
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func newTestNotifier(t *testing.T) (*Notifier, *fakeBot, *schedule.Service, *events.Bus) {
	t.Helper()
	logger := zerolog.Nop()
	bus := events.NewBus()
	svc := schedule.New(storage.NewMemoryStore(), bus, &logger)
	svc.Init(context.Background())

	bot := &fakeBot{}
	n := &Notifier{
		bot:          bot,
		chatID:       42,
		reminderHour: 9,
		limiter:      rate.NewLimiter(rate.Inf, 1),
		svc:          svc,
		log:          &logger,
	}
	return n, bot, svc, bus
}

func TestNew_DisabledReturnsNil(t *testing.T) {
	logger := zerolog.Nop()
	n, err := New(Config{Enabled: false, Token: "x"}, nil, &logger)
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = New(Config{Enabled: true, Token: ""}, nil, &logger)
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestNilNotifierIsNoOp(t *testing.T) {
	var n *Notifier
	assert.NoError(t, n.SendSchedule(context.Background()))
	n.AttachTo(events.NewBus())
	n.StartReminders(context.Background())
}

func TestSendSchedule(t *testing.T) {
	n, bot, svc, _ := newTestNotifier(t)

	require.NoError(t, n.SendSchedule(context.Background()))
	assert.Empty(t, bot.sent, "nothing sent without a current schedule")

	svc.CreateSchedule("2026-01-05", "")
	svc.Assign("2026-01-05", models.Shift1, "Alice")

	require.NoError(t, n.SendSchedule(context.Background()))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "Alice")
	assert.Contains(t, msg.Text, "Monday")
}

func TestAttachTo_SendsOnSave(t *testing.T) {
	n, bot, svc, bus := newTestNotifier(t)
	n.AttachTo(bus)

	svc.CreateSchedule("2026-01-05", "")
	assert.Empty(t, bot.sent, "create alone does not notify")

	require.True(t, svc.SaveCurrentSchedule())
	assert.Len(t, bot.sent, 1)
}

func TestTomorrowDutyText(t *testing.T) {
	start := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	s := models.NewSchedule("sch_x", "wk", start, models.DefaultShiftConfig(), start)

	assert.Empty(t, tomorrowDutyText(s, "2026-01-06"), "no assignments")
	assert.Empty(t, tomorrowDutyText(s, "2026-03-01"), "date outside week")

	a, _ := s.Assignment("2026-01-06", models.Shift2)
	a.Employee = "Bob"

	text := tomorrowDutyText(s, "2026-01-06")
	assert.Contains(t, text, "Tuesday, Jan 6")
	assert.Contains(t, text, "Night Shift")
	assert.Contains(t, text, "Bob")
	assert.NotContains(t, text, "Day Shift", "unassigned shifts omitted")
}

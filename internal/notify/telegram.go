// Package notify pushes schedule updates to Telegram: the full week on
// every save, plus a daily reminder listing tomorrow's duties.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"dutyroster/internal/events"
	"dutyroster/internal/export"
	"dutyroster/internal/models"
	"dutyroster/internal/schedule"
)

// Config holds the Telegram notification settings.
type Config struct {
	Enabled      bool   `yaml:"enabled"`
	Token        string `yaml:"token"`
	ChatID       int64  `yaml:"chat_id"`
	ReminderHour int    `yaml:"reminder_hour"`
}

// messageSender is the subset of the bot API used here.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends schedule messages to a single chat. A nil Notifier is
// a valid no-op, so callers never branch on configuration.
type Notifier struct {
	bot          messageSender
	chatID       int64
	reminderHour int
	limiter      *rate.Limiter
	svc          *schedule.Service
	log          *zerolog.Logger
}

// New builds a Notifier, or nil when notifications are disabled.
func New(cfg Config, svc *schedule.Service, logger *zerolog.Logger) (*Notifier, error) {
	if !cfg.Enabled || cfg.Token == "" {
		return nil, nil
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	if cfg.ReminderHour <= 0 || cfg.ReminderHour > 23 {
		cfg.ReminderHour = 9
	}

	return &Notifier{
		bot:          bot,
		chatID:       cfg.ChatID,
		reminderHour: cfg.ReminderHour,
		// Telegram caps bots around 30 messages per second; stay well under.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
		svc:     svc,
		log:     logger,
	}, nil
}

// AttachTo subscribes the notifier to schedule saves.
func (n *Notifier) AttachTo(bus *events.Bus) {
	if n == nil {
		return
	}
	bus.Subscribe(events.ScheduleSaved, func(event events.Event) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := n.SendSchedule(ctx); err != nil {
			n.log.Error().Err(err).Msg("failed to push saved schedule")
		}
	})
}

// SendSchedule posts the current schedule as shareable text.
func (n *Notifier) SendSchedule(ctx context.Context) error {
	if n == nil {
		return nil
	}
	current := n.svc.CurrentSchedule()
	if current == nil {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	msg := tgbotapi.NewMessage(n.chatID, export.Text(current))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send schedule: %w", err)
	}
	n.log.Info().Str("schedule_id", current.ID).Msg("schedule pushed to telegram")
	return nil
}

// StartReminders launches the daily reminder loop: every day at the
// configured hour it posts tomorrow's duty list, skipping days with no
// assignments.
func (n *Notifier) StartReminders(ctx context.Context) {
	if n == nil {
		return
	}

	go func() {
		timer := time.NewTimer(timeUntilNextHour(n.reminderHour))
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				if err := n.sendTomorrowReminder(ctx); err != nil {
					n.log.Error().Err(err).Msg("reminder failed")
				}
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (n *Notifier) sendTomorrowReminder(ctx context.Context) error {
	current := n.svc.CurrentSchedule()
	if current == nil {
		return nil
	}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	text := tomorrowDutyText(current, tomorrow)
	if text == "" {
		return nil
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	return nil
}

// tomorrowDutyText renders the reminder body, or "" when the date is
// outside the schedule or has no assignments.
func tomorrowDutyText(s *models.Schedule, dateISO string) string {
	day, ok := s.Day(dateISO)
	if !ok {
		return ""
	}

	var lines []string
	for _, id := range models.AllShifts() {
		a := day.Shifts[id]
		if !a.Assigned() {
			continue
		}
		label := a.Label
		if label == "" {
			label = string(id)
		}
		lines = append(lines, fmt.Sprintf("• %s (%s - %s): %s", label, a.Start, a.End, a.Employee))
	}
	if len(lines) == 0 {
		return ""
	}

	return fmt.Sprintf("⏰ Duty reminder for %s, %s %d:\n%s",
		day.DayName, day.MonthNameShort, day.DayNumber, strings.Join(lines, "\n"))
}

func timeUntilNextHour(hour int) time.Duration {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

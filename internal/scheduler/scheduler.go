// Package scheduler sends hourly study reminders.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/example/grevocab/pkg/models"
)

// Defaults for the active notification window
const (
	DefaultNotificationStartHour = 8
	DefaultNotificationEndHour   = 22
)

// Notifier delivers a reminder to a user
type Notifier interface {
	SendReminder(ctx context.Context, userID int64, unstudied int) error
}

// UserLister finds users who asked for a reminder at a given hour
type UserLister interface {
	ListForReminder(ctx context.Context, hour int) ([]models.User, error)
}

// StatsSource reports a user's collection statistics
type StatsSource interface {
	ForUser(ctx context.Context, userID int64, now time.Time) (*models.Statistics, error)
}

// Config controls when reminders go out
type Config struct {
	StartHour int
	EndHour   int
	Location  *time.Location
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserLister
	stats     StatsSource
	cfg       Config
	clock     clockwork.Clock
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(cfg Config, notifier Notifier, users UserLister, stats StatsSource, logger *zap.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		notifier:  notifier,
		users:     users,
		stats:     stats,
		cfg:       cfg,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Named("scheduler"),
	}
}

// WithClock sets the clock used to decide the current hour
func (s *Scheduler) WithClock(c clockwork.Clock) *Scheduler {
	s.clock = c
	return s
}

// Start runs the reminder check at the top of every hour until ctx ends
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Cron("0 * * * *").Do(func() {
		sent, err := s.CheckReminders(ctx)
		if err != nil {
			s.logger.Error("reminder check failed", zap.Error(err))
			return
		}
		s.logger.Info("reminder check finished", zap.Int("sent", sent))
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started",
		zap.Int("start_hour", s.cfg.StartHour),
		zap.Int("end_hour", s.cfg.EndHour),
		zap.String("location", s.cfg.Location.String()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// CheckReminders sends reminders to users due at the current hour who
// still have unstudied words. It returns how many were sent; a failure for
// one user does not stop the others.
func (s *Scheduler) CheckReminders(ctx context.Context) (int, error) {
	now := s.clock.Now().In(s.cfg.Location)
	hour := now.Hour()

	if hour < s.cfg.StartHour || hour > s.cfg.EndHour {
		s.logger.Debug("outside notification hours, skipping reminders",
			zap.Int("hour", hour),
			zap.Int("start_hour", s.cfg.StartHour),
			zap.Int("end_hour", s.cfg.EndHour))
		return 0, nil
	}

	users, err := s.users.ListForReminder(ctx, hour)
	if err != nil {
		return 0, fmt.Errorf("failed to get users for notification: %w", err)
	}

	sent := 0
	for _, user := range users {
		ok, err := s.remind(ctx, user.ID, now)
		if err != nil {
			s.logger.Warn("reminder failed", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// RunManualCheck sends a reminder to one user regardless of the hour
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	return s.remind(ctx, userID, s.clock.Now().In(s.cfg.Location))
}

func (s *Scheduler) remind(ctx context.Context, userID int64, now time.Time) (bool, error) {
	stats, err := s.stats.ForUser(ctx, userID, now)
	if err != nil {
		return false, err
	}

	unstudied := stats.TotalWords - stats.StudiedWords
	if unstudied <= 0 {
		return false, nil
	}

	if err := s.notifier.SendReminder(ctx, userID, unstudied); err != nil {
		return false, fmt.Errorf("failed to send reminder: %w", err)
	}
	return true, nil
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sessionSweepSpec = "@every 15m"

// ReportGenerator builds the end-of-day stock report.
type ReportGenerator interface {
	GenerateDailyReport(ctx context.Context, now time.Time) (string, error)
}

// ManagerNotifier delivers a message to the store manager.
type ManagerNotifier interface {
	NotifyManager(ctx context.Context, text string) error
}

// SessionExpirer drops idle editing sessions.
type SessionExpirer interface {
	ExpireSessions(ttl time.Duration) int
}

// Options configures the scheduled jobs.
type Options struct {
	ReportSpec string
	Location   *time.Location
	SessionTTL time.Duration
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	opts     Options
	reports  ReportGenerator
	notifier ManagerNotifier
	sessions SessionExpirer
	logger   *zap.Logger
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance. notifier may be nil when
// chat notifications are disabled.
func NewScheduler(opts Options, reports ReportGenerator, notifier ManagerNotifier, sessions SessionExpirer, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(opts.Location)),
		opts:     opts,
		reports:  reports,
		notifier: notifier,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("report_spec", s.opts.ReportSpec), zap.String("location", s.opts.Location.String()))

	if _, err := s.cron.AddFunc(s.opts.ReportSpec, s.sendDailyReport); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.opts.ReportSpec, err)
	}
	if s.sessions != nil {
		if _, err := s.cron.AddFunc(sessionSweepSpec, s.expireSessions); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reports.GenerateDailyReport(ctx, s.now().In(s.opts.Location))
	if err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}

	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyManager(ctx, report); err != nil {
		s.logger.Error("failed to send daily report", zap.Error(err))
	} else {
		s.logger.Info("daily report sent successfully")
	}
}

func (s *Scheduler) expireSessions() {
	if dropped := s.sessions.ExpireSessions(s.opts.SessionTTL); dropped > 0 {
		s.logger.Debug("session sweep finished", zap.Int("expired", dropped))
	}
}

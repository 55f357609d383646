package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/salestracker/internal/config"
	"github.com/mamadbah2/salestracker/internal/domain/models"
	"github.com/mamadbah2/salestracker/internal/service/reporting"
	"github.com/mamadbah2/salestracker/pkg/clients/whatsapp"
)

// ReportBuilder produces the daily report for a date.
type ReportBuilder interface {
	BuildDailyReport(ctx context.Context, date string) (models.DailyReport, error)
}

// ReportArchive persists daily reports.
type ReportArchive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Refresher reloads the live sales view.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshFunc adapts a function to Refresher.
type RefreshFunc func(ctx context.Context) error

// Refresh calls f.
func (f RefreshFunc) Refresh(ctx context.Context) error { return f(ctx) }

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithArchive stores every report in archive.
func WithArchive(archive ReportArchive) Option {
	return func(s *Scheduler) { s.archive = archive }
}

// WithMessenger sends every report summary to recipient.
func WithMessenger(sender whatsapp.Client, recipient string) Option {
	return func(s *Scheduler) {
		s.sender = sender
		s.recipient = recipient
	}
}

// WithRefresher reloads refresher before each report.
func WithRefresher(refresher Refresher) Option {
	return func(s *Scheduler) { s.refresher = refresher }
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron      *cron.Cron
	schedule  string
	builder   ReportBuilder
	archive   ReportArchive
	sender    whatsapp.Client
	recipient string
	refresher Refresher
	logger    *zap.Logger
}

// NewScheduler creates a scheduler running the daily report on cfg.CronSchedule
// in cfg's timezone.
func NewScheduler(cfg config.ReportingConfig, builder ReportBuilder, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := cron.ParseStandard(cfg.CronSchedule); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", cfg.CronSchedule, err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(cfg.Location())),
		schedule: cfg.CronSchedule,
		builder:  builder,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the daily report and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.schedule, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if _, err := s.RunDailyReport(ctx); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

// RunDailyReport builds today's report, archives it and sends its summary.
// Archive and delivery failures are logged; only a failed build is returned.
func (s *Scheduler) RunDailyReport(ctx context.Context) (models.DailyReport, error) {
	s.logger.Info("generating daily report")

	if s.refresher != nil {
		if err := s.refresher.Refresh(ctx); err != nil {
			s.logger.Warn("refresh before report failed", zap.Error(err))
		}
	}

	report, err := s.builder.BuildDailyReport(ctx, "")
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("build daily report: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.SaveDailyReport(ctx, report); err != nil {
			s.logger.Error("failed to archive daily report", zap.String("date", report.Date), zap.Error(err))
		}
	}

	if s.sender != nil && s.recipient != "" {
		req := whatsapp.SendTextMessageRequest{
			To:   s.recipient,
			Body: reporting.FormatSummary(report),
		}
		if _, err := s.sender.SendTextMessage(ctx, req); err != nil {
			s.logger.Error("failed to send daily report", zap.Error(err))
		} else {
			s.logger.Info("daily report sent successfully", zap.String("date", report.Date))
		}
	}

	return report, nil
}

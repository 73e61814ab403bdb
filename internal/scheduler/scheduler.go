// Package scheduler runs the service's periodic jobs: the SLA sweep and the
// daily operational summary.
package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"visitation-service/internal/config"
	"visitation-service/internal/metrics"
	"visitation-service/internal/models"
	"visitation-service/internal/sla"
)

// Sweeper produces the current SLA breach set.
type Sweeper interface {
	Sweep(ctx context.Context) []models.SLABreach
	Compliance(ctx context.Context) (*sla.ComplianceSummary, error)
}

// CitizenCounter provides the citizen count for the daily summary.
type CitizenCounter interface {
	CountAll(ctx context.Context) (int, error)
}

// AlertCounter provides the active alert count for the daily summary.
type AlertCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// Scheduler owns the cron runner and its registered jobs.
type Scheduler struct {
	cfg      config.SchedulerConfig
	sweeper  Sweeper
	citizens CitizenCounter
	alerts   AlertCounter
	metrics  *metrics.Collector
	logger   *zap.Logger
	cron     *cron.Cron
	timeout  time.Duration
}

// New creates a scheduler. Jobs are registered on Start.
func New(cfg config.SchedulerConfig, sweeper Sweeper, citizens CitizenCounter, alerts AlertCounter, collector *metrics.Collector, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		sweeper:  sweeper,
		citizens: citizens,
		alerts:   alerts,
		metrics:  collector,
		logger:   logger.Named("scheduler"),
		cron:     cron.New(cron.WithLocation(time.UTC)),
		timeout:  2 * time.Minute,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if !s.cfg.Enabled {
		s.logger.Info("Scheduler disabled by configuration")
		return nil
	}

	if _, err := s.cron.AddFunc(s.cfg.SLASweepSpec, s.runSLASweep); err != nil {
		return errors.Wrap(err, "failed to schedule SLA sweep")
	}
	if _, err := s.cron.AddFunc(s.cfg.DailySummarySpec, s.runDailySummary); err != nil {
		return errors.Wrap(err, "failed to schedule daily summary")
	}

	s.cron.Start()
	s.logger.Info("Scheduler started",
		zap.String("sla_sweep_spec", s.cfg.SLASweepSpec),
		zap.String("daily_summary_spec", s.cfg.DailySummarySpec))
	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// runSLASweep evaluates every SLA category, reports breaches and records
// sweep metrics. Breaches are logged here; escalation is a downstream
// consumer of the metrics and logs.
func (s *Scheduler) runSLASweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	started := time.Now()
	breaches := s.sweeper.Sweep(ctx)
	s.metrics.RecordSweep(time.Since(started), breaches)

	if len(breaches) == 0 {
		s.logger.Debug("SLA sweep clean", zap.Duration("duration", time.Since(started)))
		return
	}

	bySeverity := make(map[models.Severity]int)
	for _, b := range breaches {
		bySeverity[b.Severity]++
	}
	s.logger.Warn("SLA sweep found breaches",
		zap.Int("total", len(breaches)),
		zap.Int("critical", bySeverity[models.SeverityCritical]),
		zap.Int("high", bySeverity[models.SeverityHigh]),
		zap.Int("medium", bySeverity[models.SeverityMedium]),
		zap.Duration("duration", time.Since(started)))
}

// runDailySummary logs a snapshot of program health for the operations
// channel.
func (s *Scheduler) runDailySummary() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	citizens, err := s.citizens.CountAll(ctx)
	if err != nil {
		s.logger.Error("Daily summary: citizen count failed", zap.Error(err))
		return
	}
	activeAlerts, err := s.alerts.CountActive(ctx)
	if err != nil {
		s.logger.Error("Daily summary: alert count failed", zap.Error(err))
		return
	}
	compliance, err := s.sweeper.Compliance(ctx)
	if err != nil {
		s.logger.Error("Daily summary: compliance summary failed", zap.Error(err))
		return
	}

	s.logger.Info("Daily operational summary",
		zap.Int("citizens", citizens),
		zap.Int("active_alerts", activeAlerts),
		zap.Float64("sos_response_compliance_pct", compliance.SOSResponse.CompliancePct),
		zap.Float64("visit_compliance_pct", compliance.CompletedVisits.CompliancePct))
}

// Package sla evaluates outstanding alerts and visits against fixed time
// budgets and reports breaches. The sweep only reads state; escalation is a
// collaborator concern.
package sla

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/config"
	"visitation-service/internal/models"
)

// AlertStore reads open-ended emergency alerts.
type AlertStore interface {
	PendingResponse(ctx context.Context) ([]models.SOSAlert, error)
	AwaitingResolution(ctx context.Context) ([]models.SOSAlert, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountRespondedWithinSince(ctx context.Context, since time.Time, budget time.Duration) (int, error)
}

// CitizenStore reads citizens pending verification.
type CitizenStore interface {
	PendingVerificationCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Citizen, error)
}

// VisitStore reads completion counts for the compliance summary.
type VisitStore interface {
	CountCompletedSince(ctx context.Context, since time.Time) (int, error)
	CountCompletedOnTimeSince(ctx context.Context, since time.Time, grace time.Duration) (int, error)
}

// Monitor runs the periodic SLA sweep.
type Monitor struct {
	budgets  config.SLAConfig
	alerts   AlertStore
	citizens CitizenStore
	visits   VisitStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewMonitor creates an SLA monitor.
func NewMonitor(budgets config.SLAConfig, alerts AlertStore, citizens CitizenStore, visits VisitStore, logger *zap.Logger) *Monitor {
	return &Monitor{
		budgets:  budgets,
		alerts:   alerts,
		citizens: citizens,
		visits:   visits,
		logger:   logger.Named("sla"),
		now:      time.Now,
	}
}

// WithClock overrides the monitor's clock. Test hook.
func (m *Monitor) WithClock(now func() time.Time) *Monitor {
	m.now = now
	return m
}

// Sweep evaluates every category and returns the breaches found. A failure
// in one category is logged and does not prevent the others from
// reporting.
func (m *Monitor) Sweep(ctx context.Context) []models.SLABreach {
	now := m.now()
	breaches := []models.SLABreach{}

	if found, err := m.sweepResponse(ctx, now); err != nil {
		m.logger.Error("SOS response sweep failed", zap.Error(err))
	} else {
		breaches = append(breaches, found...)
	}

	if found, err := m.sweepResolution(ctx, now); err != nil {
		m.logger.Error("SOS resolution sweep failed", zap.Error(err))
	} else {
		breaches = append(breaches, found...)
	}

	if found, err := m.sweepVerification(ctx, now); err != nil {
		m.logger.Error("Verification sweep failed", zap.Error(err))
	} else {
		breaches = append(breaches, found...)
	}

	return breaches
}

// sweepResponse flags active alerts nobody responded to inside the budget.
func (m *Monitor) sweepResponse(ctx context.Context, now time.Time) ([]models.SLABreach, error) {
	alerts, err := m.alerts.PendingResponse(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list alerts pending response")
	}

	var breaches []models.SLABreach
	for _, alert := range alerts {
		expectedBy := alert.CreatedAt.Add(m.budgets.SOSResponseBudget)
		if !now.After(expectedBy) {
			continue
		}
		breach := models.SLABreach{
			Type:           models.BreachSOSResponse,
			EntityID:       alert.ID,
			ExpectedBy:     expectedBy,
			BreachDuration: minutesBetween(expectedBy, now),
			Severity:       models.SeverityCritical,
		}
		breaches = append(breaches, breach)

		m.logger.Error("SLA breach: SOS response",
			zap.String("alert_id", alert.ID.String()),
			zap.Int("breach_duration_minutes", breach.BreachDuration))
	}
	return breaches, nil
}

// sweepResolution flags responded alerts that missed the resolution budget,
// measured from alert creation.
func (m *Monitor) sweepResolution(ctx context.Context, now time.Time) ([]models.SLABreach, error) {
	alerts, err := m.alerts.AwaitingResolution(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list alerts awaiting resolution")
	}

	var breaches []models.SLABreach
	for _, alert := range alerts {
		expectedBy := alert.CreatedAt.Add(m.budgets.SOSResolutionBudget)
		if !now.After(expectedBy) {
			continue
		}
		breaches = append(breaches, models.SLABreach{
			Type:           models.BreachSOSResolution,
			EntityID:       alert.ID,
			ExpectedBy:     expectedBy,
			BreachDuration: minutesBetween(expectedBy, now),
			Severity:       models.SeverityHigh,
		})
	}
	return breaches, nil
}

// sweepVerification flags citizens still pending identity verification past
// the verification-visit budget.
func (m *Monitor) sweepVerification(ctx context.Context, now time.Time) ([]models.SLABreach, error) {
	cutoff := now.Add(-m.budgets.VerificationVisitBudget)
	citizens, err := m.citizens.PendingVerificationCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending verifications")
	}

	var breaches []models.SLABreach
	for _, citizen := range citizens {
		expectedBy := citizen.CreatedAt.Add(m.budgets.VerificationVisitBudget)
		breaches = append(breaches, models.SLABreach{
			Type:           models.BreachVerificationVisit,
			EntityID:       citizen.ID,
			ExpectedBy:     expectedBy,
			BreachDuration: minutesBetween(expectedBy, now),
			Severity:       models.SeverityMedium,
		})
	}
	return breaches, nil
}

func minutesBetween(from, to time.Time) int {
	return int(to.Sub(from) / time.Minute)
}

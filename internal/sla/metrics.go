package sla

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"visitation-service/internal/models"
)

// AlertMetrics is the per-alert SLA view: elapsed minutes and breach flags
// for response and resolution.
type AlertMetrics struct {
	AlertID                 string `json:"alert_id"`
	ResponseTimeMinutes     *int   `json:"response_time_minutes,omitempty"`
	ResolutionTimeMinutes   *int   `json:"resolution_time_minutes,omitempty"`
	ResponseBudgetMinutes   int    `json:"response_budget_minutes"`
	ResolutionBudgetMinutes int    `json:"resolution_budget_minutes"`
	ResponseBreached        bool   `json:"response_breached"`
	ResolutionBreached      bool   `json:"resolution_breached"`
}

// CalculateAlertMetrics evaluates one alert against the budgets. Open alerts
// are measured against the current clock, so a still-unanswered alert shows
// as breached the moment its budget runs out.
func (m *Monitor) CalculateAlertMetrics(alert models.SOSAlert) AlertMetrics {
	now := m.now()
	metrics := AlertMetrics{
		AlertID:                 alert.ID.String(),
		ResponseBudgetMinutes:   int(m.budgets.SOSResponseBudget.Minutes()),
		ResolutionBudgetMinutes: int(m.budgets.SOSResolutionBudget.Minutes()),
	}

	if alert.RespondedAt != nil {
		elapsed := minutesBetween(alert.CreatedAt, *alert.RespondedAt)
		metrics.ResponseTimeMinutes = &elapsed
		metrics.ResponseBreached = alert.RespondedAt.After(alert.CreatedAt.Add(m.budgets.SOSResponseBudget))
	} else {
		metrics.ResponseBreached = now.After(alert.CreatedAt.Add(m.budgets.SOSResponseBudget))
	}

	if alert.ResolvedAt != nil {
		elapsed := minutesBetween(alert.CreatedAt, *alert.ResolvedAt)
		metrics.ResolutionTimeMinutes = &elapsed
		metrics.ResolutionBreached = alert.ResolvedAt.After(alert.CreatedAt.Add(m.budgets.SOSResolutionBudget))
	} else {
		metrics.ResolutionBreached = now.After(alert.CreatedAt.Add(m.budgets.SOSResolutionBudget))
	}

	return metrics
}

// CategoryCompliance is the on-time ratio for one commitment category over
// the reporting window.
type CategoryCompliance struct {
	Total         int     `json:"total"`
	OnTime        int     `json:"on_time"`
	CompliancePct float64 `json:"compliance_pct"`
}

// ComplianceSummary aggregates on-time ratios over the trailing window.
type ComplianceSummary struct {
	WindowStart     time.Time          `json:"window_start"`
	SOSResponse     CategoryCompliance `json:"sos_response"`
	CompletedVisits CategoryCompliance `json:"completed_visits"`
}

// complianceWindow is the trailing reporting period for the summary.
const complianceWindow = 30 * 24 * time.Hour

// Compliance computes the trailing 30-day compliance summary.
func (m *Monitor) Compliance(ctx context.Context) (*ComplianceSummary, error) {
	since := m.now().Add(-complianceWindow)

	alertTotal, err := m.alerts.CountCreatedSince(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count alerts in window")
	}
	alertOnTime, err := m.alerts.CountRespondedWithinSince(ctx, since, m.budgets.SOSResponseBudget)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count on-time responses in window")
	}

	visitTotal, err := m.visits.CountCompletedSince(ctx, since)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count completed visits in window")
	}
	visitOnTime, err := m.visits.CountCompletedOnTimeSince(ctx, since, 2*time.Hour)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count on-time visits in window")
	}

	return &ComplianceSummary{
		WindowStart:     since,
		SOSResponse:     categoryCompliance(alertTotal, alertOnTime),
		CompletedVisits: categoryCompliance(visitTotal, visitOnTime),
	}, nil
}

func categoryCompliance(total, onTime int) CategoryCompliance {
	c := CategoryCompliance{Total: total, OnTime: onTime, CompliancePct: 100}
	if total > 0 {
		c.CompliancePct = float64(onTime) / float64(total) * 100
	}
	return c
}

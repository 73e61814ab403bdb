// Package workload computes officer load metrics. Two metrics coexist on
// purpose: visit count answers "who has spare visiting capacity today",
// citizen caseload answers "whose beat caseload is already largest". Both
// are always computed live so concurrent assignments never act on stale
// counts read earlier in the request.
package workload

import (
	"context"

	"github.com/google/uuid"
)

// VisitCounter counts an officer's visits in active states.
type VisitCounter interface {
	CountActiveByOfficer(ctx context.Context, officerID uuid.UUID) (int, error)
}

// CaseloadCounter counts the active citizens in an officer's beat.
type CaseloadCounter interface {
	CountActiveInOfficerBeat(ctx context.Context, officerID uuid.UUID) (int, error)
}

// Gauge exposes the two load metrics.
type Gauge struct {
	visits   VisitCounter
	caseload CaseloadCounter
}

// NewGauge creates a workload gauge.
func NewGauge(visits VisitCounter, caseload CaseloadCounter) *Gauge {
	return &Gauge{visits: visits, caseload: caseload}
}

// WorkloadOf returns the officer's count of SCHEDULED and IN_PROGRESS
// visits.
func (g *Gauge) WorkloadOf(ctx context.Context, officerID uuid.UUID) (int, error) {
	return g.visits.CountActiveByOfficer(ctx, officerID)
}

// CaseloadOf returns the count of active citizens in the officer's beat.
func (g *Gauge) CaseloadOf(ctx context.Context, officerID uuid.UUID) (int, error) {
	return g.caseload.CountActiveInOfficerBeat(ctx, officerID)
}

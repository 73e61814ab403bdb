package sla

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visitation-service/internal/config"
	"visitation-service/internal/models"
)

var testBudgets = config.SLAConfig{
	SOSResponseBudget:       15 * time.Minute,
	SOSResolutionBudget:     60 * time.Minute,
	VerificationVisitBudget: 7 * 24 * time.Hour,
	RoutineVisitBudget:      30 * 24 * time.Hour,
}

type fakeAlertStore struct {
	pending  []models.SOSAlert
	awaiting []models.SOSAlert
	err      error
}

func (f *fakeAlertStore) PendingResponse(context.Context) ([]models.SOSAlert, error) {
	return f.pending, f.err
}

func (f *fakeAlertStore) AwaitingResolution(context.Context) ([]models.SOSAlert, error) {
	return f.awaiting, f.err
}

func (f *fakeAlertStore) CountCreatedSince(context.Context, time.Time) (int, error) {
	return len(f.pending) + len(f.awaiting), f.err
}

func (f *fakeAlertStore) CountRespondedWithinSince(context.Context, time.Time, time.Duration) (int, error) {
	return len(f.awaiting), f.err
}

type fakeCitizenStore struct {
	pending []models.Citizen
	err     error
}

func (f *fakeCitizenStore) PendingVerificationCreatedBefore(context.Context, time.Time) ([]models.Citizen, error) {
	return f.pending, f.err
}

type fakeVisitStore struct {
	completed int
	onTime    int
}

func (f *fakeVisitStore) CountCompletedSince(context.Context, time.Time) (int, error) {
	return f.completed, nil
}

func (f *fakeVisitStore) CountCompletedOnTimeSince(context.Context, time.Time, time.Duration) (int, error) {
	return f.onTime, nil
}

func newTestMonitor(alerts AlertStore, citizens CitizenStore, visits VisitStore, now time.Time) *Monitor {
	m := NewMonitor(testBudgets, alerts, citizens, visits, zap.NewNop())
	return m.WithClock(func() time.Time { return now })
}

func TestSweepReportsResponseBreach(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	now := created.Add(20 * time.Minute)
	alert := models.SOSAlert{ID: uuid.New(), Status: models.AlertActive, CreatedAt: created}

	m := newTestMonitor(&fakeAlertStore{pending: []models.SOSAlert{alert}},
		&fakeCitizenStore{}, &fakeVisitStore{}, now)

	breaches := m.Sweep(context.Background())
	require.Len(t, breaches, 1)
	b := breaches[0]
	assert.Equal(t, models.BreachSOSResponse, b.Type)
	assert.Equal(t, alert.ID, b.EntityID)
	assert.Equal(t, models.SeverityCritical, b.Severity)
	assert.Equal(t, created.Add(15*time.Minute), b.ExpectedBy)
	assert.Equal(t, 5, b.BreachDuration)
}

func TestSweepInsideBudgetIsClean(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	now := created.Add(10 * time.Minute)
	alert := models.SOSAlert{ID: uuid.New(), Status: models.AlertActive, CreatedAt: created}

	m := newTestMonitor(&fakeAlertStore{pending: []models.SOSAlert{alert}},
		&fakeCitizenStore{}, &fakeVisitStore{}, now)

	assert.Empty(t, m.Sweep(context.Background()))
}

func TestSweepReportsResolutionBreach(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	responded := created.Add(10 * time.Minute)
	now := created.Add(90 * time.Minute)
	alert := models.SOSAlert{
		ID:          uuid.New(),
		Status:      models.AlertResponded,
		RespondedAt: &responded,
		CreatedAt:   created,
	}

	m := newTestMonitor(&fakeAlertStore{awaiting: []models.SOSAlert{alert}},
		&fakeCitizenStore{}, &fakeVisitStore{}, now)

	breaches := m.Sweep(context.Background())
	require.Len(t, breaches, 1)
	assert.Equal(t, models.BreachSOSResolution, breaches[0].Type)
	assert.Equal(t, models.SeverityHigh, breaches[0].Severity)
	assert.Equal(t, 30, breaches[0].BreachDuration)
}

func TestSweepReportsVerificationBreach(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	created := now.Add(-8 * 24 * time.Hour)
	citizen := models.Citizen{ID: uuid.New(), VerificationStatus: models.VerificationPending, CreatedAt: created}

	m := newTestMonitor(&fakeAlertStore{},
		&fakeCitizenStore{pending: []models.Citizen{citizen}}, &fakeVisitStore{}, now)

	breaches := m.Sweep(context.Background())
	require.Len(t, breaches, 1)
	assert.Equal(t, models.BreachVerificationVisit, breaches[0].Type)
	assert.Equal(t, models.SeverityMedium, breaches[0].Severity)
	assert.Equal(t, 24*60, breaches[0].BreachDuration)
}

func TestSweepCategoryFailureDoesNotBlockOthers(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	created := now.Add(-8 * 24 * time.Hour)
	citizen := models.Citizen{ID: uuid.New(), VerificationStatus: models.VerificationPending, CreatedAt: created}

	m := newTestMonitor(&fakeAlertStore{err: errors.New("alerts unavailable")},
		&fakeCitizenStore{pending: []models.Citizen{citizen}}, &fakeVisitStore{}, now)

	breaches := m.Sweep(context.Background())
	require.Len(t, breaches, 1)
	assert.Equal(t, models.BreachVerificationVisit, breaches[0].Type)
}

func TestCalculateAlertMetrics(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	responded := created.Add(20 * time.Minute)
	resolved := created.Add(50 * time.Minute)
	alert := models.SOSAlert{
		ID:          uuid.New(),
		CreatedAt:   created,
		RespondedAt: &responded,
		ResolvedAt:  &resolved,
	}

	m := newTestMonitor(&fakeAlertStore{}, &fakeCitizenStore{}, &fakeVisitStore{}, resolved)

	metrics := m.CalculateAlertMetrics(alert)
	require.NotNil(t, metrics.ResponseTimeMinutes)
	assert.Equal(t, 20, *metrics.ResponseTimeMinutes)
	assert.True(t, metrics.ResponseBreached)
	require.NotNil(t, metrics.ResolutionTimeMinutes)
	assert.Equal(t, 50, *metrics.ResolutionTimeMinutes)
	assert.False(t, metrics.ResolutionBreached)
}

func TestCalculateAlertMetricsOpenAlert(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	alert := models.SOSAlert{ID: uuid.New(), CreatedAt: created}

	m := newTestMonitor(&fakeAlertStore{}, &fakeCitizenStore{}, &fakeVisitStore{}, created.Add(16*time.Minute))

	metrics := m.CalculateAlertMetrics(alert)
	assert.Nil(t, metrics.ResponseTimeMinutes)
	assert.True(t, metrics.ResponseBreached)
	assert.False(t, metrics.ResolutionBreached)
}

func TestComplianceSummary(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	responded := now.Add(-time.Hour)
	alerts := &fakeAlertStore{
		pending:  []models.SOSAlert{{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour)}},
		awaiting: []models.SOSAlert{{ID: uuid.New(), CreatedAt: now.Add(-2 * time.Hour), RespondedAt: &responded}},
	}
	visits := &fakeVisitStore{completed: 10, onTime: 8}

	m := newTestMonitor(alerts, &fakeCitizenStore{}, visits, now)

	summary, err := m.Compliance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.SOSResponse.Total)
	assert.Equal(t, 1, summary.SOSResponse.OnTime)
	assert.InDelta(t, 50.0, summary.SOSResponse.CompliancePct, 0.001)
	assert.Equal(t, 10, summary.CompletedVisits.Total)
	assert.InDelta(t, 80.0, summary.CompletedVisits.CompliancePct, 0.001)
}

func TestComplianceSummaryEmptyWindowIsFullCompliance(t *testing.T) {
	m := newTestMonitor(&fakeAlertStore{}, &fakeCitizenStore{}, &fakeVisitStore{},
		time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC))

	summary, err := m.Compliance(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 100.0, summary.SOSResponse.CompliancePct, 0.001)
	assert.InDelta(t, 100.0, summary.CompletedVisits.CompliancePct, 0.001)
}

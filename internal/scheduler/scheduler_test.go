package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"visitation-service/internal/config"
	"visitation-service/internal/metrics"
	"visitation-service/internal/models"
	"visitation-service/internal/sla"
)

type fakeSweeper struct {
	breaches []models.SLABreach
	sweeps   int
}

func (f *fakeSweeper) Sweep(context.Context) []models.SLABreach {
	f.sweeps++
	return f.breaches
}

func (f *fakeSweeper) Compliance(context.Context) (*sla.ComplianceSummary, error) {
	return &sla.ComplianceSummary{}, nil
}

type fakeCitizenCounter struct{ count int }

func (f *fakeCitizenCounter) CountAll(context.Context) (int, error) { return f.count, nil }

type fakeAlertCounter struct{ count int }

func (f *fakeAlertCounter) CountActive(context.Context) (int, error) { return f.count, nil }

var testCollector = metrics.NewCollector()

func TestRunSLASweepInvokesSweeper(t *testing.T) {
	sweeper := &fakeSweeper{breaches: []models.SLABreach{
		{Type: models.BreachSOSResponse, EntityID: uuid.New(), Severity: models.SeverityCritical, BreachDuration: 5},
	}}

	s := New(config.SchedulerConfig{Enabled: true}, sweeper,
		&fakeCitizenCounter{count: 10}, &fakeAlertCounter{count: 2},
		testCollector, zap.NewNop())

	s.runSLASweep()
	assert.Equal(t, 1, sweeper.sweeps)
}

func TestRunDailySummaryDoesNotSweep(t *testing.T) {
	sweeper := &fakeSweeper{}

	s := New(config.SchedulerConfig{Enabled: true}, sweeper,
		&fakeCitizenCounter{count: 10}, &fakeAlertCounter{count: 2},
		testCollector, zap.NewNop())

	s.runDailySummary()
	assert.Equal(t, 0, sweeper.sweeps)
}

func TestStartDisabledSchedulerIsNoop(t *testing.T) {
	s := New(config.SchedulerConfig{Enabled: false}, &fakeSweeper{},
		&fakeCitizenCounter{}, &fakeAlertCounter{}, testCollector, zap.NewNop())

	assert.NoError(t, s.Start())
}

func TestStartRejectsInvalidCronSpec(t *testing.T) {
	s := New(config.SchedulerConfig{
		Enabled:          true,
		SLASweepSpec:     "not a cron spec",
		DailySummarySpec: "0 0 * * *",
	}, &fakeSweeper{}, &fakeCitizenCounter{}, &fakeAlertCounter{}, testCollector, zap.NewNop())

	assert.Error(t, s.Start())
}

func TestStartValidSpecs(t *testing.T) {
	s := New(config.SchedulerConfig{
		Enabled:          true,
		SLASweepSpec:     "*/5 * * * *",
		DailySummarySpec: "0 0 * * *",
	}, &fakeSweeper{}, &fakeCitizenCounter{}, &fakeAlertCounter{}, testCollector, zap.NewNop())

	assert.NoError(t, s.Start())
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

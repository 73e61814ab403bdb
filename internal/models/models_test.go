package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestVisitStatusTransitions(t *testing.T) {
	tests := []struct {
		from    VisitStatus
		to      VisitStatus
		allowed bool
	}{
		{VisitScheduled, VisitInProgress, true},
		{VisitScheduled, VisitCancelled, true},
		{VisitScheduled, VisitCompleted, false},
		{VisitInProgress, VisitCompleted, true},
		{VisitInProgress, VisitCancelled, true},
		{VisitInProgress, VisitScheduled, false},
		{VisitCompleted, VisitCancelled, false},
		{VisitCompleted, VisitScheduled, false},
		{VisitCancelled, VisitScheduled, false},
		{VisitCancelled, VisitInProgress, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestVisitStatusTerminal(t *testing.T) {
	assert.False(t, VisitScheduled.IsTerminal())
	assert.False(t, VisitInProgress.IsTerminal())
	assert.True(t, VisitCompleted.IsTerminal())
	assert.True(t, VisitCancelled.IsTerminal())
}

func TestVisitDurationDefaults(t *testing.T) {
	v := Visit{}
	assert.Equal(t, 30*time.Minute, v.Duration())

	explicit := 45
	v.DurationMinutes = &explicit
	assert.Equal(t, 45*time.Minute, v.Duration())

	zero := 0
	v.DurationMinutes = &zero
	assert.Equal(t, 30*time.Minute, v.Duration())
}

func TestVisitIntervalIsHalfOpen(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	v := Visit{ScheduledDate: start}

	gotStart, gotEnd := v.Interval()
	assert.Equal(t, start, gotStart)
	assert.Equal(t, start.Add(30*time.Minute), gotEnd)
}

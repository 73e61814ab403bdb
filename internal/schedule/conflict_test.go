package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

type fakeVisitReader struct {
	visits []models.Visit
}

func (f *fakeVisitReader) ActiveForDay(_ context.Context, officerID uuid.UUID, dayStart, dayEnd time.Time, exclude *uuid.UUID) ([]models.Visit, error) {
	out := []models.Visit{}
	for _, v := range f.visits {
		if v.OfficerID != officerID {
			continue
		}
		if v.ScheduledDate.Before(dayStart) || !v.ScheduledDate.Before(dayEnd) {
			continue
		}
		if exclude != nil && v.ID == *exclude {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVisitReader) ActiveInRange(_ context.Context, officerID uuid.UUID, from, to time.Time) ([]models.Visit, error) {
	out := []models.Visit{}
	for _, v := range f.visits {
		if v.OfficerID == officerID && !v.ScheduledDate.Before(from) && !v.ScheduledDate.After(to) {
			out = append(out, v)
		}
	}
	return out, nil
}

func existingVisit(officerID uuid.UUID, start time.Time, durationMinutes int) models.Visit {
	return models.Visit{
		ID:              uuid.New(),
		OfficerID:       officerID,
		CitizenID:       uuid.New(),
		ScheduledDate:   start,
		DurationMinutes: &durationMinutes,
		Status:          models.VisitScheduled,
	}
}

func TestHasConflictDetectsOverlap(t *testing.T) {
	officerID := uuid.New()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	detector := NewDetector(&fakeVisitReader{
		visits: []models.Visit{existingVisit(officerID, base, 30)},
	}, zap.NewNop())

	// Proposed 10:15 overlaps the existing 10:00-10:30.
	result, err := detector.HasConflict(context.Background(), officerID, base.Add(15*time.Minute), 30, nil)
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Len(t, result.ConflictingVisits, 1)
}

func TestHasConflictTouchingEndpointsDoNotConflict(t *testing.T) {
	officerID := uuid.New()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	detector := NewDetector(&fakeVisitReader{
		visits: []models.Visit{existingVisit(officerID, base, 30)},
	}, zap.NewNop())

	// Starts exactly when the existing visit ends.
	after, err := detector.HasConflict(context.Background(), officerID, base.Add(30*time.Minute), 30, nil)
	require.NoError(t, err)
	assert.False(t, after.HasConflict)

	// Ends exactly when the existing visit starts.
	before, err := detector.HasConflict(context.Background(), officerID, base.Add(-30*time.Minute), 30, nil)
	require.NoError(t, err)
	assert.False(t, before.HasConflict)
}

func TestHasConflictUsesDefaultDuration(t *testing.T) {
	officerID := uuid.New()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	detector := NewDetector(&fakeVisitReader{
		visits: []models.Visit{existingVisit(officerID, base.Add(20*time.Minute), 30)},
	}, zap.NewNop())

	// Zero duration defaults to 30 minutes, so 10:00-10:30 overlaps the
	// existing 10:20 start.
	result, err := detector.HasConflict(context.Background(), officerID, base, 0, nil)
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
}

func TestHasConflictExcludesVisitBeingEdited(t *testing.T) {
	officerID := uuid.New()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	existing := existingVisit(officerID, base, 30)

	detector := NewDetector(&fakeVisitReader{visits: []models.Visit{existing}}, zap.NewNop())

	// Re-saving the same slot conflicts without the exclusion...
	withSelf, err := detector.HasConflict(context.Background(), officerID, base, 30, nil)
	require.NoError(t, err)
	assert.True(t, withSelf.HasConflict)

	// ...and passes with it.
	excluded, err := detector.HasConflict(context.Background(), officerID, base, 30, &existing.ID)
	require.NoError(t, err)
	assert.False(t, excluded.HasConflict)
}

func TestHasConflictIgnoresOtherOfficers(t *testing.T) {
	officerID := uuid.New()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	detector := NewDetector(&fakeVisitReader{
		visits: []models.Visit{existingVisit(uuid.New(), base, 30)},
	}, zap.NewNop())

	result, err := detector.HasConflict(context.Background(), officerID, base, 30, nil)
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestOfficerScheduleReturnsRange(t *testing.T) {
	officerID := uuid.New()
	base := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	inRange := existingVisit(officerID, base, 30)
	outOfRange := existingVisit(officerID, base.AddDate(0, 0, 10), 30)

	detector := NewDetector(&fakeVisitReader{
		visits: []models.Visit{inRange, outOfRange},
	}, zap.NewNop())

	visits, err := detector.OfficerSchedule(context.Background(), officerID, base.AddDate(0, 0, -1), base.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, inRange.ID, visits[0].ID)
}

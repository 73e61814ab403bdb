// Package schedule validates proposed visits against an officer's existing
// calendar and reports officer schedules.
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

// VisitReader loads an officer's non-terminal visits.
type VisitReader interface {
	ActiveForDay(ctx context.Context, officerID uuid.UUID, dayStart, dayEnd time.Time, exclude *uuid.UUID) ([]models.Visit, error)
	ActiveInRange(ctx context.Context, officerID uuid.UUID, from, to time.Time) ([]models.Visit, error)
}

// ConflictResult reports every visit overlapping the proposed slot, not
// just the first, so callers can present full detail.
type ConflictResult struct {
	HasConflict       bool           `json:"has_conflict"`
	ConflictingVisits []models.Visit `json:"conflicting_visits,omitempty"`
}

// Detector checks a proposed (officer, start, duration) triple against the
// officer's existing active visits for the same day.
type Detector struct {
	visits VisitReader
	logger *zap.Logger
}

// NewDetector creates a conflict detector.
func NewDetector(visits VisitReader, logger *zap.Logger) *Detector {
	return &Detector{
		visits: visits,
		logger: logger.Named("schedule"),
	}
}

// HasConflict reports whether the proposed visit overlaps any of the
// officer's SCHEDULED or IN_PROGRESS visits on the same calendar day.
// Intervals are half-open [start, start+duration): touching endpoints do
// not conflict. excludeVisitID removes the visit being edited from its own
// conflict set, so re-saving an unmodified visit never self-conflicts.
func (d *Detector) HasConflict(ctx context.Context, officerID uuid.UUID, scheduledAt time.Time, durationMinutes int, excludeVisitID *uuid.UUID) (ConflictResult, error) {
	if durationMinutes <= 0 {
		durationMinutes = models.DefaultVisitDurationMinutes
	}

	visitStart := scheduledAt
	visitEnd := scheduledAt.Add(time.Duration(durationMinutes) * time.Minute)

	// Local midnight-to-midnight window around the proposed start.
	year, month, day := scheduledAt.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, scheduledAt.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	existing, err := d.visits.ActiveForDay(ctx, officerID, dayStart, dayEnd, excludeVisitID)
	if err != nil {
		return ConflictResult{}, errors.Wrap(err, "failed to load same-day visits")
	}

	var conflicting []models.Visit
	for _, visit := range existing {
		existingStart, existingEnd := visit.Interval()
		if visitStart.Before(existingEnd) && visitEnd.After(existingStart) {
			conflicting = append(conflicting, visit)
		}
	}

	if len(conflicting) > 0 {
		d.logger.Debug("Visit conflict detected",
			zap.String("officer_id", officerID.String()),
			zap.Time("proposed_start", visitStart),
			zap.Int("conflicts", len(conflicting)))
	}

	return ConflictResult{
		HasConflict:       len(conflicting) > 0,
		ConflictingVisits: conflicting,
	}, nil
}

// OfficerSchedule returns an officer's active visits in a date range,
// ordered by scheduled date.
func (d *Detector) OfficerSchedule(ctx context.Context, officerID uuid.UUID, from, to time.Time) ([]models.Visit, error) {
	visits, err := d.visits.ActiveInRange(ctx, officerID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load officer schedule")
	}
	return visits, nil
}

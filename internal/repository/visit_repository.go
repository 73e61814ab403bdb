package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/database"
	"visitation-service/internal/models"
	"visitation-service/internal/scope"
)

// ErrInvalidTransition is returned when a visit status change would violate
// the monotonic lifecycle.
var ErrInvalidTransition = errors.New("invalid visit status transition")

// SystemActor is recorded as the canceller for system-initiated
// cancellations.
const SystemActor = "SYSTEM"

// VisitRepository handles visit-related database operations
type VisitRepository struct {
	*database.Repository
}

// NewVisitRepository creates a new visit repository
func NewVisitRepository(db *database.Database, logger *zap.Logger) *VisitRepository {
	return &VisitRepository{
		Repository: database.NewRepository(db, logger),
	}
}

const visitColumns = `
	id, citizen_id, officer_id, scheduled_date, duration_minutes, status,
	visit_type, priority, notes, cancelled_at, cancelled_by, created_at, updated_at`

// Create inserts a new visit in SCHEDULED state.
func (r *VisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	if visit.ID == uuid.Nil {
		visit.ID = uuid.New()
	}
	visit.Status = models.VisitScheduled
	visit.CreatedAt = time.Now()
	visit.UpdatedAt = visit.CreatedAt

	query := `
		INSERT INTO visits (
			id, citizen_id, officer_id, scheduled_date, duration_minutes,
			status, visit_type, priority, notes, created_at, updated_at
		) VALUES (
			:id, :citizen_id, :officer_id, :scheduled_date, :duration_minutes,
			:status, :visit_type, :priority, :notes, :created_at, :updated_at
		)`

	if _, err := r.DB().NamedExecContext(ctx, query, visit); err != nil {
		return errors.Wrap(err, "failed to create visit")
	}
	return nil
}

// Get returns the visit with the given id, or nil when absent.
func (r *VisitRepository) Get(ctx context.Context, id uuid.UUID) (*models.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	var visit models.Visit
	err := r.DB().GetContext(ctx, &visit, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get visit")
	}
	return &visit, nil
}

// CountActiveByOfficer counts an officer's visits in SCHEDULED or
// IN_PROGRESS. Always computed live: the assignment engine needs current
// values to avoid bias toward officers read first.
func (r *VisitRepository) CountActiveByOfficer(ctx context.Context, officerID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM visits WHERE officer_id = $1 AND status IN ($2, $3)`
	err := r.DB().GetContext(ctx, &count, query, officerID, models.VisitScheduled, models.VisitInProgress)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count active visits")
	}
	return count, nil
}

// ActiveForDay returns an officer's non-terminal visits inside the
// [dayStart, dayEnd) window, optionally excluding one visit.
func (r *VisitRepository) ActiveForDay(ctx context.Context, officerID uuid.UUID, dayStart, dayEnd time.Time, exclude *uuid.UUID) ([]models.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE officer_id = $1
		  AND scheduled_date >= $2 AND scheduled_date < $3
		  AND status IN ($4, $5)
		  AND ($6::uuid IS NULL OR id <> $6)
		ORDER BY scheduled_date`

	visits := []models.Visit{}
	err := r.DB().SelectContext(ctx, &visits, query, officerID, dayStart, dayEnd,
		models.VisitScheduled, models.VisitInProgress, exclude)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list visits for day")
	}
	return visits, nil
}

// ActiveInRange returns an officer's non-terminal visits in a date range,
// ordered by scheduled date.
func (r *VisitRepository) ActiveInRange(ctx context.Context, officerID uuid.UUID, from, to time.Time) ([]models.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE officer_id = $1
		  AND scheduled_date >= $2 AND scheduled_date <= $3
		  AND status IN ($4, $5)
		ORDER BY scheduled_date`

	visits := []models.Visit{}
	err := r.DB().SelectContext(ctx, &visits, query, officerID, from, to,
		models.VisitScheduled, models.VisitInProgress)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list visits in range")
	}
	return visits, nil
}

// ScheduledInRange returns an officer's SCHEDULED visits whose scheduled
// date falls within [start, end] inclusive.
func (r *VisitRepository) ScheduledInRange(ctx context.Context, officerID uuid.UUID, start, end time.Time) ([]models.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE officer_id = $1
		  AND status = $2
		  AND scheduled_date >= $3 AND scheduled_date <= $4
		ORDER BY scheduled_date`

	visits := []models.Visit{}
	err := r.DB().SelectContext(ctx, &visits, query, officerID, models.VisitScheduled, start, end)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scheduled visits in range")
	}
	return visits, nil
}

// ScheduledByOfficer returns all of an officer's SCHEDULED visits.
func (r *VisitRepository) ScheduledByOfficer(ctx context.Context, officerID uuid.UUID) ([]models.Visit, error) {
	query := `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE officer_id = $1 AND status = $2
		ORDER BY scheduled_date`

	visits := []models.Visit{}
	err := r.DB().SelectContext(ctx, &visits, query, officerID, models.VisitScheduled)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scheduled visits")
	}
	return visits, nil
}

// BulkReassign moves the given visits to a new officer and appends an
// annotation to their notes. Returns the number of visits updated.
func (r *VisitRepository) BulkReassign(ctx context.Context, visitIDs []uuid.UUID, newOfficerID uuid.UUID, note string) (int64, error) {
	if len(visitIDs) == 0 {
		return 0, nil
	}

	query := `
		UPDATE visits
		SET officer_id = $2,
		    notes = COALESCE(notes || E'\n', '') || $3,
		    updated_at = NOW()
		WHERE id = ANY($1)`

	result, err := r.DB().ExecContext(ctx, query, pq.Array(visitIDs), newOfficerID, note)
	if err != nil {
		return 0, errors.Wrap(err, "failed to bulk reassign visits")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get affected rows")
	}
	return affected, nil
}

// Reassign moves one visit to a new officer with an annotation.
func (r *VisitRepository) Reassign(ctx context.Context, visitID, newOfficerID uuid.UUID, note string) error {
	query := `
		UPDATE visits
		SET officer_id = $2,
		    notes = COALESCE(notes || E'\n', '') || $3,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := r.DB().ExecContext(ctx, query, visitID, newOfficerID, note)
	if err != nil {
		return errors.Wrap(err, "failed to reassign visit")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return errors.New("visit not found")
	}
	return nil
}

// CancelBySystem cancels a visit on behalf of the system with an annotated
// reason. Only non-terminal visits are affected.
func (r *VisitRepository) CancelBySystem(ctx context.Context, visitID uuid.UUID, reason string) error {
	query := `
		UPDATE visits
		SET status = $2,
		    cancelled_at = NOW(),
		    cancelled_by = $3,
		    notes = COALESCE(notes || E'\n', '') || $4,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ($5, $6)`

	result, err := r.DB().ExecContext(ctx, query, visitID, models.VisitCancelled,
		SystemActor, reason, models.VisitScheduled, models.VisitInProgress)
	if err != nil {
		return errors.Wrap(err, "failed to cancel visit")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return errors.New("visit not found or already terminal")
	}
	return nil
}

// UpdateStatus applies a status transition, enforcing the monotonic
// lifecycle inside a transaction.
func (r *VisitRepository) UpdateStatus(ctx context.Context, visitID uuid.UUID, next models.VisitStatus) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current models.VisitStatus
		err := tx.GetContext(ctx, &current, `SELECT status FROM visits WHERE id = $1 FOR UPDATE`, visitID)
		if err == sql.ErrNoRows {
			return errors.New("visit not found")
		}
		if err != nil {
			return errors.Wrap(err, "failed to read visit status")
		}

		if !current.CanTransitionTo(next) {
			return errors.Wrapf(ErrInvalidTransition, "%s -> %s", current, next)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE visits SET status = $2, updated_at = NOW() WHERE id = $1`, visitID, next)
		return errors.Wrap(err, "failed to update visit status")
	})
}

// ListScoped lists visits visible inside a jurisdiction scope, joining the
// owning officer's tags. The scope filter is mandatory: an empty scope
// yields no rows, never all rows.
func (r *VisitRepository) ListScoped(ctx context.Context, s scope.Scope, limit, offset int) ([]models.Visit, error) {
	clause, args := scopeCondition(s, "o")
	query := `
		SELECT ` + prefixColumns("v", visitColumns) + `
		FROM visits v
		JOIN officers o ON o.id = v.officer_id
		WHERE ` + clause + `
		ORDER BY v.scheduled_date DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	query = r.DB().DB().Rebind(query)
	visits := []models.Visit{}
	if err := r.DB().SelectContext(ctx, &visits, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list scoped visits")
	}
	return visits, nil
}

// CountCompletedSince counts completed visits created since the cutoff.
func (r *VisitRepository) CountCompletedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM visits WHERE created_at >= $1 AND status = $2`
	if err := r.DB().GetContext(ctx, &count, query, since, models.VisitCompleted); err != nil {
		return 0, errors.Wrap(err, "failed to count completed visits")
	}
	return count, nil
}

// CountCompletedOnTimeSince counts completed visits that closed within the
// grace window after their scheduled date.
func (r *VisitRepository) CountCompletedOnTimeSince(ctx context.Context, since time.Time, grace time.Duration) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM visits
		WHERE created_at >= $1 AND status = $2
		  AND updated_at <= scheduled_date + make_interval(mins => $3)`
	graceMinutes := int(grace.Minutes())
	if err := r.DB().GetContext(ctx, &count, query, since, models.VisitCompleted, graceMinutes); err != nil {
		return 0, errors.Wrap(err, "failed to count on-time visits")
	}
	return count, nil
}

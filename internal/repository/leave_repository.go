package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/database"
	"visitation-service/internal/models"
)

var (
	// ErrLeaveOverlap is returned when a new leave overlaps an existing
	// PENDING or APPROVED leave for the same officer.
	ErrLeaveOverlap = errors.New("overlapping leave exists for officer")

	// ErrLeaveInvalidRange is returned when the end date is not after the
	// start date.
	ErrLeaveInvalidRange = errors.New("leave end date must be after start date")

	// ErrLeaveNotPending is returned when approving or rejecting a leave
	// that is not in PENDING state.
	ErrLeaveNotPending = errors.New("leave is not pending")
)

// LeaveRepository handles leave-related database operations
type LeaveRepository struct {
	*database.Repository
}

// NewLeaveRepository creates a new leave repository
func NewLeaveRepository(db *database.Database, logger *zap.Logger) *LeaveRepository {
	return &LeaveRepository{
		Repository: database.NewRepository(db, logger),
	}
}

const leaveColumns = `
	id, officer_id, start_date, end_date, status, reason,
	approved_by, rejected_by, created_at, updated_at`

// Get returns the leave with the given id, or nil when absent.
func (r *LeaveRepository) Get(ctx context.Context, id uuid.UUID) (*models.Leave, error) {
	query := `SELECT ` + leaveColumns + ` FROM leaves WHERE id = $1`

	var leave models.Leave
	err := r.DB().GetContext(ctx, &leave, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get leave")
	}
	return &leave, nil
}

// Create inserts a new PENDING leave, enforcing the range and overlap
// invariants inside a transaction.
func (r *LeaveRepository) Create(ctx context.Context, leave *models.Leave) error {
	if !leave.EndDate.After(leave.StartDate) {
		return ErrLeaveInvalidRange
	}

	if leave.ID == uuid.Nil {
		leave.ID = uuid.New()
	}
	leave.Status = models.LeavePending
	leave.CreatedAt = time.Now()
	leave.UpdatedAt = leave.CreatedAt

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		existingQuery := `
			SELECT ` + leaveColumns + `
			FROM leaves
			WHERE officer_id = $1
			  AND status IN ($2, $3)`

		var existing []models.Leave
		err := tx.SelectContext(ctx, &existing, existingQuery,
			leave.OfficerID, models.LeavePending, models.LeaveApproved)
		if err != nil {
			return errors.Wrap(err, "failed to check leave overlap")
		}
		for _, other := range existing {
			if rangesOverlap(leave.StartDate, leave.EndDate, other.StartDate, other.EndDate) {
				return ErrLeaveOverlap
			}
		}

		insertQuery := `
			INSERT INTO leaves (
				id, officer_id, start_date, end_date, status, reason,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err = tx.ExecContext(ctx, insertQuery,
			leave.ID, leave.OfficerID, leave.StartDate, leave.EndDate,
			leave.Status, leave.Reason, leave.CreatedAt, leave.UpdatedAt)
		return errors.Wrap(err, "failed to create leave")
	})
}

// rangesOverlap reports whether two inclusive date ranges intersect.
// Touching endpoints count as an overlap.
func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// Approve transitions a PENDING leave to APPROVED and returns the updated
// record. The caller is expected to trigger reassignment afterwards.
func (r *LeaveRepository) Approve(ctx context.Context, leaveID, approverID uuid.UUID) (*models.Leave, error) {
	query := `
		UPDATE leaves
		SET status = $2, approved_by = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + leaveColumns

	var leave models.Leave
	err := r.DB().GetContext(ctx, &leave, query, leaveID, models.LeaveApproved, approverID, models.LeavePending)
	if err == sql.ErrNoRows {
		return nil, ErrLeaveNotPending
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to approve leave")
	}
	return &leave, nil
}

// Reject transitions a PENDING leave to REJECTED.
func (r *LeaveRepository) Reject(ctx context.Context, leaveID, rejecterID uuid.UUID) (*models.Leave, error) {
	query := `
		UPDATE leaves
		SET status = $2, rejected_by = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
		RETURNING ` + leaveColumns

	var leave models.Leave
	err := r.DB().GetContext(ctx, &leave, query, leaveID, models.LeaveRejected, rejecterID, models.LeavePending)
	if err == sql.ErrNoRows {
		return nil, ErrLeaveNotPending
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to reject leave")
	}
	return &leave, nil
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/database"
	"visitation-service/internal/models"
	"visitation-service/internal/scope"
)

// CitizenRepository handles citizen-related database operations
type CitizenRepository struct {
	*database.Repository
}

// NewCitizenRepository creates a new citizen repository
func NewCitizenRepository(db *database.Database, logger *zap.Logger) *CitizenRepository {
	return &CitizenRepository{
		Repository: database.NewRepository(db, logger),
	}
}

const citizenColumns = `
	id, full_name, is_active, verification_status, assigned_officer_id,
	range_id, district_id, sub_division_id, police_station_id, beat_id,
	created_at, updated_at`

// Get returns the citizen with the given id, or nil when absent.
func (r *CitizenRepository) Get(ctx context.Context, id uuid.UUID) (*models.Citizen, error) {
	query := `SELECT ` + citizenColumns + ` FROM citizens WHERE id = $1`

	var citizen models.Citizen
	err := r.DB().GetContext(ctx, &citizen, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get citizen")
	}
	return &citizen, nil
}

// ActiveByBeat returns active citizens assigned to a beat.
func (r *CitizenRepository) ActiveByBeat(ctx context.Context, beatID uuid.UUID) ([]models.Citizen, error) {
	query := `
		SELECT ` + citizenColumns + `
		FROM citizens
		WHERE beat_id = $1 AND is_active = true
		ORDER BY created_at, id`

	citizens := []models.Citizen{}
	if err := r.DB().SelectContext(ctx, &citizens, query, beatID); err != nil {
		return nil, errors.Wrap(err, "failed to list active citizens by beat")
	}
	return citizens, nil
}

// CountActiveInOfficerBeat counts the active citizens living in the beat an
// officer is assigned to. This is the caseload metric used for transfer
// reassignment, intentionally different from the visit-count workload.
func (r *CitizenRepository) CountActiveInOfficerBeat(ctx context.Context, officerID uuid.UUID) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM citizens c
		JOIN officers o ON o.beat_id = c.beat_id
		WHERE o.id = $1 AND c.is_active = true`
	if err := r.DB().GetContext(ctx, &count, query, officerID); err != nil {
		return 0, errors.Wrap(err, "failed to count citizens in officer beat")
	}
	return count, nil
}

// PendingVerificationCreatedBefore returns active citizens still pending
// identity verification who were registered before the cutoff.
func (r *CitizenRepository) PendingVerificationCreatedBefore(ctx context.Context, cutoff time.Time) ([]models.Citizen, error) {
	query := `
		SELECT ` + citizenColumns + `
		FROM citizens
		WHERE is_active = true
		  AND verification_status = $1
		  AND created_at < $2
		ORDER BY created_at`

	citizens := []models.Citizen{}
	err := r.DB().SelectContext(ctx, &citizens, query, models.VerificationPending, cutoff)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending verifications")
	}
	return citizens, nil
}

// AssignOfficer records the officer responsible for a citizen.
func (r *CitizenRepository) AssignOfficer(ctx context.Context, citizenID, officerID uuid.UUID) error {
	query := `UPDATE citizens SET assigned_officer_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.DB().ExecContext(ctx, query, citizenID, officerID)
	if err != nil {
		return errors.Wrap(err, "failed to assign officer to citizen")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return errors.New("citizen not found")
	}
	return nil
}

// ListScoped lists citizens visible inside a jurisdiction scope. The scope
// filter is mandatory; a scope that matches nothing returns no rows.
func (r *CitizenRepository) ListScoped(ctx context.Context, s scope.Scope, limit, offset int) ([]models.Citizen, error) {
	clause, args := scopeCondition(s, "c")
	query := `
		SELECT ` + prefixColumns("c", citizenColumns) + `
		FROM citizens c
		WHERE ` + clause + `
		ORDER BY c.created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	query = r.DB().DB().Rebind(query)
	citizens := []models.Citizen{}
	if err := r.DB().SelectContext(ctx, &citizens, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list scoped citizens")
	}
	return citizens, nil
}

// CountAll counts citizens, used by the daily summary job.
func (r *CitizenRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.DB().GetContext(ctx, &count, `SELECT COUNT(*) FROM citizens`); err != nil {
		return 0, errors.Wrap(err, "failed to count citizens")
	}
	return count, nil
}

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
)

// OfficerRepository handles officer-related database operations
type OfficerRepository struct {
	*database.Repository
}

// NewOfficerRepository creates a new officer repository
func NewOfficerRepository(db *database.Database, logger *zap.Logger) *OfficerRepository {
	return &OfficerRepository{
		Repository: database.NewRepository(db, logger),
	}
}

const officerColumns = `
	id, name, rank, role, is_active,
	range_id, district_id, sub_division_id, police_station_id, beat_id,
	created_at, updated_at`

// Get returns the officer with the given id, or nil when absent.
func (r *OfficerRepository) Get(ctx context.Context, id uuid.UUID) (*models.Officer, error) {
	query := `SELECT ` + officerColumns + ` FROM officers WHERE id = $1`

	var officer models.Officer
	err := r.DB().GetContext(ctx, &officer, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get officer")
	}
	return &officer, nil
}

// ActiveByBeat returns active officers in a beat, optionally excluding one
// officer. Order is stable (creation order) so tie-breaks in assignment are
// deterministic for a given data snapshot.
func (r *OfficerRepository) ActiveByBeat(ctx context.Context, beatID uuid.UUID, exclude *uuid.UUID) ([]models.Officer, error) {
	query := `
		SELECT ` + officerColumns + `
		FROM officers
		WHERE beat_id = $1 AND is_active = true AND ($2::uuid IS NULL OR id <> $2)
		ORDER BY created_at, id`

	officers := []models.Officer{}
	if err := r.DB().SelectContext(ctx, &officers, query, beatID, exclude); err != nil {
		return nil, errors.Wrap(err, "failed to list active officers by beat")
	}
	return officers, nil
}

// ActiveByStation returns active officers in a police station, optionally
// excluding one officer, in stable creation order.
func (r *OfficerRepository) ActiveByStation(ctx context.Context, stationID uuid.UUID, exclude *uuid.UUID) ([]models.Officer, error) {
	query := `
		SELECT ` + officerColumns + `
		FROM officers
		WHERE police_station_id = $1 AND is_active = true AND ($2::uuid IS NULL OR id <> $2)
		ORDER BY created_at, id`

	officers := []models.Officer{}
	if err := r.DB().SelectContext(ctx, &officers, query, stationID, exclude); err != nil {
		return nil, errors.Wrap(err, "failed to list active officers by station")
	}
	return officers, nil
}

// CountActiveInBeat counts active officers assigned to a beat.
func (r *OfficerRepository) CountActiveInBeat(ctx context.Context, beatID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM officers WHERE beat_id = $1 AND is_active = true`
	if err := r.DB().GetContext(ctx, &count, query, beatID); err != nil {
		return 0, errors.Wrap(err, "failed to count active officers in beat")
	}
	return count, nil
}

// FindBackupInBeat returns the first active officer in the beat, excluding
// the given officer, who has no APPROVED leave overlapping [start, end].
// Returns nil when no backup exists.
func (r *OfficerRepository) FindBackupInBeat(ctx context.Context, beatID, exclude uuid.UUID, start, end time.Time) (*models.Officer, error) {
	query := `
		SELECT ` + officerColumns + `
		FROM officers o
		WHERE o.beat_id = $1
		  AND o.is_active = true
		  AND o.id <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM leaves l
			WHERE l.officer_id = o.id
			  AND l.status = $3
			  AND l.start_date <= $5
			  AND l.end_date >= $4
		  )
		ORDER BY o.created_at, o.id
		LIMIT 1`

	var officer models.Officer
	err := r.DB().GetContext(ctx, &officer, query, beatID, exclude, models.LeaveApproved, start, end)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find backup officer")
	}
	return &officer, nil
}

// AssignLeastLoaded selects the active officer in a beat with the fewest
// visits in SCHEDULED or IN_PROGRESS, holding row locks on the candidate set
// for the duration of the transaction so two concurrent assignments cannot
// both observe the same workload snapshot. Returns nil when the beat has no
// eligible officer.
func (r *OfficerRepository) AssignLeastLoaded(ctx context.Context, beatID uuid.UUID, exclude *uuid.UUID) (*models.Officer, error) {
	var selected *models.Officer

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		lockQuery := `
			SELECT ` + officerColumns + `
			FROM officers
			WHERE beat_id = $1 AND is_active = true AND ($2::uuid IS NULL OR id <> $2)
			ORDER BY created_at, id
			FOR UPDATE`

		candidates := []models.Officer{}
		if err := tx.SelectContext(ctx, &candidates, lockQuery, beatID, exclude); err != nil {
			return errors.Wrap(err, "failed to lock candidate officers")
		}
		if len(candidates) == 0 {
			return nil
		}

		ids := make([]uuid.UUID, len(candidates))
		for i, c := range candidates {
			ids[i] = c.ID
		}

		countQuery := `
			SELECT officer_id, COUNT(*) AS visit_count
			FROM visits
			WHERE officer_id = ANY($1) AND status IN ($2, $3)
			GROUP BY officer_id`

		rows := []struct {
			OfficerID  uuid.UUID `db:"officer_id"`
			VisitCount int       `db:"visit_count"`
		}{}
		if err := tx.SelectContext(ctx, &rows, countQuery,
			pq.Array(ids), models.VisitScheduled, models.VisitInProgress); err != nil {
			return errors.Wrap(err, "failed to count candidate workloads")
		}

		loads := make(map[uuid.UUID]int, len(rows))
		for _, row := range rows {
			loads[row.OfficerID] = row.VisitCount
		}

		// First candidate in fetch order wins ties.
		best := candidates[0]
		bestLoad := loads[best.ID]
		for _, c := range candidates[1:] {
			if loads[c.ID] < bestLoad {
				best = c
				bestLoad = loads[c.ID]
			}
		}
		selected = &best
		return nil
	})
	if err != nil {
		return nil, err
	}
	return selected, nil
}

// UpdateJurisdiction rewrites an officer's jurisdiction tags, used when an
// officer transfers beats.
func (r *OfficerRepository) UpdateJurisdiction(ctx context.Context, officerID uuid.UUID, tags models.JurisdictionTags) error {
	query := `
		UPDATE officers
		SET range_id = $2, district_id = $3, sub_division_id = $4,
		    police_station_id = $5, beat_id = $6, updated_at = NOW()
		WHERE id = $1`

	result, err := r.DB().ExecContext(ctx, query, officerID,
		tags.RangeID, tags.DistrictID, tags.SubDivisionID, tags.PoliceStationID, tags.BeatID)
	if err != nil {
		return errors.Wrap(err, "failed to update officer jurisdiction")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return errors.New("officer not found")
	}
	return nil
}

// Deactivate marks an officer inactive. Officers are never deleted.
func (r *OfficerRepository) Deactivate(ctx context.Context, officerID uuid.UUID) error {
	query := `UPDATE officers SET is_active = false, updated_at = NOW() WHERE id = $1`

	result, err := r.DB().ExecContext(ctx, query, officerID)
	if err != nil {
		return errors.Wrap(err, "failed to deactivate officer")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to get affected rows")
	}
	if affected == 0 {
		return errors.New("officer not found")
	}
	return nil
}

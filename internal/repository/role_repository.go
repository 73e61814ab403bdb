package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/database"
	"visitation-service/internal/models"
)

// RoleConfigRepository reads the runtime role -> jurisdiction level mapping.
// The mapping is mutated by an administrative flow outside this service, so
// it is always read from storage rather than compiled in.
type RoleConfigRepository struct {
	*database.Repository
}

// NewRoleConfigRepository creates a new role config repository
func NewRoleConfigRepository(db *database.Database, logger *zap.Logger) *RoleConfigRepository {
	return &RoleConfigRepository{
		Repository: database.NewRepository(db, logger),
	}
}

// JurisdictionLevel returns the configured level for a role code. The
// boolean is false when the role is unconfigured.
func (r *RoleConfigRepository) JurisdictionLevel(ctx context.Context, roleCode string) (models.JurisdictionLevel, bool, error) {
	var level models.JurisdictionLevel
	query := `SELECT jurisdiction_level FROM role_configs WHERE code = $1`

	err := r.DB().GetContext(ctx, &level, query, roleCode)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "failed to read role config")
	}
	if level == "" {
		return "", false, nil
	}
	return level, true, nil
}

// JurisdictionRepository resolves the static policing hierarchy.
type JurisdictionRepository struct {
	*database.Repository
}

// NewJurisdictionRepository creates a new jurisdiction repository
func NewJurisdictionRepository(db *database.Database, logger *zap.Logger) *JurisdictionRepository {
	return &JurisdictionRepository{
		Repository: database.NewRepository(db, logger),
	}
}

// BeatPath resolves the full ancestor chain of a beat. Every beat's chain is
// fully resolvable; a broken chain is a data fault, surfaced as an error.
func (r *JurisdictionRepository) BeatPath(ctx context.Context, beatID uuid.UUID) (*models.BeatPath, error) {
	query := `
		SELECT b.id AS beat_id,
		       ps.id AS police_station_id,
		       sd.id AS sub_division_id,
		       d.id AS district_id,
		       rg.id AS range_id
		FROM beats b
		JOIN police_stations ps ON ps.id = b.police_station_id
		JOIN sub_divisions sd ON sd.id = ps.sub_division_id
		JOIN districts d ON d.id = sd.district_id
		JOIN ranges rg ON rg.id = d.range_id
		WHERE b.id = $1`

	var path models.BeatPath
	err := r.DB().GetContext(ctx, &path, query, beatID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve beat path")
	}
	return &path, nil
}

package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/database"
	"visitation-service/internal/models"
)

// AlertRepository handles emergency alert database operations
type AlertRepository struct {
	*database.Repository
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *database.Database, logger *zap.Logger) *AlertRepository {
	return &AlertRepository{
		Repository: database.NewRepository(db, logger),
	}
}

const alertColumns = `id, citizen_id, status, responded_at, resolved_at, created_at`

// PendingResponse returns active alerts that nobody has responded to yet.
func (r *AlertRepository) PendingResponse(ctx context.Context) ([]models.SOSAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM sos_alerts
		WHERE status = $1 AND responded_at IS NULL
		ORDER BY created_at`

	alerts := []models.SOSAlert{}
	if err := r.DB().SelectContext(ctx, &alerts, query, models.AlertActive); err != nil {
		return nil, errors.Wrap(err, "failed to list alerts pending response")
	}
	return alerts, nil
}

// AwaitingResolution returns responded alerts that are not yet resolved.
func (r *AlertRepository) AwaitingResolution(ctx context.Context) ([]models.SOSAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM sos_alerts
		WHERE status = $1 AND resolved_at IS NULL AND responded_at IS NOT NULL
		ORDER BY created_at`

	alerts := []models.SOSAlert{}
	if err := r.DB().SelectContext(ctx, &alerts, query, models.AlertResponded); err != nil {
		return nil, errors.Wrap(err, "failed to list alerts awaiting resolution")
	}
	return alerts, nil
}

// CountCreatedSince counts alerts created since the cutoff.
func (r *AlertRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sos_alerts WHERE created_at >= $1`
	if err := r.DB().GetContext(ctx, &count, query, since); err != nil {
		return 0, errors.Wrap(err, "failed to count alerts")
	}
	return count, nil
}

// CountRespondedWithinSince counts alerts created since the cutoff that were
// responded to inside the budget.
func (r *AlertRepository) CountRespondedWithinSince(ctx context.Context, since time.Time, budget time.Duration) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM sos_alerts
		WHERE created_at >= $1
		  AND responded_at IS NOT NULL
		  AND responded_at <= created_at + make_interval(mins => $2)`
	if err := r.DB().GetContext(ctx, &count, query, since, int(budget.Minutes())); err != nil {
		return 0, errors.Wrap(err, "failed to count on-time responses")
	}
	return count, nil
}

// CountActive counts alerts currently in ACTIVE state, used by the daily
// summary job.
func (r *AlertRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM sos_alerts WHERE status = $1`
	if err := r.DB().GetContext(ctx, &count, query, models.AlertActive); err != nil {
		return 0, errors.Wrap(err, "failed to count active alerts")
	}
	return count, nil
}

// Package cascade reacts to officer leave approvals and beat transfers by
// re-running assignment for affected citizens and visits, or marking work
// unassignable.
//
// The two policies deliberately differ: leave reassignment leaves visits
// untouched when no backup exists (operators resolve manually), while a
// beat transfer cancels the visits of citizens who could not be reassigned.
// The asymmetry is preserved from the established operating procedure and
// is flagged to product owners rather than unified here.
package cascade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/event"
	"visitation-service/internal/models"
)

// ErrOfficerNotFound is returned when the cascading officer or their beat
// cannot be resolved.
var ErrOfficerNotFound = errors.New("officer or beat not found")

// NoBackupAvailable is the structured reason reported when a beat has no
// eligible substitute officer.
const NoBackupAvailable = "No backup officer available"

// VisitStore mutates and lists visits for cascading.
type VisitStore interface {
	ScheduledInRange(ctx context.Context, officerID uuid.UUID, start, end time.Time) ([]models.Visit, error)
	ScheduledByOfficer(ctx context.Context, officerID uuid.UUID) ([]models.Visit, error)
	BulkReassign(ctx context.Context, visitIDs []uuid.UUID, newOfficerID uuid.UUID, note string) (int64, error)
	Reassign(ctx context.Context, visitID, newOfficerID uuid.UUID, note string) error
	CancelBySystem(ctx context.Context, visitID uuid.UUID, reason string) error
}

// OfficerStore reads officers for cascading.
type OfficerStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Officer, error)
	FindBackupInBeat(ctx context.Context, beatID, exclude uuid.UUID, start, end time.Time) (*models.Officer, error)
	CountActiveInBeat(ctx context.Context, beatID uuid.UUID) (int, error)
}

// CitizenStore reads and reassigns citizens for cascading.
type CitizenStore interface {
	ActiveByBeat(ctx context.Context, beatID uuid.UUID) ([]models.Citizen, error)
	AssignOfficer(ctx context.Context, citizenID, officerID uuid.UUID) error
}

// CaseloadAssigner selects a replacement officer by beat caseload.
type CaseloadAssigner interface {
	AssignByCaseload(ctx context.Context, beatID uuid.UUID, exclude *uuid.UUID) (*models.Officer, error)
}

// Handler runs the leave and transfer cascades.
type Handler struct {
	visits    VisitStore
	officers  OfficerStore
	citizens  CitizenStore
	assigner  CaseloadAssigner
	publisher event.Publisher
	logger    *zap.Logger
}

// NewHandler creates a cascade handler.
func NewHandler(
	visits VisitStore,
	officers OfficerStore,
	citizens CitizenStore,
	assigner CaseloadAssigner,
	publisher event.Publisher,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		visits:    visits,
		officers:  officers,
		citizens:  citizens,
		assigner:  assigner,
		publisher: publisher,
		logger:    logger.Named("cascade"),
	}
}

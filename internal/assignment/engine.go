// Package assignment selects an officer for a citizen or visit from a
// jurisdiction scope, using live workload as the tie-break.
package assignment

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

// OfficerDirectory lists eligible officers in stable fetch order.
type OfficerDirectory interface {
	ActiveByBeat(ctx context.Context, beatID uuid.UUID, exclude *uuid.UUID) ([]models.Officer, error)
	ActiveByStation(ctx context.Context, stationID uuid.UUID, exclude *uuid.UUID) ([]models.Officer, error)
}

// LoadGauge provides the two live load metrics.
type LoadGauge interface {
	WorkloadOf(ctx context.Context, officerID uuid.UUID) (int, error)
	CaseloadOf(ctx context.Context, officerID uuid.UUID) (int, error)
}

// AtomicBeatAssigner runs the beat-scoped candidate read and workload count
// inside one storage transaction with the candidate rows locked, so two
// concurrent assignments cannot act on the same workload snapshot.
type AtomicBeatAssigner interface {
	AssignLeastLoaded(ctx context.Context, beatID uuid.UUID, exclude *uuid.UUID) (*models.Officer, error)
}

// ScopeKey restricts candidate officers to a beat or, failing that, a
// police station. Beat takes precedence when both are supplied.
type ScopeKey struct {
	BeatID          *uuid.UUID
	PoliceStationID *uuid.UUID
}

// Engine assigns officers by least load. "No eligible officer" is a
// business outcome, not an error: AssignOfficer returns nil and the caller
// chooses its policy (flag for manual handling, or cancel).
type Engine struct {
	directory OfficerDirectory
	gauge     LoadGauge
	atomic    AtomicBeatAssigner
	logger    *zap.Logger
}

// NewEngine creates an assignment engine. atomic may be nil; beat-scoped
// assignment then falls back to the unlocked read path.
func NewEngine(directory OfficerDirectory, gauge LoadGauge, atomic AtomicBeatAssigner, logger *zap.Logger) *Engine {
	return &Engine{
		directory: directory,
		gauge:     gauge,
		atomic:    atomic,
		logger:    logger.Named("assignment"),
	}
}

// AssignOfficer picks the active officer in scope with the fewest
// SCHEDULED/IN_PROGRESS visits. Ties go to the first officer in fetch
// order, keeping the choice deterministic for a given data snapshot.
// Returns nil when no candidate exists.
func (e *Engine) AssignOfficer(ctx context.Context, key ScopeKey, exclude *uuid.UUID) (*models.Officer, error) {
	if key.BeatID != nil && e.atomic != nil {
		officer, err := e.atomic.AssignLeastLoaded(ctx, *key.BeatID, exclude)
		return officer, errors.Wrap(err, "failed to assign within beat")
	}

	candidates, err := e.candidates(ctx, key, exclude)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return e.leastLoaded(ctx, candidates, e.gauge.WorkloadOf)
}

// AssignByCaseload picks the active officer in a beat with the smallest
// active-citizen caseload. Used by the transfer cascade, which balances
// standing caseload rather than visiting capacity. Returns nil when no
// candidate exists.
func (e *Engine) AssignByCaseload(ctx context.Context, beatID uuid.UUID, exclude *uuid.UUID) (*models.Officer, error) {
	candidates, err := e.directory.ActiveByBeat(ctx, beatID, exclude)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list candidate officers")
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	return e.leastLoaded(ctx, candidates, e.gauge.CaseloadOf)
}

func (e *Engine) candidates(ctx context.Context, key ScopeKey, exclude *uuid.UUID) ([]models.Officer, error) {
	switch {
	case key.BeatID != nil:
		officers, err := e.directory.ActiveByBeat(ctx, *key.BeatID, exclude)
		return officers, errors.Wrap(err, "failed to list officers by beat")
	case key.PoliceStationID != nil:
		officers, err := e.directory.ActiveByStation(ctx, *key.PoliceStationID, exclude)
		return officers, errors.Wrap(err, "failed to list officers by station")
	}
	return nil, nil
}

func (e *Engine) leastLoaded(ctx context.Context, candidates []models.Officer, loadOf func(context.Context, uuid.UUID) (int, error)) (*models.Officer, error) {
	best := candidates[0]
	bestLoad, err := loadOf(ctx, best.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute officer load")
	}

	for _, candidate := range candidates[1:] {
		load, err := loadOf(ctx, candidate.ID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to compute officer load")
		}
		if load < bestLoad {
			best = candidate
			bestLoad = load
		}
	}

	e.logger.Debug("Selected least loaded officer",
		zap.String("officer_id", best.ID.String()),
		zap.Int("load", bestLoad),
		zap.Int("candidates", len(candidates)))

	return &best, nil
}

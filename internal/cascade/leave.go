package cascade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/event"
)

// LeaveOutcome is the structured result of a leave reassignment. Error
// carries a business reason ("No backup officer available"), not a system
// fault.
type LeaveOutcome struct {
	ReassignedCount int64      `json:"reassigned_count"`
	BackupOfficerID *uuid.UUID `json:"backup_officer_id,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// HandleLeaveReassignment moves the officer's SCHEDULED visits inside
// [start, end] to one backup officer in the same beat. With no affected
// visits the call is a no-op. With no eligible backup the visits are left
// untouched for manual resolution, never cancelled.
func (h *Handler) HandleLeaveReassignment(ctx context.Context, officerID uuid.UUID, start, end time.Time) (LeaveOutcome, error) {
	affected, err := h.visits.ScheduledInRange(ctx, officerID, start, end)
	if err != nil {
		return LeaveOutcome{}, errors.Wrap(err, "failed to list affected visits")
	}
	if len(affected) == 0 {
		return LeaveOutcome{ReassignedCount: 0}, nil
	}

	officer, err := h.officers.Get(ctx, officerID)
	if err != nil {
		return LeaveOutcome{}, errors.Wrap(err, "failed to load leaving officer")
	}
	if officer == nil || officer.BeatID == nil {
		return LeaveOutcome{}, ErrOfficerNotFound
	}

	// First eligible officer wins; leave cover does not rank by workload.
	backup, err := h.officers.FindBackupInBeat(ctx, *officer.BeatID, officerID, start, end)
	if err != nil {
		return LeaveOutcome{}, errors.Wrap(err, "failed to find backup officer")
	}
	if backup == nil {
		h.logger.Warn("No backup officer available for leave reassignment",
			zap.String("officer_id", officerID.String()),
			zap.String("beat_id", officer.BeatID.String()),
			zap.Int("affected_visits", len(affected)))
		return LeaveOutcome{ReassignedCount: 0, Error: NoBackupAvailable}, nil
	}

	visitIDs := make([]uuid.UUID, len(affected))
	for i, visit := range affected {
		visitIDs[i] = visit.ID
	}

	count, err := h.visits.BulkReassign(ctx, visitIDs, backup.ID, "Reassigned due to officer leave")
	if err != nil {
		return LeaveOutcome{}, errors.Wrap(err, "failed to reassign visits")
	}

	h.logger.Info("Visits reassigned due to officer leave",
		zap.String("original_officer_id", officerID.String()),
		zap.String("backup_officer_id", backup.ID.String()),
		zap.Int64("reassigned_count", count),
		zap.Time("leave_start", start),
		zap.Time("leave_end", end))

	h.publisher.PublishOfficerAssigned(ctx, event.OfficerAssigned{
		OfficerID: backup.ID,
		VisitIDs:  visitIDs,
		Reason:    "Leave reassignment",
	})

	return LeaveOutcome{ReassignedCount: count, BackupOfficerID: &backup.ID}, nil
}

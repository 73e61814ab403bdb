package cascade

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

// ReassignmentStatus tags each citizen's outcome during a transfer.
type ReassignmentStatus string

const (
	StatusReassigned    ReassignmentStatus = "REASSIGNED"
	StatusPendingManual ReassignmentStatus = "PENDING_MANUAL_ASSIGNMENT"
)

// CitizenReassignment is one citizen's outcome during a transfer cascade.
type CitizenReassignment struct {
	CitizenID      uuid.UUID          `json:"citizen_id"`
	NewOfficerID   *uuid.UUID         `json:"new_officer_id,omitempty"`
	NewOfficerName string             `json:"new_officer_name,omitempty"`
	Status         ReassignmentStatus `json:"status"`
	Reason         string             `json:"reason,omitempty"`
}

// TransferVisitResult counts how the transferring officer's scheduled
// visits were handled.
type TransferVisitResult struct {
	Reassigned int `json:"reassigned"`
	Cancelled  int `json:"cancelled"`
}

// TransferResult is the combined outcome of an executed transfer.
type TransferResult struct {
	Reassignments []CitizenReassignment `json:"reassignments"`
	Visits        TransferVisitResult   `json:"visits"`
}

// TransferPreview reports the impact of a transfer without mutating
// anything, so an operator can confirm before committing.
type TransferPreview struct {
	CurrentBeatID            uuid.UUID        `json:"current_beat_id"`
	CitizenCount             int              `json:"citizen_count"`
	ScheduledVisitCount      int              `json:"scheduled_visit_count"`
	BackupAvailableInOldBeat bool             `json:"backup_available_in_old_beat"`
	OfficersInNewBeat        int              `json:"officers_in_new_beat"`
	CanReassignCitizens      bool             `json:"can_reassign_citizens"`
	Citizens                 []models.Citizen `json:"citizens"`
	ScheduledVisits          []models.Visit   `json:"scheduled_visits"`
}

// ReassignCitizens attempts a beat-scoped, caseload-weighted assignment for
// each citizen the transferring officer served. Citizens with no available
// replacement are tagged for manual assignment, never dropped.
func (h *Handler) ReassignCitizens(ctx context.Context, citizenIDs []uuid.UUID, beatID, excludeOfficerID uuid.UUID) ([]CitizenReassignment, error) {
	results := make([]CitizenReassignment, 0, len(citizenIDs))

	for _, citizenID := range citizenIDs {
		newOfficer, err := h.assigner.AssignByCaseload(ctx, beatID, &excludeOfficerID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to select replacement officer")
		}

		if newOfficer == nil {
			results = append(results, CitizenReassignment{
				CitizenID: citizenID,
				Status:    StatusPendingManual,
				Reason:    "No available officers in beat",
			})
			h.logger.Warn("Citizen requires manual assignment, no officers available",
				zap.String("citizen_id", citizenID.String()),
				zap.String("beat_id", beatID.String()),
				zap.String("from_officer_id", excludeOfficerID.String()))
			continue
		}

		if err := h.citizens.AssignOfficer(ctx, citizenID, newOfficer.ID); err != nil {
			return nil, errors.Wrap(err, "failed to record citizen reassignment")
		}

		results = append(results, CitizenReassignment{
			CitizenID:      citizenID,
			NewOfficerID:   &newOfficer.ID,
			NewOfficerName: newOfficer.Name,
			Status:         StatusReassigned,
		})
		h.logger.Info("Citizen reassigned during officer transfer",
			zap.String("citizen_id", citizenID.String()),
			zap.String("from_officer_id", excludeOfficerID.String()),
			zap.String("to_officer_id", newOfficer.ID.String()),
			zap.String("beat_id", beatID.String()))
	}

	return results, nil
}

// HandleTransferVisits follows each scheduled visit to its citizen's
// outcome: reassigned citizens keep their visits under the new officer,
// visits of unassignable citizens are cancelled by the system. A failed
// update is logged and skipped; completed updates are not rolled back.
func (h *Handler) HandleTransferVisits(ctx context.Context, scheduledVisits []models.Visit, reassignments []CitizenReassignment) TransferVisitResult {
	byCitizen := make(map[uuid.UUID]CitizenReassignment, len(reassignments))
	for _, r := range reassignments {
		byCitizen[r.CitizenID] = r
	}

	var result TransferVisitResult
	for _, visit := range scheduledVisits {
		reassignment, ok := byCitizen[visit.CitizenID]

		if ok && reassignment.Status == StatusReassigned && reassignment.NewOfficerID != nil {
			note := "[AUTO-REASSIGNED] Officer transferred, visit reassigned to " + reassignment.NewOfficerName
			if err := h.visits.Reassign(ctx, visit.ID, *reassignment.NewOfficerID, note); err != nil {
				h.logger.Error("Failed to reassign visit during transfer",
					zap.String("visit_id", visit.ID.String()),
					zap.Error(err))
				continue
			}
			result.Reassigned++
			h.logger.Info("Visit reassigned due to officer transfer",
				zap.String("visit_id", visit.ID.String()),
				zap.String("new_officer_id", reassignment.NewOfficerID.String()))
			continue
		}

		reason := "[CANCELLED] Officer transferred, no replacement available in beat"
		if err := h.visits.CancelBySystem(ctx, visit.ID, reason); err != nil {
			h.logger.Error("Failed to cancel visit during transfer",
				zap.String("visit_id", visit.ID.String()),
				zap.Error(err))
			continue
		}
		result.Cancelled++
		h.logger.Warn("Visit cancelled, officer transferred with no replacement",
			zap.String("visit_id", visit.ID.String()),
			zap.String("citizen_id", visit.CitizenID.String()))
	}

	return result
}

// HandleOfficerTransfer runs the full transfer cascade for an officer
// leaving their beat: reassign their beat's citizens, then follow the
// scheduled visits. The officer's own jurisdiction mutation is the admin
// workflow's responsibility.
func (h *Handler) HandleOfficerTransfer(ctx context.Context, officerID uuid.UUID) (*TransferResult, error) {
	officer, err := h.officers.Get(ctx, officerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load transferring officer")
	}
	if officer == nil || officer.BeatID == nil {
		return nil, ErrOfficerNotFound
	}

	citizens, err := h.citizens.ActiveByBeat(ctx, *officer.BeatID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list citizens in beat")
	}

	citizenIDs := make([]uuid.UUID, len(citizens))
	for i, c := range citizens {
		citizenIDs[i] = c.ID
	}

	reassignments, err := h.ReassignCitizens(ctx, citizenIDs, *officer.BeatID, officerID)
	if err != nil {
		return nil, err
	}

	scheduled, err := h.visits.ScheduledByOfficer(ctx, officerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scheduled visits")
	}

	visitResult := h.HandleTransferVisits(ctx, scheduled, reassignments)

	return &TransferResult{
		Reassignments: reassignments,
		Visits:        visitResult,
	}, nil
}

// PreviewTransfer performs the same discovery as HandleOfficerTransfer
// without mutating anything.
func (h *Handler) PreviewTransfer(ctx context.Context, officerID, newBeatID uuid.UUID) (*TransferPreview, error) {
	officer, err := h.officers.Get(ctx, officerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load officer")
	}
	if officer == nil || officer.BeatID == nil {
		return nil, ErrOfficerNotFound
	}

	citizens, err := h.citizens.ActiveByBeat(ctx, *officer.BeatID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list citizens in beat")
	}

	scheduled, err := h.visits.ScheduledByOfficer(ctx, officerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list scheduled visits")
	}

	backup, err := h.assigner.AssignByCaseload(ctx, *officer.BeatID, &officerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to check backup availability")
	}

	newBeatOfficers, err := h.officers.CountActiveInBeat(ctx, newBeatID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count officers in new beat")
	}

	return &TransferPreview{
		CurrentBeatID:            *officer.BeatID,
		CitizenCount:             len(citizens),
		ScheduledVisitCount:      len(scheduled),
		BackupAvailableInOldBeat: backup != nil,
		OfficersInNewBeat:        newBeatOfficers,
		CanReassignCitizens:      backup != nil,
		Citizens:                 citizens,
		ScheduledVisits:          scheduled,
	}, nil
}

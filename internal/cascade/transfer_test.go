package cascade

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

func TestReassignCitizensTagsUnassignableForManualHandling(t *testing.T) {
	beatID := uuid.New()
	leaving := beatOfficer(beatID)
	citizens := &fakeCitizenStore{}

	h := NewHandler(newFakeVisitStore(),
		&fakeOfficerStore{officers: map[uuid.UUID]*models.Officer{leaving.ID: leaving}},
		citizens, &fakeAssigner{replacement: nil}, &recordingPublisher{}, zap.NewNop())

	citizenID := uuid.New()
	results, err := h.ReassignCitizens(context.Background(), []uuid.UUID{citizenID}, beatID, leaving.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusPendingManual, results[0].Status)
	assert.Equal(t, "No available officers in beat", results[0].Reason)
	assert.Nil(t, results[0].NewOfficerID)
	assert.Empty(t, citizens.assigned)
}

func TestReassignCitizensRecordsNewOfficer(t *testing.T) {
	beatID := uuid.New()
	leaving := beatOfficer(beatID)
	replacement := beatOfficer(beatID)
	citizens := &fakeCitizenStore{}

	h := NewHandler(newFakeVisitStore(),
		&fakeOfficerStore{officers: map[uuid.UUID]*models.Officer{leaving.ID: leaving}},
		citizens, &fakeAssigner{replacement: replacement}, &recordingPublisher{}, zap.NewNop())

	citizenID := uuid.New()
	results, err := h.ReassignCitizens(context.Background(), []uuid.UUID{citizenID}, beatID, leaving.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusReassigned, results[0].Status)
	require.NotNil(t, results[0].NewOfficerID)
	assert.Equal(t, replacement.ID, *results[0].NewOfficerID)
	assert.Equal(t, replacement.ID, citizens.assigned[citizenID])
}

func TestHandleTransferVisitsFollowsCitizenOutcome(t *testing.T) {
	beatID := uuid.New()
	leaving := beatOfficer(beatID)
	replacement := beatOfficer(beatID)

	reassignedCitizen := uuid.New()
	strandedCitizen := uuid.New()
	kept := scheduledVisit(leaving.ID, reassignedCitizen, time.Now().AddDate(0, 0, 1))
	dropped := scheduledVisit(leaving.ID, strandedCitizen, time.Now().AddDate(0, 0, 2))
	visits := newFakeVisitStore(kept, dropped)

	h := NewHandler(visits,
		&fakeOfficerStore{officers: map[uuid.UUID]*models.Officer{leaving.ID: leaving}},
		&fakeCitizenStore{}, &fakeAssigner{}, &recordingPublisher{}, zap.NewNop())

	result := h.HandleTransferVisits(context.Background(),
		[]models.Visit{kept, dropped},
		[]CitizenReassignment{
			{CitizenID: reassignedCitizen, NewOfficerID: &replacement.ID, NewOfficerName: replacement.Name, Status: StatusReassigned},
			{CitizenID: strandedCitizen, Status: StatusPendingManual},
		})

	assert.Equal(t, 1, result.Reassigned)
	assert.Equal(t, 1, result.Cancelled)
	assert.Equal(t, replacement.ID, visits.reassigned[kept.ID])
	assert.Contains(t, visits.cancelled, dropped.ID)

	// Notes carry the audit trail markers.
	joined := strings.Join(visits.notes, "\n")
	assert.Contains(t, joined, "[AUTO-REASSIGNED]")
	assert.Contains(t, joined, "[CANCELLED]")
}

func TestHandleOfficerTransferFullCascade(t *testing.T) {
	beatID := uuid.New()
	leaving := beatOfficer(beatID)
	replacement := beatOfficer(beatID)

	citizen := models.Citizen{ID: uuid.New(), FullName: "resident", IsActive: true}
	visit := scheduledVisit(leaving.ID, citizen.ID, time.Now().AddDate(0, 0, 1))
	visits := newFakeVisitStore(visit)
	citizens := &fakeCitizenStore{byBeat: map[uuid.UUID][]models.Citizen{beatID: {citizen}}}

	h := NewHandler(visits,
		&fakeOfficerStore{officers: map[uuid.UUID]*models.Officer{leaving.ID: leaving}},
		citizens, &fakeAssigner{replacement: replacement}, &recordingPublisher{}, zap.NewNop())

	result, err := h.HandleOfficerTransfer(context.Background(), leaving.ID)
	require.NoError(t, err)
	require.Len(t, result.Reassignments, 1)
	assert.Equal(t, StatusReassigned, result.Reassignments[0].Status)
	assert.Equal(t, 1, result.Visits.Reassigned)
	assert.Equal(t, 0, result.Visits.Cancelled)
	assert.Equal(t, replacement.ID, citizens.assigned[citizen.ID])
	assert.Equal(t, replacement.ID, visits.reassigned[visit.ID])
}

func TestPreviewTransferDoesNotMutate(t *testing.T) {
	beatID := uuid.New()
	newBeatID := uuid.New()
	leaving := beatOfficer(beatID)
	replacement := beatOfficer(beatID)

	citizen := models.Citizen{ID: uuid.New(), FullName: "resident", IsActive: true}
	visit := scheduledVisit(leaving.ID, citizen.ID, time.Now().AddDate(0, 0, 1))
	visits := newFakeVisitStore(visit)
	citizens := &fakeCitizenStore{byBeat: map[uuid.UUID][]models.Citizen{beatID: {citizen}}}

	h := NewHandler(visits,
		&fakeOfficerStore{officers: map[uuid.UUID]*models.Officer{leaving.ID: leaving}},
		citizens, &fakeAssigner{replacement: replacement}, &recordingPublisher{}, zap.NewNop())

	preview, err := h.PreviewTransfer(context.Background(), leaving.ID, newBeatID)
	require.NoError(t, err)
	assert.Equal(t, beatID, preview.CurrentBeatID)
	assert.Equal(t, 1, preview.CitizenCount)
	assert.Equal(t, 1, preview.ScheduledVisitCount)
	assert.True(t, preview.CanReassignCitizens)

	// Nothing moved.
	assert.Empty(t, visits.reassigned)
	assert.Empty(t, visits.cancelled)
	assert.Empty(t, citizens.assigned)
}

func TestHandleOfficerTransferUnknownOfficer(t *testing.T) {
	h := NewHandler(newFakeVisitStore(),
		&fakeOfficerStore{officers: map[uuid.UUID]*models.Officer{}},
		&fakeCitizenStore{}, &fakeAssigner{}, &recordingPublisher{}, zap.NewNop())

	_, err := h.HandleOfficerTransfer(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOfficerNotFound)
}

package scope

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

type fakeRoleStore struct {
	levels map[string]models.JurisdictionLevel
	err    error
	calls  int
}

func (f *fakeRoleStore) JurisdictionLevel(_ context.Context, roleCode string) (models.JurisdictionLevel, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	level, ok := f.levels[roleCode]
	return level, ok, nil
}

type fakeOfficerReader struct {
	officers map[uuid.UUID]*models.Officer
}

func (f *fakeOfficerReader) Get(_ context.Context, id uuid.UUID) (*models.Officer, error) {
	return f.officers[id], nil
}

func newTestResolver(roles *fakeRoleStore, officers *fakeOfficerReader) *Resolver {
	return NewResolver(roles, officers, time.Minute, zap.NewNop())
}

func TestResolveEmptyRoleFailsClosed(t *testing.T) {
	r := newTestResolver(&fakeRoleStore{}, &fakeOfficerReader{})

	s, err := r.Resolve(context.Background(), "", nil)
	require.NoError(t, err)
	assert.True(t, s.MatchesNothing())
}

func TestResolveUnconfiguredRoleFailsClosed(t *testing.T) {
	r := newTestResolver(&fakeRoleStore{levels: map[string]models.JurisdictionLevel{}}, &fakeOfficerReader{})

	s, err := r.Resolve(context.Background(), "UNKNOWN_ROLE", nil)
	require.NoError(t, err)
	assert.True(t, s.MatchesNothing())
}

func TestResolveStateLevelIsUnrestricted(t *testing.T) {
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		"DGP": models.LevelState,
	}}
	r := newTestResolver(roles, &fakeOfficerReader{})

	s, err := r.Resolve(context.Background(), "DGP", nil)
	require.NoError(t, err)
	assert.True(t, s.IsUnrestricted())
	assert.False(t, s.MatchesNothing())
}

func TestResolveCitizenRoleNeverGetsScope(t *testing.T) {
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		CitizenRole: models.LevelBeat,
	}}
	r := newTestResolver(roles, &fakeOfficerReader{})

	officerID := uuid.New()
	s, err := r.Resolve(context.Background(), CitizenRole, &officerID)
	require.NoError(t, err)
	assert.True(t, s.MatchesNothing())
}

func TestResolveBeatOfficerGetsBeatScope(t *testing.T) {
	beatID := uuid.New()
	officerID := uuid.New()
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		"BEAT_OFFICER": models.LevelBeat,
	}}
	officers := &fakeOfficerReader{officers: map[uuid.UUID]*models.Officer{
		officerID: {
			ID:               officerID,
			IsActive:         true,
			JurisdictionTags: models.JurisdictionTags{BeatID: &beatID},
		},
	}}
	r := newTestResolver(roles, officers)

	s, err := r.Resolve(context.Background(), "BEAT_OFFICER", &officerID)
	require.NoError(t, err)
	assert.Equal(t, models.LevelBeat, s.Level)

	id, scoped := s.ScopedID()
	assert.True(t, scoped)
	assert.Equal(t, beatID, id)
	assert.False(t, s.MatchesNothing())
}

func TestResolveMissingTagYieldsSentinel(t *testing.T) {
	officerID := uuid.New()
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		"BEAT_OFFICER": models.LevelBeat,
	}}
	officers := &fakeOfficerReader{officers: map[uuid.UUID]*models.Officer{
		officerID: {ID: officerID, IsActive: true},
	}}
	r := newTestResolver(roles, officers)

	s, err := r.Resolve(context.Background(), "BEAT_OFFICER", &officerID)
	require.NoError(t, err)

	id, scoped := s.ScopedID()
	assert.True(t, scoped)
	assert.Equal(t, SentinelID, id)
	assert.True(t, s.MatchesNothing())
}

func TestResolveMissingOfficerProfileIsFatal(t *testing.T) {
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		"BEAT_OFFICER": models.LevelBeat,
	}}
	r := newTestResolver(roles, &fakeOfficerReader{})

	officerID := uuid.New()
	_, err := r.Resolve(context.Background(), "BEAT_OFFICER", &officerID)
	assert.ErrorIs(t, err, ErrOfficerProfileNotFound)
}

func TestResolveNilOfficerIDFailsClosed(t *testing.T) {
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		"SHO": models.LevelPoliceStation,
	}}
	r := newTestResolver(roles, &fakeOfficerReader{})

	s, err := r.Resolve(context.Background(), "SHO", nil)
	require.NoError(t, err)
	assert.True(t, s.MatchesNothing())
}

func TestResolveCachesRoleLevel(t *testing.T) {
	roles := &fakeRoleStore{levels: map[string]models.JurisdictionLevel{
		"DGP": models.LevelAll,
	}}
	r := newTestResolver(roles, &fakeOfficerReader{})

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "DGP", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, roles.calls)
}

func TestResolveRoleStoreErrorPropagates(t *testing.T) {
	roles := &fakeRoleStore{err: errors.New("db down")}
	r := newTestResolver(roles, &fakeOfficerReader{})

	_, err := r.Resolve(context.Background(), "DGP", nil)
	assert.Error(t, err)
}

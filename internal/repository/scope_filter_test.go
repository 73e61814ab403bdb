package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visitation-service/internal/models"
	"visitation-service/internal/scope"
)

func TestScopeConditionUnrestricted(t *testing.T) {
	clause, args := scopeCondition(scope.Unrestricted(), "c")
	assert.Equal(t, "TRUE", clause)
	assert.Empty(t, args)
}

func TestScopeConditionRestrictedRendersFalse(t *testing.T) {
	clause, args := scopeCondition(scope.Restricted(), "c")
	assert.Equal(t, "FALSE", clause)
	assert.Empty(t, args)
}

func TestScopeConditionSentinelRendersFalse(t *testing.T) {
	sentinel := scope.SentinelID
	s := scope.Scope{
		Level: models.LevelBeat,
		IDs:   models.JurisdictionTags{BeatID: &sentinel},
	}

	clause, args := scopeCondition(s, "c")
	assert.Equal(t, "FALSE", clause)
	assert.Empty(t, args)
}

func TestScopeConditionFiltersByLevelColumn(t *testing.T) {
	districtID := uuid.New()
	s := scope.Scope{
		Level: models.LevelDistrict,
		IDs:   models.JurisdictionTags{DistrictID: &districtID},
	}

	clause, args := scopeCondition(s, "o")
	assert.Equal(t, "o.district_id = ?", clause)
	require.Len(t, args, 1)
	assert.Equal(t, districtID, args[0])
}

func TestPrefixColumns(t *testing.T) {
	got := prefixColumns("v", "id, citizen_id,\n\tstatus")
	assert.Equal(t, "v.id, v.citizen_id, v.status", got)
}

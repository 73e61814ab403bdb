package scope

import (
	"github.com/google/uuid"

	"visitation-service/internal/models"
)

// SentinelID is substituted when a scoped actor is missing the jurisdiction
// tag their level requires. No persisted row ever carries the nil UUID, so a
// sentinel-scoped query matches nothing. Failing closed here is deliberate:
// a beat-level officer with no beat sees nothing, not everything.
var SentinelID = uuid.Nil

// Scope is the single jurisdiction level and id-set an actor may see and
// operate on. Every listing or aggregating query must intersect its filter
// with the actor's scope; scope is never optional for a scoped operation.
type Scope struct {
	Level models.JurisdictionLevel `json:"level"`
	IDs   models.JurisdictionTags  `json:"jurisdiction_ids"`
}

// Unrestricted returns the scope for ALL/STATE level roles.
func Unrestricted() Scope {
	return Scope{Level: models.LevelAll}
}

// Restricted returns the most restrictive scope: beat level with no ids,
// which matches no records.
func Restricted() Scope {
	return Scope{Level: models.LevelBeat}
}

// IsUnrestricted reports whether the scope imposes no filter.
func (s Scope) IsUnrestricted() bool {
	return s.Level == models.LevelAll || s.Level == models.LevelState
}

// ScopedID returns the id the scope filters on at its level. The second
// return is false when the scope is unrestricted.
func (s Scope) ScopedID() (uuid.UUID, bool) {
	if s.IsUnrestricted() {
		return uuid.Nil, false
	}
	var id *uuid.UUID
	switch s.Level {
	case models.LevelRange:
		id = s.IDs.RangeID
	case models.LevelDistrict:
		id = s.IDs.DistrictID
	case models.LevelSubDivision:
		id = s.IDs.SubDivisionID
	case models.LevelPoliceStation:
		id = s.IDs.PoliceStationID
	case models.LevelBeat:
		id = s.IDs.BeatID
	}
	if id == nil {
		return SentinelID, true
	}
	return *id, true
}

// MatchesNothing reports whether the scope can never match a record, either
// because the required tag is absent or because it holds the sentinel id.
func (s Scope) MatchesNothing() bool {
	if s.IsUnrestricted() {
		return false
	}
	id, _ := s.ScopedID()
	return id == SentinelID
}

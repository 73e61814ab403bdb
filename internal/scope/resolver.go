package scope

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/models"
)

// ErrOfficerProfileNotFound is returned when a role requires an officer
// profile and the referenced officer does not exist. Fatal for the request,
// not retried.
var ErrOfficerProfileNotFound = errors.New("officer profile not found")

// CitizenRole is the role code for beneficiaries; it never grants data scope.
const CitizenRole = "CITIZEN"

// RoleConfigStore reads the runtime role -> jurisdiction level mapping.
type RoleConfigStore interface {
	// JurisdictionLevel returns the configured level for a role code. The
	// boolean is false when the role is unconfigured.
	JurisdictionLevel(ctx context.Context, roleCode string) (models.JurisdictionLevel, bool, error)
}

// OfficerReader loads officer profiles for scope resolution.
type OfficerReader interface {
	// Get returns the officer or nil when absent.
	Get(ctx context.Context, id uuid.UUID) (*models.Officer, error)
}

// Resolver computes the data scope for an actor. Role configuration is read
// through a short-TTL cache so runtime changes surface quickly without a
// database round trip on every request.
type Resolver struct {
	roles    RoleConfigStore
	officers OfficerReader
	cache    *gocache.Cache
	logger   *zap.Logger
}

type cachedLevel struct {
	level models.JurisdictionLevel
	found bool
}

// NewResolver creates a scope resolver.
func NewResolver(roles RoleConfigStore, officers OfficerReader, roleConfigTTL time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		roles:    roles,
		officers: officers,
		cache:    gocache.New(roleConfigTTL, 2*roleConfigTTL),
		logger:   logger.Named("scope"),
	}
}

// Resolve computes the scope for an actor. Unconfigured roles, citizen
// roles, NONE levels and actors without the required jurisdiction tag all
// resolve to a scope that matches nothing; only a role-configured actor with
// a missing officer profile is an error.
func (r *Resolver) Resolve(ctx context.Context, actorRole string, actorOfficerID *uuid.UUID) (Scope, error) {
	if actorRole == "" {
		return Restricted(), nil
	}

	level, found, err := r.roleLevel(ctx, actorRole)
	if err != nil {
		return Scope{}, errors.Wrap(err, "failed to read role configuration")
	}
	if !found {
		r.logger.Debug("Role has no jurisdiction configuration, failing closed",
			zap.String("role", actorRole))
		return Restricted(), nil
	}

	if level == models.LevelAll || level == models.LevelState {
		return Unrestricted(), nil
	}

	if actorRole == CitizenRole || level == models.LevelNone {
		return Restricted(), nil
	}

	if actorOfficerID == nil {
		// Role operates at an officer level but the actor carries no
		// officer reference at all.
		return Restricted(), nil
	}

	officer, err := r.officers.Get(ctx, *actorOfficerID)
	if err != nil {
		return Scope{}, errors.Wrap(err, "failed to load officer profile")
	}
	if officer == nil {
		return Scope{}, ErrOfficerProfileNotFound
	}

	return scopeForOfficer(level, officer), nil
}

// scopeForOfficer maps the configured level onto the officer's jurisdiction
// tags. A missing tag yields the sentinel id at that level, never a wider
// scope.
func scopeForOfficer(level models.JurisdictionLevel, officer *models.Officer) Scope {
	s := Scope{Level: level}
	sentinel := SentinelID

	switch level {
	case models.LevelRange:
		s.IDs.RangeID = orSentinel(officer.RangeID, &sentinel)
	case models.LevelDistrict:
		s.IDs.DistrictID = orSentinel(officer.DistrictID, &sentinel)
	case models.LevelSubDivision:
		s.IDs.SubDivisionID = orSentinel(officer.SubDivisionID, &sentinel)
	case models.LevelPoliceStation:
		s.IDs.PoliceStationID = orSentinel(officer.PoliceStationID, &sentinel)
	case models.LevelBeat:
		s.IDs.BeatID = orSentinel(officer.BeatID, &sentinel)
	default:
		// Unknown level in configuration: minimal access.
		return Restricted()
	}

	return s
}

func orSentinel(id, sentinel *uuid.UUID) *uuid.UUID {
	if id != nil {
		return id
	}
	return sentinel
}

// roleLevel reads the role level through the TTL cache.
func (r *Resolver) roleLevel(ctx context.Context, roleCode string) (models.JurisdictionLevel, bool, error) {
	if entry, ok := r.cache.Get(roleCode); ok {
		cached := entry.(cachedLevel)
		return cached.level, cached.found, nil
	}

	level, found, err := r.roles.JurisdictionLevel(ctx, roleCode)
	if err != nil {
		return "", false, err
	}

	r.cache.SetDefault(roleCode, cachedLevel{level: level, found: found})
	return level, found, nil
}

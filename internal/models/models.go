package models

import (
	"time"

	"github.com/google/uuid"
)

// JurisdictionLevel identifies one level of the policing hierarchy, from the
// whole state down to a single beat. NONE is a configured "no data access"
// level, distinct from an unconfigured role.
type JurisdictionLevel string

const (
	LevelAll           JurisdictionLevel = "ALL"
	LevelState         JurisdictionLevel = "STATE"
	LevelRange         JurisdictionLevel = "RANGE"
	LevelDistrict      JurisdictionLevel = "DISTRICT"
	LevelSubDivision   JurisdictionLevel = "SUBDIVISION"
	LevelPoliceStation JurisdictionLevel = "POLICE_STATION"
	LevelBeat          JurisdictionLevel = "BEAT"
	LevelNone          JurisdictionLevel = "NONE"
)

// VisitStatus is the lifecycle state of a visit. Transitions are monotonic
// except for CANCELLED, which is reachable from any non-terminal state.
type VisitStatus string

const (
	VisitScheduled  VisitStatus = "SCHEDULED"
	VisitInProgress VisitStatus = "IN_PROGRESS"
	VisitCompleted  VisitStatus = "COMPLETED"
	VisitCancelled  VisitStatus = "CANCELLED"
)

// IsTerminal reports whether the status admits no further transitions.
func (s VisitStatus) IsTerminal() bool {
	return s == VisitCompleted || s == VisitCancelled
}

// CanTransitionTo reports whether a status change is legal.
func (s VisitStatus) CanTransitionTo(next VisitStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == VisitCancelled {
		return true
	}
	switch s {
	case VisitScheduled:
		return next == VisitInProgress
	case VisitInProgress:
		return next == VisitCompleted
	}
	return false
}

// VisitType categorizes the purpose of a visit.
type VisitType string

const (
	VisitTypeRoutine        VisitType = "ROUTINE"
	VisitTypeVerification   VisitType = "VERIFICATION"
	VisitTypeReverification VisitType = "RE_VERIFICATION"
	VisitTypeEmergency      VisitType = "EMERGENCY"
	VisitTypeFollowUp       VisitType = "FOLLOW_UP"
)

// LeaveStatus is the approval state of an officer leave request.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "PENDING"
	LeaveApproved  LeaveStatus = "APPROVED"
	LeaveRejected  LeaveStatus = "REJECTED"
	LeaveCancelled LeaveStatus = "CANCELLED"
)

// AlertStatus is the lifecycle state of an emergency alert.
type AlertStatus string

const (
	AlertActive    AlertStatus = "ACTIVE"
	AlertResponded AlertStatus = "RESPONDED"
	AlertResolved  AlertStatus = "RESOLVED"
)

// Severity grades an SLA breach.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
)

// VerificationStatus tracks identity verification of a citizen.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// JurisdictionTags are the hierarchy node ids an officer or citizen belongs
// to, populated top-down to the actual assignment depth. Any tag may be nil.
type JurisdictionTags struct {
	RangeID         *uuid.UUID `json:"range_id,omitempty" db:"range_id"`
	DistrictID      *uuid.UUID `json:"district_id,omitempty" db:"district_id"`
	SubDivisionID   *uuid.UUID `json:"sub_division_id,omitempty" db:"sub_division_id"`
	PoliceStationID *uuid.UUID `json:"police_station_id,omitempty" db:"police_station_id"`
	BeatID          *uuid.UUID `json:"beat_id,omitempty" db:"beat_id"`
}

// Officer is a field officer. Officers are deactivated on separation, never
// deleted; jurisdiction tags are mutated on transfer.
type Officer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name" validate:"required,min=1,max=255"`
	Rank      string    `json:"rank" db:"rank"`
	Role      string    `json:"role" db:"role"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	JurisdictionTags
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Citizen is a program beneficiary.
type Citizen struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	FullName           string             `json:"full_name" db:"full_name" validate:"required,min=1,max=255"`
	IsActive           bool               `json:"is_active" db:"is_active"`
	VerificationStatus VerificationStatus `json:"verification_status" db:"verification_status"`
	AssignedOfficerID  *uuid.UUID         `json:"assigned_officer_id,omitempty" db:"assigned_officer_id"`
	JurisdictionTags
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DefaultVisitDurationMinutes applies when a visit has no explicit duration.
const DefaultVisitDurationMinutes = 30

// Visit is a scheduled call on a citizen by exactly one officer.
type Visit struct {
	ID              uuid.UUID   `json:"id" db:"id"`
	CitizenID       uuid.UUID   `json:"citizen_id" db:"citizen_id" validate:"required"`
	OfficerID       uuid.UUID   `json:"officer_id" db:"officer_id" validate:"required"`
	ScheduledDate   time.Time   `json:"scheduled_date" db:"scheduled_date" validate:"required"`
	DurationMinutes *int        `json:"duration_minutes,omitempty" db:"duration_minutes"`
	Status          VisitStatus `json:"status" db:"status"`
	VisitType       VisitType   `json:"visit_type" db:"visit_type"`
	Priority        string      `json:"priority" db:"priority"`
	Notes           *string     `json:"notes,omitempty" db:"notes"`
	CancelledAt     *time.Time  `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancelledBy     *string     `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// Duration returns the visit duration, defaulting when unset.
func (v Visit) Duration() time.Duration {
	minutes := DefaultVisitDurationMinutes
	if v.DurationMinutes != nil && *v.DurationMinutes > 0 {
		minutes = *v.DurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// Interval returns the half-open [start, end) window the visit occupies.
func (v Visit) Interval() (time.Time, time.Time) {
	return v.ScheduledDate, v.ScheduledDate.Add(v.Duration())
}

// Leave is an officer leave request. End must be after start; overlapping
// PENDING/APPROVED leaves for one officer are rejected at creation.
type Leave struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	OfficerID  uuid.UUID   `json:"officer_id" db:"officer_id" validate:"required"`
	StartDate  time.Time   `json:"start_date" db:"start_date" validate:"required"`
	EndDate    time.Time   `json:"end_date" db:"end_date" validate:"required"`
	Status     LeaveStatus `json:"status" db:"status"`
	Reason     *string     `json:"reason,omitempty" db:"reason"`
	ApprovedBy *uuid.UUID  `json:"approved_by,omitempty" db:"approved_by"`
	RejectedBy *uuid.UUID  `json:"rejected_by,omitempty" db:"rejected_by"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// SOSAlert is an emergency alert raised by or for a citizen.
type SOSAlert struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	CitizenID   uuid.UUID   `json:"citizen_id" db:"citizen_id"`
	Status      AlertStatus `json:"status" db:"status"`
	RespondedAt *time.Time  `json:"responded_at,omitempty" db:"responded_at"`
	ResolvedAt  *time.Time  `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
}

// RoleConfig maps a role code to the jurisdiction level it operates at. The
// mapping is runtime configuration, not compiled in.
type RoleConfig struct {
	Code              string            `json:"code" db:"code"`
	JurisdictionLevel JurisdictionLevel `json:"jurisdiction_level" db:"jurisdiction_level"`
}

// SLABreachType names the commitment that was missed.
type SLABreachType string

const (
	BreachSOSResponse       SLABreachType = "SOS_RESPONSE"
	BreachSOSResolution     SLABreachType = "SOS_RESOLUTION"
	BreachVerificationVisit SLABreachType = "VERIFICATION_VISIT"
	BreachRoutineVisit      SLABreachType = "ROUTINE_VISIT"
)

// SLABreach is produced fresh on each sweep; it is derived state, not a
// persisted entity.
type SLABreach struct {
	Type            SLABreachType `json:"type"`
	EntityID        uuid.UUID     `json:"entity_id"`
	ExpectedBy      time.Time     `json:"expected_by"`
	BreachDuration  int           `json:"breach_duration_minutes"`
	Severity        Severity      `json:"severity"`
}

// BeatPath is the fully resolved ancestor chain of a beat.
type BeatPath struct {
	BeatID          uuid.UUID `json:"beat_id" db:"beat_id"`
	PoliceStationID uuid.UUID `json:"police_station_id" db:"police_station_id"`
	SubDivisionID   uuid.UUID `json:"sub_division_id" db:"sub_division_id"`
	DistrictID      uuid.UUID `json:"district_id" db:"district_id"`
	RangeID         uuid.UUID `json:"range_id" db:"range_id"`
}

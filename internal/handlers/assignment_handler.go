package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"visitation-service/internal/assignment"
	"visitation-service/internal/metrics"
	"visitation-service/internal/schedule"
)

// AssignmentHandler serves officer selection and schedule queries.
type AssignmentHandler struct {
	engine   *assignment.Engine
	detector *schedule.Detector
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewAssignmentHandler creates a new assignment handler
func NewAssignmentHandler(engine *assignment.Engine, detector *schedule.Detector, collector *metrics.Collector, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		engine:   engine,
		detector: detector,
		metrics:  collector,
		logger:   logger.Named("assignment_handler"),
	}
}

// SelectOfficerRequest asks for the least loaded officer in a beat or, when
// no beat is given, a police station.
type SelectOfficerRequest struct {
	BeatID           *uuid.UUID `json:"beat_id"`
	PoliceStationID  *uuid.UUID `json:"police_station_id"`
	ExcludeOfficerID *uuid.UUID `json:"exclude_officer_id"`
}

// SelectOfficer picks the least loaded active officer in scope. A request
// with no eligible candidates returns 200 with assigned=false; the caller
// decides what to do with an unassignable citizen.
func (h *AssignmentHandler) SelectOfficer(c *gin.Context) {
	var req SelectOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if req.BeatID == nil && req.PoliceStationID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "beat_id or police_station_id is required"})
		return
	}

	pool := "police_station"
	if req.BeatID != nil {
		pool = "beat"
	}

	officer, err := h.engine.AssignOfficer(c.Request.Context(), assignment.ScopeKey{
		BeatID:          req.BeatID,
		PoliceStationID: req.PoliceStationID,
	}, req.ExcludeOfficerID)
	if err != nil {
		h.logger.Error("Officer selection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to select officer"})
		return
	}

	h.metrics.RecordAssignment(pool, officer != nil)
	if officer == nil {
		c.JSON(http.StatusOK, gin.H{"assigned": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assigned": true, "officer": officer})
}

// CheckConflictRequest proposes a visit slot for an officer.
type CheckConflictRequest struct {
	OfficerID       uuid.UUID  `json:"officer_id" binding:"required"`
	ScheduledDate   time.Time  `json:"scheduled_date" binding:"required"`
	DurationMinutes int        `json:"duration_minutes"`
	ExcludeVisitID  *uuid.UUID `json:"exclude_visit_id"`
}

// CheckConflict reports every existing visit overlapping the proposed slot.
func (h *AssignmentHandler) CheckConflict(c *gin.Context) {
	var req CheckConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	result, err := h.detector.HasConflict(c.Request.Context(), req.OfficerID,
		req.ScheduledDate, req.DurationMinutes, req.ExcludeVisitID)
	if err != nil {
		h.logger.Error("Conflict check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check conflicts"})
		return
	}

	h.metrics.RecordConflictCheck(result.HasConflict)
	c.JSON(http.StatusOK, result)
}

// GetSchedule returns an officer's active visits in a date range. Defaults
// to the next seven days.
func (h *AssignmentHandler) GetSchedule(c *gin.Context) {
	officerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid officer ID"})
		return
	}

	from := time.Now()
	to := from.AddDate(0, 0, 7)
	if raw := c.Query("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
			return
		}
	}

	visits, err := h.detector.OfficerSchedule(c.Request.Context(), officerID, from, to)
	if err != nil {
		h.logger.Error("Schedule lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"officer_id": officerID, "visits": visits})
}

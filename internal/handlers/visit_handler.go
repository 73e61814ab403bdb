package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/metrics"
	"visitation-service/internal/models"
	"visitation-service/internal/repository"
	"visitation-service/internal/schedule"
)

// VisitHandler serves visit lifecycle requests.
type VisitHandler struct {
	visits   *repository.VisitRepository
	detector *schedule.Detector
	validate *validator.Validate
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// NewVisitHandler creates a new visit handler
func NewVisitHandler(visits *repository.VisitRepository, detector *schedule.Detector, collector *metrics.Collector, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		visits:   visits,
		detector: detector,
		validate: validator.New(),
		metrics:  collector,
		logger:   logger.Named("visit_handler"),
	}
}

// CreateVisit schedules a new visit after running conflict detection
// against the officer's calendar. A conflicting slot is rejected with the
// full conflict set so the caller can reschedule.
func (h *VisitHandler) CreateVisit(c *gin.Context) {
	var visit models.Visit
	if err := c.ShouldBindJSON(&visit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	if err := h.validate.Struct(visit); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	duration := 0
	if visit.DurationMinutes != nil {
		duration = *visit.DurationMinutes
	}
	conflict, err := h.detector.HasConflict(c.Request.Context(), visit.OfficerID,
		visit.ScheduledDate, duration, nil)
	if err != nil {
		h.logger.Error("Conflict check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check conflicts"})
		return
	}
	h.metrics.RecordConflictCheck(conflict.HasConflict)
	if conflict.HasConflict {
		c.JSON(http.StatusConflict, gin.H{
			"error":              "Officer has a conflicting visit",
			"conflicting_visits": conflict.ConflictingVisits,
		})
		return
	}

	if err := h.visits.Create(c.Request.Context(), &visit); err != nil {
		h.logger.Error("Failed to create visit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create visit"})
		return
	}

	h.logger.Info("Visit created",
		zap.String("visit_id", visit.ID.String()),
		zap.String("officer_id", visit.OfficerID.String()))
	c.JSON(http.StatusCreated, visit)
}

// GetVisit retrieves a visit by ID.
func (h *VisitHandler) GetVisit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID"})
		return
	}

	visit, err := h.visits.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get visit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get visit"})
		return
	}
	if visit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Visit not found"})
		return
	}

	c.JSON(http.StatusOK, visit)
}

// UpdateStatusRequest carries a visit lifecycle transition.
type UpdateStatusRequest struct {
	Status models.VisitStatus `json:"status" binding:"required"`
}

// UpdateStatus applies a lifecycle transition. Illegal transitions are
// rejected with 409.
func (h *VisitHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit ID"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	if err := h.visits.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition", "details": err.Error()})
			return
		}
		h.logger.Error("Failed to update visit status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update visit status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// ListVisits lists visits inside the caller's jurisdiction scope.
func (h *VisitHandler) ListVisits(c *gin.Context) {
	s := ScopeFromContext(c)
	limit, offset := pagination(c)

	visits, err := h.visits.ListScoped(c.Request.Context(), s, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list visits", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list visits"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"visits": visits, "limit": limit, "offset": offset})
}

// pagination reads limit/offset query params with sane bounds.
func pagination(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

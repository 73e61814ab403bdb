package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/cascade"
	"visitation-service/internal/metrics"
	"visitation-service/internal/models"
	"visitation-service/internal/repository"
)

// LeaveHandler serves officer leave requests. Approval triggers the
// reassignment cascade for the officer's scheduled visits.
type LeaveHandler struct {
	leaves  *repository.LeaveRepository
	cascade *cascade.Handler
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewLeaveHandler creates a new leave handler
func NewLeaveHandler(leaves *repository.LeaveRepository, cascadeHandler *cascade.Handler, collector *metrics.Collector, logger *zap.Logger) *LeaveHandler {
	return &LeaveHandler{
		leaves:  leaves,
		cascade: cascadeHandler,
		metrics: collector,
		logger:  logger.Named("leave_handler"),
	}
}

// CreateLeave files a new PENDING leave request. Overlapping requests for
// the same officer are rejected.
func (h *LeaveHandler) CreateLeave(c *gin.Context) {
	var leave models.Leave
	if err := c.ShouldBindJSON(&leave); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	if err := h.leaves.Create(c.Request.Context(), &leave); err != nil {
		switch {
		case errors.Is(err, repository.ErrLeaveInvalidRange):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Leave end date must be after start date"})
		case errors.Is(err, repository.ErrLeaveOverlap):
			c.JSON(http.StatusConflict, gin.H{"error": "Officer already has leave in this period"})
		default:
			h.logger.Error("Failed to create leave", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create leave"})
		}
		return
	}

	c.JSON(http.StatusCreated, leave)
}

// ApproveLeave approves a PENDING leave and runs the visit reassignment
// cascade. The approval itself succeeds even when no backup officer is
// available; the outcome carries the reason for manual follow-up.
func (h *LeaveHandler) ApproveLeave(c *gin.Context) {
	leaveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid leave ID"})
		return
	}
	approverID, err := uuid.Parse(c.GetHeader(HeaderOfficerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Approver officer ID header required"})
		return
	}

	leave, err := h.leaves.Approve(c.Request.Context(), leaveID, approverID)
	if err != nil {
		if errors.Is(err, repository.ErrLeaveNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "Leave is not pending"})
			return
		}
		h.logger.Error("Failed to approve leave", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve leave"})
		return
	}

	outcome, err := h.cascade.HandleLeaveReassignment(c.Request.Context(),
		leave.OfficerID, leave.StartDate, leave.EndDate)
	if err != nil {
		// The leave is approved either way; reassignment failure is
		// surfaced for manual handling, not rolled back.
		h.logger.Error("Leave reassignment cascade failed",
			zap.String("leave_id", leaveID.String()), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			"leave":        leave,
			"reassignment": cascade.LeaveOutcome{Error: "Reassignment failed, manual handling required"},
		})
		return
	}

	h.metrics.RecordReassignments("leave", int(outcome.ReassignedCount))
	c.JSON(http.StatusOK, gin.H{"leave": leave, "reassignment": outcome})
}

// RejectLeave rejects a PENDING leave.
func (h *LeaveHandler) RejectLeave(c *gin.Context) {
	leaveID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid leave ID"})
		return
	}
	rejecterID, err := uuid.Parse(c.GetHeader(HeaderOfficerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rejecter officer ID header required"})
		return
	}

	leave, err := h.leaves.Reject(c.Request.Context(), leaveID, rejecterID)
	if err != nil {
		if errors.Is(err, repository.ErrLeaveNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "Leave is not pending"})
			return
		}
		h.logger.Error("Failed to reject leave", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject leave"})
		return
	}

	c.JSON(http.StatusOK, leave)
}

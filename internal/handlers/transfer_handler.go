package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"visitation-service/internal/cache"
	"visitation-service/internal/cascade"
	"visitation-service/internal/metrics"
	"visitation-service/internal/models"
	"visitation-service/internal/repository"
)

// TransferHandler serves officer beat transfers: a read-only preview of the
// impact, and the execution of the full cascade.
type TransferHandler struct {
	cascade   *cascade.Handler
	officers  *repository.OfficerRepository
	hierarchy cache.PathReader
	metrics   *metrics.Collector
	logger    *zap.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(cascadeHandler *cascade.Handler, officers *repository.OfficerRepository, hierarchy cache.PathReader, collector *metrics.Collector, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		cascade:   cascadeHandler,
		officers:  officers,
		hierarchy: hierarchy,
		metrics:   collector,
		logger:    logger.Named("transfer_handler"),
	}
}

// TransferRequest moves an officer to a new beat.
type TransferRequest struct {
	NewBeatID uuid.UUID `json:"new_beat_id" binding:"required"`
}

// PreviewTransfer reports what a transfer would do without mutating
// anything.
func (h *TransferHandler) PreviewTransfer(c *gin.Context) {
	officerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid officer ID"})
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	preview, err := h.cascade.PreviewTransfer(c.Request.Context(), officerID, req.NewBeatID)
	if err != nil {
		if errors.Is(err, cascade.ErrOfficerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Officer or beat not found"})
			return
		}
		h.logger.Error("Transfer preview failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to preview transfer"})
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ExecuteTransfer runs the full cascade, then moves the officer to the new
// beat. Citizens without a replacement are tagged for manual assignment and
// their visits cancelled by the system.
func (h *TransferHandler) ExecuteTransfer(c *gin.Context) {
	officerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid officer ID"})
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	path, err := h.hierarchy.BeatPath(c.Request.Context(), req.NewBeatID)
	if err != nil {
		h.logger.Error("Failed to resolve new beat", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve new beat"})
		return
	}
	if path == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "New beat not found"})
		return
	}

	result, err := h.cascade.HandleOfficerTransfer(c.Request.Context(), officerID)
	if err != nil {
		if errors.Is(err, cascade.ErrOfficerNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Officer or beat not found"})
			return
		}
		h.logger.Error("Transfer cascade failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to execute transfer"})
		return
	}

	tags := models.JurisdictionTags{
		RangeID:         &path.RangeID,
		DistrictID:      &path.DistrictID,
		SubDivisionID:   &path.SubDivisionID,
		PoliceStationID: &path.PoliceStationID,
		BeatID:          &path.BeatID,
	}
	if err := h.officers.UpdateJurisdiction(c.Request.Context(), officerID, tags); err != nil {
		h.logger.Error("Failed to move officer after cascade",
			zap.String("officer_id", officerID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Cascade completed but officer move failed",
			"cascade": result,
		})
		return
	}

	h.metrics.RecordReassignments("transfer", result.Visits.Reassigned)
	h.metrics.RecordCancellations(result.Visits.Cancelled)
	h.logger.Info("Officer transferred",
		zap.String("officer_id", officerID.String()),
		zap.String("new_beat_id", req.NewBeatID.String()),
		zap.Int("visits_reassigned", result.Visits.Reassigned),
		zap.Int("visits_cancelled", result.Visits.Cancelled))

	c.JSON(http.StatusOK, result)
}

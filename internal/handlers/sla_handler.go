package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"visitation-service/internal/sla"
)

// SLAHandler serves on-demand SLA views. The periodic sweep runs in the
// scheduler; these endpoints compute the same views for dashboards.
type SLAHandler struct {
	monitor *sla.Monitor
	logger  *zap.Logger
}

// NewSLAHandler creates a new SLA handler
func NewSLAHandler(monitor *sla.Monitor, logger *zap.Logger) *SLAHandler {
	return &SLAHandler{
		monitor: monitor,
		logger:  logger.Named("sla_handler"),
	}
}

// GetBreaches returns the current breach set across all categories.
func (h *SLAHandler) GetBreaches(c *gin.Context) {
	breaches := h.monitor.Sweep(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"breaches": breaches, "count": len(breaches)})
}

// GetCompliance returns the trailing 30-day compliance summary.
func (h *SLAHandler) GetCompliance(c *gin.Context) {
	summary, err := h.monitor.Compliance(c.Request.Context())
	if err != nil {
		h.logger.Error("Compliance summary failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute compliance summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

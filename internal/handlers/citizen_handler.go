package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"visitation-service/internal/repository"
)

// CitizenHandler serves citizen reads inside the caller's scope.
type CitizenHandler struct {
	citizens *repository.CitizenRepository
	logger   *zap.Logger
}

// NewCitizenHandler creates a new citizen handler
func NewCitizenHandler(citizens *repository.CitizenRepository, logger *zap.Logger) *CitizenHandler {
	return &CitizenHandler{
		citizens: citizens,
		logger:   logger.Named("citizen_handler"),
	}
}

// GetCitizen retrieves a citizen by ID.
func (h *CitizenHandler) GetCitizen(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid citizen ID"})
		return
	}

	citizen, err := h.citizens.Get(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get citizen", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get citizen"})
		return
	}
	if citizen == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Citizen not found"})
		return
	}

	c.JSON(http.StatusOK, citizen)
}

// ListCitizens lists citizens inside the caller's jurisdiction scope. A
// caller whose scope matches nothing gets an empty list, never an error.
func (h *CitizenHandler) ListCitizens(c *gin.Context) {
	s := ScopeFromContext(c)
	limit, offset := pagination(c)

	citizens, err := h.citizens.ListScoped(c.Request.Context(), s, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list citizens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list citizens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"citizens": citizens, "limit": limit, "offset": offset})
}

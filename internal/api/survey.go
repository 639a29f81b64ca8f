package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/core"
	"github.com/Wilco-OS/meditec-sub000/internal/middleware"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

// SurveyHandler exposes the survey operations. All authorization happens in
// the core; the handler only shuttles the principal and the payload.
type SurveyHandler struct {
	svc    *core.SurveyService
	logger *zap.Logger
}

func NewSurveyHandler(svc *core.SurveyService, logger *zap.Logger) *SurveyHandler {
	return &SurveyHandler{svc: svc, logger: logger}
}

// Create handles POST /v1/surveys
func (h *SurveyHandler) Create(c *gin.Context) {
	var input core.CreateSurveyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	survey, err := h.svc.Create(c.Request.Context(), middleware.GetPrincipal(c), input)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, survey)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(c *gin.Context) {
	surveys, err := h.svc.List(c.Request.Context(), middleware.GetPrincipal(c))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, surveys)
}

// Get handles GET /v1/surveys/:ref
func (h *SurveyHandler) Get(c *gin.Context) {
	survey, err := h.svc.Get(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// Update handles PATCH /v1/surveys/:ref
func (h *SurveyHandler) Update(c *gin.Context) {
	var patch core.SurveyPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	survey, err := h.svc.Update(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"), patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

type updateStatusRequest struct {
	Status models.SurveyStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PUT /v1/surveys/:ref/status
func (h *SurveyHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	survey, err := h.svc.UpdateStatus(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"), req.Status)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

// Delete handles DELETE /v1/surveys/:ref
func (h *SurveyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Blocks handles GET /v1/surveys/:ref/blocks, the department-filtered view
// for a participating employee.
func (h *SurveyHandler) Blocks(c *gin.Context) {
	blocks, err := h.svc.EmployeeBlocks(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"), c.Query("department"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, blocks)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/core"
	"github.com/Wilco-OS/meditec-sub000/internal/middleware"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

// InvitationHandler exposes invitation management for admins and the
// employee response path.
type InvitationHandler struct {
	svc    *core.InvitationService
	logger *zap.Logger
}

func NewInvitationHandler(svc *core.InvitationService, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, logger: logger}
}

// List handles GET /v1/surveys/:ref/invitations
func (h *InvitationHandler) List(c *gin.Context) {
	invitations, err := h.svc.List(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

type createInvitationsRequest struct {
	TenantID     uuid.UUID          `json:"tenant_id"`
	Participants []core.Participant `json:"participants" binding:"required"`
	Message      string             `json:"message"`
}

// Create handles POST /v1/surveys/:ref/invitations. The response is always
// 200 with a per-item batch result; only request-level failures (bad
// survey, bad tenant, no access) produce an error status.
func (h *InvitationHandler) Create(c *gin.Context) {
	var req createInvitationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Invite(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"), req.TenantID, req.Participants, req.Message)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Resend handles POST /v1/invitations/:id/resend
func (h *InvitationHandler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		return
	}

	if err := h.svc.Resend(c.Request.Context(), middleware.GetPrincipal(c), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

type employeeSubmitRequest struct {
	Department string          `json:"department"`
	Answers    []models.Answer `json:"answers" binding:"required"`
}

// SubmitEmployee handles POST /v1/surveys/:ref/responses, direct
// participation by an employee principal without an invitation code.
func (h *InvitationHandler) SubmitEmployee(c *gin.Context) {
	var req employeeSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.svc.SubmitByEmployee(c.Request.Context(), middleware.GetPrincipal(c), c.Param("ref"), req.Department, req.Answers)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "submitted"})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/core"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

// ParticipationHandler is the public (unauthenticated) surface used by
// invited participants: the invitation code, scoped to the survey, is the
// only credential.
type ParticipationHandler struct {
	svc    *core.InvitationService
	logger *zap.Logger
}

func NewParticipationHandler(svc *core.InvitationService, logger *zap.Logger) *ParticipationHandler {
	return &ParticipationHandler{svc: svc, logger: logger}
}

type verifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// Verify handles POST /v1/participation/:ref/verify. It returns the
// invitation together with the survey so the participation UI can render
// without a second round trip. The visible blocks are filtered to the
// invitation's department before the survey leaves the server.
func (h *ParticipationHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.svc.Verify(c.Request.Context(), c.Param("ref"), req.Code)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	key := ""
	if !result.Survey.IsAnonymous && result.Invitation.Department != "" {
		key = models.DepartmentKey(result.Invitation.TenantID, result.Invitation.Department)
	}
	view := *result.Survey
	view.Blocks = core.VisibleBlocks(result.Survey, key)

	c.JSON(http.StatusOK, gin.H{
		"invitation": result.Invitation,
		"survey":     view,
	})
}

type submitRequest struct {
	Code    string          `json:"code" binding:"required"`
	Answers []models.Answer `json:"answers" binding:"required"`
}

// Submit handles POST /v1/participation/:ref/responses. Re-submitting an
// already completed invitation succeeds without storing a duplicate.
func (h *ParticipationHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.svc.SubmitByCode(c.Request.Context(), c.Param("ref"), req.Code, req.Answers); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "submitted"})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/middleware"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

// CatalogHandler reads the operator's question catalog, used by the admin
// UI when composing drafts.
type CatalogHandler struct {
	repo   repository.CatalogRepository
	logger *zap.Logger
}

func NewCatalogHandler(repo repository.CatalogRepository, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, logger: logger}
}

// List handles GET /v1/catalog/questions
func (h *CatalogHandler) List(c *gin.Context) {
	if middleware.GetPrincipal(c).Role != models.RoleMeditecAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
		return
	}

	questions, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list catalog questions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, questions)
}

// Get handles GET /v1/catalog/questions/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	if middleware.GetPrincipal(c).Role != models.RoleMeditecAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "catalog question not found"})
		return
	}

	question, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get catalog question", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if question == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "catalog question not found"})
		return
	}
	c.JSON(http.StatusOK, question)
}

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

// TenantHandler is the operator's directory admin surface.
type TenantHandler struct {
	repo   repository.TenantRepository
	logger *zap.Logger
}

func NewTenantHandler(repo repository.TenantRepository, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{repo: repo, logger: logger}
}

type createTenantRequest struct {
	Name        string   `json:"name" binding:"required"`
	Departments []string `json:"departments"`
}

// Create handles POST /v1/tenants
func (h *TenantHandler) Create(c *gin.Context) {
	if middleware.GetPrincipal(c).Role != models.RoleMeditecAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
		return
	}

	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenant, err := h.repo.Create(c.Request.Context(), req.Name, req.Departments)
	if err != nil {
		h.logger.Error("failed to create tenant", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// List handles GET /v1/tenants
func (h *TenantHandler) List(c *gin.Context) {
	if middleware.GetPrincipal(c).Role != models.RoleMeditecAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
		return
	}

	tenants, err := h.repo.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list tenants", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// Get handles GET /v1/tenants/:id. A company admin may read its own tenant;
// the operator may read any.
func (h *TenantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}

	principal := middleware.GetPrincipal(c)
	if principal.Role != models.RoleMeditecAdmin && principal.TenantID != id {
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
		return
	}

	tenant, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("failed to get tenant", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if tenant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tenant not found"})
		return
	}
	c.JSON(http.StatusOK, tenant)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/core"
)

// writeError maps a domain error onto the HTTP surface. Authorization
// failures stay opaque: the body is always "not permitted" regardless of
// the internal deny reason, so callers cannot probe tenant assignments.
// Non-domain errors are logged and reported as opaque internal errors.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	e, ok := core.AsError(err)
	if !ok {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	switch e.Kind {
	case core.KindValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Message})
	case core.KindNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Message})
	case core.KindUnauthorized:
		c.JSON(http.StatusForbidden, gin.H{"error": "not permitted"})
	case core.KindInvalidTransition:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": e.Message})
	case core.KindConflict:
		c.JSON(http.StatusConflict, gin.H{"error": e.Message})
	case core.KindDependency:
		c.JSON(http.StatusBadGateway, gin.H{"error": e.Message})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

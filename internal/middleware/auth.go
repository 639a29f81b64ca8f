package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Wilco-OS/meditec-sub000/internal/auth"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

const ContextKeyPrincipal = "principal"

// AuthMiddleware validates the bearer token and stores the resulting
// principal in the request context. Company-scoped roles must carry a
// parseable tenant id; operator admins carry none.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization format, expected: Bearer <token>",
			})
			return
		}

		claims, err := auth.ParseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		principal, err := principalFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

func principalFromClaims(claims *auth.Claims) (models.Principal, error) {
	role := models.Role(claims.Role)
	switch role {
	case models.RoleMeditecAdmin:
		return models.Principal{UserID: claims.UserID, Role: role}, nil
	case models.RoleCompanyAdmin, models.RoleEmployee:
		tenantID, err := uuid.Parse(claims.TenantID)
		if err != nil {
			return models.Principal{}, errMissingTenant
		}
		return models.Principal{UserID: claims.UserID, Role: role, TenantID: tenantID}, nil
	default:
		return models.Principal{}, errUnknownRole
	}
}

var (
	errUnknownRole   = claimError("unknown role")
	errMissingTenant = claimError("company-scoped token without tenant id")
)

type claimError string

func (e claimError) Error() string { return string(e) }

// GetPrincipal returns the principal stored by AuthMiddleware. The zero
// principal (empty role) means the middleware did not run; every check
// downstream denies it.
func GetPrincipal(c *gin.Context) models.Principal {
	val, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return models.Principal{}
	}
	p, ok := val.(models.Principal)
	if !ok {
		return models.Principal{}
	}
	return p
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Wilco-OS/meditec-sub000/internal/auth"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

const testSecret = "test-secret"

func authRouter(t *testing.T) (*gin.Engine, *models.Principal) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var captured models.Principal
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/ping", func(c *gin.Context) {
		captured = GetPrincipal(c)
		c.Status(http.StatusOK)
	})
	return r, &captured
}

func doRequest(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRoles(t *testing.T) {
	tenantID := uuid.New()

	cases := []struct {
		name     string
		role     string
		tenantID string
		want     models.Principal
	}{
		{
			name: "operator admin without tenant",
			role: string(models.RoleMeditecAdmin),
			want: models.Principal{UserID: "u1", Role: models.RoleMeditecAdmin},
		},
		{
			name:     "company admin with tenant",
			role:     string(models.RoleCompanyAdmin),
			tenantID: tenantID.String(),
			want:     models.Principal{UserID: "u1", Role: models.RoleCompanyAdmin, TenantID: tenantID},
		},
		{
			name:     "employee with tenant",
			role:     string(models.RoleEmployee),
			tenantID: tenantID.String(),
			want:     models.Principal{UserID: "u1", Role: models.RoleEmployee, TenantID: tenantID},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, captured := authRouter(t)
			token, err := auth.GenerateToken("u1", tc.role, tc.tenantID, testSecret, time.Minute)
			require.NoError(t, err)

			w := doRequest(r, "Bearer "+token)
			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, tc.want, *captured)
		})
	}
}

func TestAuthMiddlewareRejections(t *testing.T) {
	expired, err := auth.GenerateToken("u1", string(models.RoleMeditecAdmin), "", testSecret, -time.Minute)
	require.NoError(t, err)
	wrongSecret, err := auth.GenerateToken("u1", string(models.RoleMeditecAdmin), "", "other-secret", time.Minute)
	require.NoError(t, err)
	noTenant, err := auth.GenerateToken("u1", string(models.RoleCompanyAdmin), "", testSecret, time.Minute)
	require.NoError(t, err)
	badRole, err := auth.GenerateToken("u1", "superuser", "", testSecret, time.Minute)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"expired token", "Bearer " + expired},
		{"wrong secret", "Bearer " + wrongSecret},
		{"company token without tenant", "Bearer " + noTenant},
		{"unknown role", "Bearer " + badRole},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := authRouter(t)
			w := doRequest(r, tc.header)
			require.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

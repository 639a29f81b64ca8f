package core

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

func TestResolveMeditecAdmin(t *testing.T) {
	resolver := NewResolver(newFakeTenantStore())
	survey := &models.Survey{ID: uuid.New(), Blocks: []models.Block{}}

	acc, err := resolver.Resolve(context.Background(), models.Principal{UserID: "op", Role: models.RoleMeditecAdmin}, survey)
	require.NoError(t, err)
	require.Nil(t, acc.ScopeTenantID)
}

func TestResolveCompanyAdminDualAssignment(t *testing.T) {
	tenants := newFakeTenantStore()
	tenant := tenants.add("Acme Care")
	other := tenants.add("Other GmbH")
	resolver := NewResolver(tenants)

	principal := models.Principal{UserID: "ca", Role: models.RoleCompanyAdmin, TenantID: tenant.ID}

	cases := []struct {
		name     string
		assigned []uuid.UUID
		special  []string
		allowed  bool
		byName   bool
	}{
		{"by structured id", []uuid.UUID{tenant.ID}, nil, true, false},
		{"by display name", nil, []string{"Acme Care"}, true, true},
		{"by both", []uuid.UUID{tenant.ID}, []string{"Acme Care"}, true, false},
		{"neither list matches", []uuid.UUID{other.ID}, []string{"Other GmbH"}, false, false},
		{"stale name only", nil, []string{"Acme Care Ltd."}, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			survey := &models.Survey{
				ID:                  uuid.New(),
				AssignedCompanies:   tc.assigned,
				SpecialCompanyNames: tc.special,
			}
			acc, err := resolver.Resolve(context.Background(), principal, survey)
			if !tc.allowed {
				requireDenied(t, err, DenyNotAssigned)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, acc.ScopeTenantID)
			require.Equal(t, tenant.ID, *acc.ScopeTenantID)
			require.Equal(t, tc.byName, acc.MatchedByName)
		})
	}
}

// A rename changes which surveys the name list matches on the very next
// decision; nothing is cached.
func TestResolveTracksCurrentTenantName(t *testing.T) {
	tenants := newFakeTenantStore()
	tenant := tenants.add("Old Name")
	resolver := NewResolver(tenants)

	principal := models.Principal{Role: models.RoleCompanyAdmin, TenantID: tenant.ID}
	survey := &models.Survey{ID: uuid.New(), SpecialCompanyNames: []string{"Old Name"}}

	_, err := resolver.Resolve(context.Background(), principal, survey)
	require.NoError(t, err)

	tenants.tenants[tenant.ID].Name = "New Name"
	_, err = resolver.Resolve(context.Background(), principal, survey)
	requireDenied(t, err, DenyNotAssigned)
}

func TestResolveFailsClosedOnMissingTenant(t *testing.T) {
	resolver := NewResolver(newFakeTenantStore())
	survey := &models.Survey{ID: uuid.New()}

	principal := models.Principal{Role: models.RoleCompanyAdmin, TenantID: uuid.New()}
	_, err := resolver.Resolve(context.Background(), principal, survey)
	requireDenied(t, err, DenyTenantNotFound)

	principal = models.Principal{Role: models.RoleCompanyAdmin}
	_, err = resolver.Resolve(context.Background(), principal, survey)
	requireDenied(t, err, DenyTenantNotFound)
}

func TestResolveDeniesOtherRoles(t *testing.T) {
	tenants := newFakeTenantStore()
	tenant := tenants.add("Acme Care")
	resolver := NewResolver(tenants)
	survey := &models.Survey{ID: uuid.New(), AssignedCompanies: []uuid.UUID{tenant.ID}}

	for _, role := range []models.Role{models.RoleEmployee, models.Role("auditor"), models.Role("")} {
		_, err := resolver.Resolve(context.Background(), models.Principal{Role: role, TenantID: tenant.ID}, survey)
		requireDenied(t, err, DenyNotAuthorized)
	}
}

func requireDenied(t *testing.T, err error, reason DenyReason) {
	t.Helper()
	require.Error(t, err)
	e, ok := AsError(err)
	require.True(t, ok)
	require.Equal(t, KindUnauthorized, e.Kind)
	require.Equal(t, reason, e.Reason)
	require.Equal(t, "not permitted", e.Message)
}

package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

// Access is a positive access decision. ScopeTenantID is nil for operator
// admins (no restriction) and set to the principal's tenant for company
// admins; the invitation registry uses it to filter listings.
type Access struct {
	ScopeTenantID *uuid.UUID

	// MatchedByName records that the decision came through the legacy
	// display-name list rather than the structured id list.
	MatchedByName bool
}

// Resolver decides whether a principal may act on a survey. Decisions are
// never cached: tenant assignment and tenant names can change between
// requests, so every operation resolves afresh against the directory.
type Resolver struct {
	tenants repository.TenantRepository
}

func NewResolver(tenants repository.TenantRepository) *Resolver {
	return &Resolver{tenants: tenants}
}

// Resolve applies the access rules for one principal/survey pair.
//
// meditec_admin passes unconditionally. company_admin passes iff its tenant
// matches the survey through either assignment list; a tenant that cannot be
// resolved fails closed. Every other role is denied.
func (r *Resolver) Resolve(ctx context.Context, principal models.Principal, survey *models.Survey) (*Access, error) {
	switch principal.Role {
	case models.RoleMeditecAdmin:
		return &Access{}, nil

	case models.RoleCompanyAdmin:
		if principal.TenantID == uuid.Nil {
			return nil, NewUnauthorizedError(DenyTenantNotFound)
		}
		tenant, err := r.tenants.GetByID(ctx, principal.TenantID)
		if err != nil {
			return nil, fmt.Errorf("resolve tenant %s: %w", principal.TenantID, err)
		}
		if tenant == nil {
			return nil, NewUnauthorizedError(DenyTenantNotFound)
		}
		byID, byName := matchAssignment(survey, tenant)
		if !byID && !byName {
			return nil, NewUnauthorizedError(DenyNotAssigned)
		}
		scope := tenant.ID
		return &Access{ScopeTenantID: &scope, MatchedByName: !byID && byName}, nil

	default:
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
}

// matchAssignment evaluates the dual assignment predicate: structured id
// membership and current display-name membership are checked independently,
// a match on either grants visibility. The two lists are deliberately never
// merged: a rename must not break access already granted by id, and legacy
// name grants must keep working for tenants registered before structured
// ids existed.
func matchAssignment(survey *models.Survey, tenant *models.Tenant) (byID, byName bool) {
	for _, id := range survey.AssignedCompanies {
		if id == tenant.ID {
			byID = true
			break
		}
	}
	for _, name := range survey.SpecialCompanyNames {
		if name == tenant.Name {
			byName = true
			break
		}
	}
	return byID, byName
}

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Tenant is a client company and the unit of data isolation. Every
// company-scoped query is filtered by tenant id; employees and invitations
// always belong to exactly one tenant.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Departments []string  `json:"departments"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasDepartment reports whether name is one of the tenant's departments.
func (t *Tenant) HasDepartment(name string) bool {
	for _, d := range t.Departments {
		if d == name {
			return true
		}
	}
	return false
}

// Role of an authenticated actor.
type Role string

const (
	RoleMeditecAdmin Role = "meditec_admin"
	RoleCompanyAdmin Role = "company_admin"
	RoleEmployee     Role = "employee"
)

// Principal is the authenticated actor making a request. It is a transient
// decision input, never persisted: identity is established upstream (JWT)
// and handed to the core as trusted.
//
// TenantID is only meaningful for company-scoped roles; for meditec admins
// it is uuid.Nil.
type Principal struct {
	UserID   string    `json:"user_id"`
	Role     Role      `json:"role"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// DepartmentKey builds the tenant-scoped membership key used by block
// visibility checks. Scoping by tenant id keeps same-named departments of
// different companies from colliding.
func DepartmentKey(tenantID uuid.UUID, department string) string {
	return fmt.Sprintf("%s:%s", tenantID, department)
}

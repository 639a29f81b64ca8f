package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

// ErrCodeConflict signals that a freshly generated invitation code already
// exists within the same survey. Callers regenerate and retry.
var ErrCodeConflict = errors.New("invitation code already in use for survey")

// Every method takes ctx because it hits the database; every tenant-sensitive
// query is scoped explicitly by the caller. The repositories never interpret
// authorization, that is the access resolver's job; they only persist.

// TenantRepository is the tenant directory: company identity plus its
// department list, consumed by access checks and department validation.
type TenantRepository interface {
	// Create inserts a tenant and returns it with ID and CreatedAt populated.
	Create(ctx context.Context, name string, departments []string) (*models.Tenant, error)

	// GetByID returns a tenant. Returns nil, nil if not found.
	GetByID(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error)

	// List returns all tenants, newest first.
	List(ctx context.Context) ([]models.Tenant, error)
}

// SurveyRepository holds survey documents including their blocks and
// questions. Surveys load as a whole: Blocks is always a (possibly empty)
// slice, never nil.
type SurveyRepository interface {
	// Create inserts a draft survey with its block tree.
	Create(ctx context.Context, s *models.Survey) (*models.Survey, error)

	// GetByRef resolves a survey by either its stable public id or its
	// storage key. Returns nil, nil if neither form matches.
	GetByRef(ctx context.Context, ref string) (*models.Survey, error)

	// ListAll returns every survey, newest first.
	ListAll(ctx context.Context) ([]models.Survey, error)

	// ListForTenant returns surveys assigned to the tenant through either
	// its structured id or its current display name.
	ListForTenant(ctx context.Context, tenantID uuid.UUID, tenantName string) ([]models.Survey, error)

	// UpdateDraft replaces the mutable fields and the block tree of a
	// survey that is still in draft. The store enforces the status guard;
	// a survey that already left draft reports ok=false.
	UpdateDraft(ctx context.Context, s *models.Survey) (ok bool, err error)

	// UpdateStatus conditionally moves a survey from one status to another,
	// bumping updated_at in the same write. ok=false means the survey was
	// no longer in the expected from status (lost race or stale read).
	UpdateStatus(ctx context.Context, surveyID uuid.UUID, from, to models.SurveyStatus) (ok bool, err error)

	// Delete removes the survey and, through ownership, its blocks and
	// questions. Returns false when the survey does not exist.
	Delete(ctx context.Context, surveyID uuid.UUID) (bool, error)
}

// UpsertResult reports whether an invitation upsert inserted a fresh row or
// refreshed an existing one.
type UpsertResult struct {
	Invitation *models.Invitation
	Created    bool
}

// InvitationRepository persists participation credentials. Uniqueness of the
// (survey, tenant, email) triple and of the code within a survey is enforced
// by the store itself, so concurrent duplicate invites collapse to one row.
type InvitationRepository interface {
	// Upsert creates the invitation or, when the triple already exists,
	// refreshes name, resets status to pending and bumps sent_at while
	// keeping the stored code. ErrCodeConflict is returned when the fresh
	// code collides within the survey; the caller regenerates and retries.
	Upsert(ctx context.Context, inv *models.Invitation) (*UpsertResult, error)

	// GetByID returns an invitation. Returns nil, nil if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error)

	// GetBySurveyAndCode looks up a code scoped to one survey. A code that
	// exists under a different survey is simply not found.
	GetBySurveyAndCode(ctx context.Context, surveyID uuid.UUID, code string) (*models.Invitation, error)

	// ListBySurvey returns invitations for a survey, optionally filtered to
	// one tenant (uuid.Nil means no filter), newest first.
	ListBySurvey(ctx context.Context, surveyID, tenantID uuid.UUID) ([]models.Invitation, error)

	// SetCompleted marks an invitation completed, stamping completed_at
	// only on the first call. Idempotent.
	SetCompleted(ctx context.Context, id uuid.UUID, at time.Time) error

	// TouchSent bumps sent_at, used by resend.
	TouchSent(ctx context.Context, id uuid.UUID) error
}

// ResponseRepository stores submitted answers.
type ResponseRepository interface {
	Create(ctx context.Context, r *models.Response) (*models.Response, error)
}

// CatalogRepository reads the operator's question catalog. The catalog is an
// external collaborator of the survey core: it is consumed for provenance
// and for composing drafts, never mutated here beyond seeding.
type CatalogRepository interface {
	List(ctx context.Context) ([]models.CatalogQuestion, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogQuestion, error)
}

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

// SurveyService exposes the survey read/mutate operations behind the access
// resolver and the lifecycle engine.
type SurveyService struct {
	surveys   repository.SurveyRepository
	tenants   repository.TenantRepository
	access    *Resolver
	lifecycle *Lifecycle
	logger    *zap.Logger
	now       func() time.Time
}

func NewSurveyService(surveys repository.SurveyRepository, tenants repository.TenantRepository, logger *zap.Logger) *SurveyService {
	access := NewResolver(tenants)
	return &SurveyService{
		surveys:   surveys,
		tenants:   tenants,
		access:    access,
		lifecycle: NewLifecycle(surveys, access, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Resolver exposes the service's access resolver so sibling services share
// one decision component.
func (s *SurveyService) Resolver() *Resolver { return s.access }

// QuestionInput describes one question of a draft being created or edited.
type QuestionInput struct {
	Text      string              `json:"text"`
	Type      models.QuestionType `json:"type"`
	Required  bool                `json:"required"`
	CatalogID *uuid.UUID          `json:"catalog_id,omitempty"`
}

// BlockInput describes one block of a draft. Departments hold tenant-scoped
// keys (models.DepartmentKey).
type BlockInput struct {
	Title                 string          `json:"title"`
	Description           string          `json:"description"`
	RestrictToDepartments bool            `json:"restrict_to_departments"`
	Departments           []string        `json:"departments"`
	Questions             []QuestionInput `json:"questions"`
}

// CreateSurveyInput is the payload for a fresh draft.
type CreateSurveyInput struct {
	Title               string       `json:"title"`
	Description         string       `json:"description"`
	IsAnonymous         bool         `json:"is_anonymous"`
	StartDate           *time.Time   `json:"start_date,omitempty"`
	EndDate             *time.Time   `json:"end_date,omitempty"`
	AssignedCompanies   []uuid.UUID  `json:"assigned_companies"`
	SpecialCompanyNames []string     `json:"special_company_names"`
	Blocks              []BlockInput `json:"blocks"`
}

// SurveyPatch carries partial updates for a draft. Nil fields stay
// untouched; a non-nil Blocks replaces the whole block tree.
type SurveyPatch struct {
	Title               *string       `json:"title,omitempty"`
	Description         *string       `json:"description,omitempty"`
	IsAnonymous         *bool         `json:"is_anonymous,omitempty"`
	StartDate           *time.Time    `json:"start_date,omitempty"`
	EndDate             *time.Time    `json:"end_date,omitempty"`
	AssignedCompanies   *[]uuid.UUID  `json:"assigned_companies,omitempty"`
	SpecialCompanyNames *[]string     `json:"special_company_names,omitempty"`
	Blocks              *[]BlockInput `json:"blocks,omitempty"`
}

// Create inserts a new draft. Operator admins only.
func (s *SurveyService) Create(ctx context.Context, principal models.Principal, input CreateSurveyInput) (*models.Survey, error) {
	if principal.Role != models.RoleMeditecAdmin {
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, NewValidationError("title is required")
	}
	blocks, err := buildBlocks(input.Blocks)
	if err != nil {
		return nil, err
	}

	now := s.now()
	survey := &models.Survey{
		PublicID:            NewPublicID(),
		Title:               strings.TrimSpace(input.Title),
		Description:         input.Description,
		Status:              models.StatusDraft,
		IsAnonymous:         input.IsAnonymous,
		CreatedBy:           principal.UserID,
		StartDate:           input.StartDate,
		EndDate:             input.EndDate,
		AssignedCompanies:   emptyIfNilIDs(input.AssignedCompanies),
		SpecialCompanyNames: emptyIfNil(input.SpecialCompanyNames),
		Blocks:              blocks,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	created, err := s.surveys.Create(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}
	s.logger.Info("survey created",
		zap.String("survey", created.PublicID),
		zap.String("actor", principal.UserID),
	)
	return created, nil
}

// Get loads a survey by either identifier form and applies the access rules.
func (s *SurveyService) Get(ctx context.Context, principal models.Principal, ref string) (*models.Survey, error) {
	survey, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Resolve(ctx, principal, survey); err != nil {
		return nil, err
	}
	return survey, nil
}

// List returns the surveys visible to the principal: everything for the
// operator, dual-predicate-matched surveys for a company admin.
func (s *SurveyService) List(ctx context.Context, principal models.Principal) ([]models.Survey, error) {
	switch principal.Role {
	case models.RoleMeditecAdmin:
		surveys, err := s.surveys.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list surveys: %w", err)
		}
		return surveys, nil

	case models.RoleCompanyAdmin:
		tenant, err := s.tenants.GetByID(ctx, principal.TenantID)
		if err != nil {
			return nil, fmt.Errorf("resolve tenant %s: %w", principal.TenantID, err)
		}
		if tenant == nil {
			return nil, NewUnauthorizedError(DenyTenantNotFound)
		}
		surveys, err := s.surveys.ListForTenant(ctx, tenant.ID, tenant.Name)
		if err != nil {
			return nil, fmt.Errorf("list surveys for tenant: %w", err)
		}
		return surveys, nil

	default:
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
}

// Update patches a survey's structure and metadata. Only drafts may be
// edited, and only by the operator: companies activate surveys, they never
// redesign them.
func (s *SurveyService) Update(ctx context.Context, principal models.Principal, ref string, patch SurveyPatch) (*models.Survey, error) {
	if principal.Role != models.RoleMeditecAdmin {
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
	survey, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if models.NormalizeStatus(survey.Status) != models.StatusDraft {
		return nil, NewValidationError(fmt.Sprintf("survey in status %q cannot be edited", models.NormalizeStatus(survey.Status)))
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, NewValidationError("title is required")
		}
		survey.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		survey.Description = *patch.Description
	}
	if patch.IsAnonymous != nil {
		survey.IsAnonymous = *patch.IsAnonymous
	}
	if patch.StartDate != nil {
		survey.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		survey.EndDate = patch.EndDate
	}
	if patch.AssignedCompanies != nil {
		survey.AssignedCompanies = emptyIfNilIDs(*patch.AssignedCompanies)
	}
	if patch.SpecialCompanyNames != nil {
		survey.SpecialCompanyNames = emptyIfNil(*patch.SpecialCompanyNames)
	}
	if patch.Blocks != nil {
		blocks, err := buildBlocks(*patch.Blocks)
		if err != nil {
			return nil, err
		}
		survey.Blocks = blocks
	}
	survey.UpdatedAt = s.now()

	ok, err := s.surveys.UpdateDraft(ctx, survey)
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	if !ok {
		return nil, NewConflictError("survey is no longer a draft")
	}
	return survey, nil
}

// UpdateStatus runs a lifecycle transition.
func (s *SurveyService) UpdateStatus(ctx context.Context, principal models.Principal, ref string, target models.SurveyStatus) (*models.Survey, error) {
	survey, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.lifecycle.Transition(ctx, principal, survey, target)
}

// Delete removes a survey and its blocks. Operator admins only.
func (s *SurveyService) Delete(ctx context.Context, principal models.Principal, ref string) error {
	if principal.Role != models.RoleMeditecAdmin {
		return NewUnauthorizedError(DenyNotAuthorized)
	}
	survey, err := s.load(ctx, ref)
	if err != nil {
		return err
	}
	ok, err := s.surveys.Delete(ctx, survey.ID)
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	if !ok {
		return NewNotFoundError("survey not found")
	}
	s.logger.Info("survey deleted",
		zap.String("survey", survey.PublicID),
		zap.String("actor", principal.UserID),
	)
	return nil
}

// EmployeeBlocks returns the block view for a participating employee of an
// assigned tenant. department is the plain department name within the
// employee's own tenant; empty means no department.
func (s *SurveyService) EmployeeBlocks(ctx context.Context, principal models.Principal, ref, department string) ([]models.Block, error) {
	if principal.Role != models.RoleEmployee {
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
	survey, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	if models.NormalizeStatus(survey.Status) != models.StatusActive {
		return nil, NewValidationError("survey is not open for participation")
	}
	tenant, err := s.tenants.GetByID(ctx, principal.TenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", principal.TenantID, err)
	}
	if tenant == nil {
		return nil, NewUnauthorizedError(DenyTenantNotFound)
	}
	if byID, byName := matchAssignment(survey, tenant); !byID && !byName {
		return nil, NewUnauthorizedError(DenyNotAssigned)
	}

	key := ""
	if !survey.IsAnonymous && department != "" && tenant.HasDepartment(department) {
		key = models.DepartmentKey(tenant.ID, department)
	}
	return VisibleBlocks(survey, key), nil
}

// load resolves either identifier form to a survey or a not-found error.
func (s *SurveyService) load(ctx context.Context, ref string) (*models.Survey, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, NewNotFoundError("survey not found")
	}
	survey, err := s.surveys.GetByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get survey %q: %w", ref, err)
	}
	if survey == nil {
		return nil, NewNotFoundError("survey not found")
	}
	return survey, nil
}

// buildBlocks validates block/question inputs and assigns dense zero-based
// order values on both levels.
func buildBlocks(inputs []BlockInput) ([]models.Block, error) {
	blocks := make([]models.Block, 0, len(inputs))
	for i, in := range inputs {
		if strings.TrimSpace(in.Title) == "" {
			return nil, NewValidationError(fmt.Sprintf("block %d: title is required", i))
		}
		questions := make([]models.Question, 0, len(in.Questions))
		for j, q := range in.Questions {
			if strings.TrimSpace(q.Text) == "" {
				return nil, NewValidationError(fmt.Sprintf("block %d question %d: text is required", i, j))
			}
			if !models.ValidQuestionType(q.Type) {
				return nil, NewValidationError(fmt.Sprintf("block %d question %d: unknown type %q", i, j, q.Type))
			}
			questions = append(questions, models.Question{
				ID:        uuid.New(),
				Text:      strings.TrimSpace(q.Text),
				Type:      q.Type,
				Required:  q.Required,
				Order:     j,
				CatalogID: q.CatalogID,
			})
		}
		blocks = append(blocks, models.Block{
			ID:                    uuid.New(),
			Title:                 strings.TrimSpace(in.Title),
			Description:           in.Description,
			Order:                 i,
			RestrictToDepartments: in.RestrictToDepartments,
			Departments:           emptyIfNil(in.Departments),
			Questions:             questions,
		})
	}
	return blocks, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func emptyIfNilIDs(s []uuid.UUID) []uuid.UUID {
	if s == nil {
		return []uuid.UUID{}
	}
	return s
}

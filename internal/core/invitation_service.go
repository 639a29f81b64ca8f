package core

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/mail"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

const maxCodeAttempts = 5

// Participant is one row of a batch invite.
type Participant struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department,omitempty"`
}

// ParticipantFailure reports why one batch row did not produce (or deliver)
// an invitation. A dependency_failure entry means the invitation row exists
// but its email could not be handed off.
type ParticipantFailure struct {
	Participant Participant `json:"participant"`
	Kind        ErrorKind   `json:"kind"`
	Reason      string      `json:"reason"`
}

// BatchResult is the per-item outcome of a batch invite. Batches never fail
// atomically: one bad row never aborts the rest.
type BatchResult struct {
	Created  int                  `json:"created"`
	Updated  int                  `json:"updated"`
	Failures []ParticipantFailure `json:"failures"`
}

// VerifyResult pairs a verified invitation with its parent survey.
type VerifyResult struct {
	Invitation *models.Invitation `json:"invitation"`
	Survey     *models.Survey     `json:"survey"`
}

// InvitationService issues, verifies, resends and completes participation
// credentials.
type InvitationService struct {
	invitations repository.InvitationRepository
	surveys     repository.SurveyRepository
	tenants     repository.TenantRepository
	responses   repository.ResponseRepository
	access      *Resolver
	mailer      mail.Enqueuer
	logger      *zap.Logger
	now         func() time.Time
	newCode     func() (string, error)
}

func NewInvitationService(
	invitations repository.InvitationRepository,
	surveys repository.SurveyRepository,
	tenants repository.TenantRepository,
	responses repository.ResponseRepository,
	access *Resolver,
	mailer mail.Enqueuer,
	logger *zap.Logger,
) *InvitationService {
	return &InvitationService{
		invitations: invitations,
		surveys:     surveys,
		tenants:     tenants,
		responses:   responses,
		access:      access,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
		newCode:     NewInvitationCode,
	}
}

// Invite processes a participant batch for one (survey, tenant) pair.
//
// Participants are handled sequentially in input order so the failure list
// lines up with the request. Each row is independent: validation failures
// are recorded and the batch moves on. The invitation write is durable
// before its email is enqueued, and an enqueue failure is reported without
// undoing the write.
func (s *InvitationService) Invite(ctx context.Context, principal models.Principal, surveyRef string, tenantID uuid.UUID, participants []Participant, message string) (*BatchResult, error) {
	survey, err := s.loadSurvey(ctx, surveyRef)
	if err != nil {
		return nil, err
	}

	switch principal.Role {
	case models.RoleMeditecAdmin:
		// tenantID as given.
	case models.RoleCompanyAdmin:
		if tenantID != uuid.Nil && tenantID != principal.TenantID {
			return nil, NewUnauthorizedError(DenyNotAuthorized)
		}
		tenantID = principal.TenantID
	default:
		return nil, NewUnauthorizedError(DenyNotAuthorized)
	}
	if tenantID == uuid.Nil {
		return nil, NewValidationError("tenant id is required")
	}

	tenant, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("resolve tenant %s: %w", tenantID, err)
	}
	if tenant == nil {
		return nil, NewNotFoundError("tenant not found")
	}
	// The target tenant itself must be able to see the survey; inviting
	// employees of an unassigned company would mint dead credentials.
	if byID, byName := matchAssignment(survey, tenant); !byID && !byName {
		return nil, NewUnauthorizedError(DenyNotAssigned)
	}
	if principal.Role == models.RoleCompanyAdmin {
		if _, err := s.access.Resolve(ctx, principal, survey); err != nil {
			return nil, err
		}
	}

	result := &BatchResult{Failures: []ParticipantFailure{}}
	for _, p := range participants {
		s.inviteOne(ctx, survey, tenant, p, message, result)
	}

	s.logger.Info("invitation batch processed",
		zap.String("survey", survey.PublicID),
		zap.String("tenant", tenant.Name),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (s *InvitationService) inviteOne(ctx context.Context, survey *models.Survey, tenant *models.Tenant, p Participant, message string, result *BatchResult) {
	name := strings.TrimSpace(p.Name)
	email := NormalizeEmail(p.Email)
	if name == "" {
		result.Failures = append(result.Failures, ParticipantFailure{Participant: p, Kind: KindValidation, Reason: "name is required"})
		return
	}
	if email == "" {
		result.Failures = append(result.Failures, ParticipantFailure{Participant: p, Kind: KindValidation, Reason: "email is required"})
		return
	}
	if addr, err := netmail.ParseAddress(email); err != nil || addr.Address != email {
		result.Failures = append(result.Failures, ParticipantFailure{Participant: p, Kind: KindValidation, Reason: fmt.Sprintf("invalid email address %q", p.Email)})
		return
	}

	// A department the tenant does not know is dropped, not fatal: the
	// invitation still goes out, just without department scoping.
	department := strings.TrimSpace(p.Department)
	if department != "" && !tenant.HasDepartment(department) {
		s.logger.Warn("dropping unknown department on invitation",
			zap.String("survey", survey.PublicID),
			zap.String("tenant", tenant.Name),
			zap.String("department", department),
		)
		department = ""
	}

	upserted, err := s.upsertWithCode(ctx, &models.Invitation{
		SurveyID:   survey.ID,
		TenantID:   tenant.ID,
		Email:      email,
		Name:       name,
		Status:     models.InvitationPending,
		Department: department,
		SentAt:     s.now(),
	})
	if err != nil {
		s.logger.Error("invitation upsert failed",
			zap.String("survey", survey.PublicID),
			zap.String("email", email),
			zap.Error(err),
		)
		result.Failures = append(result.Failures, ParticipantFailure{Participant: p, Kind: KindOf(err), Reason: "could not store invitation"})
		return
	}
	if upserted.Created {
		result.Created++
	} else {
		result.Updated++
	}

	job := mail.InvitationJob{
		To:          email,
		Name:        name,
		SurveyRef:   survey.PublicID,
		SurveyTitle: survey.Title,
		Code:        upserted.Invitation.Code,
		Message:     message,
	}
	if err := s.mailer.EnqueueInvitation(ctx, job); err != nil {
		// The record is the source of truth; delivery is best-effort and
		// independently retryable via resend.
		s.logger.Error("invitation mail enqueue failed",
			zap.String("survey", survey.PublicID),
			zap.String("email", email),
			zap.Error(err),
		)
		result.Failures = append(result.Failures, ParticipantFailure{Participant: p, Kind: KindDependency, Reason: "invitation stored but email dispatch failed"})
	}
}

// upsertWithCode retries the upsert with fresh codes while the store reports
// per-survey code collisions. An existing triple keeps its original code
// regardless of the candidate passed in.
func (s *InvitationService) upsertWithCode(ctx context.Context, inv *models.Invitation) (*repository.UpsertResult, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, fmt.Errorf("generate invitation code: %w", err)
		}
		inv.Code = code
		res, err := s.invitations.Upsert(ctx, inv)
		if err != nil {
			if errors.Is(err, repository.ErrCodeConflict) {
				continue
			}
			return nil, fmt.Errorf("upsert invitation: %w", err)
		}
		return res, nil
	}
	return nil, NewConflictError("could not allocate a unique invitation code")
}

// Verify resolves a code within one survey. The email is not required: the
// code alone, scoped to the survey, is the credential. A code that exists
// under a different survey is indistinguishable from no code at all.
func (s *InvitationService) Verify(ctx context.Context, surveyRef, code string) (*VerifyResult, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, NewValidationError("code is required")
	}
	survey, err := s.loadSurvey(ctx, surveyRef)
	if err != nil {
		return nil, err
	}
	inv, err := s.invitations.GetBySurveyAndCode(ctx, survey.ID, code)
	if err != nil {
		return nil, fmt.Errorf("get invitation by code: %w", err)
	}
	if inv == nil {
		return nil, NewNotFoundError("invitation not found")
	}
	return &VerifyResult{Invitation: inv, Survey: survey}, nil
}

// MarkCompleted stamps an invitation completed. Calling it on an already
// completed invitation is a no-op so double-submission races never surface
// as errors to the participant.
func (s *InvitationService) MarkCompleted(ctx context.Context, invitationID uuid.UUID) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}
	if inv == nil {
		return NewNotFoundError("invitation not found")
	}
	if inv.Status == models.InvitationCompleted {
		return nil
	}
	if err := s.invitations.SetCompleted(ctx, invitationID, s.now()); err != nil {
		return fmt.Errorf("mark invitation completed: %w", err)
	}
	return nil
}

// Resend re-dispatches the invitation email with the original code. The
// caller must be authorized on the parent survey; completed invitations are
// rejected so a participant is never re-invited to a survey they already
// answered.
func (s *InvitationService) Resend(ctx context.Context, principal models.Principal, invitationID uuid.UUID) error {
	inv, err := s.invitations.GetByID(ctx, invitationID)
	if err != nil {
		return fmt.Errorf("get invitation: %w", err)
	}
	if inv == nil {
		return NewNotFoundError("invitation not found")
	}
	survey, err := s.loadSurvey(ctx, inv.SurveyID.String())
	if err != nil {
		return err
	}
	acc, err := s.access.Resolve(ctx, principal, survey)
	if err != nil {
		return err
	}
	if acc.ScopeTenantID != nil && *acc.ScopeTenantID != inv.TenantID {
		return NewUnauthorizedError(DenyNotAuthorized)
	}
	if inv.Status == models.InvitationCompleted {
		return NewConflictError("invitation already completed")
	}

	if err := s.invitations.TouchSent(ctx, inv.ID); err != nil {
		return fmt.Errorf("touch invitation: %w", err)
	}
	job := mail.InvitationJob{
		To:          inv.Email,
		Name:        inv.Name,
		SurveyRef:   survey.PublicID,
		SurveyTitle: survey.Title,
		Code:        inv.Code,
	}
	if err := s.mailer.EnqueueInvitation(ctx, job); err != nil {
		s.logger.Error("resend mail enqueue failed",
			zap.String("survey", survey.PublicID),
			zap.String("email", inv.Email),
			zap.Error(err),
		)
		return NewDependencyError("email dispatch failed")
	}
	return nil
}

// List returns a survey's invitations, restricted to the principal's tenant
// scope when the resolver assigns one.
func (s *InvitationService) List(ctx context.Context, principal models.Principal, surveyRef string) ([]models.Invitation, error) {
	survey, err := s.loadSurvey(ctx, surveyRef)
	if err != nil {
		return nil, err
	}
	acc, err := s.access.Resolve(ctx, principal, survey)
	if err != nil {
		return nil, err
	}
	scope := uuid.Nil
	if acc.ScopeTenantID != nil {
		scope = *acc.ScopeTenantID
	}
	invs, err := s.invitations.ListBySurvey(ctx, survey.ID, scope)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	return invs, nil
}

// SubmitByCode stores a code-based survey response and completes the
// invitation. Submitting twice neither errors nor stores a duplicate
// response.
func (s *InvitationService) SubmitByCode(ctx context.Context, surveyRef, code string, answers []models.Answer) error {
	verified, err := s.Verify(ctx, surveyRef, code)
	if err != nil {
		return err
	}
	survey, inv := verified.Survey, verified.Invitation
	if models.NormalizeStatus(survey.Status) != models.StatusActive {
		return NewValidationError("survey is not open for participation")
	}
	if inv.Status == models.InvitationCompleted {
		return nil
	}

	key := ""
	if !survey.IsAnonymous && inv.Department != "" {
		key = models.DepartmentKey(inv.TenantID, inv.Department)
	}
	if err := validateAnswers(survey, key, answers); err != nil {
		return err
	}

	response := &models.Response{
		SurveyID:    survey.ID,
		Answers:     answers,
		SubmittedAt: s.now(),
	}
	// Anonymous surveys never link the response back to the invitation;
	// completion alone is tracked on the invitation record.
	if !survey.IsAnonymous {
		id := inv.ID
		response.InvitationID = &id
	}
	if _, err := s.responses.Create(ctx, response); err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return s.MarkCompleted(ctx, inv.ID)
}

// SubmitByEmployee stores a response for a directly participating employee
// of an assigned tenant.
func (s *InvitationService) SubmitByEmployee(ctx context.Context, principal models.Principal, surveyRef, department string, answers []models.Answer) error {
	if principal.Role != models.RoleEmployee {
		return NewUnauthorizedError(DenyNotAuthorized)
	}
	survey, err := s.loadSurvey(ctx, surveyRef)
	if err != nil {
		return err
	}
	if models.NormalizeStatus(survey.Status) != models.StatusActive {
		return NewValidationError("survey is not open for participation")
	}
	tenant, err := s.tenants.GetByID(ctx, principal.TenantID)
	if err != nil {
		return fmt.Errorf("resolve tenant %s: %w", principal.TenantID, err)
	}
	if tenant == nil {
		return NewUnauthorizedError(DenyTenantNotFound)
	}
	if byID, byName := matchAssignment(survey, tenant); !byID && !byName {
		return NewUnauthorizedError(DenyNotAssigned)
	}

	key := ""
	if !survey.IsAnonymous && department != "" && tenant.HasDepartment(department) {
		key = models.DepartmentKey(tenant.ID, department)
	}
	if err := validateAnswers(survey, key, answers); err != nil {
		return err
	}

	response := &models.Response{
		SurveyID:    survey.ID,
		Answers:     answers,
		SubmittedAt: s.now(),
	}
	if !survey.IsAnonymous {
		response.Respondent = principal.UserID
	}
	if _, err := s.responses.Create(ctx, response); err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return nil
}

// validateAnswers checks a submission against the blocks visible to the
// respondent: every answer must target a visible question and every
// required visible question must carry a non-empty answer. Blocks the
// respondent cannot see can never make a submission invalid.
func validateAnswers(survey *models.Survey, departmentKey string, answers []models.Answer) error {
	visible := VisibleBlocks(survey, departmentKey)
	questions := make(map[uuid.UUID]models.Question)
	for _, b := range visible {
		for _, q := range b.Questions {
			questions[q.ID] = q
		}
	}

	answered := make(map[uuid.UUID]string, len(answers))
	for _, a := range answers {
		if _, ok := questions[a.QuestionID]; !ok {
			return NewValidationError(fmt.Sprintf("answer references unknown question %s", a.QuestionID))
		}
		answered[a.QuestionID] = a.Value
	}
	for id, q := range questions {
		if !q.Required {
			continue
		}
		if strings.TrimSpace(answered[id]) == "" {
			return NewValidationError(fmt.Sprintf("required question %s is unanswered", id))
		}
	}
	return nil
}

func (s *InvitationService) loadSurvey(ctx context.Context, ref string) (*models.Survey, error) {
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

package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Wilco-OS/meditec-sub000/internal/mail"
	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

// In-memory stand-ins for the postgres stores. They mirror the semantics
// the real stores get from SQL constraints (triple uniqueness, per-survey
// code uniqueness, conditional writes) so service tests exercise the same
// edge cases without a database.

type fakeTenantStore struct {
	tenants map[uuid.UUID]*models.Tenant
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{tenants: map[uuid.UUID]*models.Tenant{}}
}

func (s *fakeTenantStore) add(name string, departments ...string) *models.Tenant {
	t := &models.Tenant{ID: uuid.New(), Name: name, Departments: departments, CreatedAt: time.Now()}
	s.tenants[t.ID] = t
	return t
}

func (s *fakeTenantStore) Create(_ context.Context, name string, departments []string) (*models.Tenant, error) {
	return s.add(name, departments...), nil
}

func (s *fakeTenantStore) GetByID(_ context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTenantStore) List(_ context.Context) ([]models.Tenant, error) {
	out := make([]models.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, *t)
	}
	return out, nil
}

type fakeSurveyStore struct {
	surveys map[uuid.UUID]*models.Survey
}

func newFakeSurveyStore() *fakeSurveyStore {
	return &fakeSurveyStore{surveys: map[uuid.UUID]*models.Survey{}}
}

func (s *fakeSurveyStore) Create(_ context.Context, survey *models.Survey) (*models.Survey, error) {
	if survey.ID == uuid.Nil {
		survey.ID = uuid.New()
	}
	cp := *survey
	s.surveys[survey.ID] = &cp
	return survey, nil
}

func (s *fakeSurveyStore) GetByRef(_ context.Context, ref string) (*models.Survey, error) {
	for _, sv := range s.surveys {
		if sv.PublicID == ref || sv.ID.String() == ref {
			cp := *sv
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeSurveyStore) ListAll(_ context.Context) ([]models.Survey, error) {
	out := make([]models.Survey, 0, len(s.surveys))
	for _, sv := range s.surveys {
		out = append(out, *sv)
	}
	return out, nil
}

func (s *fakeSurveyStore) ListForTenant(_ context.Context, tenantID uuid.UUID, tenantName string) ([]models.Survey, error) {
	out := make([]models.Survey, 0)
	for _, sv := range s.surveys {
		match := false
		for _, id := range sv.AssignedCompanies {
			if id == tenantID {
				match = true
			}
		}
		for _, name := range sv.SpecialCompanyNames {
			if name == tenantName {
				match = true
			}
		}
		if match {
			out = append(out, *sv)
		}
	}
	return out, nil
}

func (s *fakeSurveyStore) UpdateDraft(_ context.Context, survey *models.Survey) (bool, error) {
	stored, ok := s.surveys[survey.ID]
	if !ok || models.NormalizeStatus(stored.Status) != models.StatusDraft {
		return false, nil
	}
	cp := *survey
	s.surveys[survey.ID] = &cp
	return true, nil
}

func (s *fakeSurveyStore) UpdateStatus(_ context.Context, surveyID uuid.UUID, from, to models.SurveyStatus) (bool, error) {
	stored, ok := s.surveys[surveyID]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	stored.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeSurveyStore) Delete(_ context.Context, surveyID uuid.UUID) (bool, error) {
	if _, ok := s.surveys[surveyID]; !ok {
		return false, nil
	}
	delete(s.surveys, surveyID)
	return true, nil
}

type fakeInvitationStore struct {
	invitations map[uuid.UUID]*models.Invitation
}

func newFakeInvitationStore() *fakeInvitationStore {
	return &fakeInvitationStore{invitations: map[uuid.UUID]*models.Invitation{}}
}

func (s *fakeInvitationStore) Upsert(_ context.Context, inv *models.Invitation) (*repository.UpsertResult, error) {
	for _, stored := range s.invitations {
		if stored.SurveyID == inv.SurveyID && stored.TenantID == inv.TenantID && stored.Email == inv.Email {
			stored.Name = inv.Name
			stored.Status = models.InvitationPending
			stored.Department = inv.Department
			stored.SentAt = inv.SentAt
			cp := *stored
			return &repository.UpsertResult{Invitation: &cp, Created: false}, nil
		}
	}
	for _, stored := range s.invitations {
		if stored.SurveyID == inv.SurveyID && stored.Code == inv.Code {
			return nil, repository.ErrCodeConflict
		}
	}
	cp := *inv
	cp.ID = uuid.New()
	s.invitations[cp.ID] = &cp
	out := cp
	return &repository.UpsertResult{Invitation: &out, Created: true}, nil
}

func (s *fakeInvitationStore) GetByID(_ context.Context, id uuid.UUID) (*models.Invitation, error) {
	inv, ok := s.invitations[id]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (s *fakeInvitationStore) GetBySurveyAndCode(_ context.Context, surveyID uuid.UUID, code string) (*models.Invitation, error) {
	for _, inv := range s.invitations {
		if inv.SurveyID == surveyID && inv.Code == code {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeInvitationStore) ListBySurvey(_ context.Context, surveyID, tenantID uuid.UUID) ([]models.Invitation, error) {
	out := make([]models.Invitation, 0)
	for _, inv := range s.invitations {
		if inv.SurveyID != surveyID {
			continue
		}
		if tenantID != uuid.Nil && inv.TenantID != tenantID {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (s *fakeInvitationStore) SetCompleted(_ context.Context, id uuid.UUID, at time.Time) error {
	inv, ok := s.invitations[id]
	if !ok {
		return nil
	}
	inv.Status = models.InvitationCompleted
	if inv.CompletedAt == nil {
		inv.CompletedAt = &at
	}
	return nil
}

func (s *fakeInvitationStore) TouchSent(_ context.Context, id uuid.UUID) error {
	if inv, ok := s.invitations[id]; ok {
		inv.SentAt = time.Now()
	}
	return nil
}

type fakeResponseStore struct {
	responses []*models.Response
}

func (s *fakeResponseStore) Create(_ context.Context, r *models.Response) (*models.Response, error) {
	cp := *r
	cp.ID = uuid.New()
	s.responses = append(s.responses, &cp)
	return &cp, nil
}

type fakeMailer struct {
	jobs    []mail.InvitationJob
	failFor map[string]bool
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{failFor: map[string]bool{}}
}

func (m *fakeMailer) EnqueueInvitation(_ context.Context, job mail.InvitationJob) error {
	if m.failFor[job.To] {
		return errors.New("outbox unavailable")
	}
	m.jobs = append(m.jobs, job)
	return nil
}

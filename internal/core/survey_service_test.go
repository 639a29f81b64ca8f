package core

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

type surveyFixture struct {
	svc     *SurveyService
	surveys *fakeSurveyStore
	tenants *fakeTenantStore
	tenant  *models.Tenant
	op      models.Principal
	admin   models.Principal
}

func newSurveyFixture(t *testing.T) *surveyFixture {
	t.Helper()
	tenants := newFakeTenantStore()
	tenant := tenants.add("Acme Care", "Nursing")
	surveys := newFakeSurveyStore()
	return &surveyFixture{
		svc:     NewSurveyService(surveys, tenants, zap.NewNop()),
		surveys: surveys,
		tenants: tenants,
		tenant:  tenant,
		op:      models.Principal{UserID: "op", Role: models.RoleMeditecAdmin},
		admin:   models.Principal{UserID: "ca", Role: models.RoleCompanyAdmin, TenantID: tenant.ID},
	}
}

func (f *surveyFixture) create(t *testing.T, input CreateSurveyInput) *models.Survey {
	t.Helper()
	survey, err := f.svc.Create(context.Background(), f.op, input)
	require.NoError(t, err)
	return survey
}

func TestCreateSurvey(t *testing.T) {
	f := newSurveyFixture(t)

	survey := f.create(t, CreateSurveyInput{
		Title: "  Quarterly Pulse  ",
		Blocks: []BlockInput{
			{Title: "General", Questions: []QuestionInput{
				{Text: "How was your week?", Type: models.QuestionText, Required: true},
				{Text: "Anything else?", Type: models.QuestionText},
			}},
			{Title: "Team", Questions: []QuestionInput{
				{Text: "Rate collaboration", Type: models.QuestionRating},
			}},
		},
	})

	require.Equal(t, "Quarterly Pulse", survey.Title)
	require.Equal(t, models.StatusDraft, survey.Status)
	require.True(t, strings.HasPrefix(survey.PublicID, "srv_"))
	require.Len(t, survey.PublicID, len("srv_")+12)
	require.Equal(t, "op", survey.CreatedBy)

	require.Len(t, survey.Blocks, 2)
	for i, b := range survey.Blocks {
		require.Equal(t, i, b.Order)
		require.NotEqual(t, uuid.Nil, b.ID)
		for j, q := range b.Questions {
			require.Equal(t, j, q.Order)
			require.NotEqual(t, uuid.Nil, q.ID)
		}
	}
	require.NotNil(t, survey.AssignedCompanies)
	require.NotNil(t, survey.SpecialCompanyNames)
}

func TestCreateSurveyValidation(t *testing.T) {
	f := newSurveyFixture(t)

	cases := []struct {
		name  string
		input CreateSurveyInput
	}{
		{"missing title", CreateSurveyInput{}},
		{"blank block title", CreateSurveyInput{Title: "S", Blocks: []BlockInput{{Title: "  "}}}},
		{"blank question text", CreateSurveyInput{Title: "S", Blocks: []BlockInput{
			{Title: "B", Questions: []QuestionInput{{Text: "", Type: models.QuestionText}}},
		}}},
		{"unknown question type", CreateSurveyInput{Title: "S", Blocks: []BlockInput{
			{Title: "B", Questions: []QuestionInput{{Text: "Q", Type: "freeform"}}},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.op, tc.input)
			require.Error(t, err)
			require.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestCreateSurveyOperatorOnly(t *testing.T) {
	f := newSurveyFixture(t)

	_, err := f.svc.Create(context.Background(), f.admin, CreateSurveyInput{Title: "S"})
	requireDenied(t, err, DenyNotAuthorized)
}

func TestGetSurveyByEitherIdentifier(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S"})

	byPublic, err := f.svc.Get(context.Background(), f.op, created.PublicID)
	require.NoError(t, err)
	byStorage, err := f.svc.Get(context.Background(), f.op, created.ID.String())
	require.NoError(t, err)
	require.Equal(t, byPublic.ID, byStorage.ID)
	require.Equal(t, byPublic.PublicID, byStorage.PublicID)
}

func TestGetSurveyUnknownRef(t *testing.T) {
	f := newSurveyFixture(t)
	f.create(t, CreateSurveyInput{Title: "S"})

	_, err := f.svc.Get(context.Background(), f.op, "srv_000000000000")
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestGetSurveyAppliesAccess(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S"})

	_, err := f.svc.Get(context.Background(), f.admin, created.PublicID)
	requireDenied(t, err, DenyNotAssigned)

	employee := models.Principal{UserID: "e", Role: models.RoleEmployee, TenantID: f.tenant.ID}
	_, err = f.svc.Get(context.Background(), employee, created.PublicID)
	requireDenied(t, err, DenyNotAuthorized)
}

func TestListSurveysDualPredicate(t *testing.T) {
	f := newSurveyFixture(t)
	byID := f.create(t, CreateSurveyInput{Title: "By ID", AssignedCompanies: []uuid.UUID{f.tenant.ID}})
	byName := f.create(t, CreateSurveyInput{Title: "By Name", SpecialCompanyNames: []string{"Acme Care"}})
	f.create(t, CreateSurveyInput{Title: "Unrelated"})

	all, err := f.svc.List(context.Background(), f.op)
	require.NoError(t, err)
	require.Len(t, all, 3)

	visible, err := f.svc.List(context.Background(), f.admin)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	ids := map[uuid.UUID]bool{}
	for _, s := range visible {
		ids[s.ID] = true
	}
	require.True(t, ids[byID.ID])
	require.True(t, ids[byName.ID])
}

func TestListSurveysMissingTenantFailsClosed(t *testing.T) {
	f := newSurveyFixture(t)
	ghost := models.Principal{UserID: "g", Role: models.RoleCompanyAdmin, TenantID: uuid.New()}

	_, err := f.svc.List(context.Background(), ghost)
	requireDenied(t, err, DenyTenantNotFound)
}

func TestUpdateSurveyDraft(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "Old", Description: "keep me"})

	title := "New"
	blocks := []BlockInput{{Title: "B", Questions: []QuestionInput{
		{Text: "Q", Type: models.QuestionYesNo, Required: true},
	}}}
	updated, err := f.svc.Update(context.Background(), f.op, created.PublicID, SurveyPatch{
		Title:  &title,
		Blocks: &blocks,
	})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, "keep me", updated.Description, "nil patch fields stay untouched")
	require.Len(t, updated.Blocks, 1)
	require.Len(t, updated.Blocks[0].Questions, 1)

	stored, err := f.svc.Get(context.Background(), f.op, created.PublicID)
	require.NoError(t, err)
	require.Equal(t, "New", stored.Title)
}

func TestUpdateSurveyNonDraftRejected(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S"})
	f.surveys.surveys[created.ID].Status = models.StatusActive

	title := "New"
	_, err := f.svc.Update(context.Background(), f.op, created.PublicID, SurveyPatch{Title: &title})
	require.Error(t, err)
	require.Equal(t, KindValidation, KindOf(err))
}

func TestUpdateSurveyOperatorOnly(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S", AssignedCompanies: []uuid.UUID{f.tenant.ID}})

	title := "New"
	_, err := f.svc.Update(context.Background(), f.admin, created.PublicID, SurveyPatch{Title: &title})
	requireDenied(t, err, DenyNotAuthorized)
}

func TestDeleteSurvey(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S"})

	require.NoError(t, f.svc.Delete(context.Background(), f.op, created.PublicID))
	_, err := f.svc.Get(context.Background(), f.op, created.PublicID)
	require.Equal(t, KindNotFound, KindOf(err))

	err = f.svc.Delete(context.Background(), f.op, created.PublicID)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestDeleteSurveyOperatorOnly(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S", AssignedCompanies: []uuid.UUID{f.tenant.ID}})

	err := f.svc.Delete(context.Background(), f.admin, created.PublicID)
	requireDenied(t, err, DenyNotAuthorized)
}

func TestEmployeeBlocks(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{
		Title:             "S",
		AssignedCompanies: []uuid.UUID{f.tenant.ID},
		Blocks: []BlockInput{
			{Title: "General", Questions: []QuestionInput{{Text: "Q1", Type: models.QuestionText}}},
			{
				Title:                 "Nursing only",
				RestrictToDepartments: true,
				Departments:           []string{models.DepartmentKey(f.tenant.ID, "Nursing")},
				Questions:             []QuestionInput{{Text: "Q2", Type: models.QuestionRating}},
			},
		},
	})
	f.surveys.surveys[created.ID].Status = models.StatusActive
	employee := models.Principal{UserID: "e", Role: models.RoleEmployee, TenantID: f.tenant.ID}

	blocks, err := f.svc.EmployeeBlocks(context.Background(), employee, created.PublicID, "Nursing")
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	blocks, err = f.svc.EmployeeBlocks(context.Background(), employee, created.PublicID, "")
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	// A department name the tenant does not define scopes nothing.
	blocks, err = f.svc.EmployeeBlocks(context.Background(), employee, created.PublicID, "Warehouse")
	require.NoError(t, err)
	require.Len(t, blocks, 1)
}

func TestEmployeeBlocksGuards(t *testing.T) {
	f := newSurveyFixture(t)
	created := f.create(t, CreateSurveyInput{Title: "S", AssignedCompanies: []uuid.UUID{f.tenant.ID}})
	employee := models.Principal{UserID: "e", Role: models.RoleEmployee, TenantID: f.tenant.ID}

	_, err := f.svc.EmployeeBlocks(context.Background(), employee, created.PublicID, "")
	require.Equal(t, KindValidation, KindOf(err), "draft surveys are not open")

	f.surveys.surveys[created.ID].Status = models.StatusActive

	_, err = f.svc.EmployeeBlocks(context.Background(), f.admin, created.PublicID, "")
	requireDenied(t, err, DenyNotAuthorized)

	outsider := f.tenants.add("Unassigned Co")
	stranger := models.Principal{UserID: "x", Role: models.RoleEmployee, TenantID: outsider.ID}
	_, err = f.svc.EmployeeBlocks(context.Background(), stranger, created.PublicID, "")
	requireDenied(t, err, DenyNotAssigned)
}

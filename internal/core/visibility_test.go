package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

func visibilitySurvey(tenantID uuid.UUID) *models.Survey {
	return &models.Survey{
		ID: uuid.New(),
		Blocks: []models.Block{
			{
				ID:    uuid.New(),
				Title: "Leadership",
				Order: 2,
				Questions: []models.Question{
					{ID: uuid.New(), Text: "q3", Type: models.QuestionRating, Order: 1},
					{ID: uuid.New(), Text: "q2", Type: models.QuestionRating, Order: 0},
				},
			},
			{
				ID:                    uuid.New(),
				Title:                 "Nursing only",
				Order:                 0,
				RestrictToDepartments: true,
				Departments:           []string{models.DepartmentKey(tenantID, "Nursing")},
				Questions: []models.Question{
					{ID: uuid.New(), Text: "q1", Type: models.QuestionText, Order: 0},
				},
			},
			{
				ID:        uuid.New(),
				Title:     "General",
				Order:     1,
				Questions: []models.Question{},
			},
		},
	}
}

func TestVisibleBlocksDepartmentMatch(t *testing.T) {
	tenantID := uuid.New()
	survey := visibilitySurvey(tenantID)

	blocks := VisibleBlocks(survey, models.DepartmentKey(tenantID, "Nursing"))
	require.Len(t, blocks, 3)
	require.Equal(t, "Nursing only", blocks[0].Title)
	require.Equal(t, "General", blocks[1].Title)
	require.Equal(t, "Leadership", blocks[2].Title)
}

func TestVisibleBlocksOtherDepartment(t *testing.T) {
	tenantID := uuid.New()
	survey := visibilitySurvey(tenantID)

	blocks := VisibleBlocks(survey, models.DepartmentKey(tenantID, "Admin"))
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		require.False(t, b.RestrictToDepartments)
	}
}

// Same department name under a different tenant must not match: the key is
// tenant-scoped.
func TestVisibleBlocksCrossTenantDepartment(t *testing.T) {
	tenantID := uuid.New()
	survey := visibilitySurvey(tenantID)

	blocks := VisibleBlocks(survey, models.DepartmentKey(uuid.New(), "Nursing"))
	require.Len(t, blocks, 2)
}

func TestVisibleBlocksAnonymousNeverSeesRestricted(t *testing.T) {
	tenantID := uuid.New()
	survey := visibilitySurvey(tenantID)
	survey.IsAnonymous = true

	blocks := VisibleBlocks(survey, "")
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		require.False(t, b.RestrictToDepartments)
	}
}

func TestVisibleBlocksOrdering(t *testing.T) {
	tenantID := uuid.New()
	survey := visibilitySurvey(tenantID)

	blocks := VisibleBlocks(survey, models.DepartmentKey(tenantID, "Nursing"))
	for i := 1; i < len(blocks); i++ {
		require.Less(t, blocks[i-1].Order, blocks[i].Order)
	}
	leadership := blocks[2]
	require.Equal(t, "q2", leadership.Questions[0].Text)
	require.Equal(t, "q3", leadership.Questions[1].Text)

	// The input survey keeps its original question order.
	require.Equal(t, "q3", survey.Blocks[0].Questions[0].Text)
}

func TestVisibleBlocksEmptySurvey(t *testing.T) {
	survey := &models.Survey{ID: uuid.New(), Blocks: []models.Block{}}
	blocks := VisibleBlocks(survey, "")
	require.NotNil(t, blocks)
	require.Empty(t, blocks)
}

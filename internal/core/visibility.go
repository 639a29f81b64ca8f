package core

import (
	"sort"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

// VisibleBlocks computes the question blocks a respondent may see.
//
// departmentKey is the respondent's tenant-scoped department membership key
// (models.DepartmentKey), or empty for a respondent with no department.
// Anonymous respondents always pass an empty key, so department-restricted
// blocks are invisible to them by construction rather than by special case.
//
// Blocks come back sorted by ascending order, questions within each block
// likewise. The input survey is not mutated.
func VisibleBlocks(survey *models.Survey, departmentKey string) []models.Block {
	visible := make([]models.Block, 0, len(survey.Blocks))
	for _, b := range survey.Blocks {
		if !blockVisible(&b, departmentKey) {
			continue
		}
		block := b
		block.Questions = append([]models.Question(nil), b.Questions...)
		sort.SliceStable(block.Questions, func(i, j int) bool {
			return block.Questions[i].Order < block.Questions[j].Order
		})
		visible = append(visible, block)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Order < visible[j].Order
	})
	return visible
}

func blockVisible(b *models.Block, departmentKey string) bool {
	if !b.RestrictToDepartments {
		return true
	}
	if departmentKey == "" {
		return false
	}
	for _, d := range b.Departments {
		if d == departmentKey {
			return true
		}
	}
	return false
}

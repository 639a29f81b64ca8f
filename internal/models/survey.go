package models

import (
	"time"

	"github.com/google/uuid"
)

// SurveyStatus is the canonical lifecycle state of a survey.
type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusScheduled SurveyStatus = "scheduled"
	StatusActive    SurveyStatus = "active"
	StatusCompleted SurveyStatus = "completed"
	StatusArchived  SurveyStatus = "archived"

	// Legacy values still present in older rows. Accepted on read,
	// never written by new transitions.
	statusLegacyPending    SurveyStatus = "pending"
	statusLegacyInProgress SurveyStatus = "in_progress"
)

// NormalizeStatus maps legacy aliases onto their canonical state. Unknown
// values pass through unchanged so callers can reject them explicitly.
func NormalizeStatus(s SurveyStatus) SurveyStatus {
	switch s {
	case statusLegacyPending:
		return StatusScheduled
	case statusLegacyInProgress:
		return StatusActive
	default:
		return s
	}
}

// ValidStatus reports whether s is a canonical state (after normalization).
func ValidStatus(s SurveyStatus) bool {
	switch NormalizeStatus(s) {
	case StatusDraft, StatusScheduled, StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// QuestionType is the tagged variant of a question's answer shape.
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionYesNo          QuestionType = "yes_no"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionAgreeDisagree  QuestionType = "agree_disagree"
	QuestionRating         QuestionType = "rating"
)

func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionText, QuestionYesNo, QuestionMultipleChoice, QuestionAgreeDisagree, QuestionRating:
		return true
	}
	return false
}

// Survey is a pulse-survey document.
//
// ID is the storage key; PublicID is the stable internal identifier assigned
// once at creation and never reassigned. Lookups accept either form.
//
// A tenant sees the survey through either of two independent assignment
// lists: its structured id in AssignedCompanies, or its current display name
// in SpecialCompanyNames (companies registered before structured ids
// existed). The two lists are checked independently on every access decision
// and are never merged.
type Survey struct {
	ID                  uuid.UUID    `json:"id"`
	PublicID            string       `json:"public_id"`
	Title               string       `json:"title"`
	Description         string       `json:"description,omitempty"`
	Status              SurveyStatus `json:"status"`
	IsAnonymous         bool         `json:"is_anonymous"`
	CreatedBy           string       `json:"created_by,omitempty"`
	StartDate           *time.Time   `json:"start_date,omitempty"`
	EndDate             *time.Time   `json:"end_date,omitempty"`
	AssignedCompanies   []uuid.UUID  `json:"assigned_companies"`
	SpecialCompanyNames []string     `json:"special_company_names"`
	Blocks              []Block      `json:"blocks"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// Block is an ordered, optionally department-restricted group of questions.
// A block belongs to exactly one survey; deleting the survey deletes its
// blocks. Departments holds tenant-scoped keys (see DepartmentKey) and is
// only meaningful when RestrictToDepartments is set.
type Block struct {
	ID                    uuid.UUID  `json:"id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description,omitempty"`
	Order                 int        `json:"order"`
	RestrictToDepartments bool       `json:"restrict_to_departments"`
	Departments           []string   `json:"departments"`
	Questions             []Question `json:"questions"`
}

// Question belongs to exactly one block. CatalogID is provenance only: it
// records which catalog entry the question was copied from and never affects
// behavior.
type Question struct {
	ID        uuid.UUID    `json:"id"`
	Text      string       `json:"text"`
	Type      QuestionType `json:"type"`
	Required  bool         `json:"required"`
	Order     int          `json:"order"`
	CatalogID *uuid.UUID   `json:"catalog_id,omitempty"`
}

// CatalogQuestion is an entry in the operator's question catalog, an
// external store this core only reads.
type CatalogQuestion struct {
	ID        uuid.UUID    `json:"id"`
	Text      string       `json:"text"`
	Type      QuestionType `json:"type"`
	CreatedAt time.Time    `json:"created_at"`
}

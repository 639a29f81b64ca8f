package models

import (
	"time"

	"github.com/google/uuid"
)

// InvitationStatus of a participation credential.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationCompleted InvitationStatus = "completed"
	InvitationExpired   InvitationStatus = "expired"
)

// Invitation grants one employee access to answer one survey via a one-time
// code. The (Email, SurveyID, TenantID) triple is unique: re-inviting the
// same person updates the existing record in place instead of creating a
// second one, and the original code survives the update.
//
// Code is 8 uppercase alphanumeric characters, unique within the survey.
// It must be hard to guess but is not a cryptographic secret.
type Invitation struct {
	ID          uuid.UUID        `json:"id"`
	SurveyID    uuid.UUID        `json:"survey_id"`
	TenantID    uuid.UUID        `json:"tenant_id"`
	Email       string           `json:"email"`
	Name        string           `json:"name"`
	Code        string           `json:"code"`
	Status      InvitationStatus `json:"status"`
	Department  string           `json:"department,omitempty"`
	SentAt      time.Time        `json:"sent_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
}

// Answer is a single question answer inside a submitted response. Value is
// left as a string at this layer; interpretation depends on the question
// type and belongs to the analytics surface, not this core.
type Answer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Value      string    `json:"value"`
}

// Response is a stored survey submission, either invitation-based
// (InvitationID set) or tied to an employee identity (Respondent set). For
// anonymous surveys both stay empty.
type Response struct {
	ID           uuid.UUID  `json:"id"`
	SurveyID     uuid.UUID  `json:"survey_id"`
	InvitationID *uuid.UUID `json:"invitation_id,omitempty"`
	Respondent   string     `json:"respondent,omitempty"`
	Answers      []Answer   `json:"answers"`
	SubmittedAt  time.Time  `json:"submitted_at"`
}

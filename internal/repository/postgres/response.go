package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

// ResponseStore persists submitted answers. Answers go in as one jsonb
// document: this core never queries individual answers, the analytics
// surface reads them wholesale.
type ResponseStore struct {
	pool *pgxpool.Pool
}

func NewResponseStore(pool *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{pool: pool}
}

func (s *ResponseStore) Create(ctx context.Context, r *models.Response) (*models.Response, error) {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}

	query := `
		INSERT INTO responses (survey_id, invitation_id, respondent, answers, submitted_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		RETURNING id`

	err = s.pool.QueryRow(ctx, query,
		r.SurveyID,
		r.InvitationID,
		r.Respondent,
		answers,
		r.SubmittedAt,
	).Scan(&r.ID)
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}
	return r, nil
}

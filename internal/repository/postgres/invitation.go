package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
	"github.com/Wilco-OS/meditec-sub000/internal/repository"
)

const (
	uniqueViolation   = "23505"
	codeConstraint    = "invitations_code_key"
	invitationColumns = `id, survey_id, tenant_id, email, name, code, status, COALESCE(department, ''), sent_at, completed_at`
)

// InvitationStore persists participation credentials. The two unique
// constraints do the heavy lifting: the triple constraint turns concurrent
// duplicate invites into one row, the code constraint keeps codes unique
// within a survey.
type InvitationStore struct {
	pool *pgxpool.Pool
}

func NewInvitationStore(pool *pgxpool.Pool) *InvitationStore {
	return &InvitationStore{pool: pool}
}

// Upsert inserts or, when the (survey, tenant, email) triple exists,
// refreshes the row in place: name and department updated, status reset to
// pending, sent_at bumped, the stored code untouched. The xmax trick tells
// insert and update apart without a second round trip.
func (s *InvitationStore) Upsert(ctx context.Context, inv *models.Invitation) (*repository.UpsertResult, error) {
	query := `
		INSERT INTO invitations (survey_id, tenant_id, email, name, code, status, department, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
		ON CONFLICT ON CONSTRAINT invitations_triple_key DO UPDATE
		SET name = EXCLUDED.name,
			status = 'pending',
			department = EXCLUDED.department,
			sent_at = EXCLUDED.sent_at
		RETURNING ` + invitationColumns + `, (xmax = 0) AS inserted`

	var out models.Invitation
	var inserted bool
	err := s.pool.QueryRow(ctx, query,
		inv.SurveyID,
		inv.TenantID,
		inv.Email,
		inv.Name,
		inv.Code,
		inv.Status,
		inv.Department,
		inv.SentAt,
	).Scan(
		&out.ID,
		&out.SurveyID,
		&out.TenantID,
		&out.Email,
		&out.Name,
		&out.Code,
		&out.Status,
		&out.Department,
		&out.SentAt,
		&out.CompletedAt,
		&inserted,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == codeConstraint {
			return nil, repository.ErrCodeConflict
		}
		return nil, fmt.Errorf("upsert invitation: %w", err)
	}
	return &repository.UpsertResult{Invitation: &out, Created: inserted}, nil
}

func (s *InvitationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE id = $1`

	return s.getOne(ctx, query, id)
}

func (s *InvitationStore) GetBySurveyAndCode(ctx context.Context, surveyID uuid.UUID, code string) (*models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE survey_id = $1 AND code = $2`

	return s.getOne(ctx, query, surveyID, code)
}

func (s *InvitationStore) getOne(ctx context.Context, query string, args ...any) (*models.Invitation, error) {
	var inv models.Invitation
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&inv.ID,
		&inv.SurveyID,
		&inv.TenantID,
		&inv.Email,
		&inv.Name,
		&inv.Code,
		&inv.Status,
		&inv.Department,
		&inv.SentAt,
		&inv.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return &inv, nil
}

func (s *InvitationStore) ListBySurvey(ctx context.Context, surveyID, tenantID uuid.UUID) ([]models.Invitation, error) {
	query := `
		SELECT ` + invitationColumns + `
		FROM invitations
		WHERE survey_id = $1 AND ($2::uuid = '00000000-0000-0000-0000-000000000000' OR tenant_id = $2)
		ORDER BY sent_at DESC`

	rows, err := s.pool.Query(ctx, query, surveyID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	invitations := make([]models.Invitation, 0)
	for rows.Next() {
		var inv models.Invitation
		if err := rows.Scan(
			&inv.ID,
			&inv.SurveyID,
			&inv.TenantID,
			&inv.Email,
			&inv.Name,
			&inv.Code,
			&inv.Status,
			&inv.Department,
			&inv.SentAt,
			&inv.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}

	return invitations, nil
}

// SetCompleted is idempotent at the SQL level: completed_at keeps its first
// value on repeated calls.
func (s *InvitationStore) SetCompleted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE invitations
		SET status = 'completed', completed_at = COALESCE(completed_at, $2)
		WHERE id = $1`

	if _, err := s.pool.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("set invitation completed: %w", err)
	}
	return nil
}

func (s *InvitationStore) TouchSent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `UPDATE invitations SET sent_at = now() WHERE id = $1`, id); err != nil {
		return fmt.Errorf("touch invitation: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Wilco-OS/meditec-sub000/internal/models"
)

const surveyColumns = `id, public_id, title, description, status, is_anonymous, created_by,
		start_date, end_date, assigned_companies, special_company_names, created_at, updated_at`

// SurveyStore persists survey documents. Surveys always load with their
// full block tree so the blocks list is present (possibly empty) on every
// returned document.
type SurveyStore struct {
	pool *pgxpool.Pool
}

func NewSurveyStore(pool *pgxpool.Pool) *SurveyStore {
	return &SurveyStore{pool: pool}
}

func (s *SurveyStore) Create(ctx context.Context, survey *models.Survey) (*models.Survey, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO surveys (public_id, title, description, status, is_anonymous, created_by,
			start_date, end_date, assigned_companies, special_company_names)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRow(ctx, query,
		survey.PublicID,
		survey.Title,
		survey.Description,
		survey.Status,
		survey.IsAnonymous,
		survey.CreatedBy,
		survey.StartDate,
		survey.EndDate,
		survey.AssignedCompanies,
		survey.SpecialCompanyNames,
	).Scan(&survey.ID, &survey.CreatedAt, &survey.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert survey: %w", err)
	}

	if err := insertBlocks(ctx, tx, survey.ID, survey.Blocks); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit survey: %w", err)
	}
	return survey, nil
}

// GetByRef accepts either the stable public id or the storage key.
func (s *SurveyStore) GetByRef(ctx context.Context, ref string) (*models.Survey, error) {
	query := `
		SELECT ` + surveyColumns + `
		FROM surveys
		WHERE public_id = $1 OR id::text = $1`

	var sv models.Survey
	err := s.pool.QueryRow(ctx, query, ref).Scan(
		&sv.ID,
		&sv.PublicID,
		&sv.Title,
		&sv.Description,
		&sv.Status,
		&sv.IsAnonymous,
		&sv.CreatedBy,
		&sv.StartDate,
		&sv.EndDate,
		&sv.AssignedCompanies,
		&sv.SpecialCompanyNames,
		&sv.CreatedAt,
		&sv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get survey: %w", err)
	}

	surveys := []models.Survey{sv}
	if err := s.attachBlocks(ctx, surveys); err != nil {
		return nil, err
	}
	return &surveys[0], nil
}

func (s *SurveyStore) ListAll(ctx context.Context) ([]models.Survey, error) {
	query := `
		SELECT ` + surveyColumns + `
		FROM surveys
		ORDER BY created_at DESC`

	return s.list(ctx, query)
}

// ListForTenant applies the dual assignment predicate in SQL: structured id
// membership and current-display-name membership, either is enough.
func (s *SurveyStore) ListForTenant(ctx context.Context, tenantID uuid.UUID, tenantName string) ([]models.Survey, error) {
	query := `
		SELECT ` + surveyColumns + `
		FROM surveys
		WHERE $1 = ANY(assigned_companies) OR $2 = ANY(special_company_names)
		ORDER BY created_at DESC`

	return s.list(ctx, query, tenantID, tenantName)
}

func (s *SurveyStore) list(ctx context.Context, query string, args ...any) ([]models.Survey, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	surveys := make([]models.Survey, 0)
	for rows.Next() {
		var sv models.Survey
		if err := rows.Scan(
			&sv.ID,
			&sv.PublicID,
			&sv.Title,
			&sv.Description,
			&sv.Status,
			&sv.IsAnonymous,
			&sv.CreatedBy,
			&sv.StartDate,
			&sv.EndDate,
			&sv.AssignedCompanies,
			&sv.SpecialCompanyNames,
			&sv.CreatedAt,
			&sv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		surveys = append(surveys, sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surveys: %w", err)
	}

	if err := s.attachBlocks(ctx, surveys); err != nil {
		return nil, err
	}
	return surveys, nil
}

// UpdateDraft replaces metadata and the block tree in one transaction. The
// WHERE status guard makes the write conditional: a survey that already
// left draft is reported back as ok=false, never partially updated.
func (s *SurveyStore) UpdateDraft(ctx context.Context, survey *models.Survey) (bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE surveys
		SET title = $2, description = $3, is_anonymous = $4, start_date = $5, end_date = $6,
			assigned_companies = $7, special_company_names = $8, updated_at = now()
		WHERE id = $1 AND status = 'draft'`

	tag, err := tx.Exec(ctx, query,
		survey.ID,
		survey.Title,
		survey.Description,
		survey.IsAnonymous,
		survey.StartDate,
		survey.EndDate,
		survey.AssignedCompanies,
		survey.SpecialCompanyNames,
	)
	if err != nil {
		return false, fmt.Errorf("update survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM blocks WHERE survey_id = $1`, survey.ID); err != nil {
		return false, fmt.Errorf("clear blocks: %w", err)
	}
	if err := insertBlocks(ctx, tx, survey.ID, survey.Blocks); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("commit draft update: %w", err)
	}
	return true, nil
}

// UpdateStatus is the conditional status write backing lifecycle
// transitions: last writer wins at document granularity, but only if the
// row still carries the expected from status.
func (s *SurveyStore) UpdateStatus(ctx context.Context, surveyID uuid.UUID, from, to models.SurveyStatus) (bool, error) {
	query := `
		UPDATE surveys
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	tag, err := s.pool.Exec(ctx, query, surveyID, from, to)
	if err != nil {
		return false, fmt.Errorf("update survey status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *SurveyStore) Delete(ctx context.Context, surveyID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM surveys WHERE id = $1`, surveyID)
	if err != nil {
		return false, fmt.Errorf("delete survey: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func insertBlocks(ctx context.Context, tx pgx.Tx, surveyID uuid.UUID, blocks []models.Block) error {
	for _, b := range blocks {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO blocks (id, survey_id, title, description, ord, restrict_to_departments, departments)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			b.ID, surveyID, b.Title, b.Description, b.Order, b.RestrictToDepartments, b.Departments,
		)
		if err != nil {
			return fmt.Errorf("insert block: %w", err)
		}
		for _, q := range b.Questions {
			if q.ID == uuid.Nil {
				q.ID = uuid.New()
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO questions (id, block_id, text, qtype, required, ord, catalog_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				q.ID, b.ID, q.Text, q.Type, q.Required, q.Order, q.CatalogID,
			)
			if err != nil {
				return fmt.Errorf("insert question: %w", err)
			}
		}
	}
	return nil
}

// attachBlocks loads the block trees for a set of surveys in two queries
// and fills them in, keeping Blocks a non-nil slice on every survey.
func (s *SurveyStore) attachBlocks(ctx context.Context, surveys []models.Survey) error {
	ids := make([]uuid.UUID, 0, len(surveys))
	for i := range surveys {
		surveys[i].Blocks = []models.Block{}
		ids = append(ids, surveys[i].ID)
	}
	if len(ids) == 0 {
		return nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, survey_id, title, description, ord, restrict_to_departments, departments
		FROM blocks
		WHERE survey_id = ANY($1)
		ORDER BY survey_id, ord`, ids)
	if err != nil {
		return fmt.Errorf("load blocks: %w", err)
	}
	defer rows.Close()

	blocksBySurvey := make(map[uuid.UUID][]models.Block)
	for rows.Next() {
		var b models.Block
		var surveyID uuid.UUID
		if err := rows.Scan(&b.ID, &surveyID, &b.Title, &b.Description, &b.Order, &b.RestrictToDepartments, &b.Departments); err != nil {
			return fmt.Errorf("scan block: %w", err)
		}
		b.Questions = []models.Question{}
		blocksBySurvey[surveyID] = append(blocksBySurvey[surveyID], b)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate blocks: %w", err)
	}

	qrows, err := s.pool.Query(ctx, `
		SELECT q.id, q.block_id, q.text, q.qtype, q.required, q.ord, q.catalog_id
		FROM questions q
		JOIN blocks b ON b.id = q.block_id
		WHERE b.survey_id = ANY($1)
		ORDER BY q.block_id, q.ord`, ids)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}
	defer qrows.Close()

	questionsByBlock := make(map[uuid.UUID][]models.Question)
	for qrows.Next() {
		var q models.Question
		var blockID uuid.UUID
		if err := qrows.Scan(&q.ID, &blockID, &q.Text, &q.Type, &q.Required, &q.Order, &q.CatalogID); err != nil {
			return fmt.Errorf("scan question: %w", err)
		}
		questionsByBlock[blockID] = append(questionsByBlock[blockID], q)
	}
	if err := qrows.Err(); err != nil {
		return fmt.Errorf("iterate questions: %w", err)
	}

	for surveyID, blocks := range blocksBySurvey {
		for i := range blocks {
			if qs, ok := questionsByBlock[blocks[i].ID]; ok {
				blocks[i].Questions = qs
			}
		}
		for i := range surveys {
			if surveys[i].ID == surveyID {
				surveys[i].Blocks = blocks
				break
			}
		}
	}
	return nil
}

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

// CatalogStore reads the operator's question catalog.
type CatalogStore struct {
	pool *pgxpool.Pool
}

func NewCatalogStore(pool *pgxpool.Pool) *CatalogStore {
	return &CatalogStore{pool: pool}
}

func (s *CatalogStore) List(ctx context.Context) ([]models.CatalogQuestion, error) {
	query := `
		SELECT id, text, qtype, created_at
		FROM catalog_questions
		ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog questions: %w", err)
	}
	defer rows.Close()

	questions := make([]models.CatalogQuestion, 0)
	for rows.Next() {
		var q models.CatalogQuestion
		if err := rows.Scan(&q.ID, &q.Text, &q.Type, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog questions: %w", err)
	}

	return questions, nil
}

func (s *CatalogStore) GetByID(ctx context.Context, id uuid.UUID) (*models.CatalogQuestion, error) {
	query := `
		SELECT id, text, qtype, created_at
		FROM catalog_questions
		WHERE id = $1`

	var q models.CatalogQuestion
	err := s.pool.QueryRow(ctx, query, id).Scan(&q.ID, &q.Text, &q.Type, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get catalog question: %w", err)
	}
	return &q, nil
}

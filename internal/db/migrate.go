package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// schema is applied on startup. Every statement is idempotent so a restart
// against an already-migrated database is a no-op.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tenants (
		id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		name        text NOT NULL UNIQUE,
		departments text[] NOT NULL DEFAULT '{}',
		created_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS surveys (
		id                    uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		public_id             text NOT NULL UNIQUE,
		title                 text NOT NULL,
		description           text NOT NULL DEFAULT '',
		status                text NOT NULL DEFAULT 'draft',
		is_anonymous          boolean NOT NULL DEFAULT false,
		created_by            text NOT NULL DEFAULT '',
		start_date            timestamptz,
		end_date              timestamptz,
		assigned_companies    uuid[] NOT NULL DEFAULT '{}',
		special_company_names text[] NOT NULL DEFAULT '{}',
		created_at            timestamptz NOT NULL DEFAULT now(),
		updated_at            timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blocks (
		id                      uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		survey_id               uuid NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
		title                   text NOT NULL,
		description             text NOT NULL DEFAULT '',
		ord                     integer NOT NULL,
		restrict_to_departments boolean NOT NULL DEFAULT false,
		departments             text[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_blocks_survey ON blocks (survey_id, ord)`,
	`CREATE TABLE IF NOT EXISTS questions (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		block_id   uuid NOT NULL REFERENCES blocks(id) ON DELETE CASCADE,
		text       text NOT NULL,
		qtype      text NOT NULL,
		required   boolean NOT NULL DEFAULT false,
		ord        integer NOT NULL,
		catalog_id uuid
	)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_block ON questions (block_id, ord)`,
	`CREATE TABLE IF NOT EXISTS catalog_questions (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		text       text NOT NULL,
		qtype      text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS invitations (
		id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		survey_id    uuid NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
		tenant_id    uuid NOT NULL REFERENCES tenants(id),
		email        text NOT NULL,
		name         text NOT NULL,
		code         text NOT NULL,
		status       text NOT NULL DEFAULT 'pending',
		department   text,
		sent_at      timestamptz NOT NULL DEFAULT now(),
		completed_at timestamptz,
		CONSTRAINT invitations_triple_key UNIQUE (survey_id, tenant_id, email),
		CONSTRAINT invitations_code_key UNIQUE (survey_id, code)
	)`,
	`CREATE TABLE IF NOT EXISTS responses (
		id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		survey_id     uuid NOT NULL REFERENCES surveys(id) ON DELETE CASCADE,
		invitation_id uuid REFERENCES invitations(id),
		respondent    text,
		answers       jsonb NOT NULL DEFAULT '[]',
		submitted_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_survey ON responses (survey_id)`,
}

// Migrate applies the schema against the pool.
func (db *DB) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	db.logger.Info("schema up to date", zap.Int("statements", len(schema)))
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema таблицы журнала отправок. Выполняется идемпотентно при старте.
var schema = []string{
	`CREATE SCHEMA IF NOT EXISTS content`,
	`CREATE TABLE IF NOT EXISTS content.submissions (
		id           UUID PRIMARY KEY,
		event_id     TEXT NOT NULL UNIQUE,
		event_type   TEXT NOT NULL,
		resource     TEXT NOT NULL,
		entity_id    TEXT NOT NULL,
		changed_by   TEXT NOT NULL,
		sections     JSONB NOT NULL DEFAULT '[]'::jsonb,
		submitted_at TIMESTAMPTZ NOT NULL,
		recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS submissions_entity_idx
		ON content.submissions (resource, entity_id, submitted_at DESC)`,
	`CREATE TABLE IF NOT EXISTS content.processed_events (
		event_id     TEXT PRIMARY KEY,
		processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate создает схему content, если ее еще нет
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	return nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xraph/passage"
)

type migration struct {
	Name    string
	Version string
	Up      string
}

var migrations = []migration{
	{
		Name:    "create_passage_services",
		Version: "20240101000001",
		Up: `
CREATE TABLE IF NOT EXISTS passage_services (
    id               BIGINT PRIMARY KEY,
    owner            TEXT NOT NULL DEFAULT '',
    price_amount     BIGINT NOT NULL DEFAULT 0,
    price_currency   TEXT NOT NULL DEFAULT '',
    paused           BOOLEAN NOT NULL DEFAULT FALSE,
    subscriber_count BIGINT NOT NULL DEFAULT 0,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_passage_services_owner ON passage_services (owner);
`,
	},
	{
		Name:    "create_passage_subscriptions",
		Version: "20240101000002",
		Up: `
CREATE TABLE IF NOT EXISTS passage_subscriptions (
    service_id BIGINT NOT NULL,
    subscriber TEXT NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (service_id, subscriber)
);

CREATE INDEX IF NOT EXISTS idx_passage_subs_subscriber ON passage_subscriptions (subscriber);
CREATE INDEX IF NOT EXISTS idx_passage_subs_expiry ON passage_subscriptions (service_id, expires_at);
`,
	},
	{
		Name:    "create_passage_earnings",
		Version: "20240101000003",
		Up: `
CREATE TABLE IF NOT EXISTS passage_earnings (
    service_id BIGINT PRIMARY KEY,
    amount     BIGINT NOT NULL DEFAULT 0,
    currency   TEXT NOT NULL DEFAULT ''
);
`,
	},
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS passage_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return fmt.Errorf("%w: create migration table: %v", passage.ErrMigrationFailed, err)
	}

	for _, m := range migrations {
		var applied int
		err := db.GetContext(ctx, &applied,
			`SELECT COUNT(1) FROM passage_migrations WHERE version = $1`, m.Version)
		if err != nil {
			return fmt.Errorf("%w: check %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: apply %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passage_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: record %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xraph/passage"
)

// migration is one versioned schema step. Versions are ordered
// lexicographically and recorded in passage_migrations so already-applied
// steps are skipped on restart.
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
    id               INTEGER PRIMARY KEY,
    owner            TEXT NOT NULL DEFAULT '',
    price_amount     INTEGER NOT NULL DEFAULT 0,
    price_currency   TEXT NOT NULL DEFAULT '',
    paused           INTEGER NOT NULL DEFAULT 0,
    subscriber_count INTEGER NOT NULL DEFAULT 0,
    created_at       TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at       TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_passage_services_owner ON passage_services (owner);
`,
	},
	{
		Name:    "create_passage_subscriptions",
		Version: "20240101000002",
		Up: `
CREATE TABLE IF NOT EXISTS passage_subscriptions (
    service_id INTEGER NOT NULL,
    subscriber TEXT NOT NULL,
    expires_at TEXT NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),
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
    service_id INTEGER PRIMARY KEY,
    amount     INTEGER NOT NULL DEFAULT 0,
    currency   TEXT NOT NULL DEFAULT ''
);
`,
	},
}

// runMigrations applies any pending steps in version order, each inside
// its own transaction together with the bookkeeping insert.
func runMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS passage_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`); err != nil {
		return fmt.Errorf("%w: create migration table: %v", passage.ErrMigrationFailed, err)
	}

	for _, m := range migrations {
		var applied int
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM passage_migrations WHERE version = ?`, m.Version).Scan(&applied)
		if err != nil {
			return fmt.Errorf("%w: check %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if applied > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: begin %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx, m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: apply %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO passage_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name); err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: record %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: commit %s: %v", passage.ErrMigrationFailed, m.Name, err)
		}
	}
	return nil
}

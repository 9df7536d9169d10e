// Package sqlite implements store.Store on an embedded SQLite database.
// It uses the pure-Go modernc.org/sqlite driver, so no cgo is required.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/xraph/passage"
	"github.com/xraph/passage/service"
	"github.com/xraph/passage/store"
	"github.com/xraph/passage/subscription"
	"github.com/xraph/passage/types"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// timeFormat keeps full precision. Trailing fractional zeros are
// trimmed, so stored TEXT values are not range-orderable; nothing
// queries timestamps by range.
const timeFormat = time.RFC3339Nano

// Store implements store.Store using SQLite via database/sql.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and returns a store bound
// to it. Use ":memory:" for an ephemeral database. WAL mode and a busy
// timeout are set up front so concurrent readers do not block writers.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("passage/sqlite: open %s: %w", path, err)
	}
	// SQLite allows one writer at a time; the engine serializes writes
	// anyway, so a single connection avoids SQLITE_BUSY entirely.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("passage/sqlite: %s: %w", pragma, err)
		}
	}
	return New(db), nil
}

// New wraps an already-open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle for direct access.
func (s *Store) DB() *sql.DB { return s.db }

// Migrate creates the required tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Service Store ====================

func (s *Store) CreateService(ctx context.Context, svc *service.Service) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var next int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id) + 1, 0) FROM passage_services`).Scan(&next); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO passage_services (id, owner, price_amount, price_currency, paused, subscriber_count, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		next,
		svc.Owner.String(),
		svc.MonthlyPrice.Amount,
		svc.MonthlyPrice.Currency,
		boolToInt(svc.Paused),
		svc.SubscriberCount,
		svc.CreatedAt.UTC().Format(timeFormat),
		svc.UpdatedAt.UTC().Format(timeFormat),
	); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO passage_earnings (service_id, amount, currency) VALUES (?, 0, ?)`,
		next, svc.MonthlyPrice.Currency,
	); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	svc.ID = next
	return next, nil
}

func (s *Store) GetService(ctx context.Context, serviceID int64) (*service.Service, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, owner, price_amount, price_currency, paused, subscriber_count, created_at, updated_at
FROM passage_services WHERE id = ?`, serviceID)
	return scanService(row)
}

func (s *Store) UpdateService(ctx context.Context, svc *service.Service) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE passage_services
SET owner = ?, price_amount = ?, price_currency = ?, paused = ?, subscriber_count = ?, updated_at = ?
WHERE id = ?`,
		svc.Owner.String(),
		svc.MonthlyPrice.Amount,
		svc.MonthlyPrice.Currency,
		boolToInt(svc.Paused),
		svc.SubscriberCount,
		svc.UpdatedAt.UTC().Format(timeFormat),
		svc.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return passage.ErrServiceNotFound
	}
	return nil
}

func (s *Store) NextServiceID(ctx context.Context) (int64, error) {
	var next int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(id) + 1, 0) FROM passage_services`).Scan(&next)
	return next, err
}

// ==================== Subscription Store ====================

func (s *Store) GetSubscription(ctx context.Context, serviceID int64, subscriber types.Identity) (*subscription.Subscription, error) {
	var (
		sub       subscription.Subscription
		expires   string
		updated   string
		subscName string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT service_id, subscriber, expires_at, updated_at
FROM passage_subscriptions WHERE service_id = ? AND subscriber = ?`,
		serviceID, subscriber.String(),
	).Scan(&sub.ServiceID, &subscName, &expires, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, passage.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	sub.Subscriber = types.Identity(subscName)
	if sub.ExpiresAt, err = time.Parse(timeFormat, expires); err != nil {
		return nil, fmt.Errorf("passage/sqlite: parse expires_at: %w", err)
	}
	if sub.UpdatedAt, err = time.Parse(timeFormat, updated); err != nil {
		return nil, fmt.Errorf("passage/sqlite: parse updated_at: %w", err)
	}
	return &sub, nil
}

func (s *Store) RecordSubscription(ctx context.Context, sub *subscription.Subscription, payment types.Money, newSubscriber bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM passage_services WHERE id = ?`, sub.ServiceID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return passage.ErrServiceNotFound
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO passage_subscriptions (service_id, subscriber, expires_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (service_id, subscriber) DO UPDATE SET expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		sub.ServiceID,
		sub.Subscriber.String(),
		sub.ExpiresAt.UTC().Format(timeFormat),
		sub.UpdatedAt.UTC().Format(timeFormat),
	); err != nil {
		return err
	}

	// An earnings pool that has been drained to zero adopts the currency of
	// the next payment.
	if _, err := tx.ExecContext(ctx, `
UPDATE passage_earnings
SET amount = amount + ?, currency = CASE WHEN amount = 0 THEN ? ELSE currency END
WHERE service_id = ?`,
		payment.Amount, payment.Currency, sub.ServiceID,
	); err != nil {
		return err
	}

	if newSubscriber {
		if _, err := tx.ExecContext(ctx, `
UPDATE passage_services SET subscriber_count = subscriber_count + 1 WHERE id = ?`,
			sub.ServiceID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ==================== Earnings Store ====================

func (s *Store) Earnings(ctx context.Context, serviceID int64) (types.Money, error) {
	var m types.Money
	err := s.db.QueryRowContext(ctx,
		`SELECT amount, currency FROM passage_earnings WHERE service_id = ?`, serviceID,
	).Scan(&m.Amount, &m.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Money{}, nil
	}
	if err != nil {
		return types.Money{}, err
	}
	return m, nil
}

func (s *Store) SetEarnings(ctx context.Context, serviceID int64, balance types.Money) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE passage_earnings SET amount = ?, currency = ? WHERE service_id = ?`,
		balance.Amount, balance.Currency, serviceID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return passage.ErrServiceNotFound
	}
	return nil
}

// ==================== helpers ====================

func scanService(row *sql.Row) (*service.Service, error) {
	var (
		svc      service.Service
		owner    string
		paused   int
		created  string
		updated  string
		parseErr error
	)
	err := row.Scan(
		&svc.ID, &owner, &svc.MonthlyPrice.Amount, &svc.MonthlyPrice.Currency,
		&paused, &svc.SubscriberCount, &created, &updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, passage.ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	svc.Owner = types.Identity(owner)
	svc.Paused = paused != 0
	if svc.CreatedAt, parseErr = time.Parse(timeFormat, created); parseErr != nil {
		return nil, fmt.Errorf("passage/sqlite: parse created_at: %w", parseErr)
	}
	if svc.UpdatedAt, parseErr = time.Parse(timeFormat, updated); parseErr != nil {
		return nil, fmt.Errorf("passage/sqlite: parse updated_at: %w", parseErr)
	}
	return &svc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

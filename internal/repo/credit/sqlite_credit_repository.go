package credit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/botdb"
)

// SQLiteCreditRepositoryConfig holds configuration for the SQLite credit repository.
type SQLiteCreditRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/renewbot.db"`
}

// SQLiteCreditRepository implements Repository using SQLite as the storage backend.
type SQLiteCreditRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteCreditRepository)(nil)

// SQLiteCreditRepositoryFactory creates a factory function that returns a new
// SQLiteCreditRepository. The factory function implements RepositoryFactory.
func SQLiteCreditRepositoryFactory(cfg SQLiteCreditRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteCreditRepository(cfg)
	}
}

// NewSQLiteCreditRepository creates a new SQLiteCreditRepository with the
// given configuration. It initializes the database connection and creates the
// schema if needed. Returns an error if database initialization fails.
func NewSQLiteCreditRepository(cfg SQLiteCreditRepositoryConfig) (*SQLiteCreditRepository, error) {
	log := logging.GetLogger("repo.credit.sqlite_credit_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := botdb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS customers (
			telegram_id INTEGER PRIMARY KEY,
			credits     INTEGER NOT NULL DEFAULT 0,
			username    TEXT,
			full_name   TEXT
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteCreditRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// GetBalance implements Repository.GetBalance using SQLite.
func (r *SQLiteCreditRepository) GetBalance(ctx context.Context, telegramID int64) (int64, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if err := r.ensure(ctx, telegramID); err != nil {
		return 0, err
	}

	var credits int64

	err := r.db.QueryRowContext(ctx,
		"SELECT credits FROM customers WHERE telegram_id = ?",
		telegramID,
	).Scan(&credits)
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}

	return credits, nil
}

// SetBalance implements Repository.SetBalance using SQLite.
func (r *SQLiteCreditRepository) SetBalance(ctx context.Context, telegramID, credits int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (telegram_id, credits) VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET credits = excluded.credits`,
		telegramID, credits,
	)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	return nil
}

// AddBalance implements Repository.AddBalance using SQLite.
func (r *SQLiteCreditRepository) AddBalance(ctx context.Context, telegramID, delta int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (telegram_id, credits) VALUES (?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET credits = credits + excluded.credits`,
		telegramID, delta,
	)
	if err != nil {
		return fmt.Errorf("add balance: %w", err)
	}

	return nil
}

// TryDecrement implements Repository.TryDecrement using SQLite. The guard
// and the decrement are one statement, so a concurrent mutation can never
// slip between the read and the write.
func (r *SQLiteCreditRepository) TryDecrement(ctx context.Context, telegramID int64) (bool, error) {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	res, err := r.db.ExecContext(ctx,
		"UPDATE customers SET credits = credits - 1 WHERE telegram_id = ? AND credits > 0",
		telegramID,
	)
	if err != nil {
		return false, fmt.Errorf("decrement credit: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

// UpsertProfile implements Repository.UpsertProfile using SQLite.
func (r *SQLiteCreditRepository) UpsertProfile(ctx context.Context, telegramID int64, username, fullName string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if err := r.ensure(ctx, telegramID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE customers SET
			username  = COALESCE(NULLIF(?, ''), username),
			full_name = COALESCE(NULLIF(?, ''), full_name)
		WHERE telegram_id = ?`,
		username, fullName, telegramID,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
}

// ListCustomers implements Repository.ListCustomers using SQLite.
func (r *SQLiteCreditRepository) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT telegram_id, credits, COALESCE(username, ''), COALESCE(full_name, '')
		FROM customers ORDER BY telegram_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query customers: %w", err)
	}
	defer rows.Close()

	var customers []domain.Customer

	for rows.Next() {
		var c domain.Customer

		if err := rows.Scan(&c.TelegramID, &c.Credits, &c.Username, &c.FullName); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}

		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}

	return customers, nil
}

// ensure inserts the holder record with a zero balance if it does not exist.
// Callers must hold the write lock.
func (r *SQLiteCreditRepository) ensure(ctx context.Context, telegramID int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO customers (telegram_id, credits) VALUES (?, 0)",
		telegramID,
	)
	if err != nil {
		return fmt.Errorf("ensure customer: %w", err)
	}

	return nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteCreditRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

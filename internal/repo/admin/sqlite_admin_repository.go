package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/botdb"
)

// SQLiteAdminRepositoryConfig holds configuration for the SQLite admin repository.
type SQLiteAdminRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/renewbot.db"`
}

// SQLiteAdminRepository implements Repository using SQLite as the storage backend.
type SQLiteAdminRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteAdminRepository)(nil)

// SQLiteAdminRepositoryFactory creates a factory function that returns a new
// SQLiteAdminRepository. The factory function implements RepositoryFactory.
func SQLiteAdminRepositoryFactory(cfg SQLiteAdminRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteAdminRepository(cfg)
	}
}

// NewSQLiteAdminRepository creates a new SQLiteAdminRepository with the given
// configuration, creating the schema if needed.
func NewSQLiteAdminRepository(cfg SQLiteAdminRepositoryConfig) (*SQLiteAdminRepository, error) {
	log := logging.GetLogger("repo.admin.sqlite_admin_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := botdb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS admins (
			telegram_id INTEGER PRIMARY KEY,
			username    TEXT,
			full_name   TEXT
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteAdminRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// Add implements Repository.Add using SQLite.
func (r *SQLiteAdminRepository) Add(ctx context.Context, telegramID int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO admins (telegram_id) VALUES (?)",
		telegramID,
	)
	if err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	return nil
}

// Remove implements Repository.Remove using SQLite.
func (r *SQLiteAdminRepository) Remove(ctx context.Context, telegramID int64) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM admins WHERE telegram_id = ?",
		telegramID,
	)
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}

	return nil
}

// IsAdmin implements Repository.IsAdmin using SQLite.
func (r *SQLiteAdminRepository) IsAdmin(ctx context.Context, telegramID int64) (bool, error) {
	var one int

	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM admins WHERE telegram_id = ?",
		telegramID,
	).Scan(&one)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("query admin: %w", err)
	}

	return true, nil
}

// UpsertProfile implements Repository.UpsertProfile using SQLite.
func (r *SQLiteAdminRepository) UpsertProfile(ctx context.Context, telegramID int64, username, fullName string) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (telegram_id, username, full_name) VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username  = excluded.username,
			full_name = excluded.full_name`,
		telegramID, username, fullName,
	)
	if err != nil {
		return fmt.Errorf("upsert admin profile: %w", err)
	}

	return nil
}

// List implements Repository.List using SQLite.
func (r *SQLiteAdminRepository) List(ctx context.Context) ([]domain.Admin, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT telegram_id, COALESCE(username, ''), COALESCE(full_name, '')
		FROM admins ORDER BY telegram_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	var admins []domain.Admin

	for rows.Next() {
		var a domain.Admin

		if err := rows.Scan(&a.TelegramID, &a.Username, &a.FullName); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}

		admins = append(admins, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}

	return admins, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteAdminRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

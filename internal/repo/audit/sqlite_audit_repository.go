package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/infra/logging"
	"github.com/mkrupp/renewbot/internal/repo/botdb"
)

// SQLiteAuditRepositoryConfig holds configuration for the SQLite audit repository.
type SQLiteAuditRepositoryConfig struct {
	// DatabasePath is the filesystem path to the SQLite database file
	DatabasePath string `env:"DATABASE_PATH" default:"var/storage/renewbot.db"`
}

// SQLiteAuditRepository implements Repository using SQLite as the storage backend.
type SQLiteAuditRepository struct {
	db        *sql.DB
	log       logging.Logger
	writeLock *sync.Mutex // go-sqlite does not support concurrent writes
}

var _ Repository = (*SQLiteAuditRepository)(nil)

// SQLiteAuditRepositoryFactory creates a factory function that returns a new
// SQLiteAuditRepository. The factory function implements RepositoryFactory.
func SQLiteAuditRepositoryFactory(cfg SQLiteAuditRepositoryConfig) RepositoryFactory {
	return func() (Repository, error) {
		return NewSQLiteAuditRepository(cfg)
	}
}

// NewSQLiteAuditRepository creates a new SQLiteAuditRepository with the given
// configuration, creating the schema if needed.
func NewSQLiteAuditRepository(cfg SQLiteAuditRepositoryConfig) (*SQLiteAuditRepository, error) {
	log := logging.GetLogger("repo.audit.sqlite_audit_repository").With(
		logging.Group("db", "path", cfg.DatabasePath),
	)

	db, err := botdb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS logs (
			id                      INTEGER PRIMARY KEY AUTOINCREMENT,
			ts_utc                  TEXT    NOT NULL,
			actor_id                INTEGER NOT NULL,
			actor_username          TEXT,
			target_panel_username   TEXT,
			success                 INTEGER NOT NULL,
			message                 TEXT
		)
	`); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteAuditRepository{
		db:        db,
		log:       log,
		writeLock: new(sync.Mutex),
	}, nil
}

// Append implements Repository.Append using SQLite. The entry timestamp is
// filled in when empty.
func (r *SQLiteAuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	r.writeLock.Lock()
	defer r.writeLock.Unlock()

	if entry.TimestampUTC == "" {
		entry.TimestampUTC = time.Now().UTC().Format(time.RFC3339)
	}

	success := 0
	if entry.Success {
		success = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO logs (ts_utc, actor_id, actor_username, target_panel_username, success, message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.TimestampUTC, entry.ActorID, entry.ActorUsername, entry.TargetUsername, success, entry.Message,
	)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}

	return nil
}

// ListRecent implements Repository.ListRecent using SQLite.
func (r *SQLiteAuditRepository) ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ts_utc, actor_id, COALESCE(actor_username, ''),
		       COALESCE(target_panel_username, ''), success, COALESCE(message, '')
		FROM logs ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry

	for rows.Next() {
		var (
			entry   domain.AuditEntry
			success int
		)

		if err := rows.Scan(
			&entry.ID, &entry.TimestampUTC, &entry.ActorID, &entry.ActorUsername,
			&entry.TargetUsername, &success, &entry.Message,
		); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}

		entry.Success = success != 0

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}

	return entries, nil
}

// Close implements Repository.Close by closing the database connection.
func (r *SQLiteAuditRepository) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}

	return nil
}

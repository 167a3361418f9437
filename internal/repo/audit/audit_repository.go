package audit

import (
	"context"

	"github.com/mkrupp/renewbot/internal/domain"
)

// Repository defines the interface for the renewal audit log. Entries are
// append-only; nothing in the system updates or deletes them.
type Repository interface {
	// Append records one renewal attempt.
	Append(ctx context.Context, entry domain.AuditEntry) error

	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, limit int) ([]domain.AuditEntry, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)

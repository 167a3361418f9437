package admin

import (
	"context"

	"github.com/mkrupp/renewbot/internal/domain"
)

// Repository defines the interface for the persisted admin roster.
// Superadmins live in the environment, normal admins live here.
type Repository interface {
	// Add puts the given Telegram id on the roster. Adding an existing
	// admin is a no-op.
	Add(ctx context.Context, telegramID int64) error

	// Remove drops the given Telegram id from the roster. Removing an
	// unknown admin is a no-op.
	Remove(ctx context.Context, telegramID int64) error

	// IsAdmin reports whether the given Telegram id is on the roster.
	IsAdmin(ctx context.Context, telegramID int64) (bool, error)

	// UpsertProfile stores display metadata for a roster member,
	// adding the member if absent.
	UpsertProfile(ctx context.Context, telegramID int64, username, fullName string) error

	// List returns all roster members ordered by telegram id.
	List(ctx context.Context) ([]domain.Admin, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)

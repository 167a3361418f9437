package credit

import (
	"context"

	"github.com/mkrupp/renewbot/internal/domain"
)

// Repository defines the interface for the durable credit ledger. Every
// operation is a separate atomic unit of work; holders are created on first
// touch with a zero balance.
type Repository interface {
	// GetBalance returns the holder's current balance, creating the holder
	// record with balance 0 if absent.
	GetBalance(ctx context.Context, telegramID int64) (int64, error)

	// SetBalance unconditionally overwrites the holder's balance,
	// creating the record if absent.
	SetBalance(ctx context.Context, telegramID, credits int64) error

	// AddBalance adds delta to the holder's balance, creating the record
	// if absent. Delta may be any integer.
	AddBalance(ctx context.Context, telegramID, delta int64) error

	// TryDecrement atomically decrements the holder's balance by one.
	// Returns false without mutation when the balance is zero or below,
	// or when the holder does not exist.
	TryDecrement(ctx context.Context, telegramID int64) (bool, error)

	// UpsertProfile stores display metadata for the holder, creating the
	// record if absent. Empty values keep whatever is already stored.
	UpsertProfile(ctx context.Context, telegramID int64, username, fullName string) error

	// ListCustomers returns all holders ordered by telegram id.
	ListCustomers(ctx context.Context) ([]domain.Customer, error)

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)

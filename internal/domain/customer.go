package domain

// Customer represents an account holder whose credit balance gates renewals.
// Customers are created implicitly on first interaction with a zero balance
// and are never deleted.
type Customer struct {
	TelegramID int64  // Chat-platform user id, the stable identity
	Credits    int64  // Remaining renewal credits, never negative
	Username   string // Telegram handle, cosmetic
	FullName   string // Display name, cosmetic
}

// Admin represents a member of the admin roster.
type Admin struct {
	TelegramID int64
	Username   string
	FullName   string
}

package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed is returned when the panel credential exchange fails.
	ErrAuthFailed = errors.New("panel authentication failed")
)

// PanelUser is the slice of a remote panel account record this system cares
// about. It is fetched and mutated but never cached beyond a single renewal.
type PanelUser struct {
	Username string `json:"username"` // Account name on the remote panel
	Status   string `json:"status"`   // "active" or another panel state
	Expire   int64  `json:"expire"`   // Absolute expiry, Unix seconds
}

// RemoteError describes a non-success, non-unauthorized panel response or a
// transport-level failure. StatusCode is zero for transport errors.
type RemoteError struct {
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("panel request failed: %s", e.Body)
	}

	return fmt.Sprintf("panel returned %d: %s", e.StatusCode, e.Body)
}

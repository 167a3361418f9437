package domain

// RenewalOutcome is the result of one logical renewal. It is the only value
// that crosses from the renewal core into the chat layer; no error ever does.
type RenewalOutcome struct {
	OK       bool   // Whether the remote renewal succeeded and was charged
	Message  string // Human-readable result text, shown to the end user
	Username string // Confirmed panel username, set on success
	Expire   int64  // New expiry in Unix seconds, set on success
}

// AuditEntry is one row of the renewal audit log.
type AuditEntry struct {
	ID             int64
	TimestampUTC   string // RFC 3339 timestamp of the attempt
	ActorID        int64  // Telegram id of whoever triggered the renewal
	ActorUsername  string
	TargetUsername string // Panel username the renewal targeted
	Success        bool
	Message        string
}

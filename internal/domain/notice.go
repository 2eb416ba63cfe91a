package domain

import "time"

// Notice severities, in increasing order of urgency.
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notice is a short-lived storefront notification shown to a single session.
// Notices expire automatically; expired notices are never returned to the
// client.
type Notice struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the notice has passed its expiry at the given
// instant.
func (n *Notice) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// ValidSeverity reports whether s is a recognized notice severity.
func ValidSeverity(s string) bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

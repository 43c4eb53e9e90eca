package domain

import "time"

// UserSession is the server-side row behind a session token. CreatedAt is the
// login instant; the token's iat and the client's stored loginTime are copies of it.
type UserSession struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	SessionID    string    `json:"session_id"`
	Provider     string    `json:"provider"`
	DeviceInfo   string    `json:"device_info"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
	IsActive     bool      `json:"is_active"`
}

const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

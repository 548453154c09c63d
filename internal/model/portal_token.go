package model

import (
	"time"
)

// PortalToken grants an unauthenticated client scoped, time-limited access
// to one client's portal. Only the SHA-256 hash of the secret is stored;
// rows are kept after use as an audit trail.
type PortalToken struct {
	ID        int64      `db:"id" json:"id"`
	ClientID  int64      `db:"client_id" json:"clientId"`
	TokenHash string     `db:"token_hash" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
}

// CreatePortalTokenParams contains parameters for persisting a new token.
type CreatePortalTokenParams struct {
	ClientID  int64
	TokenHash string
	ExpiresAt time.Time
}

// IsUsed reports whether the token has been consumed.
func (t *PortalToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsExpired reports whether the token is past its TTL.
func (t *PortalToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid reports whether the token may still be presented.
func (t *PortalToken) IsValid() bool {
	return !t.IsExpired() && !t.IsUsed()
}

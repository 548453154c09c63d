package model

import (
	"time"
)

// RefreshToken is the long-lived counterpart of a JWT access token. The
// raw secret is opaque to the server; only its hash is stored.
type RefreshToken struct {
	ID             int64      `db:"id" json:"id"`
	UserID         int64      `db:"user_id" json:"userId"`
	TokenHash      string     `db:"token_hash" json:"-"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	ExpiresAt      time.Time  `db:"expires_at" json:"expiresAt"`
	RevokedAt      *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	CreatedByIP    *string    `db:"created_by_ip" json:"-"`
	ReplacedByHash *string    `db:"replaced_by_hash" json:"-"`
}

type CreateRefreshTokenParams struct {
	UserID      int64
	TokenHash   string
	ExpiresAt   time.Time
	CreatedByIP *string
}

func (t *RefreshToken) IsActive() bool {
	return t.RevokedAt == nil && time.Now().Before(t.ExpiresAt)
}

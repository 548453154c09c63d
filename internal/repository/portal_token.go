package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/model"
)

// PortalTokenRepository handles portal token data operations. Tokens are
// append-only: the single permitted mutation is the conditional consume.
type PortalTokenRepository interface {
	Create(ctx context.Context, params model.CreatePortalTokenParams) (*model.PortalToken, error)
	FindByHashAndClient(ctx context.Context, tokenHash string, clientID int64) (*model.PortalToken, error)
	// Consume sets used_at if and only if the token is still unused and
	// unexpired. Returns false when another caller won the race or the
	// token is no longer valid.
	Consume(ctx context.Context, id int64) (bool, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) PortalTokenRepository
}

type portalTokenRepo struct {
	db database.DBTX
}

// NewPortalTokenRepository creates a new portal token repository
func NewPortalTokenRepository(db *sqlx.DB) PortalTokenRepository {
	return &portalTokenRepo{db: db}
}

func (r *portalTokenRepo) WithTx(tx *sqlx.Tx) PortalTokenRepository {
	return &portalTokenRepo{db: tx}
}

func (r *portalTokenRepo) Create(ctx context.Context, params model.CreatePortalTokenParams) (*model.PortalToken, error) {
	var token model.PortalToken
	err := r.db.GetContext(ctx, &token, `
		INSERT INTO client_portal_tokens (client_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
		RETURNING *
	`, params.ClientID, params.TokenHash, params.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *portalTokenRepo) FindByHashAndClient(ctx context.Context, tokenHash string, clientID int64) (*model.PortalToken, error) {
	var token model.PortalToken
	err := r.db.GetContext(ctx, &token, `
		SELECT * FROM client_portal_tokens
		WHERE token_hash = $1 AND client_id = $2
	`, tokenHash, clientID)
	return HandleNotFound(&token, err)
}

// Consume is the compare-and-set that enforces single use: the WHERE clause
// only matches an unused, unexpired row, so concurrent callers cannot both
// observe an affected row.
func (r *portalTokenRepo) Consume(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE client_portal_tokens
		SET used_at = $2
		WHERE id = $1 AND used_at IS NULL AND expires_at > NOW()
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

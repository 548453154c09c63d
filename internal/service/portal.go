package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/fivvy/server-go/internal/database"
	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
	"github.com/fivvy/server-go/internal/util"
)

// IssuedToken carries the one-time raw secret back to the caller. The raw
// value is never persisted and cannot be recovered after this response.
type IssuedToken struct {
	Token     *model.PortalToken
	RawToken  string
	PortalURL string
}

// PortalService handles client portal token issuance and the token-gated
// portal operations.
type PortalService struct {
	txRunner        database.TxRunner
	tokens          repository.PortalTokenRepository
	clients         repository.ClientRepository
	projects        repository.ProjectRepository
	invoices        repository.InvoiceRepository
	tokenTTL        time.Duration
	frontendBaseURL string
}

// NewPortalService creates a new portal service
func NewPortalService(
	txRunner database.TxRunner,
	tokens repository.PortalTokenRepository,
	clients repository.ClientRepository,
	projects repository.ProjectRepository,
	invoices repository.InvoiceRepository,
	tokenTTL time.Duration,
	frontendBaseURL string,
) *PortalService {
	return &PortalService{
		txRunner:        txRunner,
		tokens:          tokens,
		clients:         clients,
		projects:        projects,
		invoices:        invoices,
		tokenTTL:        tokenTTL,
		frontendBaseURL: frontendBaseURL,
	}
}

// IssueToken mints a single-use portal token for the client with the given
// TTL (the configured default when ttl is zero or negative). Issuing a new
// token never revokes earlier ones; each expires or is consumed on its own.
func (s *PortalService) IssueToken(ctx context.Context, clientID int64, ttl time.Duration) (*IssuedToken, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}

	if ttl <= 0 {
		ttl = s.tokenTTL
	}

	raw, err := util.GeneratePortalToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to generate token").WithCause(err)
	}

	token, err := s.tokens.Create(ctx, model.CreatePortalTokenParams{
		ClientID:  clientID,
		TokenHash: util.HashToken(raw),
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Int64("clientId", clientID).
		Int64("tokenId", token.ID).
		Time("expiresAt", token.ExpiresAt).
		Msg("portal token issued")

	return &IssuedToken{
		Token:     token,
		RawToken:  raw,
		PortalURL: s.portalURL(clientID, raw),
	}, nil
}

func (s *PortalService) portalURL(clientID int64, raw string) string {
	if s.frontendBaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/portal/%d?token=%s", s.frontendBaseURL, clientID, raw)
}

// ValidateToken checks a raw token against the stored hash for the client.
// With markUsed set it atomically consumes the token; at most one caller
// ever observes true for a given token.
func (s *PortalService) ValidateToken(ctx context.Context, clientID int64, rawToken string, markUsed bool) (bool, error) {
	return s.validateToken(ctx, s.tokens, clientID, rawToken, markUsed)
}

// validateToken runs against whichever repository binding the caller holds,
// so the approval transaction can consume through its own tx.
func (s *PortalService) validateToken(
	ctx context.Context,
	tokens repository.PortalTokenRepository,
	clientID int64,
	rawToken string,
	markUsed bool,
) (bool, error) {
	if rawToken == "" {
		return false, nil
	}

	token, err := tokens.FindByHashAndClient(ctx, util.HashToken(rawToken), clientID)
	if err != nil {
		return false, apperrors.Database(err)
	}
	if token == nil {
		return false, nil
	}

	if !markUsed {
		return token.IsValid(), nil
	}

	consumed, err := tokens.Consume(ctx, token.ID)
	if err != nil {
		return false, apperrors.Database(err)
	}
	if !consumed {
		log.Warn().
			Int64("clientId", clientID).
			Int64("tokenId", token.ID).
			Msg("portal token consume lost: already used or expired")
	}
	return consumed, nil
}

// GetPortalData returns the read-only portal view for the client. Reading
// the portal does not consume the token.
func (s *PortalService) GetPortalData(ctx context.Context, clientID int64, rawToken string) (*model.PortalData, error) {
	valid, err := s.ValidateToken(ctx, clientID, rawToken, false)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperrors.InvalidToken("Invalid or expired portal token")
	}

	client, err := s.clients.FindPortalClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}

	projects, err := s.projects.ListPortalByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	invoices, err := s.invoices.ListPortalByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &model.PortalData{
		Client:   *client,
		Projects: projects,
		Invoices: invoices,
	}, nil
}

// ApproveInvoice consumes the portal token and approves the invoice in a
// single transaction. When the invoice is bound to an inactive project the
// project is activated in the same transaction; any failure after the
// consume rolls the token back to unused.
func (s *PortalService) ApproveInvoice(ctx context.Context, clientID, invoiceID int64, rawToken string) (*model.Invoice, error) {
	// Cheap pre-check outside the transaction so obviously bad tokens never
	// open one. The authoritative check is the consume inside the tx.
	valid, err := s.ValidateToken(ctx, clientID, rawToken, false)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, apperrors.InvalidToken("Invalid or expired portal token")
	}

	var approved *model.Invoice
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		consumed, err := s.validateToken(ctx, s.tokens.WithTx(tx), clientID, rawToken, true)
		if err != nil {
			return err
		}
		if !consumed {
			return apperrors.InvalidToken("Invalid or expired portal token")
		}

		invoiceRepo := s.invoices.WithTx(tx)
		invoice, err := invoiceRepo.FindByIDForClient(ctx, invoiceID, clientID)
		if err != nil {
			return apperrors.Database(err)
		}
		if invoice == nil {
			return apperrors.NotFound("Invoice")
		}
		if invoice.IsApproved() {
			return apperrors.New(apperrors.ErrCodeConflict, "Invoice is already approved")
		}

		ok, err := invoiceRepo.Approve(ctx, invoiceID, clientID)
		if err != nil {
			return apperrors.Database(err)
		}
		if !ok {
			return apperrors.New(apperrors.ErrCodeConflict, "Invoice is already approved")
		}

		if invoice.ProjectID != nil {
			// Activation is conditional on is_active; an already running
			// project is left untouched.
			activated, err := s.projects.WithTx(tx).Activate(ctx, *invoice.ProjectID)
			if err != nil {
				return apperrors.Database(err)
			}
			if activated {
				log.Info().
					Int64("projectId", *invoice.ProjectID).
					Int64("invoiceId", invoiceID).
					Msg("project activated by invoice approval")
			}
		}

		invoice, err = invoiceRepo.FindByIDForClient(ctx, invoiceID, clientID)
		if err != nil {
			return apperrors.Database(err)
		}
		approved = invoice
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("clientId", clientID).
		Int64("invoiceId", invoiceID).
		Msg("invoice approved via portal")

	return approved, nil
}

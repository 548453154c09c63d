package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/fivvy/server-go/internal/database"
	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
)

// InvoiceService handles invoice CRUD for the authenticated owner. Approval
// is not here: invoices are approved by the client through the portal.
type InvoiceService struct {
	txRunner database.TxRunner
	invoices repository.InvoiceRepository
	clients  repository.ClientRepository
	projects repository.ProjectRepository
}

func NewInvoiceService(
	txRunner database.TxRunner,
	invoices repository.InvoiceRepository,
	clients repository.ClientRepository,
	projects repository.ProjectRepository,
) *InvoiceService {
	return &InvoiceService{txRunner: txRunner, invoices: invoices, clients: clients, projects: projects}
}

func (s *InvoiceService) Get(ctx context.Context, id, userID int64) (*model.Invoice, error) {
	invoice, err := s.invoices.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if invoice == nil {
		return nil, apperrors.NotFound("Invoice")
	}
	return invoice, nil
}

func (s *InvoiceService) List(ctx context.Context, userID int64) ([]model.Invoice, error) {
	invoices, err := s.invoices.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return invoices, nil
}

func (s *InvoiceService) Create(ctx context.Context, userID int64, params model.CreateInvoiceParams) (*model.Invoice, error) {
	if strings.TrimSpace(params.InvoiceNumber) == "" {
		return nil, apperrors.MissingRequired("invoiceNumber")
	}
	if params.DueDate.Before(params.InvoiceDate) {
		return nil, apperrors.InvalidInput("dueDate", "must not be before the invoice date")
	}
	if params.Total < 0 {
		return nil, apperrors.InvalidInput("total", "must not be negative")
	}

	client, err := s.clients.FindByIDForUser(ctx, params.ClientID, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}

	if params.ProjectID != nil {
		project, err := s.projects.FindByIDForUser(ctx, *params.ProjectID, userID)
		if err != nil {
			return nil, apperrors.Database(err)
		}
		if project == nil {
			return nil, apperrors.NotFound("Project")
		}
		if project.ClientID != params.ClientID {
			return nil, apperrors.InvalidInput("projectId", "project belongs to a different client")
		}
	}

	// Header insert and line items commit together.
	var invoice *model.Invoice
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		created, err := s.invoices.WithTx(tx).Create(ctx, params)
		if err != nil {
			return err
		}
		invoice = created
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().
		Int64("invoiceId", invoice.ID).
		Int64("clientId", params.ClientID).
		Str("invoiceNumber", invoice.InvoiceNumber).
		Msg("invoice created")
	return invoice, nil
}

func (s *InvoiceService) Update(ctx context.Context, id, userID int64, params model.UpdateInvoiceParams) (*model.Invoice, error) {
	existing, err := s.invoices.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if existing == nil {
		return nil, apperrors.NotFound("Invoice")
	}
	if existing.IsApproved() {
		return nil, apperrors.New(apperrors.ErrCodeConflict, "Approved invoices cannot be modified")
	}

	// The line-item replace is delete-then-insert; without a transaction a
	// failed insert would leave the invoice stripped of its items.
	var invoice *model.Invoice
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err := s.invoices.WithTx(tx).Update(ctx, id, userID, params)
		if err != nil {
			return err
		}
		invoice = updated
		return nil
	})
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if invoice == nil {
		return nil, apperrors.NotFound("Invoice")
	}
	return invoice, nil
}

func (s *InvoiceService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.invoices.Delete(ctx, id, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.NotFound("Invoice")
	}
	log.Info().Int64("invoiceId", id).Int64("userId", userID).Msg("invoice deleted")
	return nil
}

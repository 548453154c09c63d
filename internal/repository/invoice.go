package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/model"
)

type InvoiceRepository interface {
	FindByIDForUser(ctx context.Context, id, userID int64) (*model.Invoice, error)
	FindByIDForClient(ctx context.Context, id, clientID int64) (*model.Invoice, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Invoice, error)
	Create(ctx context.Context, params model.CreateInvoiceParams) (*model.Invoice, error)
	Update(ctx context.Context, id, userID int64, params model.UpdateInvoiceParams) (*model.Invoice, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	// Approve marks a pending invoice approved and stamps paid_at. The
	// conditional update fails for unknown ids, foreign clients and
	// already-approved invoices alike.
	Approve(ctx context.Context, id, clientID int64) (bool, error)
	ListPortalByClient(ctx context.Context, clientID int64) ([]model.PortalInvoice, error)
	LoadLineItems(ctx context.Context, invoice *model.Invoice) error
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) InvoiceRepository
}

type invoiceRepo struct {
	db database.DBTX
}

func NewInvoiceRepository(db *sqlx.DB) InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) WithTx(tx *sqlx.Tx) InvoiceRepository {
	return &invoiceRepo{db: tx}
}

func (r *invoiceRepo) FindByIDForUser(ctx context.Context, id, userID int64) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		SELECT i.* FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.id = $1 AND c.user_id = $2
	`, id, userID)
	found, err := HandleNotFound(&invoice, err)
	if found == nil || err != nil {
		return nil, err
	}
	if err := r.LoadLineItems(ctx, found); err != nil {
		return nil, err
	}
	return found, nil
}

func (r *invoiceRepo) FindByIDForClient(ctx context.Context, id, clientID int64) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		SELECT * FROM invoices WHERE id = $1 AND client_id = $2
	`, id, clientID)
	return HandleNotFound(&invoice, err)
}

func (r *invoiceRepo) ListByUser(ctx context.Context, userID int64) ([]model.Invoice, error) {
	invoices := []model.Invoice{}
	err := r.db.SelectContext(ctx, &invoices, `
		SELECT i.* FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE c.user_id = $1
		ORDER BY i.invoice_date DESC, i.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	for idx := range invoices {
		if err := r.LoadLineItems(ctx, &invoices[idx]); err != nil {
			return nil, err
		}
	}
	return invoices, nil
}

func (r *invoiceRepo) Create(ctx context.Context, params model.CreateInvoiceParams) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		INSERT INTO invoices (client_id, project_id, invoice_number, invoice_date, due_date, sub_total, tax, total, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`, params.ClientID, params.ProjectID, params.InvoiceNumber, params.InvoiceDate,
		params.DueDate, params.SubTotal, params.Tax, params.Total, params.Notes)
	if err != nil {
		return nil, err
	}
	if err := r.insertLineItems(ctx, invoice.ID, params.LineItems); err != nil {
		return nil, err
	}
	if err := r.LoadLineItems(ctx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) Update(ctx context.Context, id, userID int64, params model.UpdateInvoiceParams) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.GetContext(ctx, &invoice, `
		UPDATE invoices SET
			invoice_number = COALESCE($3, invoice_number),
			invoice_date = COALESCE($4, invoice_date),
			due_date = COALESCE($5, due_date),
			sub_total = COALESCE($6, sub_total),
			tax = COALESCE($7, tax),
			total = COALESCE($8, total),
			notes = COALESCE($9, notes)
		WHERE id = $1 AND client_id IN (SELECT id FROM clients WHERE user_id = $2)
		RETURNING *
	`, id, userID, params.InvoiceNumber, params.InvoiceDate, params.DueDate,
		params.SubTotal, params.Tax, params.Total, params.Notes)
	found, err := HandleNotFound(&invoice, err)
	if found == nil || err != nil {
		return nil, err
	}
	if params.LineItems != nil {
		if _, err := r.db.ExecContext(ctx, `
			DELETE FROM invoice_line_items WHERE invoice_id = $1
		`, invoice.ID); err != nil {
			return nil, err
		}
		if err := r.insertLineItems(ctx, invoice.ID, params.LineItems); err != nil {
			return nil, err
		}
	}
	if err := r.LoadLineItems(ctx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM invoices
		WHERE id = $1 AND client_id IN (SELECT id FROM clients WHERE user_id = $2)
	`, id, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *invoiceRepo) Approve(ctx context.Context, id, clientID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = 'approved', paid_at = $3
		WHERE id = $1 AND client_id = $2 AND status <> 'approved'
	`, id, clientID, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *invoiceRepo) ListPortalByClient(ctx context.Context, clientID int64) ([]model.PortalInvoice, error) {
	invoices := []model.PortalInvoice{}
	err := r.db.SelectContext(ctx, &invoices, `
		SELECT id, invoice_number, status, total, due_date, invoice_date
		FROM invoices
		WHERE client_id = $1
		ORDER BY invoice_date DESC, id DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepo) LoadLineItems(ctx context.Context, invoice *model.Invoice) error {
	items := []model.InvoiceLineItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM invoice_line_items WHERE invoice_id = $1 ORDER BY id
	`, invoice.ID)
	if err != nil {
		return err
	}
	invoice.LineItems = items
	return nil
}

func (r *invoiceRepo) insertLineItems(ctx context.Context, invoiceID int64, items []model.LineItemParams) error {
	for _, item := range items {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO invoice_line_items (invoice_id, description, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, invoiceID, item.Description, item.Quantity, item.UnitPrice); err != nil {
			return err
		}
	}
	return nil
}

package model

import (
	"time"
)

type Invoice struct {
	ID            int64         `db:"id" json:"id"`
	ClientID      int64         `db:"client_id" json:"clientId"`
	ProjectID     *int64        `db:"project_id" json:"projectId,omitempty"`
	InvoiceNumber string        `db:"invoice_number" json:"invoiceNumber"`
	Status        InvoiceStatus `db:"status" json:"status"`
	InvoiceDate   time.Time     `db:"invoice_date" json:"invoiceDate"`
	DueDate       time.Time     `db:"due_date" json:"dueDate"`
	SubTotal      float64       `db:"sub_total" json:"subTotal"`
	Tax           float64       `db:"tax" json:"tax"`
	Total         float64       `db:"total" json:"total"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	PaidAt        *time.Time    `db:"paid_at" json:"paidAt,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"createdAt"`

	LineItems []InvoiceLineItem `db:"-" json:"lineItems"`
}

type InvoiceLineItem struct {
	ID          int64   `db:"id" json:"id"`
	InvoiceID   int64   `db:"invoice_id" json:"invoiceId"`
	Description string  `db:"description" json:"description"`
	Quantity    float64 `db:"quantity" json:"quantity"`
	UnitPrice   float64 `db:"unit_price" json:"unitPrice"`
}

type CreateInvoiceParams struct {
	ClientID      int64
	ProjectID     *int64
	InvoiceNumber string
	InvoiceDate   time.Time
	DueDate       time.Time
	SubTotal      float64
	Tax           float64
	Total         float64
	Notes         *string
	LineItems     []LineItemParams
}

type UpdateInvoiceParams struct {
	InvoiceNumber *string
	InvoiceDate   *time.Time
	DueDate       *time.Time
	SubTotal      *float64
	Tax           *float64
	Total         *float64
	Notes         *string
	LineItems     []LineItemParams
}

type LineItemParams struct {
	Description string
	Quantity    float64
	UnitPrice   float64
}

func (i *Invoice) IsApproved() bool {
	return i.Status == InvoiceStatusApproved
}

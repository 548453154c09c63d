package model

import (
	"time"
)

// Read-only projections returned to the client portal. Deliberately narrow:
// no user ids, no token hashes, no other clients' data.

type PortalClient struct {
	ID          int64  `db:"id" json:"id"`
	ContactName string `db:"contact_name" json:"contactName"`
	Email       string `db:"email" json:"email"`
	CompanyName string `db:"company_name" json:"companyName"`
}

type PortalProject struct {
	ID           int64   `db:"id" json:"id"`
	ProjectName  string  `db:"project_name" json:"projectName"`
	IsActive     bool    `db:"is_active" json:"isActive"`
	ProjectPrice float64 `db:"project_price" json:"projectPrice"`
}

type PortalInvoice struct {
	ID            int64         `db:"id" json:"id"`
	InvoiceNumber string        `db:"invoice_number" json:"invoiceNumber"`
	Status        InvoiceStatus `db:"status" json:"status"`
	Total         float64       `db:"total" json:"total"`
	DueDate       time.Time     `db:"due_date" json:"dueDate"`
	InvoiceDate   time.Time     `db:"invoice_date" json:"invoiceDate"`
}

type PortalData struct {
	Client   PortalClient    `json:"client"`
	Projects []PortalProject `json:"projects"`
	Invoices []PortalInvoice `json:"invoices"`
}

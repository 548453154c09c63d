package model

import (
	"time"
)

type Client struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	CompanyName string    `db:"company_name" json:"companyName"`
	ContactName string    `db:"contact_name" json:"contactName"`
	Email       string    `db:"email" json:"email"`
	Phone       string    `db:"phone" json:"phone"`
	Address     string    `db:"address" json:"address"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

type CreateClientParams struct {
	UserID      int64
	CompanyName string
	ContactName string
	Email       string
	Phone       string
	Address     string
}

type UpdateClientParams struct {
	CompanyName *string
	ContactName *string
	Email       *string
	Phone       *string
	Address     *string
}

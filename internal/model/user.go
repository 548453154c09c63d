package model

import (
	"time"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Name         string    `db:"name" json:"name"`
	Surname      string    `db:"surname" json:"surname"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CompanyName  *string   `db:"company_name" json:"companyName,omitempty"`
	Address      *string   `db:"address" json:"address,omitempty"`
	City         *string   `db:"city" json:"city,omitempty"`
	TaxValue     int       `db:"tax_value" json:"taxValue"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

type CreateUserParams struct {
	Username     string
	Name         string
	Surname      string
	Email        string
	PasswordHash string
}

type UpdateProfileParams struct {
	Name        *string
	Surname     *string
	CompanyName *string
	Address     *string
	City        *string
	TaxValue    *int
}

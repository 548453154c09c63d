package model

import (
	"time"
)

// Project belongs to a client. IsActive and StartDate are flipped by the
// portal invoice approval transaction, never by staff CRUD.
type Project struct {
	ID           int64      `db:"id" json:"id"`
	ClientID     int64      `db:"client_id" json:"clientId"`
	ProjectName  string     `db:"project_name" json:"projectName"`
	Description  string     `db:"description" json:"description"`
	ProjectPrice float64    `db:"project_price" json:"projectPrice"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	StartDate    *time.Time `db:"start_date" json:"startDate,omitempty"`
	EndDate      *time.Time `db:"end_date" json:"endDate,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

type CreateProjectParams struct {
	ClientID     int64
	ProjectName  string
	Description  string
	ProjectPrice float64
}

type UpdateProjectParams struct {
	ProjectName  *string
	Description  *string
	ProjectPrice *float64
	EndDate      *time.Time
}

package model

import (
	"time"
)

type DashboardOverview struct {
	CurrentRevenue  float64              `json:"currentRevenue"`
	PreviousRevenue float64              `json:"previousRevenue"`
	RevenueChange   *float64             `json:"revenueChange,omitempty"`
	Outstanding     float64              `json:"outstanding"`
	ActiveProjects  int                  `json:"activeProjects"`
	RevenueTrend    []RevenuePoint       `json:"revenueTrend"`
	TopClients      []ClientProjectCount `json:"topClients"`
}

type RevenuePoint struct {
	Month  time.Time `db:"month" json:"month"`
	Amount float64   `db:"amount" json:"amount"`
}

type ClientProjectCount struct {
	ClientID    int64  `db:"client_id" json:"clientId"`
	CompanyName string `db:"company_name" json:"companyName"`
	Projects    int    `db:"projects" json:"projects"`
	Completed   int    `db:"completed" json:"completed"`
}

type ActivityItem struct {
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

type ActivityFeed struct {
	Items    []ActivityItem `json:"items"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	Total    int            `json:"total"`
}

type AdminUserSummary struct {
	UserID   int64   `db:"user_id" json:"userId"`
	Username string  `db:"username" json:"username"`
	Email    string  `db:"email" json:"email"`
	Clients  int     `db:"clients" json:"clients"`
	Invoices int     `db:"invoices" json:"invoices"`
	Revenue  float64 `db:"revenue" json:"revenue"`
}

type AdminStats struct {
	TotalUsers    int                `json:"totalUsers"`
	TotalClients  int                `json:"totalClients"`
	TotalInvoices int                `json:"totalInvoices"`
	TotalRevenue  float64            `json:"totalRevenue"`
	Users         []AdminUserSummary `json:"users"`
}

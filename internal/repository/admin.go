package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/model"
)

type AdminRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountClients(ctx context.Context) (int, error)
	CountInvoices(ctx context.Context) (int, error)
	TotalRevenue(ctx context.Context) (float64, error)
	UserSummaries(ctx context.Context) ([]model.AdminUserSummary, error)
}

type adminRepo struct {
	db database.DBTX
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) CountUsers(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users`)
	return count, err
}

func (r *adminRepo) CountClients(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM clients`)
	return count, err
}

func (r *adminRepo) CountInvoices(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM invoices`)
	return count, err
}

func (r *adminRepo) TotalRevenue(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(total), 0) FROM invoices WHERE status = 'approved'
	`)
	return total, err
}

func (r *adminRepo) UserSummaries(ctx context.Context) ([]model.AdminUserSummary, error) {
	summaries := []model.AdminUserSummary{}
	err := r.db.SelectContext(ctx, &summaries, `
		SELECT u.id AS user_id, u.username, u.email,
			COUNT(DISTINCT c.id) AS clients,
			COUNT(DISTINCT i.id) AS invoices,
			COALESCE(SUM(i.total) FILTER (WHERE i.status = 'approved'), 0) AS revenue
		FROM users u
		LEFT JOIN clients c ON c.user_id = u.id
		LEFT JOIN invoices i ON i.client_id = c.id
		GROUP BY u.id, u.username, u.email
		ORDER BY u.id
	`)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/model"
)

// DashboardRepository aggregates per-user revenue and activity figures.
// All queries are scoped to the owning user through the clients join.
type DashboardRepository interface {
	RevenueBetween(ctx context.Context, userID int64, from, to time.Time) (float64, error)
	OutstandingRevenue(ctx context.Context, userID int64, now time.Time) (float64, error)
	ActiveProjectCount(ctx context.Context, userID int64) (int, error)
	RevenueTrend(ctx context.Context, userID int64, from time.Time) ([]model.RevenuePoint, error)
	TopClientsByProjects(ctx context.Context, userID int64, limit int) ([]model.ClientProjectCount, error)
	Activities(ctx context.Context, userID int64, limit, offset int) ([]model.ActivityItem, error)
	ActivityCount(ctx context.Context, userID int64) (int, error)
}

type dashboardRepo struct {
	db database.DBTX
}

func NewDashboardRepository(db *sqlx.DB) DashboardRepository {
	return &dashboardRepo{db: db}
}

func (r *dashboardRepo) RevenueBetween(ctx context.Context, userID int64, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(i.total), 0) FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE c.user_id = $1 AND i.invoice_date >= $2 AND i.invoice_date <= $3
	`, userID, from, to)
	return total, err
}

func (r *dashboardRepo) OutstandingRevenue(ctx context.Context, userID int64, now time.Time) (float64, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(i.total), 0) FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE c.user_id = $1 AND i.due_date > $2 AND i.status <> 'approved'
	`, userID, now)
	return total, err
}

func (r *dashboardRepo) ActiveProjectCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE c.user_id = $1 AND p.is_active = TRUE
	`, userID)
	return count, err
}

func (r *dashboardRepo) RevenueTrend(ctx context.Context, userID int64, from time.Time) ([]model.RevenuePoint, error) {
	points := []model.RevenuePoint{}
	err := r.db.SelectContext(ctx, &points, `
		SELECT date_trunc('month', i.invoice_date) AS month, COALESCE(SUM(i.total), 0) AS amount
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE c.user_id = $1 AND i.invoice_date >= $2
		GROUP BY 1
		ORDER BY 1
	`, userID, from)
	if err != nil {
		return nil, err
	}
	return points, nil
}

func (r *dashboardRepo) TopClientsByProjects(ctx context.Context, userID int64, limit int) ([]model.ClientProjectCount, error) {
	counts := []model.ClientProjectCount{}
	err := r.db.SelectContext(ctx, &counts, `
		SELECT c.id AS client_id, c.company_name,
			COUNT(p.id) AS projects,
			COUNT(p.id) FILTER (WHERE p.end_date IS NOT NULL) AS completed
		FROM clients c
		JOIN projects p ON p.client_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id, c.company_name
		ORDER BY COUNT(p.id) DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *dashboardRepo) Activities(ctx context.Context, userID int64, limit, offset int) ([]model.ActivityItem, error) {
	items := []model.ActivityItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT * FROM (
			SELECT 'invoice' AS type, 'Invoice ' || i.invoice_number AS title, i.created_at AS timestamp
			FROM invoices i
			JOIN clients c ON c.id = i.client_id
			WHERE c.user_id = $1
			UNION ALL
			SELECT 'project' AS type, p.project_name AS title, p.created_at AS timestamp
			FROM projects p
			JOIN clients c ON c.id = p.client_id
			WHERE c.user_id = $1
			UNION ALL
			SELECT 'client' AS type, c.company_name AS title, c.created_at AS timestamp
			FROM clients c
			WHERE c.user_id = $1
		) activity
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *dashboardRepo) ActivityCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT
			(SELECT COUNT(*) FROM invoices i JOIN clients c ON c.id = i.client_id WHERE c.user_id = $1) +
			(SELECT COUNT(*) FROM projects p JOIN clients c ON c.id = p.client_id WHERE c.user_id = $1) +
			(SELECT COUNT(*) FROM clients c WHERE c.user_id = $1)
	`, userID)
	return count, err
}

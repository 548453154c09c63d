package service

import (
	"context"
	"time"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
)

const (
	revenueTrendMonths = 6
	topClientsLimit    = 5
	maxActivityPage    = 100
)

// DashboardService assembles the per-user overview and activity feed.
type DashboardService struct {
	dashboard repository.DashboardRepository
}

func NewDashboardService(dashboard repository.DashboardRepository) *DashboardService {
	return &DashboardService{dashboard: dashboard}
}

// Overview returns this month's revenue against last month's, outstanding
// amounts, the active project count, a monthly trend and the top clients.
func (s *DashboardService) Overview(ctx context.Context, userID int64) (*model.DashboardOverview, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevMonthStart := monthStart.AddDate(0, -1, 0)
	trendStart := monthStart.AddDate(0, -(revenueTrendMonths - 1), 0)

	current, err := s.dashboard.RevenueBetween(ctx, userID, monthStart, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	previous, err := s.dashboard.RevenueBetween(ctx, userID, prevMonthStart, monthStart.Add(-time.Nanosecond))
	if err != nil {
		return nil, apperrors.Database(err)
	}

	outstanding, err := s.dashboard.OutstandingRevenue(ctx, userID, now)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	activeProjects, err := s.dashboard.ActiveProjectCount(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	trend, err := s.dashboard.RevenueTrend(ctx, userID, trendStart)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	topClients, err := s.dashboard.TopClientsByProjects(ctx, userID, topClientsLimit)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	overview := &model.DashboardOverview{
		CurrentRevenue:  current,
		PreviousRevenue: previous,
		Outstanding:     outstanding,
		ActiveProjects:  activeProjects,
		RevenueTrend:    trend,
		TopClients:      topClients,
	}

	// Change is undefined when there was nothing to compare against.
	if previous > 0 {
		change := (current - previous) / previous * 100
		overview.RevenueChange = &change
	}

	return overview, nil
}

// Activities returns a page of the user's recent activity, newest first.
func (s *DashboardService) Activities(ctx context.Context, userID int64, page, pageSize int) (*model.ActivityFeed, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxActivityPage {
		pageSize = 20
	}

	items, err := s.dashboard.Activities(ctx, userID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	total, err := s.dashboard.ActivityCount(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &model.ActivityFeed{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

package service

import (
	"context"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
)

// AdminService exposes cross-user statistics to admin accounts. Role
// enforcement happens in the middleware layer.
type AdminService struct {
	admin repository.AdminRepository
}

func NewAdminService(admin repository.AdminRepository) *AdminService {
	return &AdminService{admin: admin}
}

func (s *AdminService) Stats(ctx context.Context) (*model.AdminStats, error) {
	users, err := s.admin.CountUsers(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	clients, err := s.admin.CountClients(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	invoices, err := s.admin.CountInvoices(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	revenue, err := s.admin.TotalRevenue(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	summaries, err := s.admin.UserSummaries(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	return &model.AdminStats{
		TotalUsers:    users,
		TotalClients:  clients,
		TotalInvoices: invoices,
		TotalRevenue:  revenue,
		Users:         summaries,
	}, nil
}

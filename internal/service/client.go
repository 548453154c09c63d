package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
)

// ClientService handles client CRUD. Every operation is scoped to the
// owning user; other users' clients behave as if they do not exist.
type ClientService struct {
	clients repository.ClientRepository
}

func NewClientService(clients repository.ClientRepository) *ClientService {
	return &ClientService{clients: clients}
}

func (s *ClientService) Get(ctx context.Context, id, userID int64) (*model.Client, error) {
	client, err := s.clients.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, userID int64) ([]model.Client, error) {
	clients, err := s.clients.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return clients, nil
}

func (s *ClientService) Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error) {
	if strings.TrimSpace(params.CompanyName) == "" {
		return nil, apperrors.MissingRequired("companyName")
	}
	if strings.TrimSpace(params.Email) == "" {
		return nil, apperrors.MissingRequired("email")
	}

	client, err := s.clients.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Int64("clientId", client.ID).Int64("userId", params.UserID).Msg("client created")
	return client, nil
}

func (s *ClientService) Update(ctx context.Context, id, userID int64, params model.UpdateClientParams) (*model.Client, error) {
	client, err := s.clients.Update(ctx, id, userID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}
	return client, nil
}

func (s *ClientService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.clients.Delete(ctx, id, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.NotFound("Client")
	}
	log.Info().Int64("clientId", id).Int64("userId", userID).Msg("client deleted")
	return nil
}

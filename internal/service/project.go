package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/fivvy/server-go/internal/errors"
	"github.com/fivvy/server-go/internal/model"
	"github.com/fivvy/server-go/internal/repository"
)

// ProjectService handles project CRUD. Projects hang off clients, so
// ownership checks go through the client row.
type ProjectService struct {
	projects repository.ProjectRepository
	clients  repository.ClientRepository
}

func NewProjectService(projects repository.ProjectRepository, clients repository.ClientRepository) *ProjectService {
	return &ProjectService{projects: projects, clients: clients}
}

func (s *ProjectService) Get(ctx context.Context, id, userID int64) (*model.Project, error) {
	project, err := s.projects.FindByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID int64) ([]model.Project, error) {
	projects, err := s.projects.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return projects, nil
}

func (s *ProjectService) Create(ctx context.Context, userID int64, params model.CreateProjectParams) (*model.Project, error) {
	if strings.TrimSpace(params.ProjectName) == "" {
		return nil, apperrors.MissingRequired("projectName")
	}
	if params.ProjectPrice < 0 {
		return nil, apperrors.InvalidInput("projectPrice", "must not be negative")
	}

	client, err := s.clients.FindByIDForUser(ctx, params.ClientID, userID)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if client == nil {
		return nil, apperrors.NotFound("Client")
	}

	project, err := s.projects.Create(ctx, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	log.Info().Int64("projectId", project.ID).Int64("clientId", params.ClientID).Msg("project created")
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, id, userID int64, params model.UpdateProjectParams) (*model.Project, error) {
	project, err := s.projects.Update(ctx, id, userID, params)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if project == nil {
		return nil, apperrors.NotFound("Project")
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id, userID int64) error {
	deleted, err := s.projects.Delete(ctx, id, userID)
	if err != nil {
		return apperrors.Database(err)
	}
	if !deleted {
		return apperrors.NotFound("Project")
	}
	log.Info().Int64("projectId", id).Int64("userId", userID).Msg("project deleted")
	return nil
}

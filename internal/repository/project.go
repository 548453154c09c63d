package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/model"
)

type ProjectRepository interface {
	FindByIDForUser(ctx context.Context, id, userID int64) (*model.Project, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Project, error)
	Create(ctx context.Context, params model.CreateProjectParams) (*model.Project, error)
	Update(ctx context.Context, id, userID int64, params model.UpdateProjectParams) (*model.Project, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	// Activate flips is_active and stamps start_date, only for a currently
	// inactive project. Already-active projects are left untouched.
	Activate(ctx context.Context, id int64) (bool, error)
	ListPortalByClient(ctx context.Context, clientID int64) ([]model.PortalProject, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ProjectRepository
}

type projectRepo struct {
	db database.DBTX
}

func NewProjectRepository(db *sqlx.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) WithTx(tx *sqlx.Tx) ProjectRepository {
	return &projectRepo{db: tx}
}

func (r *projectRepo) FindByIDForUser(ctx context.Context, id, userID int64) (*model.Project, error) {
	var project model.Project
	err := r.db.GetContext(ctx, &project, `
		SELECT p.* FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE p.id = $1 AND c.user_id = $2
	`, id, userID)
	return HandleNotFound(&project, err)
}

func (r *projectRepo) ListByUser(ctx context.Context, userID int64) ([]model.Project, error) {
	projects := []model.Project{}
	err := r.db.SelectContext(ctx, &projects, `
		SELECT p.* FROM projects p
		JOIN clients c ON c.id = p.client_id
		WHERE c.user_id = $1
		ORDER BY p.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepo) Create(ctx context.Context, params model.CreateProjectParams) (*model.Project, error) {
	var project model.Project
	err := r.db.GetContext(ctx, &project, `
		INSERT INTO projects (client_id, project_name, description, project_price)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.ClientID, params.ProjectName, params.Description, params.ProjectPrice)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) Update(ctx context.Context, id, userID int64, params model.UpdateProjectParams) (*model.Project, error) {
	var project model.Project
	err := r.db.GetContext(ctx, &project, `
		UPDATE projects SET
			project_name = COALESCE($3, project_name),
			description = COALESCE($4, description),
			project_price = COALESCE($5, project_price),
			end_date = COALESCE($6, end_date)
		WHERE id = $1 AND client_id IN (SELECT id FROM clients WHERE user_id = $2)
		RETURNING *
	`, id, userID, params.ProjectName, params.Description, params.ProjectPrice, params.EndDate)
	return HandleNotFound(&project, err)
}

func (r *projectRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM projects
		WHERE id = $1 AND client_id IN (SELECT id FROM clients WHERE user_id = $2)
	`, id, userID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *projectRepo) Activate(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE projects
		SET is_active = TRUE, start_date = $2
		WHERE id = $1 AND is_active = FALSE
	`, id, time.Now())
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *projectRepo) ListPortalByClient(ctx context.Context, clientID int64) ([]model.PortalProject, error) {
	projects := []model.PortalProject{}
	err := r.db.SelectContext(ctx, &projects, `
		SELECT id, project_name, is_active, project_price
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

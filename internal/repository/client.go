package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/fivvy/server-go/internal/database"
	"github.com/fivvy/server-go/internal/model"
)

type ClientRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Client, error)
	FindByIDForUser(ctx context.Context, id, userID int64) (*model.Client, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Client, error)
	Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error)
	Update(ctx context.Context, id, userID int64, params model.UpdateClientParams) (*model.Client, error)
	Delete(ctx context.Context, id, userID int64) (bool, error)
	// FindPortalClient returns the narrow projection exposed to the client
	// portal.
	FindPortalClient(ctx context.Context, id int64) (*model.PortalClient, error)
}

type clientRepo struct {
	db database.DBTX
}

func NewClientRepository(db *sqlx.DB) ClientRepository {
	return &clientRepo{db: db}
}

func (r *clientRepo) FindByID(ctx context.Context, id int64) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT * FROM clients WHERE id = $1
	`, id)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) FindByIDForUser(ctx context.Context, id, userID int64) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		SELECT * FROM clients WHERE id = $1 AND user_id = $2
	`, id, userID)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) ListByUser(ctx context.Context, userID int64) ([]model.Client, error) {
	clients := []model.Client{}
	err := r.db.SelectContext(ctx, &clients, `
		SELECT * FROM clients WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepo) Create(ctx context.Context, params model.CreateClientParams) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		INSERT INTO clients (user_id, company_name, contact_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.UserID, params.CompanyName, params.ContactName, params.Email, params.Phone, params.Address)
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *clientRepo) Update(ctx context.Context, id, userID int64, params model.UpdateClientParams) (*model.Client, error) {
	var client model.Client
	err := r.db.GetContext(ctx, &client, `
		UPDATE clients SET
			company_name = COALESCE($3, company_name),
			contact_name = COALESCE($4, contact_name),
			email = COALESCE($5, email),
			phone = COALESCE($6, phone),
			address = COALESCE($7, address)
		WHERE id = $1 AND user_id = $2
		RETURNING *
	`, id, userID, params.CompanyName, params.ContactName, params.Email, params.Phone, params.Address)
	return HandleNotFound(&client, err)
}

func (r *clientRepo) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM clients WHERE id = $1 AND user_id = $2
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

func (r *clientRepo) FindPortalClient(ctx context.Context, id int64) (*model.PortalClient, error) {
	var client model.PortalClient
	err := r.db.GetContext(ctx, &client, `
		SELECT id, contact_name, email, company_name FROM clients WHERE id = $1
	`, id)
	return HandleNotFound(&client, err)
}

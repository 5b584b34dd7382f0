package repository

import (
	"context"
	"fmt"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type ClientRepository struct {
	db DBTX
}

func NewClientRepository(db DBTX) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, organization_id, name, contact_name, phone, email, address, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.ContactName, &c.Phone, &c.Email, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *ClientRepository) Create(ctx context.Context, c *models.Client) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO clients (organization_id, name, contact_name, phone, email, address)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.OrganizationID, c.Name, c.ContactName, c.Phone, c.Email, c.Address)
	if err != nil {
		return 0, fmt.Errorf("create client: %w", err)
	}
	return result.LastInsertId()
}

func (r *ClientRepository) Get(ctx context.Context, orgID, id int64) (models.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return models.Client{}, fmt.Errorf("get client %d: %w", id, err)
	}
	return c, nil
}

// List returns the organization's clients, optionally filtered by a name substring.
func (r *ClientRepository) List(ctx context.Context, orgID int64, query string) ([]models.Client, error) {
	sqlQuery := `SELECT ` + clientColumns + ` FROM clients WHERE organization_id = ?`
	args := []any{orgID}
	if query != "" {
		sqlQuery += ` AND name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(query)+"%")
	}
	sqlQuery += ` ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	clients := []models.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}
	return clients, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE clients
		SET name = ?, contact_name = ?, phone = ?, email = ?, address = ?, updated_at = CURRENT_TIMESTAMP
		WHERE organization_id = ? AND id = ?
	`, c.Name, c.ContactName, c.Phone, c.Email, c.Address, c.OrganizationID, c.ID)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return expectRow(result, "update client")
}

func (r *ClientRepository) Delete(ctx context.Context, orgID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return expectRow(result, "delete client")
}

func (r *ClientRepository) CountTasks(ctx context.Context, id int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE client_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("count client tasks: %w", err)
	}
	return n, nil
}

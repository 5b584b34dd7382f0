package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type CourierRepository struct {
	db DBTX
}

func NewCourierRepository(db DBTX) *CourierRepository {
	return &CourierRepository{db: db}
}

const courierColumns = `id, organization_id, user_id, name, phone, email, vehicle, active, created_at, updated_at`

func scanCourier(row interface{ Scan(...any) error }) (models.Courier, error) {
	var c models.Courier
	var userID sql.NullInt64
	var active int
	if err := row.Scan(&c.ID, &c.OrganizationID, &userID, &c.Name, &c.Phone, &c.Email, &c.Vehicle, &active, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Courier{}, err
	}
	c.UserID = idPtr(userID)
	c.Active = active != 0
	return c, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (r *CourierRepository) Create(ctx context.Context, c *models.Courier) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO couriers (organization_id, user_id, name, phone, email, vehicle, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.OrganizationID, nullID(c.UserID), c.Name, c.Phone, c.Email, c.Vehicle, boolInt(c.Active))
	if err != nil {
		return 0, fmt.Errorf("create courier: %w", err)
	}
	return result.LastInsertId()
}

func (r *CourierRepository) Get(ctx context.Context, orgID, id int64) (models.Courier, error) {
	c, err := scanCourier(r.db.QueryRowContext(ctx,
		`SELECT `+courierColumns+` FROM couriers WHERE organization_id = ? AND id = ?`, orgID, id))
	if err != nil {
		return models.Courier{}, fmt.Errorf("get courier %d: %w", id, err)
	}
	return c, nil
}

func (r *CourierRepository) GetByUserID(ctx context.Context, userID int64) (models.Courier, error) {
	c, err := scanCourier(r.db.QueryRowContext(ctx,
		`SELECT `+courierColumns+` FROM couriers WHERE user_id = ?`, userID))
	if err != nil {
		return models.Courier{}, fmt.Errorf("get courier by user %d: %w", userID, err)
	}
	return c, nil
}

func (r *CourierRepository) List(ctx context.Context, orgID int64, active *bool) ([]models.Courier, error) {
	query := `SELECT ` + courierColumns + ` FROM couriers WHERE organization_id = ?`
	args := []any{orgID}
	if active != nil {
		query += ` AND active = ?`
		args = append(args, boolInt(*active))
	}
	query += ` ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list couriers: %w", err)
	}
	defer rows.Close()

	couriers := []models.Courier{}
	for rows.Next() {
		c, err := scanCourier(rows)
		if err != nil {
			return nil, fmt.Errorf("scan courier: %w", err)
		}
		couriers = append(couriers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate couriers: %w", err)
	}
	return couriers, nil
}

func (r *CourierRepository) Update(ctx context.Context, c *models.Courier) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE couriers
		SET user_id = ?, name = ?, phone = ?, email = ?, vehicle = ?, active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE organization_id = ? AND id = ?
	`, nullID(c.UserID), c.Name, c.Phone, c.Email, c.Vehicle, boolInt(c.Active), c.OrganizationID, c.ID)
	if err != nil {
		return fmt.Errorf("update courier: %w", err)
	}
	return expectRow(result, "update courier")
}

func (r *CourierRepository) Delete(ctx context.Context, orgID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM couriers WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete courier: %w", err)
	}
	return expectRow(result, "delete courier")
}

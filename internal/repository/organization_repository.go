package repository

import (
	"context"
	"fmt"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type OrganizationRepository struct {
	db DBTX
}

func NewOrganizationRepository(db DBTX) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const organizationColumns = `id, name, contact_email, phone, address, created_at, updated_at`

func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (name, contact_email, phone, address)
		VALUES (?, ?, ?, ?)
	`, org.Name, org.ContactEmail, org.Phone, org.Address)
	if err != nil {
		return 0, fmt.Errorf("create organization: %w", err)
	}
	return result.LastInsertId()
}

func (r *OrganizationRepository) Get(ctx context.Context, id int64) (models.Organization, error) {
	var o models.Organization
	err := r.db.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id).Scan(
		&o.ID, &o.Name, &o.ContactEmail, &o.Phone, &o.Address, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return models.Organization{}, fmt.Errorf("get organization %d: %w", id, err)
	}
	return o, nil
}

func (r *OrganizationRepository) List(ctx context.Context) ([]models.Organization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := []models.Organization{}
	for rows.Next() {
		var o models.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.ContactEmail, &o.Phone, &o.Address, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = ?, contact_email = ?, phone = ?, address = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, org.Name, org.ContactEmail, org.Phone, org.Address, org.ID)
	if err != nil {
		return fmt.Errorf("update organization: %w", err)
	}
	return expectRow(result, "update organization")
}

func (r *OrganizationRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return expectRow(result, "delete organization")
}

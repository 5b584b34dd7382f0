package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userSelect = `
	SELECT u.id, u.organization_id, u.email, u.name, u.role, u.password_hash, c.id, u.created_at
	FROM users u
	LEFT JOIN couriers c ON c.user_id = u.id
`

func scanUser(row interface{ Scan(...any) error }) (models.User, error) {
	var u models.User
	var orgID, courierID sql.NullInt64
	var role string
	if err := row.Scan(&u.ID, &orgID, &u.Email, &u.Name, &role, &u.PasswordHash, &courierID, &u.CreatedAt); err != nil {
		return models.User{}, err
	}
	u.Role = models.Role(role)
	u.OrganizationID = idPtr(orgID)
	u.CourierID = idPtr(courierID)
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO users (organization_id, email, name, role, password_hash)
		VALUES (?, ?, ?, ?, ?)
	`, nullID(user.OrganizationID), strings.ToLower(user.Email), user.Name, string(user.Role), user.PasswordHash)
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}
	return result.LastInsertId()
}

func (r *UserRepository) Get(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE u.id = ?`, id))
	if err != nil {
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, userSelect+` WHERE u.email = ?`, strings.ToLower(email)))
	if err != nil {
		return models.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) ListByOrganization(ctx context.Context, orgID int64) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, userSelect+` WHERE u.organization_id = ? ORDER BY u.role, u.email`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) UpdateCredentials(ctx context.Context, id int64, email, name, passwordHash string) error {
	query := `UPDATE users SET email = ?, name = ? WHERE id = ?`
	args := []any{strings.ToLower(email), name, id}
	if passwordHash != "" {
		query = `UPDATE users SET email = ?, name = ?, password_hash = ? WHERE id = ?`
		args = []any{strings.ToLower(email), name, passwordHash, id}
	}
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return expectRow(result, "update user")
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return expectRow(result, "delete user")
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ? AND id != ?`,
		strings.ToLower(email), exceptID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

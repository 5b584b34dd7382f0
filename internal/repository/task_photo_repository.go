package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type TaskPhotoRepository struct {
	db DBTX
}

func NewTaskPhotoRepository(db DBTX) *TaskPhotoRepository {
	return &TaskPhotoRepository{db: db}
}

const photoColumns = `id, task_id, storage_key, filename, content_type, size_bytes, uploaded_by, created_at`

func scanPhoto(row interface{ Scan(...any) error }) (models.TaskPhoto, error) {
	var p models.TaskPhoto
	var uploadedBy sql.NullInt64
	if err := row.Scan(&p.ID, &p.TaskID, &p.StorageKey, &p.Filename, &p.ContentType, &p.SizeBytes, &uploadedBy, &p.CreatedAt); err != nil {
		return models.TaskPhoto{}, err
	}
	p.UploadedBy = idPtr(uploadedBy)
	return p, nil
}

func (r *TaskPhotoRepository) Create(ctx context.Context, p *models.TaskPhoto) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO task_photos (task_id, storage_key, filename, content_type, size_bytes, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.TaskID, p.StorageKey, p.Filename, p.ContentType, p.SizeBytes, nullID(p.UploadedBy))
	if err != nil {
		return 0, fmt.Errorf("create task photo: %w", err)
	}
	return result.LastInsertId()
}

func (r *TaskPhotoRepository) Get(ctx context.Context, id int64) (models.TaskPhoto, error) {
	p, err := scanPhoto(r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM task_photos WHERE id = ?`, id))
	if err != nil {
		return models.TaskPhoto{}, fmt.Errorf("get task photo %d: %w", id, err)
	}
	return p, nil
}

func (r *TaskPhotoRepository) ListByTask(ctx context.Context, taskID int64) ([]models.TaskPhoto, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+photoColumns+` FROM task_photos WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task photos: %w", err)
	}
	defer rows.Close()

	photos := []models.TaskPhoto{}
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task photos: %w", err)
	}
	return photos, nil
}

// KeysByOrganization lists blob keys for every photo under an organization.
func (r *TaskPhotoRepository) KeysByOrganization(ctx context.Context, orgID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT p.storage_key
		FROM task_photos p
		JOIN tasks t ON t.id = p.task_id
		WHERE t.organization_id = ?
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list photo keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan photo key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

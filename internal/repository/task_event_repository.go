package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/TWRT/courier-dispatch/internal/models"
)

// TaskEventRepository keeps the status history of tasks.
type TaskEventRepository struct {
	db DBTX
}

func NewTaskEventRepository(db DBTX) *TaskEventRepository {
	return &TaskEventRepository{db: db}
}

func (r *TaskEventRepository) Create(ctx context.Context, e *models.TaskEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO task_events (task_id, from_status, to_status, actor_user_id, note)
		VALUES (?, ?, ?, ?, ?)
	`, e.TaskID, string(e.FromStatus), string(e.ToStatus), nullID(e.ActorUserID), e.Note)
	if err != nil {
		return fmt.Errorf("create task event: %w", err)
	}
	return nil
}

func (r *TaskEventRepository) ListByTask(ctx context.Context, taskID int64) ([]models.TaskEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, from_status, to_status, actor_user_id, note, created_at
		FROM task_events
		WHERE task_id = ?
		ORDER BY id ASC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task events: %w", err)
	}
	defer rows.Close()

	events := []models.TaskEvent{}
	for rows.Next() {
		var e models.TaskEvent
		var from, to string
		var actor sql.NullInt64
		if err := rows.Scan(&e.ID, &e.TaskID, &from, &to, &actor, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task event: %w", err)
		}
		e.FromStatus = models.TaskStatus(from)
		e.ToStatus = models.TaskStatus(to)
		e.ActorUserID = idPtr(actor)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task events: %w", err)
	}
	return events, nil
}

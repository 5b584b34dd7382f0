package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type TaskRepository struct {
	db DBTX
}

func NewTaskRepository(db DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelect = `
	SELECT t.id, t.organization_id, t.reference_bl, t.type, t.client_id, COALESCE(cl.name, ''),
		t.courier_id, COALESCE(co.name, ''), t.address, t.scheduled_date, t.status, t.notes,
		t.completed_at, t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN clients cl ON cl.id = t.client_id
	LEFT JOIN couriers co ON co.id = t.courier_id
`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var t models.Task
	var taskType, status string
	var courierID sql.NullInt64
	var completedAt sql.NullTime
	err := row.Scan(
		&t.ID,
		&t.OrganizationID,
		&t.ReferenceBL,
		&taskType,
		&t.ClientID,
		&t.ClientName,
		&courierID,
		&t.CourierName,
		&t.Address,
		&t.ScheduledDate,
		&status,
		&t.Notes,
		&completedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return models.Task{}, err
	}
	t.Type = models.TaskType(taskType)
	t.Status = models.TaskStatus(status)
	t.CourierID = idPtr(courierID)
	if completedAt.Valid {
		ts := completedAt.Time
		t.CompletedAt = &ts
	}
	return t, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task) (int64, error) {
	query := `
		INSERT INTO tasks (organization_id, reference_bl, type, client_id, courier_id, address, scheduled_date, status, notes, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CASE WHEN ? = 'completed' THEN CURRENT_TIMESTAMP ELSE NULL END)
	`
	result, err := r.db.ExecContext(ctx, query,
		t.OrganizationID,
		t.ReferenceBL,
		string(t.Type),
		t.ClientID,
		nullID(t.CourierID),
		t.Address,
		t.ScheduledDate,
		string(t.Status),
		t.Notes,
		string(t.Status),
	)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return result.LastInsertId()
}

// Get loads a task. orgID 0 skips the organization check.
func (r *TaskRepository) Get(ctx context.Context, orgID, id int64) (models.Task, error) {
	query := taskSelect + ` WHERE t.id = ?`
	args := []any{id}
	if orgID != 0 {
		query += ` AND t.organization_id = ?`
		args = append(args, orgID)
	}
	t, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return models.Task{}, fmt.Errorf("get task %d: %w", id, err)
	}
	return t, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func taskWhere(f models.TaskFilter) (string, []any) {
	clauses := []string{"t.organization_id = ?"}
	args := []any{f.OrganizationID}
	if f.Status != "" {
		clauses = append(clauses, "t.status = ?")
		args = append(args, string(f.Status))
	}
	if f.Type != "" {
		clauses = append(clauses, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if f.CourierID != nil {
		clauses = append(clauses, "t.courier_id = ?")
		args = append(args, *f.CourierID)
	}
	if f.ClientID != nil {
		clauses = append(clauses, "t.client_id = ?")
		args = append(args, *f.ClientID)
	}
	if f.Query != "" {
		clauses = append(clauses, `t.reference_bl LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Query)+"%")
	}
	if f.ScheduledFrom != "" {
		clauses = append(clauses, "t.scheduled_date != '' AND t.scheduled_date >= ?")
		args = append(args, f.ScheduledFrom)
	}
	if f.ScheduledTo != "" {
		clauses = append(clauses, "t.scheduled_date != '' AND t.scheduled_date <= ?")
		args = append(args, f.ScheduledTo)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns matching tasks newest-scheduled first. Limit 0 means no limit.
func (r *TaskRepository) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	where, args := taskWhere(f)
	query := taskSelect + where + ` ORDER BY t.scheduled_date DESC, t.id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Count(ctx context.Context, f models.TaskFilter) (int, error) {
	where, args := taskWhere(f)
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// Update overwrites the editable fields. Status and completion follow the
// same rule as SetStatus.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET reference_bl = ?, type = ?, client_id = ?, courier_id = ?, address = ?, scheduled_date = ?,
			notes = ?,
			completed_at = CASE
				WHEN ? != 'completed' THEN NULL
				WHEN status = 'completed' THEN completed_at
				ELSE CURRENT_TIMESTAMP
			END,
			status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE organization_id = ? AND id = ?
	`,
		t.ReferenceBL,
		string(t.Type),
		t.ClientID,
		nullID(t.CourierID),
		t.Address,
		t.ScheduledDate,
		t.Notes,
		string(t.Status),
		string(t.Status),
		t.OrganizationID,
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return expectRow(result, "update task")
}

// SetStatus writes status unconditionally. Moving to completed stamps
// completed_at once; any other status clears it.
func (r *TaskRepository) SetStatus(ctx context.Context, id int64, status models.TaskStatus) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE tasks
		SET completed_at = CASE
				WHEN ? != 'completed' THEN NULL
				WHEN status = 'completed' THEN completed_at
				ELSE CURRENT_TIMESTAMP
			END,
			status = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(status), string(status), id)
	if err != nil {
		return fmt.Errorf("set task status: %w", err)
	}
	return expectRow(result, "set task status")
}

func (r *TaskRepository) SetCourier(ctx context.Context, id int64, courierID *int64) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET courier_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullID(courierID), id)
	if err != nil {
		return fmt.Errorf("set task courier: %w", err)
	}
	return expectRow(result, "set task courier")
}

func (r *TaskRepository) Delete(ctx context.Context, orgID, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE organization_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectRow(result, "delete task")
}

// StatsScope narrows dashboard aggregates to an organization and optionally a courier.
type StatsScope struct {
	OrganizationID int64
	CourierID      *int64
}

func (s StatsScope) where() (string, []any) {
	clause := " WHERE t.organization_id = ?"
	args := []any{s.OrganizationID}
	if s.CourierID != nil {
		clause += " AND t.courier_id = ?"
		args = append(args, *s.CourierID)
	}
	return clause, args
}

func (r *TaskRepository) CountByStatus(ctx context.Context, scope StatsScope) (map[models.TaskStatus]int, error) {
	where, args := scope.where()
	rows, err := r.db.QueryContext(ctx, `SELECT t.status, COUNT(*) FROM tasks t`+where+` GROUP BY t.status`, args...)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	for _, s := range models.TaskStatuses {
		counts[s] = 0
	}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[models.TaskStatus(status)] = n
	}
	return counts, rows.Err()
}

func (r *TaskRepository) CountByType(ctx context.Context, scope StatsScope) (map[models.TaskType]int, error) {
	where, args := scope.where()
	rows, err := r.db.QueryContext(ctx, `SELECT t.type, COUNT(*) FROM tasks t`+where+` GROUP BY t.type`, args...)
	if err != nil {
		return nil, fmt.Errorf("count by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskType]int, len(models.TaskTypes))
	for _, tt := range models.TaskTypes {
		counts[tt] = 0
	}
	for rows.Next() {
		var taskType string
		var n int
		if err := rows.Scan(&taskType, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[models.TaskType(taskType)] = n
	}
	return counts, rows.Err()
}

func (r *TaskRepository) CountByCourier(ctx context.Context, scope StatsScope) ([]models.CourierStat, error) {
	where, args := scope.where()
	rows, err := r.db.QueryContext(ctx, `
		SELECT co.id, co.name, COUNT(*), SUM(CASE WHEN t.status = 'completed' THEN 1 ELSE 0 END)
		FROM tasks t
		JOIN couriers co ON co.id = t.courier_id
	`+where+`
		GROUP BY co.id, co.name
		ORDER BY COUNT(*) DESC, co.name
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("count by courier: %w", err)
	}
	defer rows.Close()

	stats := []models.CourierStat{}
	for rows.Next() {
		var s models.CourierStat
		if err := rows.Scan(&s.CourierID, &s.CourierName, &s.Total, &s.Completed); err != nil {
			return nil, fmt.Errorf("scan courier count: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// CountCreatedSince returns created-task counts keyed by YYYY-MM-DD (UTC).
func (r *TaskRepository) CountCreatedSince(ctx context.Context, scope StatsScope, since time.Time) (map[string]int, error) {
	where, args := scope.where()
	args = append(args, since.UTC().Format("2006-01-02 15:04:05"))
	rows, err := r.db.QueryContext(ctx, `
		SELECT date(t.created_at) AS day, COUNT(*)
		FROM tasks t
	`+where+` AND t.created_at >= ?
		GROUP BY day
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("count created since: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan daily count: %w", err)
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

// LastUpdated returns the most recent updated_at, or nil when there are no tasks.
func (r *TaskRepository) LastUpdated(ctx context.Context, scope StatsScope) (*time.Time, error) {
	where, args := scope.where()
	var id int64
	var updated time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT t.id, t.updated_at FROM tasks t`+where+` ORDER BY t.updated_at DESC, t.id DESC LIMIT 1`,
		args...,
	).Scan(&id, &updated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last updated: %w", err)
	}
	return &updated, nil
}

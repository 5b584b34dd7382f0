package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
	"github.com/TWRT/courier-dispatch/internal/storage"
)

const (
	DefaultTaskPageSize = 50
	MaxTaskPageSize     = 200
)

type TaskService struct {
	store *repository.Store
	blobs *storage.BlobStore
}

func NewTaskService(store *repository.Store, blobs *storage.BlobStore) *TaskService {
	return &TaskService{store: store, blobs: blobs}
}

// TaskInput is the editable part of a task. OrganizationID only picks the
// tenant on create.
type TaskInput struct {
	OrganizationID int64             `json:"organization_id,omitempty"`
	ReferenceBL    string            `json:"reference_bl"`
	Type           models.TaskType   `json:"type"`
	ClientID       int64             `json:"client_id"`
	CourierID      *int64            `json:"courier_id"`
	Address        string            `json:"address"`
	ScheduledDate  string            `json:"scheduled_date"`
	Status         models.TaskStatus `json:"status"`
	Notes          string            `json:"notes"`
}

// TaskQuery is the caller-facing list filter.
type TaskQuery struct {
	OrganizationID int64
	Status         string
	Type           string
	CourierID      *int64
	ClientID       *int64
	Query          string
	ScheduledFrom  string
	ScheduledTo    string
	Limit          int
	Offset         int
}

type TaskPage struct {
	Tasks  []models.Task `json:"tasks"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// buildFilter validates q and pins couriers to their own tasks.
func (s *TaskService) buildFilter(ctx context.Context, p auth.Principal, q TaskQuery) (models.TaskFilter, error) {
	orgID, err := resolveOrg(ctx, s.store, p, q.OrganizationID)
	if err != nil {
		return models.TaskFilter{}, err
	}
	f := models.TaskFilter{
		OrganizationID: orgID,
		CourierID:      q.CourierID,
		ClientID:       q.ClientID,
		Query:          strings.TrimSpace(q.Query),
	}
	if q.Status != "" {
		f.Status = models.TaskStatus(q.Status)
		if !f.Status.Valid() {
			return models.TaskFilter{}, apperrors.InvalidArgument("unknown status " + q.Status)
		}
	}
	if q.Type != "" {
		f.Type = models.TaskType(q.Type)
		if !f.Type.Valid() {
			return models.TaskFilter{}, apperrors.InvalidArgument("unknown type " + q.Type)
		}
	}
	if f.ScheduledFrom, err = models.ParseDate(q.ScheduledFrom); err != nil {
		return models.TaskFilter{}, apperrors.InvalidArgument("scheduled_from: " + err.Error())
	}
	if f.ScheduledTo, err = models.ParseDate(q.ScheduledTo); err != nil {
		return models.TaskFilter{}, apperrors.InvalidArgument("scheduled_to: " + err.Error())
	}
	if p.Role == models.RoleCourier {
		if p.CourierID == nil {
			return models.TaskFilter{}, apperrors.PermissionDenied("user is not linked to a courier")
		}
		f.CourierID = p.CourierID
	}
	return f, nil
}

func (s *TaskService) List(ctx context.Context, p auth.Principal, q TaskQuery) (TaskPage, error) {
	f, err := s.buildFilter(ctx, p, q)
	if err != nil {
		return TaskPage{}, err
	}
	switch {
	case q.Limit <= 0:
		f.Limit = DefaultTaskPageSize
	case q.Limit > MaxTaskPageSize:
		f.Limit = MaxTaskPageSize
	default:
		f.Limit = q.Limit
	}
	if q.Offset > 0 {
		f.Offset = q.Offset
	}

	tasks, err := s.store.Tasks.List(ctx, f)
	if err != nil {
		return TaskPage{}, apperrors.Internal("list tasks", err)
	}
	total, err := s.store.Tasks.Count(ctx, f)
	if err != nil {
		return TaskPage{}, apperrors.Internal("count tasks", err)
	}
	return TaskPage{Tasks: tasks, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

// loadReadable returns the task if p may see it.
func (s *TaskService) loadReadable(ctx context.Context, store *repository.Store, p auth.Principal, id int64) (models.Task, error) {
	orgID := p.OrgID()
	task, err := store.Tasks.Get(ctx, orgID, id)
	if err != nil {
		return models.Task{}, notFoundOr(err, "task")
	}
	if p.Role == models.RoleCourier {
		if p.CourierID == nil || task.CourierID == nil || *task.CourierID != *p.CourierID {
			return models.Task{}, apperrors.NotFound("task not found")
		}
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, p auth.Principal, id int64) (models.Task, error) {
	return s.loadReadable(ctx, s.store, p, id)
}

func (s *TaskService) validate(ctx context.Context, store *repository.Store, orgID int64, in TaskInput) (models.Task, error) {
	t := models.Task{
		OrganizationID: orgID,
		ReferenceBL:    strings.TrimSpace(in.ReferenceBL),
		Type:           in.Type,
		ClientID:       in.ClientID,
		CourierID:      in.CourierID,
		Address:        strings.TrimSpace(in.Address),
		Status:         in.Status,
		Notes:          strings.TrimSpace(in.Notes),
	}
	if t.ReferenceBL == "" {
		return models.Task{}, apperrors.InvalidArgument("reference_bl is required")
	}
	if !t.Type.Valid() {
		return models.Task{}, apperrors.InvalidArgument("type must be delivery or pickup")
	}
	if t.Status != "" && !t.Status.Valid() {
		return models.Task{}, apperrors.InvalidArgument("unknown status " + string(t.Status))
	}
	date, err := models.ParseDate(strings.TrimSpace(in.ScheduledDate))
	if err != nil {
		return models.Task{}, apperrors.InvalidArgument("scheduled_date: " + err.Error())
	}
	t.ScheduledDate = date

	if t.ClientID <= 0 {
		return models.Task{}, apperrors.InvalidArgument("client_id is required")
	}
	if _, err := store.Clients.Get(ctx, orgID, t.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Task{}, apperrors.InvalidArgument("client does not exist in this organization")
		}
		return models.Task{}, apperrors.Internal("load client", err)
	}
	return t, nil
}

func loadAssignableCourier(ctx context.Context, store *repository.Store, orgID, courierID int64) (models.Courier, error) {
	c, err := store.Couriers.Get(ctx, orgID, courierID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Courier{}, apperrors.InvalidArgument("courier does not exist in this organization")
	}
	if err != nil {
		return models.Courier{}, apperrors.Internal("load courier", err)
	}
	if !c.Active {
		return models.Courier{}, apperrors.InvalidArgument("courier is inactive")
	}
	return c, nil
}

func (s *TaskService) Create(ctx context.Context, p auth.Principal, orgID int64, in TaskInput) (models.Task, error) {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return models.Task{}, err
	}
	orgID, err := resolveOrg(ctx, s.store, p, orgID)
	if err != nil {
		return models.Task{}, err
	}

	var id int64
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		t, err := s.validate(ctx, tx, orgID, in)
		if err != nil {
			return err
		}
		if t.CourierID != nil {
			if _, err := loadAssignableCourier(ctx, tx, orgID, *t.CourierID); err != nil {
				return err
			}
		}
		if t.Status == "" {
			t.Status = models.TaskStatusPending
			if t.CourierID != nil {
				t.Status = models.TaskStatusAssigned
			}
		}
		id, err = tx.Tasks.Create(ctx, &t)
		if err != nil {
			return apperrors.Internal("create task", err)
		}
		return recordEvent(ctx, tx, id, "", t.Status, p, "created")
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.store.Tasks.Get(ctx, orgID, id)
}

// Update replaces the task's fields. An empty status keeps the current one,
// except that a pending task given a new courier becomes assigned.
func (s *TaskService) Update(ctx context.Context, p auth.Principal, id int64, in TaskInput) (models.Task, error) {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return models.Task{}, err
	}

	var orgID int64
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		current, err := s.loadReadable(ctx, tx, p, id)
		if err != nil {
			return err
		}
		orgID = current.OrganizationID
		t, err := s.validate(ctx, tx, orgID, in)
		if err != nil {
			return err
		}
		t.ID = id

		note, reassigned, err := assignmentNote(ctx, tx, orgID, current.CourierID, t.CourierID)
		if err != nil {
			return err
		}
		if t.Status == "" {
			t.Status = current.Status
			if reassigned && t.CourierID != nil && current.Status == models.TaskStatusPending {
				t.Status = models.TaskStatusAssigned
			}
		}
		if err := tx.Tasks.Update(ctx, &t); err != nil {
			return notFoundOr(err, "task")
		}
		if reassigned || t.Status != current.Status {
			return recordEvent(ctx, tx, id, current.Status, t.Status, p, note)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.store.Tasks.Get(ctx, orgID, id)
}

// assignmentNote compares the current and requested courier. When they
// differ it checks the new courier can take work and describes the change.
func assignmentNote(ctx context.Context, tx *repository.Store, orgID int64, current, next *int64) (string, bool, error) {
	if sameCourier(current, next) {
		return "", false, nil
	}
	if next == nil {
		return "unassigned", true, nil
	}
	c, err := loadAssignableCourier(ctx, tx, orgID, *next)
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf("assigned to %s", c.Name), true, nil
}

func sameCourier(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// courierStatuses are the statuses a courier may set on their own tasks.
var courierStatuses = map[models.TaskStatus]bool{
	models.TaskStatusInProgress: true,
	models.TaskStatusCompleted:  true,
}

// SetStatus overwrites the status. There is no transition check: the last
// write wins.
func (s *TaskService) SetStatus(ctx context.Context, p auth.Principal, id int64, status models.TaskStatus, note string) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, apperrors.InvalidArgument("unknown status " + string(status))
	}
	if p.Role == models.RoleCourier && !courierStatuses[status] {
		return models.Task{}, apperrors.PermissionDenied("couriers may only set in_progress or completed")
	}

	var orgID int64
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		current, err := s.loadReadable(ctx, tx, p, id)
		if err != nil {
			return err
		}
		orgID = current.OrganizationID
		return setStatus(ctx, tx, current, status, p, note)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.store.Tasks.Get(ctx, orgID, id)
}

func setStatus(ctx context.Context, tx *repository.Store, current models.Task, status models.TaskStatus, p auth.Principal, note string) error {
	if err := tx.Tasks.SetStatus(ctx, current.ID, status); err != nil {
		return notFoundOr(err, "task")
	}
	if current.Status == status && note == "" {
		return nil
	}
	return recordEvent(ctx, tx, current.ID, current.Status, status, p, note)
}

// Assign sets or clears the courier. A pending task becomes assigned.
func (s *TaskService) Assign(ctx context.Context, p auth.Principal, id int64, courierID *int64) (models.Task, error) {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return models.Task{}, err
	}

	var orgID int64
	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		current, err := s.loadReadable(ctx, tx, p, id)
		if err != nil {
			return err
		}
		orgID = current.OrganizationID

		note := "unassigned"
		if courierID != nil {
			c, err := loadAssignableCourier(ctx, tx, orgID, *courierID)
			if err != nil {
				return err
			}
			note = fmt.Sprintf("assigned to %s", c.Name)
		}
		if err := tx.Tasks.SetCourier(ctx, id, courierID); err != nil {
			return notFoundOr(err, "task")
		}

		next := current.Status
		if courierID != nil && current.Status == models.TaskStatusPending {
			next = models.TaskStatusAssigned
			if err := tx.Tasks.SetStatus(ctx, id, next); err != nil {
				return notFoundOr(err, "task")
			}
		}
		return recordEvent(ctx, tx, id, current.Status, next, p, note)
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.store.Tasks.Get(ctx, orgID, id)
}

func (s *TaskService) Delete(ctx context.Context, p auth.Principal, id int64) error {
	if err := requireRole(p, models.RoleSuperadmin, models.RoleOrgAdmin); err != nil {
		return err
	}
	task, err := s.loadReadable(ctx, s.store, p, id)
	if err != nil {
		return err
	}
	photos, err := s.store.TaskPhotos.ListByTask(ctx, id)
	if err != nil {
		return apperrors.Internal("list task photos", err)
	}
	if err := s.store.Tasks.Delete(ctx, task.OrganizationID, id); err != nil {
		return notFoundOr(err, "task")
	}
	for _, photo := range photos {
		if err := s.blobs.Delete(photo.StorageKey); err != nil {
			log.Printf("orphaned photo blob key=%s task_id=%d err=%v", photo.StorageKey, id, err)
		}
	}
	return nil
}

func (s *TaskService) Events(ctx context.Context, p auth.Principal, id int64) ([]models.TaskEvent, error) {
	if _, err := s.loadReadable(ctx, s.store, p, id); err != nil {
		return nil, err
	}
	events, err := s.store.TaskEvents.ListByTask(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("list task events", err)
	}
	return events, nil
}

func recordEvent(ctx context.Context, tx *repository.Store, taskID int64, from, to models.TaskStatus, p auth.Principal, note string) error {
	var actor *int64
	if p.UserID != 0 {
		actor = ptr(p.UserID)
	}
	err := tx.TaskEvents.Create(ctx, &models.TaskEvent{
		TaskID:      taskID,
		FromStatus:  from,
		ToStatus:    to,
		ActorUserID: actor,
		Note:        note,
	})
	if err != nil {
		return apperrors.Internal("record task event", err)
	}
	return nil
}

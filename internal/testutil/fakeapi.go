// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/client/courierapi"
	"github.com/TWRT/courier-dispatch/internal/models"
)

// FakeAPI is an in-memory client.DispatchAPI.
type FakeAPI struct {
	mu sync.Mutex

	Users    map[string]models.User // email -> user
	Password string
	Tasks    []models.Task
	CSV      string

	// Recorded calls.
	LastQuery   client.TaskQuery
	StatusCalls []StatusCall
	Uploads     []Upload

	// Error injection.
	LoginErr  error
	MeErr     error
	ListErr   error
	ExportErr error
	StatusErr error
	UploadErr error
}

type StatusCall struct {
	TaskID int64
	Status models.TaskStatus
	Note   string
}

type Upload struct {
	TaskID   int64
	Names    []string
	Contents []string
	Complete bool
	Note     string
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{Users: make(map[string]models.User)}
}

// AddUser registers a user that can log in with password.
func (f *FakeAPI) AddUser(u models.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Users[u.Email] = u
	f.Password = password
}

func (f *FakeAPI) AddTask(t models.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tasks = append(f.Tasks, t)
}

func (f *FakeAPI) Login(ctx context.Context, email, password string) (client.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.LoginErr != nil {
		return client.LoginResult{}, f.LoginErr
	}
	u, ok := f.Users[email]
	if !ok || password != f.Password {
		return client.LoginResult{}, f.unauthorized()
	}
	return client.LoginResult{
		AccessToken: "token-" + email,
		ExpiresAt:   time.Now().Add(time.Hour).UTC(),
		User:        u,
	}, nil
}

func (f *FakeAPI) Me(ctx context.Context) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.MeErr != nil {
		return models.User{}, f.MeErr
	}
	for _, u := range f.Users {
		return u, nil
	}
	return models.User{}, f.unauthorized()
}

func (f *FakeAPI) ListTasks(ctx context.Context, q client.TaskQuery) (client.TaskPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastQuery = q
	if f.ListErr != nil {
		return client.TaskPage{}, f.ListErr
	}
	var matched []models.Task
	for _, t := range f.Tasks {
		if q.Status != "" && string(t.Status) != q.Status {
			continue
		}
		if q.Type != "" && string(t.Type) != q.Type {
			continue
		}
		if q.Query != "" && !strings.Contains(t.ReferenceBL, q.Query) {
			continue
		}
		matched = append(matched, t)
	}
	page := client.TaskPage{Total: len(matched), Limit: q.Limit, Offset: q.Offset}
	if q.Offset < len(matched) {
		matched = matched[q.Offset:]
		if q.Limit > 0 && q.Limit < len(matched) {
			matched = matched[:q.Limit]
		}
		page.Tasks = matched
	}
	return page, nil
}

func (f *FakeAPI) ExportTasks(ctx context.Context, q client.TaskQuery, w io.Writer) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastQuery = q
	if f.ExportErr != nil {
		return 0, f.ExportErr
	}
	n, err := io.WriteString(w, f.CSV)
	return int64(n), err
}

func (f *FakeAPI) SetStatus(ctx context.Context, taskID int64, status models.TaskStatus, note string) (models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusCalls = append(f.StatusCalls, StatusCall{TaskID: taskID, Status: status, Note: note})
	if f.StatusErr != nil {
		return models.Task{}, f.StatusErr
	}
	t, ok := f.task(taskID)
	if !ok {
		return models.Task{}, f.notFound()
	}
	t.Status = status
	return *t, nil
}

func (f *FakeAPI) UploadPhotos(ctx context.Context, taskID int64, photos []client.PhotoFile, complete bool, note string) ([]models.TaskPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return nil, f.UploadErr
	}
	t, ok := f.task(taskID)
	if !ok {
		return nil, f.notFound()
	}

	up := Upload{TaskID: taskID, Complete: complete, Note: note}
	var out []models.TaskPhoto
	for i, p := range photos {
		raw, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, err
		}
		up.Names = append(up.Names, p.Name)
		up.Contents = append(up.Contents, string(raw))
		out = append(out, models.TaskPhoto{
			ID:        int64(i + 1),
			TaskID:    taskID,
			Filename:  p.Name,
			SizeBytes: int64(len(raw)),
		})
	}
	f.Uploads = append(f.Uploads, up)
	if complete {
		t.Status = models.TaskStatusCompleted
	}
	return out, nil
}

func (f *FakeAPI) task(id int64) (*models.Task, bool) {
	for i := range f.Tasks {
		if f.Tasks[i].ID == id {
			return &f.Tasks[i], true
		}
	}
	return nil, false
}

func (f *FakeAPI) unauthorized() error {
	return &courierapi.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid email or password"}
}

func (f *FakeAPI) notFound() error {
	return &courierapi.APIError{StatusCode: http.StatusNotFound, Message: "task not found"}
}

var _ client.DispatchAPI = (*FakeAPI)(nil)

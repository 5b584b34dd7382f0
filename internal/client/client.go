// Package client describes what command-line tools need from the dispatch API.
package client

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/TWRT/courier-dispatch/internal/models"
)

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        models.User `json:"user"`
}

type TaskQuery struct {
	OrganizationID int64
	Status         string
	Type           string
	Query          string
	CourierID      int64
	ClientID       int64
	ScheduledFrom  string
	ScheduledTo    string
	Limit          int
	Offset         int
}

// Values encodes the non-empty fields as query parameters.
func (q TaskQuery) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	setInt := func(key string, n int64) {
		if n > 0 {
			v.Set(key, strconv.FormatInt(n, 10))
		}
	}
	setInt("organization_id", q.OrganizationID)
	set("status", q.Status)
	set("type", q.Type)
	set("q", q.Query)
	setInt("courier_id", q.CourierID)
	setInt("client_id", q.ClientID)
	set("scheduled_from", q.ScheduledFrom)
	set("scheduled_to", q.ScheduledTo)
	setInt("limit", int64(q.Limit))
	setInt("offset", int64(q.Offset))
	return v
}

type TaskPage struct {
	Tasks  []models.Task `json:"tasks"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// PhotoFile is one photo to upload. Body is read once.
type PhotoFile struct {
	Name string
	Body io.Reader
}

type SessionProvider interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Me(ctx context.Context) (models.User, error)
}

type TaskReader interface {
	ListTasks(ctx context.Context, q TaskQuery) (TaskPage, error)
	ExportTasks(ctx context.Context, q TaskQuery, w io.Writer) (int64, error)
}

type TaskUpdater interface {
	SetStatus(ctx context.Context, taskID int64, status models.TaskStatus, note string) (models.Task, error)
	UploadPhotos(ctx context.Context, taskID int64, photos []PhotoFile, complete bool, note string) ([]models.TaskPhoto, error)
}

type DispatchAPI interface {
	SessionProvider
	TaskReader
	TaskUpdater
}

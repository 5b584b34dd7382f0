package courierapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/TWRT/courier-dispatch/internal/client"
	"github.com/TWRT/courier-dispatch/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *CourierAPIClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCourierAPIClient(srv.URL+"/", "tok-123")
}

func TestLoginSendsCredentials(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Email != "rui@acme.test" || body.Password != "secret-pw" {
			t.Errorf("body = %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "jwt",
			"expires_at":   "2026-10-19T12:00:00Z",
			"user":         map[string]any{"id": 4, "email": "rui@acme.test", "role": "courier"},
		})
	})

	res, err := c.Login(context.Background(), "rui@acme.test", "secret-pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken != "jwt" || res.User.Role != models.RoleCourier || res.ExpiresAt.Year() != 2026 {
		t.Fatalf("result = %+v", res)
	}
}

func TestErrorsCarryStatusAndMessage(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":"access token is expired"}`)
	})

	_, err := c.Me(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("err = %v, want unauthorized", err)
	}
	if !strings.Contains(err.Error(), "access token is expired") {
		t.Fatalf("err = %q", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.ListTasks(context.Background(), client.TaskQuery{})
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("err = %#v", err)
	}
}

func TestListTasksEncodesQuery(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("status") != "assigned" || q.Get("limit") != "10" || q.Has("offset") || q.Has("courier_id") {
			t.Errorf("query = %v", q)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{{"id": 1, "reference_bl": "BL-1", "status": "assigned"}},
			"total": 1,
			"limit": 10,
		})
	})

	page, err := c.ListTasks(context.Background(), client.TaskQuery{Status: "assigned", Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Tasks[0].ReferenceBL != "BL-1" {
		t.Fatalf("page = %+v", page)
	}
}

func TestExportTasksStreamsBody(t *testing.T) {
	t.Parallel()
	const csvBody = "ID,Reference BL\n1,BL-1\n"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/export" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/csv")
		io.WriteString(w, csvBody)
	})

	var sb strings.Builder
	n, err := c.ExportTasks(context.Background(), client.TaskQuery{}, &sb)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if sb.String() != csvBody || n != int64(len(csvBody)) {
		t.Fatalf("export = %q (%d)", sb.String(), n)
	}
}

func TestUploadPhotosSendsMultipart(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tasks/9/photos" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		files := r.MultipartForm.File["photo"]
		if len(files) != 2 || files[0].Filename != "front.jpg" || files[0].Header.Get("Content-Type") != "image/jpeg" {
			t.Errorf("files = %+v", files)
		}
		if r.FormValue("complete") != "true" {
			t.Errorf("complete = %q", r.FormValue("complete"))
		}
		if r.FormValue("note") != "left at gate" {
			t.Errorf("note = %q", r.FormValue("note"))
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"photos": []map[string]any{{"id": 1}, {"id": 2}}})
	})

	photos, err := c.UploadPhotos(context.Background(), 9, []client.PhotoFile{
		{Name: "/tmp/front.jpg", Body: strings.NewReader("jpeg-bytes")},
		{Name: "back.png", Body: strings.NewReader("png-bytes")},
	}, true, "left at gate")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photos = %+v", photos)
	}
}

func TestSetStatus(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body statusRequest
		json.NewDecoder(r.Body).Decode(&body)
		if r.Method != http.MethodPut || r.URL.Path != "/tasks/3/status" || body.Status != models.TaskStatusInProgress {
			t.Errorf("request = %s %s %+v", r.Method, r.URL.Path, body)
		}
		json.NewEncoder(w).Encode(map[string]any{"id": 3, "status": "in_progress"})
	})

	task, err := c.SetStatus(context.Background(), 3, models.TaskStatusInProgress, "")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if task.ID != 3 || task.Status != models.TaskStatusInProgress {
		t.Fatalf("task = %+v", task)
	}
}

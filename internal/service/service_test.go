package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TWRT/courier-dispatch/internal/apperrors"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/config"
	"github.com/TWRT/courier-dispatch/internal/models"
	"github.com/TWRT/courier-dispatch/internal/repository"
	"github.com/TWRT/courier-dispatch/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type env struct {
	store     *repository.Store
	blobs     *storage.BlobStore
	orgs      *OrganizationService
	clients   *ClientService
	couriers  *CourierService
	tasks     *TaskService
	photos    *PhotoService
	dashboard *DashboardService

	orgID   int64
	client  models.Client
	courier models.Courier

	super auth.Principal
	admin auth.Principal
	rider auth.Principal
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	db, err := repository.InitDB(ctx, filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	blobs, err := storage.NewBlobStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}

	store := repository.NewStore(db)
	tasks := NewTaskService(store, blobs)
	e := &env{
		store:     store,
		blobs:     blobs,
		orgs:      NewOrganizationService(store, blobs),
		clients:   NewClientService(store),
		couriers:  NewCourierService(store),
		tasks:     tasks,
		photos:    NewPhotoService(store, blobs, tasks),
		dashboard: NewDashboardService(store),
		super:     auth.Principal{Role: models.RoleSuperadmin},
	}

	org, err := e.orgs.Create(ctx, e.super, OrganizationInput{Name: "Acme Logistics"})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	e.orgID = org.ID
	e.admin = auth.Principal{Role: models.RoleOrgAdmin, OrganizationID: &e.orgID}

	e.client, err = e.clients.Create(ctx, e.admin, 0, ClientInput{Name: "Harbor Foods"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	e.courier, err = e.couriers.Create(ctx, e.admin, 0, CourierInput{
		Name:     "Rui",
		Email:    "rui@acme.test",
		Password: "courier-pass",
	})
	if err != nil {
		t.Fatalf("create courier: %v", err)
	}
	if e.courier.UserID == nil {
		t.Fatal("courier has no login")
	}
	e.rider = auth.Principal{
		UserID:         *e.courier.UserID,
		Role:           models.RoleCourier,
		OrganizationID: &e.orgID,
		CourierID:      &e.courier.ID,
	}
	return e
}

func (e *env) createTask(t *testing.T, bl string, courierID *int64) models.Task {
	t.Helper()
	task, err := e.tasks.Create(context.Background(), e.admin, 0, TaskInput{
		ReferenceBL:   bl,
		Type:          models.TaskTypeDelivery,
		ClientID:      e.client.ID,
		CourierID:     courierID,
		ScheduledDate: "2026-03-14",
	})
	if err != nil {
		t.Fatalf("create task %s: %v", bl, err)
	}
	return task
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("code = %q (err %v), want %q", got, err, code)
	}
}

func TestResolveOrg(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := resolveOrg(ctx, e.store, e.super, 0)
	wantCode(t, err, apperrors.CodeInvalidArgument)

	_, err = resolveOrg(ctx, e.store, e.super, e.orgID+100)
	wantCode(t, err, apperrors.CodeNotFound)

	got, err := resolveOrg(ctx, e.store, e.admin, 0)
	if err != nil || got != e.orgID {
		t.Fatalf("resolveOrg(admin) = %d, %v, want %d", got, err, e.orgID)
	}

	_, err = resolveOrg(ctx, e.store, e.admin, e.orgID+1)
	wantCode(t, err, apperrors.CodePermissionDenied)
}

func TestLoginUsesSameMessageForUnknownEmailAndBadPassword(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAuthService(e.store, auth.NewTokenIssuer([]byte("secret"), "test", time.Hour))

	_, unknownErr := svc.Login(ctx, "nobody@acme.test", "whatever1")
	_, badErr := svc.Login(ctx, "rui@acme.test", "wrong-pass")
	wantCode(t, unknownErr, apperrors.CodeUnauthenticated)
	wantCode(t, badErr, apperrors.CodeUnauthenticated)
	if unknownErr.Error() != badErr.Error() {
		t.Fatalf("messages differ: %q vs %q", unknownErr, badErr)
	}
}

func TestLoginAndAuthenticate(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAuthService(e.store, auth.NewTokenIssuer([]byte("secret"), "test", time.Hour))

	res, err := svc.Login(ctx, "RUI@acme.test", "courier-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	p, err := svc.Authenticate(ctx, res.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p.Role != models.RoleCourier || p.CourierID == nil || *p.CourierID != e.courier.ID {
		t.Fatalf("principal = %+v, want courier %d", p, e.courier.ID)
	}

	_, err = svc.Authenticate(ctx, res.AccessToken+"x")
	wantCode(t, err, apperrors.CodeUnauthenticated)
}

func TestEnsureSuperadminIsIdempotent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	svc := NewAuthService(e.store, auth.NewTokenIssuer([]byte("secret"), "test", time.Hour))
	cfg := config.SuperadminConfig{Email: "root@acme.test", Password: "root-password", Name: "Root"}

	for i := 0; i < 2; i++ {
		if err := svc.EnsureSuperadmin(ctx, cfg); err != nil {
			t.Fatalf("ensure superadmin (%d): %v", i, err)
		}
	}
	res, err := svc.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		t.Fatalf("login superadmin: %v", err)
	}
	if res.User.Role != models.RoleSuperadmin || res.User.OrganizationID != nil {
		t.Fatalf("user = %+v, want superadmin without org", res.User)
	}
}

func TestOrganizationsAreSuperadminOnly(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.orgs.List(ctx, e.admin)
	wantCode(t, err, apperrors.CodePermissionDenied)

	org, err := e.orgs.Get(ctx, e.admin, e.orgID)
	if err != nil || org.Name != "Acme Logistics" {
		t.Fatalf("admin get own org = %+v, %v", org, err)
	}

	_, err = e.orgs.CreateAdmin(ctx, e.super, e.orgID, UserInput{Email: "rui@acme.test", Password: "admin-pass"})
	wantCode(t, err, apperrors.CodeConflict)

	admin, err := e.orgs.CreateAdmin(ctx, e.super, e.orgID, UserInput{Email: "boss@acme.test", Name: "Boss", Password: "admin-pass"})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	if admin.Role != models.RoleOrgAdmin {
		t.Fatalf("role = %q, want org_admin", admin.Role)
	}
	users, err := e.orgs.ListUsers(ctx, e.admin, 0)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
}

func TestDeleteOrganizationRemovesPhotoBlobs(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", &e.courier.ID)

	photos, err := e.photos.Upload(ctx, e.rider, task.ID, []PhotoUpload{{Filename: "a.png", Body: bytes.NewReader(pngHeader)}}, false, "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	key := photos[0].StorageKey

	if err := e.orgs.Delete(ctx, e.super, e.orgID); err != nil {
		t.Fatalf("delete org: %v", err)
	}
	if _, err := e.blobs.Open(key); err == nil {
		t.Fatal("blob still present after organization delete")
	}
}

func TestClientDeleteRefusedWhileTasksExist(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", nil)

	err := e.clients.Delete(ctx, e.admin, 0, e.client.ID)
	wantCode(t, err, apperrors.CodeConflict)

	if err := e.tasks.Delete(ctx, e.admin, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if err := e.clients.Delete(ctx, e.admin, 0, e.client.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
}

func TestCourierRoleCannotManageClients(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	_, err := e.clients.List(context.Background(), e.rider, 0, "")
	wantCode(t, err, apperrors.CodePermissionDenied)
}

func TestCourierLoginLifecycle(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.couriers.Create(ctx, e.admin, 0, CourierInput{Name: "Ana", Password: "no-email-pass"})
	wantCode(t, err, apperrors.CodeInvalidArgument)

	updated, err := e.couriers.Update(ctx, e.admin, 0, e.courier.ID, CourierInput{
		Name:  "Rui Costa",
		Email: "rui.costa@acme.test",
	})
	if err != nil {
		t.Fatalf("update courier: %v", err)
	}
	user, err := e.store.Users.Get(ctx, *updated.UserID)
	if err != nil {
		t.Fatalf("load login: %v", err)
	}
	if user.Email != "rui.costa@acme.test" || user.Name != "Rui Costa" {
		t.Fatalf("login = %+v, want synced email and name", user)
	}

	task := e.createTask(t, "BL-1", &e.courier.ID)
	if err := e.couriers.Delete(ctx, e.admin, 0, e.courier.ID); err != nil {
		t.Fatalf("delete courier: %v", err)
	}
	if _, err := e.store.Users.Get(ctx, user.ID); err == nil {
		t.Fatal("courier login survived courier delete")
	}
	got, err := e.tasks.Get(ctx, e.admin, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.CourierID != nil {
		t.Fatalf("courier_id = %v, want nil", *got.CourierID)
	}
	events, err := e.tasks.Events(ctx, e.admin, task.ID)
	if err != nil || len(events) == 0 {
		t.Fatalf("events = %v, %v; want history kept", events, err)
	}
}

func TestCreateTaskDefaultsStatus(t *testing.T) {
	t.Parallel()
	e := newEnv(t)

	unassigned := e.createTask(t, "BL-1", nil)
	if unassigned.Status != models.TaskStatusPending {
		t.Fatalf("status = %q, want pending", unassigned.Status)
	}
	assigned := e.createTask(t, "BL-2", &e.courier.ID)
	if assigned.Status != models.TaskStatusAssigned {
		t.Fatalf("status = %q, want assigned", assigned.Status)
	}
	if assigned.CourierName != "Rui" || assigned.ClientName != "Harbor Foods" {
		t.Fatalf("names = %q/%q", assigned.CourierName, assigned.ClientName)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	other, err := e.orgs.Create(ctx, e.super, OrganizationInput{Name: "Other"})
	if err != nil {
		t.Fatalf("create org: %v", err)
	}
	foreign, err := e.clients.Create(ctx, e.super, other.ID, ClientInput{Name: "Foreign"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}

	tests := []struct {
		name string
		in   TaskInput
	}{
		{"missing bl", TaskInput{Type: models.TaskTypeDelivery, ClientID: e.client.ID}},
		{"bad type", TaskInput{ReferenceBL: "BL", Type: "teleport", ClientID: e.client.ID}},
		{"bad status", TaskInput{ReferenceBL: "BL", Type: models.TaskTypePickup, ClientID: e.client.ID, Status: "lost"}},
		{"bad date", TaskInput{ReferenceBL: "BL", Type: models.TaskTypePickup, ClientID: e.client.ID, ScheduledDate: "14/03/2026"}},
		{"missing client", TaskInput{ReferenceBL: "BL", Type: models.TaskTypePickup}},
		{"foreign client", TaskInput{ReferenceBL: "BL", Type: models.TaskTypePickup, ClientID: foreign.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.tasks.Create(ctx, e.admin, 0, tt.in)
			wantCode(t, err, apperrors.CodeInvalidArgument)
		})
	}

	_, err = e.tasks.Create(ctx, e.rider, 0, TaskInput{ReferenceBL: "BL", Type: models.TaskTypePickup, ClientID: e.client.ID})
	wantCode(t, err, apperrors.CodePermissionDenied)
}

func TestCourierSeesOnlyOwnTasks(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	mine := e.createTask(t, "BL-MINE", &e.courier.ID)
	other := e.createTask(t, "BL-OTHER", nil)

	page, err := e.tasks.List(ctx, e.rider, TaskQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || len(page.Tasks) != 1 || page.Tasks[0].ID != mine.ID {
		t.Fatalf("page = %+v, want only %d", page, mine.ID)
	}

	_, err = e.tasks.Get(ctx, e.rider, other.ID)
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestListClampsLimit(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	e.createTask(t, "BL-1", nil)

	page, err := e.tasks.List(ctx, e.admin, TaskQuery{Limit: 1000})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Limit != MaxTaskPageSize {
		t.Fatalf("limit = %d, want %d", page.Limit, MaxTaskPageSize)
	}
	page, err = e.tasks.List(ctx, e.admin, TaskQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Limit != DefaultTaskPageSize {
		t.Fatalf("limit = %d, want %d", page.Limit, DefaultTaskPageSize)
	}

	_, err = e.tasks.List(ctx, e.admin, TaskQuery{Status: "lost"})
	wantCode(t, err, apperrors.CodeInvalidArgument)
}

func TestSetStatusByCourier(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", &e.courier.ID)

	_, err := e.tasks.SetStatus(ctx, e.rider, task.ID, models.TaskStatusCancelled, "")
	wantCode(t, err, apperrors.CodePermissionDenied)

	done, err := e.tasks.SetStatus(ctx, e.rider, task.ID, models.TaskStatusCompleted, "left at gate")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != models.TaskStatusCompleted || done.CompletedAt == nil {
		t.Fatalf("task = %+v, want completed with completed_at", done)
	}

	// No transition rules: an admin may reopen a completed task.
	reopened, err := e.tasks.SetStatus(ctx, e.admin, task.ID, models.TaskStatusPending, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("completed_at = %v, want nil", reopened.CompletedAt)
	}

	events, err := e.tasks.Events(ctx, e.admin, task.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	last := events[2]
	if last.FromStatus != models.TaskStatusCompleted || last.ToStatus != models.TaskStatusPending {
		t.Fatalf("last event = %+v", last)
	}
	if events[1].Note != "left at gate" || events[1].ActorUserID == nil || *events[1].ActorUserID != e.rider.UserID {
		t.Fatalf("courier event = %+v", events[1])
	}
}

func TestSetStatusSameValueRecordsNoEvent(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", nil)

	if _, err := e.tasks.SetStatus(ctx, e.admin, task.ID, models.TaskStatusPending, ""); err != nil {
		t.Fatalf("set status: %v", err)
	}
	events, err := e.tasks.Events(ctx, e.admin, task.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
}

func TestAssign(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", nil)

	inactive, err := e.couriers.Create(ctx, e.admin, 0, CourierInput{Name: "Idle", Active: ptr(false)})
	if err != nil {
		t.Fatalf("create courier: %v", err)
	}
	_, err = e.tasks.Assign(ctx, e.admin, task.ID, &inactive.ID)
	wantCode(t, err, apperrors.CodeInvalidArgument)

	got, err := e.tasks.Assign(ctx, e.admin, task.ID, &e.courier.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.Status != models.TaskStatusAssigned || got.CourierID == nil || *got.CourierID != e.courier.ID {
		t.Fatalf("task = %+v, want assigned to %d", got, e.courier.ID)
	}

	got, err = e.tasks.Assign(ctx, e.admin, task.ID, nil)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if got.CourierID != nil || got.Status != models.TaskStatusAssigned {
		t.Fatalf("task = %+v, want no courier and status kept", got)
	}

	_, err = e.tasks.Assign(ctx, e.rider, task.ID, &e.courier.ID)
	wantCode(t, err, apperrors.CodePermissionDenied)
}

func TestUpdateKeepsStatusWhenEmpty(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", &e.courier.ID)

	got, err := e.tasks.Update(ctx, e.admin, task.ID, TaskInput{
		ReferenceBL: "BL-1A",
		Type:        models.TaskTypePickup,
		ClientID:    e.client.ID,
		CourierID:   &e.courier.ID,
		Notes:       "dock 4",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ReferenceBL != "BL-1A" || got.Type != models.TaskTypePickup || got.Status != models.TaskStatusAssigned {
		t.Fatalf("task = %+v", got)
	}
	if got.ScheduledDate != "" {
		t.Fatalf("scheduled_date = %q, want cleared", got.ScheduledDate)
	}
}

func TestUpdateAssignsCourier(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", nil)
	input := TaskInput{ReferenceBL: "BL-1", Type: models.TaskTypeDelivery, ClientID: e.client.ID}

	input.CourierID = &e.courier.ID
	got, err := e.tasks.Update(ctx, e.admin, task.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != models.TaskStatusAssigned || got.CourierID == nil || *got.CourierID != e.courier.ID {
		t.Fatalf("task = %+v, want assigned to %d", got, e.courier.ID)
	}

	// Saving again with the same courier is not a new assignment.
	if _, err := e.tasks.Update(ctx, e.admin, task.ID, input); err != nil {
		t.Fatalf("second update: %v", err)
	}

	input.CourierID = nil
	got, err = e.tasks.Update(ctx, e.admin, task.ID, input)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if got.CourierID != nil || got.Status != models.TaskStatusAssigned {
		t.Fatalf("task = %+v, want no courier and status kept", got)
	}

	events, err := e.tasks.Events(ctx, e.admin, task.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if ev := events[1]; ev.FromStatus != models.TaskStatusPending || ev.ToStatus != models.TaskStatusAssigned || ev.Note != "assigned to Rui" {
		t.Fatalf("assign event = %+v", ev)
	}
	if ev := events[2]; ev.Note != "unassigned" || ev.ToStatus != models.TaskStatusAssigned {
		t.Fatalf("unassign event = %+v", ev)
	}

	inactive, err := e.couriers.Create(ctx, e.admin, 0, CourierInput{Name: "Idle", Active: ptr(false)})
	if err != nil {
		t.Fatalf("create courier: %v", err)
	}
	input.CourierID = &inactive.ID
	_, err = e.tasks.Update(ctx, e.admin, task.ID, input)
	wantCode(t, err, apperrors.CodeInvalidArgument)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", &e.courier.ID)
	if _, err := e.tasks.SetStatus(ctx, e.admin, task.ID, models.TaskStatusInProgress, ""); err != nil {
		t.Fatalf("set status: %v", err)
	}
	e.createTask(t, "BL-2", nil)

	var buf bytes.Buffer
	n, err := e.tasks.Export(ctx, e.admin, TaskQuery{Status: "in_progress"}, &buf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != 1 {
		t.Fatalf("rows = %d, want 1", n)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "ID,Reference BL,Type,Status,Client,Courier,Address,Scheduled Date,Completed At,Notes" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], ",BL-1,Delivery,In Progress,Harbor Foods,Rui,") {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestPhotoUploadCompletesTask(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", &e.courier.ID)

	photos, err := e.photos.Upload(ctx, e.rider, task.ID, []PhotoUpload{
		{Filename: "front.png", Body: bytes.NewReader(pngHeader)},
		{Filename: "../../back.png", ContentType: "image/png", Body: bytes.NewReader(pngHeader)},
	}, true, "left with reception")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(photos) != 2 {
		t.Fatalf("photos = %d, want 2", len(photos))
	}
	if photos[0].ContentType != "image/png" || photos[1].Filename != "back.png" {
		t.Fatalf("photos = %+v", photos)
	}

	got, err := e.tasks.Get(ctx, e.rider, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.TaskStatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	events, err := e.tasks.Events(ctx, e.admin, task.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	last := events[len(events)-1]
	if last.ToStatus != models.TaskStatusCompleted || last.Note != "2 photos uploaded: left with reception" {
		t.Fatalf("last event = %+v", last)
	}

	listed, err := e.photos.List(ctx, e.admin, task.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 || listed[0].SizeHuman == "" {
		t.Fatalf("listed = %+v", listed)
	}

	meta, f, err := e.photos.Open(ctx, e.admin, listed[0].ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	body, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(body, pngHeader) || meta.SizeBytes != int64(len(pngHeader)) {
		t.Fatalf("blob = %q (%d bytes)", body, meta.SizeBytes)
	}

	if err := e.tasks.Delete(ctx, e.admin, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := e.blobs.Open(meta.StorageKey); err == nil {
		t.Fatal("blob still present after task delete")
	}
}

func TestPhotoUploadRejectsNonImages(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	task := e.createTask(t, "BL-1", &e.courier.ID)

	_, err := e.photos.Upload(ctx, e.rider, task.ID, []PhotoUpload{{Filename: "notes.txt", Body: strings.NewReader("hello")}}, false, "")
	wantCode(t, err, apperrors.CodeInvalidArgument)

	_, err = e.photos.Upload(ctx, e.rider, task.ID, []PhotoUpload{{Filename: "empty.png", Body: strings.NewReader("")}}, false, "")
	wantCode(t, err, apperrors.CodeInvalidArgument)

	_, err = e.photos.Upload(ctx, e.rider, task.ID, nil, false, "")
	wantCode(t, err, apperrors.CodeInvalidArgument)

	_, err = e.photos.Upload(ctx, e.rider, task.ID, []PhotoUpload{{Filename: "a.png", Body: bytes.NewReader(pngHeader)}}, false, "note without completion")
	wantCode(t, err, apperrors.CodeInvalidArgument)
}

func TestPhotoUploadOnForeignTask(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	task := e.createTask(t, "BL-1", nil)

	_, err := e.photos.Upload(context.Background(), e.rider, task.ID, []PhotoUpload{{Filename: "a.png", Body: bytes.NewReader(pngHeader)}}, true, "")
	if !errors.Is(err, apperrors.NotFound("")) {
		t.Fatalf("err = %v, want not_found", err)
	}
}

func TestDashboardStats(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	done := e.createTask(t, "BL-1", &e.courier.ID)
	e.createTask(t, "BL-2", &e.courier.ID)
	e.createTask(t, "BL-3", nil)
	if _, err := e.tasks.SetStatus(ctx, e.admin, done.ID, models.TaskStatusCompleted, ""); err != nil {
		t.Fatalf("complete: %v", err)
	}

	stats, err := e.dashboard.Stats(ctx, e.admin, 0, 0)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.ByStatus[models.TaskStatusCompleted] != 1 || stats.ByStatus[models.TaskStatusCancelled] != 0 {
		t.Fatalf("by status = %v", stats.ByStatus)
	}
	if stats.ByType[models.TaskTypeDelivery] != 3 {
		t.Fatalf("by type = %v", stats.ByType)
	}
	if len(stats.ByCourier) != 1 || stats.ByCourier[0].Total != 2 || stats.ByCourier[0].Completed != 1 {
		t.Fatalf("by courier = %+v", stats.ByCourier)
	}
	if len(stats.Daily) != DefaultStatsDays {
		t.Fatalf("daily = %d, want %d", len(stats.Daily), DefaultStatsDays)
	}
	if today := stats.Daily[len(stats.Daily)-1]; today.Count != 3 {
		t.Fatalf("today = %+v, want 3", today)
	}
	if stats.LastActivity == "" {
		t.Fatal("last activity is empty")
	}

	mine, err := e.dashboard.Stats(ctx, e.rider, 0, 1000)
	if err != nil {
		t.Fatalf("courier stats: %v", err)
	}
	if mine.Total != 2 || len(mine.Daily) != MaxStatsDays {
		t.Fatalf("courier stats total=%d days=%d", mine.Total, len(mine.Daily))
	}
}

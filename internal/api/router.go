package api

import (
	"database/sql"
	"net/http"

	"github.com/TWRT/courier-dispatch/internal/api/handlers"
	"github.com/TWRT/courier-dispatch/internal/auth"
	"github.com/TWRT/courier-dispatch/internal/repository"
	"github.com/TWRT/courier-dispatch/internal/service"
	"github.com/TWRT/courier-dispatch/internal/storage"
	"github.com/TWRT/courier-dispatch/internal/telemetry"
)

// Options configures SetupRouter.
type Options struct {
	DB             *sql.DB
	Blobs          *storage.BlobStore
	Tokens         *auth.TokenIssuer
	MaxUploadBytes int64
}

// Services exposes the services behind the router so callers can run
// startup tasks such as the superadmin bootstrap.
type Services struct {
	Auth          *service.AuthService
	Organizations *service.OrganizationService
	Clients       *service.ClientService
	Couriers      *service.CourierService
	Tasks         *service.TaskService
	Photos        *service.PhotoService
	Dashboard     *service.DashboardService
}

func NewServices(opts Options) *Services {
	store := repository.NewStore(opts.DB)
	tasks := service.NewTaskService(store, opts.Blobs)
	return &Services{
		Auth:          service.NewAuthService(store, opts.Tokens),
		Organizations: service.NewOrganizationService(store, opts.Blobs),
		Clients:       service.NewClientService(store),
		Couriers:      service.NewCourierService(store),
		Tasks:         tasks,
		Photos:        service.NewPhotoService(store, opts.Blobs, tasks),
		Dashboard:     service.NewDashboardService(store),
	}
}

func SetupRouter(opts Options, svc *Services) http.Handler {
	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(opts.DB)
	authHandler := handlers.NewAuthHandler(svc.Auth)
	organizationHandler := handlers.NewOrganizationHandler(svc.Organizations)
	clientHandler := handlers.NewClientHandler(svc.Clients)
	courierHandler := handlers.NewCourierHandler(svc.Couriers)
	taskHandler := handlers.NewTaskHandler(svc.Tasks)
	photoHandler := handlers.NewPhotoHandler(svc.Photos, opts.MaxUploadBytes)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)

	requireAuth := RequireAuth(svc.Auth)
	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(h))
	}

	mux.HandleFunc("GET /healthz", healthHandler.Health)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	private("GET /auth/me", authHandler.Me)

	private("GET /organizations", organizationHandler.List)
	private("POST /organizations", organizationHandler.Create)
	private("GET /organizations/{id}", organizationHandler.Get)
	private("PUT /organizations/{id}", organizationHandler.Update)
	private("DELETE /organizations/{id}", organizationHandler.Delete)
	private("GET /organizations/{id}/users", organizationHandler.ListUsers)
	private("POST /organizations/{id}/admins", organizationHandler.CreateAdmin)

	private("GET /clients", clientHandler.List)
	private("POST /clients", clientHandler.Create)
	private("GET /clients/{id}", clientHandler.Get)
	private("PUT /clients/{id}", clientHandler.Update)
	private("DELETE /clients/{id}", clientHandler.Delete)

	private("GET /couriers", courierHandler.List)
	private("POST /couriers", courierHandler.Create)
	private("GET /couriers/{id}", courierHandler.Get)
	private("PUT /couriers/{id}", courierHandler.Update)
	private("DELETE /couriers/{id}", courierHandler.Delete)

	private("GET /tasks", taskHandler.List)
	private("POST /tasks", taskHandler.Create)
	private("GET /tasks/export", taskHandler.Export)
	private("GET /tasks/{id}", taskHandler.Get)
	private("PUT /tasks/{id}", taskHandler.Update)
	private("DELETE /tasks/{id}", taskHandler.Delete)
	private("PUT /tasks/{id}/status", taskHandler.SetStatus)
	private("PUT /tasks/{id}/assign", taskHandler.Assign)
	private("GET /tasks/{id}/events", taskHandler.Events)
	private("GET /tasks/{id}/photos", photoHandler.List)
	private("POST /tasks/{id}/photos", photoHandler.Upload)
	private("GET /photos/{id}", photoHandler.Get)

	private("GET /dashboard/stats", dashboardHandler.Stats)

	return Chain(
		telemetry.Handler(mux, "courier-dispatch"),
		RequestID(),
		LogRequests(),
		RecoverPanic(),
	)
}

package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tbox/dashboard/app"
	"github.com/tbox/dashboard/handlers"
	"github.com/tbox/dashboard/middleware"
	"github.com/tbox/dashboard/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	// The dashboard runs on its own origin and sends the auth cookie along
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	var auditStats handlers.AuditStats
	if deps.Config.Audit.Enabled {
		auditStats = deps.Audit
	}
	health := handlers.NewHealthHandler(deps.DB, auditStats, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	// Session endpoints. Each one checks the credential itself where needed.
	r.Post("/signup", handlers.SignupHandler(deps))
	r.Post("/login", handlers.LoginHandler(deps))
	r.Post("/verify-token", handlers.VerifyTokenHandler(deps))
	r.Post("/logout", handlers.LogoutHandler(deps))
	r.Get("/", handlers.DashboardHandler(deps))

	// Protected data endpoints
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)

		r.Get("/api/vehicle/{deviceName}", handlers.GetVehicleHandler(deps))
		r.Get("/api/auth-events", handlers.ListAuthEventsHandler(deps))
		r.With(deps.AuthMiddleware.RequireSelf(func(r *http.Request) string {
			return chi.URLParam(r, "id")
		})).Get("/get-user/{id}", handlers.GetUserHandler(deps))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}

package routes

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taskforce/taskmanager/internal/app"
	"github.com/taskforce/taskmanager/internal/handler"
	"github.com/taskforce/taskmanager/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	users := handler.NewUserHandler(app.UserService)
	avatars := handler.NewAvatarHandler(app.AvatarService)
	tasks := handler.NewTaskHandler(app.TaskService)

	auth := middleware.RequireAuth(app.AuthService)
	rateLimiter := middleware.RateLimit(app.Cfg.LoginRateLimit, app.Cfg.LoginRateWindow)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// Sessions (rate limited)
	mux.HandleFunc("POST /users", rateLimiter(users.Register))
	mux.HandleFunc("POST /users/login", rateLimiter(users.Login))

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("POST /users/logout", auth(users.Logout))
	mux.HandleFunc("POST /users/logoutall", auth(users.LogoutAll))

	// Account
	mux.HandleFunc("GET /users/me", auth(users.Me))
	mux.HandleFunc("PATCH /users/me", auth(users.UpdateMe))
	mux.HandleFunc("DELETE /users/me", auth(users.DeleteMe))
	mux.HandleFunc("GET /users/{id}", auth(users.ByID))

	// Avatars
	mux.HandleFunc("POST /users/me/avatar", auth(avatars.Upload))
	mux.HandleFunc("GET /users/me/avatar", auth(avatars.Mine))
	mux.HandleFunc("DELETE /users/me/avatar", auth(avatars.Delete))
	mux.HandleFunc("GET /users/{id}/avatar", auth(avatars.ByUserID))

	// Tasks
	mux.HandleFunc("POST /tasks", auth(tasks.Create))
	mux.HandleFunc("GET /tasks", auth(tasks.List))
	mux.HandleFunc("GET /tasks/{id}", auth(tasks.Get))
	mux.HandleFunc("PATCH /tasks/{id}", auth(tasks.Update))
	mux.HandleFunc("DELETE /tasks/{id}", auth(tasks.Delete))

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", handler.NotFound)

	// Global middleware - executed in order (top to bottom)
	global := []func(http.Handler) http.Handler{chimw.RequestID}
	if app.Cfg.TrustProxy {
		global = append(global, chimw.RealIP) // must run before the rate limiter reads RemoteAddr
	}
	global = append(global,
		middleware.RequestLogging,
		chimw.Recoverer, // inside logging so panics are logged as 500
		middleware.CORS(app.Cfg.CORSAllowedOrigins),
	)

	return middleware.Chain(mux, global...)
}

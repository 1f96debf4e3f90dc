package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/vedran77/taskmate/internal/service"
	"github.com/vedran77/taskmate/internal/transport/http/handlers"
	"github.com/vedran77/taskmate/internal/transport/http/middleware"
	"github.com/vedran77/taskmate/internal/transport/ws"
)

type Deps struct {
	AuthService *service.AuthService
	UserService *service.UserService
	TaskService *service.TaskService
	Hub         *ws.Hub
	Store       middleware.Readiness

	CORSOrigins  []string
	SecureCookie bool
	Logger       *slog.Logger
}

// New wires every route of the API.
func New(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.AuthService, d.SecureCookie, d.Logger)
	userHandler := handlers.NewUserHandler(d.UserService, d.Logger)
	taskHandler := handlers.NewTaskHandler(d.TaskService, d.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hurray! My server is running."))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	r.Post("/jwt", authHandler.Issue)
	r.Get("/logout", authHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireStore(d.Store, d.Logger))

		r.Post("/users", userHandler.Register)
		r.Get("/users", userHandler.List)

		// Protected
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(d.AuthService))

			r.Get("/tasks/{email}", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Put("/tasks/{id}", taskHandler.Replace)
			r.Patch("/tasks/{id}", taskHandler.Patch)
			r.Delete("/tasks/{id}", taskHandler.Delete)
		})
	})

	r.Get("/ws", ws.ServeWS(d.Hub, d.AuthService, d.CORSOrigins, d.Logger))

	return r
}

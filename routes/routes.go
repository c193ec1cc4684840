package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/identity-service/app"
	"github.com/upb/identity-service/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	// OAuth2 authorization-code flow
	r.Route("/oauth", func(r chi.Router) {
		r.Get("/authorize", deps.OAuthHandler.HandleAuthorize)
		r.Get("/callback", deps.OAuthHandler.HandleCallback)
	})

	// User endpoints
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", handlers.RegisterHandler(deps))
		r.Post("/login", handlers.LoginHandler(deps))
		r.Get("/{id}", handlers.GetUserHandler(deps))
		r.Get("/email/{email}", handlers.GetUserByEmailHandler(deps))

		// Endpoints requiring a valid bearer token
		r.Route("/protected", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/profile", handlers.ProfileHandler(deps))
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found","message":"The requested resource was not found"}`))
	})

	return r
}

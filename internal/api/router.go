package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pzaremba/site-auth-be/internal/api/handlers"
	"github.com/pzaremba/site-auth-be/internal/services"
)

// NewRouter creates and configures a new Chi router. The account endpoints
// keep the original site's paths; everything else falls through to the
// static file server for the public assets.
func NewRouter(accountService services.AccountServiceProvider, staticDir string, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	accountHandler := handlers.NewAccountHandler(accountService)

	r.Post("/register", accountHandler.Register)
	r.Post("/login", accountHandler.Login)
	r.Get("/user/{userId}", accountHandler.Get)

	// Marketing/dashboard pages and other site assets
	r.Handle("/*", http.FileServer(http.Dir(staticDir)))

	return r
}

package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/setplanner/backend/internal/broker"
	"github.com/setplanner/backend/internal/config"
	"github.com/setplanner/backend/internal/handlers"
	"github.com/setplanner/backend/internal/metrics"
	"github.com/setplanner/backend/internal/middleware"
	"github.com/setplanner/backend/internal/services"
	"github.com/setplanner/backend/internal/session"
)

// New wires the services, the broker, and the HTTP surface together.
// The broker's event loop is started here and runs for the life of the process.
func New(cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// Services
	m := metrics.New()
	authService := services.NewAuthService(cfg.JWTSecret, cfg.TokenDuration)
	store := session.NewStore()

	hub := broker.NewHub(store, authService, m)
	go hub.Run()

	// Handlers
	authHandler := handlers.NewAuthHandler(cfg, authService, m)
	wsHandler := handlers.NewWSHandler(hub, cfg.CORSAllowedOrigins)

	// Rate limiter for the login endpoint
	loginRateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Routes
	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})

		// DJ login (rate limited against password guessing)
		r.With(loginRateLimiter.Middleware).Post("/auth/dj/login", authHandler.DJLogin)
	})

	// Real-time voting
	r.Get("/ws", wsHandler.Serve)

	// Prometheus metrics
	r.Method(http.MethodGet, "/metrics", m.Handler(func() {
		m.SetSongs(store.SongCount())
	}))

	return r
}

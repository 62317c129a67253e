package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Pesokrava/park_reviewer/internal/config"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/handler"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/middleware"
	"github.com/Pesokrava/park_reviewer/internal/delivery/http/response"
	"github.com/Pesokrava/park_reviewer/internal/pkg/logger"
	"github.com/Pesokrava/park_reviewer/internal/pkg/observability"
)

// StorageHealth reports the object store circuit breaker state
type StorageHealth interface {
	State() string
}

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Reviews  *handler.ReviewHandler
	Likes    *handler.LikeHandler
	Profiles *handler.ProfileHandler
	Parks    *handler.ParkHandler
}

// Router holds HTTP handlers and router configuration
type Router struct {
	handlers Handlers
	verifier middleware.SessionVerifier
	storage  StorageHealth
	metrics  *observability.Metrics
	logger   *logger.Logger
	cfg      *config.Config
}

// NewRouter creates a new HTTP router
func NewRouter(
	handlers Handlers,
	verifier middleware.SessionVerifier,
	storage StorageHealth,
	metrics *observability.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *Router {
	return &Router{
		handlers: handlers,
		verifier: verifier,
		storage:  storage,
		metrics:  metrics,
		logger:   log,
		cfg:      cfg,
	}
}

// Setup configures and returns the HTTP router
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Telemetry(rt.metrics))
	r.Use(middleware.Logger(rt.logger))
	r.Use(middleware.Timeout(rt.cfg.Server.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{"Link", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.healthCheck)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.verifier, rt.logger))

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/by-park/{park_id}", rt.handlers.Reviews.ListByPark)
			r.Get("/by-author/{author_id}", rt.handlers.Reviews.ListByAuthor)
			r.Get("/{id}", rt.handlers.Reviews.GetByID)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireSession)
				r.Post("/", rt.handlers.Reviews.Create)
				r.Put("/{id}", rt.handlers.Reviews.Update)
				r.Delete("/{id}", rt.handlers.Reviews.Delete)
				r.Get("/{id}/like", rt.handlers.Likes.Status)
				r.Post("/{id}/like", rt.handlers.Likes.Toggle)
			})
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/", rt.handlers.Profiles.Signup)
			r.Get("/me", rt.handlers.Profiles.Me)
		})

		r.Route("/parks", func(r chi.Router) {
			r.Get("/", rt.handlers.Parks.List)
			r.Get("/{id}", rt.handlers.Parks.GetByID)
			r.With(middleware.RequireSession).Post("/", rt.handlers.Parks.Register)
		})
	})

	return r
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status": "healthy",
	}
	if rt.storage != nil {
		status["storage"] = rt.storage.State()
	}
	response.JSON(w, http.StatusOK, status)
}

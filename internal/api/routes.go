package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/glideplan/internal/config"
	"github.com/yegors/glideplan/internal/polar"
	"github.com/yegors/glideplan/internal/thermals"
	"github.com/yegors/glideplan/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(thermalService *thermals.Service, gliderPolar *polar.Polar, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    NewHandler(thermalService, gliderPolar, config, logger),
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.Server.CORSAllowedOrigins))

	// API routes
	router.Route("/api/v1", func(router chi.Router) {
		// Scored grid and candidate thermals
		router.Get("/grid", r.handler.GetGrid)
		router.Get("/thermals", r.handler.GetThermals)

		// Route planning
		router.Post("/route", r.handler.PlanRoute)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chippagiri-sritha/naariguard-server/internal/config"
	"github.com/chippagiri-sritha/naariguard-server/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     *config.Config
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(handler *Handler, config *config.Config, logger *logger.Logger) *Router {
	return &Router{
		handler:    handler,
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
		// Audio processing
		router.Post("/audio/process", r.handler.ProcessAudio)

		// Emergency alerts
		router.Post("/alerts/notify", r.handler.NotifyAlert)

		// Recordings
		router.Post("/recordings", r.handler.CreateRecording)
		router.Get("/recordings", r.handler.ListRecordings)
		router.Delete("/recordings/{id}", r.handler.DeleteRecording)
		router.Get("/recordings/{id}/audio", r.handler.StreamRecordingAudio)

		// Trust circle
		router.Get("/contacts", r.handler.ListContacts)
		router.Post("/contacts", r.handler.CreateContact)
		router.Put("/contacts/{id}", r.handler.UpdateContact)
		router.Delete("/contacts/{id}", r.handler.DeleteContact)

		// Keyword catalogue summary
		router.Get("/keywords", r.handler.GetKeywords)

		// Health check
		router.Get("/health", r.handler.GetHealth)
	})

	return router
}

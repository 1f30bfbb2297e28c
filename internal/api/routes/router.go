package routes

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/api/handlers"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/api/middleware"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	batchHandler *handlers.BatchHandler
	logger       zerolog.Logger
}

// NewRouter creates a new router
func NewRouter(batchHandler *handlers.BatchHandler, logger zerolog.Logger) *Router {
	return &Router{
		mux:          http.NewServeMux(),
		batchHandler: batchHandler,
		logger:       logger,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Batch ingestion endpoint
	r.mux.HandleFunc("POST /api/v1/batches", r.batchHandler.ProcessBatch)

	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(r.logger)(handler)

	return handler
}

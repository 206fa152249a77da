// Package rest wires the HTTP surface of the cache platform: entity reads
// and writes, listen-event ingestion, and operational endpoints.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"tempocache/application/cacheaside"
	"tempocache/application/invalidation"
	"tempocache/application/warmup"
	"tempocache/application/writebehind"
	"tempocache/application/writethrough"
	"tempocache/domain/catalog"
	"tempocache/interfaces/http/rest/handlers"
	"tempocache/interfaces/http/rest/middleware"
	"tempocache/pkg/observability"
	"tempocache/pkg/ratelimit"
)

// Dependencies carries the coordination paths the router serves.
type Dependencies struct {
	ArtistReader   *cacheaside.Coordinator[string, catalog.Artist]
	AlbumReader    *cacheaside.Coordinator[string, catalog.Album]
	ArtistWriter   *writethrough.Coordinator[string, catalog.Artist]
	AlbumWriter    *writethrough.Coordinator[string, catalog.Album]
	ListenRecorder *writebehind.Coordinator[string, catalog.ListenEvent]
	Invalidator    *invalidation.Invalidator[string]
	Warmer         *warmup.Warmer
	Metrics        *observability.Collector
	Logger         *zap.Logger
	EnableCORS     bool

	// IngestLimiter caps listen ingestion per client; nil disables limiting.
	IngestLimiter *ratelimit.TokenBucket
}

// Router creates and configures the HTTP router
type Router struct {
	deps Dependencies
}

// NewRouter creates a new router instance
func NewRouter(deps Dependencies) *Router {
	return &Router{deps: deps}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.deps.Logger))
	router.Use(middleware.Metrics(rt.deps.Metrics))

	if rt.deps.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Operational endpoints
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Method(http.MethodGet, "/metrics", rt.deps.Metrics.Handler())

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/artists", func(r chi.Router) {
			artistHandler := handlers.NewArtistHandler(rt.deps.ArtistReader, rt.deps.ArtistWriter, rt.deps.Logger)
			r.Get("/", artistHandler.ListArtists)
			r.Post("/", artistHandler.CreateArtist)
			r.Get("/{artistID}", artistHandler.GetArtist)
			r.Put("/{artistID}", artistHandler.UpdateArtist)

			albumHandler := handlers.NewAlbumHandler(rt.deps.AlbumReader, rt.deps.AlbumWriter, rt.deps.Logger)
			r.Get("/{artistID}/albums", albumHandler.ListAlbums)
			r.Post("/{artistID}/albums", albumHandler.CreateAlbum)
			r.Get("/{artistID}/albums/{albumID}", albumHandler.GetAlbum)
			r.Put("/{artistID}/albums/{albumID}", albumHandler.UpdateAlbum)
		})

		r.Route("/listens", func(r chi.Router) {
			if rt.deps.IngestLimiter != nil {
				r.Use(middleware.RateLimit(rt.deps.IngestLimiter, rt.deps.Logger))
			}
			listenHandler := handlers.NewListenHandler(rt.deps.ListenRecorder, rt.deps.Logger)
			r.Post("/", listenHandler.RecordListen)
			r.Post("/batch", listenHandler.RecordListenBatch)
			r.Post("/{eventID}/sync", listenHandler.ForceSync)
			r.Get("/stats", listenHandler.GetStats)
		})

		r.Route("/admin", func(r chi.Router) {
			adminHandler := handlers.NewAdminHandler(rt.deps.ListenRecorder, rt.deps.Invalidator, rt.deps.Warmer, rt.deps.Logger)
			r.Post("/warmup", adminHandler.WarmUp)
			r.Post("/flush", adminHandler.Flush)
			r.Delete("/cache/artists/{artistID}", adminHandler.InvalidateArtist)
			r.Delete("/cache/artists/{artistID}/related", adminHandler.InvalidateArtistRelated)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

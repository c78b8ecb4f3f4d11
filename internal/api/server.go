package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/annolex/internal/config"
	"github.com/dgallion1/annolex/internal/engine"
	"github.com/dgallion1/annolex/internal/pipeline"
	"github.com/dgallion1/annolex/internal/store"
)

// Server is the HTTP API server for annolex.
type Server struct {
	router       chi.Router
	engine       *engine.Engine
	orchestrator *pipeline.Orchestrator
	store        *store.Store
	hub          *Hub
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(eng *engine.Engine, orch *pipeline.Orchestrator, st *store.Store, hub *Hub, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		engine:       eng,
		orchestrator: orch,
		store:        st,
		hub:          hub,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)
	r.Get("/ws", s.handleWS)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/documents", s.handleUploadDocument)
		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)
		r.Put("/api/documents/{docID}/text", s.handleReplaceText)

		r.Get("/api/documents/{docID}/annotations", s.handleListAnnotations)
		r.Post("/api/documents/{docID}/annotations", s.handleCreateAnnotation)
		r.Post("/api/documents/{docID}/annotations/batch", s.handleBatchAnnotations)
		r.Delete("/api/documents/{docID}/annotations/{annoID}", s.handleDeleteAnnotation)

		r.Get("/api/documents/{docID}/overlay", s.handleOverlay)
		r.Post("/api/documents/{docID}/selection", s.handleResolveSelection)

		r.Post("/api/documents/{docID}/recognize", s.handleSubmitRecognition)
		r.Get("/api/recognize/{jobID}/status", s.handleRecognitionStatus)
		r.Get("/api/stats/recognizer", s.handleRecognizerStats)

		r.Get("/api/entity-types", s.handleListEntityTypes)
		r.Post("/api/entity-types", s.handleCreateEntityType)
		r.Put("/api/entity-types/{typeID}", s.handleUpdateEntityType)
		r.Delete("/api/entity-types/{typeID}", s.handleDeleteEntityType)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

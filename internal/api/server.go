package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"oltmap/adapters/excel"
	"oltmap/internal/catalog"
	"oltmap/internal/container"
	"oltmap/internal/ingestion"
	"oltmap/ports"
)

// jsonBodyLimit caps non-upload request bodies
const jsonBodyLimit = 1 << 20

// multipartOverhead is allowed on top of the file size limit for the multipart framing
const multipartOverhead = 1 << 20

// Server is the inventory HTTP API
type Server struct {
	router    *chi.Mux
	store     ports.Store
	reader    *excel.Reader
	ingestion *ingestion.Service
	catalog   *catalog.Service
	logger    *slog.Logger

	corsOrigins []string
	maxFileSize int64
}

// NewServer builds the router on the services of an initialized container
func NewServer(c *container.Container) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		store:       c.Store,
		reader:      c.Reader,
		ingestion:   c.Ingestion,
		catalog:     c.Catalog,
		logger:      c.Logger,
		corsOrigins: c.Config.Server.CORSAllowedOrigins,
		maxFileSize: c.Config.Import.MaxFileBytes(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(RequestID)
	s.router.Use(Logging(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(CORS(s.corsOrigins))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	upload := LimitBodyBytes(s.maxFileSize + multipartOverhead)
	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(LimitBodyBytes(jsonBodyLimit))

			r.Post("/olts", s.handleCreateOlt)
			r.Get("/olts", s.handleListOlts)
			r.Get("/olts/{id}/ports", s.handleListOltPorts)
			r.Get("/olts/{id}/summary", s.handleOltSummary)
			r.Put("/ports/{id}", s.handleUpdatePort)
			r.Post("/mappings/manual", s.handleManualMapping)
			r.Get("/odfs", s.handleListOdfs)
			r.Get("/odfs/{id}", s.handleGetOdf)
			r.Get("/topology", s.handleTopology)
		})

		r.With(upload).Post("/olts/{id}/ports", s.handleUploadPorts)
		r.With(upload).Post("/olts/upload", s.handleUploadOltPorts)
		r.With(upload).Post("/mappings/upload", s.handleUploadMappings)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     zap request log + Prometheus HTTP metrics
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend dev server

ROUTE GROUPS:
  /api/hello            Liveness
  /api/ideas/*          Idea capture and scoring
  /api/home/*           Owner landing page
  /api/clients/*        Clients, tasks and assignees
  /api/assignees/*      Assignee detail, workpapers, calculators
  /api/workpapers/*     Workpaper status
  /api/tools/*          Cover letter, PDF fill, email
  /healthz              Database health
  /metrics              Prometheus scrape
  /*                    Static files (frontend)

STATIC FILE SERVING:
  Serves the built frontend from RouterConfig.StaticDir when it exists.
  Falls back to index.html for client-side routing. Unknown /api paths
  always answer with a JSON 404.

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logging and metrics
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the router settings that come from configuration.
type RouterConfig struct {
	AllowedOrigins []string
	// StaticDir is the built frontend. Skipped when missing.
	StaticDir string
	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger, h.metrics))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/hello", h.Hello)

		// Idea routes
		r.Route("/ideas", func(r chi.Router) {
			r.Get("/", h.ListIdeas)
			r.Post("/", h.CreateIdea)
			r.Delete("/{id}", h.DeleteIdea)
		})

		// Home routes
		r.Route("/home", func(r chi.Router) {
			r.Get("/overview", h.HomeOverview)
			r.Get("/my-assignees", h.MyAssignees)
		})

		// Client routes
		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ListClients)
			r.Get("/search", h.SearchClients)
			r.Post("/{id}/assign", h.AssignClient)
			r.Get("/{id}/tasks", h.ListTasks)
			r.Post("/{id}/tasks", h.CreateTask)
			r.Get("/{id}/assignees", h.ListAssignees)
			r.Post("/{id}/assignees", h.CreateAssignee)
		})

		// Assignee routes
		r.Route("/assignees/{id}", func(r chi.Router) {
			r.Get("/", h.GetAssignee)
			r.Get("/workpapers", h.ListWorkpapers)
			r.Post("/workpapers", h.CreateWorkpaper)
			r.Get("/calc/{calcKey}", h.GetCalc)
			r.Put("/calc/{calcKey}", h.PutCalc)
			r.Get("/overview", h.Overview)
		})

		// Workpaper routes
		r.Post("/workpapers/{id}/status", h.UpdateWorkpaperStatus)

		// Tool routes
		r.Route("/tools", func(r chi.Router) {
			r.Post("/cover-letter", h.CoverLetter)
			r.Post("/pdf-fill", h.PDFFill)
			r.Post("/send-email", h.SendEmail)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Not found", r.URL.Path)
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed", r.Method)
		})
	})

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", h.metricsHandler(cfg.Gatherer))

	// Serve static files (frontend build)
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			r.Get("/*", spaHandler(cfg.StaticDir))
		}
	}

	return r
}

// metricsHandler refreshes the pool gauges before each scrape.
func (h *Handler) metricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	scrape := promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.metrics.UpdateDBStats(h.Store.Stats())
		scrape.ServeHTTP(w, r)
	})
}

func spaHandler(staticDir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(staticDir))
	return func(w http.ResponseWriter, r *http.Request) {
		fullPath := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))

		// SPA routing: unknown paths get index.html
		if info, err := os.Stat(fullPath); err != nil || info.IsDir() && r.URL.Path != "/" {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}

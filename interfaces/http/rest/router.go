package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"templatehub/interfaces/http/rest/handlers"
	"templatehub/interfaces/http/rest/middleware"
	"templatehub/pkg/observability"
	pkgerrors "templatehub/pkg/errors"
)

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

// Options configures the router.
type Options struct {
	EnableCORS     bool
	AllowedOrigins []string
	EnableMetrics  bool
	// Checks run on /ready, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

// Router creates and configures the HTTP router
type Router struct {
	users     *handlers.UserHandler
	projects  *handlers.ProjectHandler
	templates *handlers.TemplateHandler
	sections  *handlers.SectionHandler
	tokens    middleware.TokenValidator
	errs      *pkgerrors.ErrorHandler
	metrics   *observability.Collector
	opts      Options
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	users *handlers.UserHandler,
	projects *handlers.ProjectHandler,
	templates *handlers.TemplateHandler,
	sections *handlers.SectionHandler,
	tokens middleware.TokenValidator,
	errs *pkgerrors.ErrorHandler,
	metrics *observability.Collector,
	opts Options,
	logger *zap.Logger,
) *Router {
	return &Router{
		users:     users,
		projects:  projects,
		templates: templates,
		sections:  sections,
		tokens:    tokens,
		errs:      errs,
		metrics:   metrics,
		opts:      opts,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errs.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(middleware.Metrics(rt.metrics))
	}

	if rt.opts.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.opts.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.opts.EnableMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/users/register", rt.users.Register)
		r.Post("/users/login", rt.users.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(rt.tokens, rt.errs, rt.logger))

			r.Get("/users/me", rt.users.Me)
			r.Get("/users/{username}", rt.users.GetByUsername)

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", rt.projects.CreateProject)
				r.Get("/", rt.projects.ListProjects)
				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", rt.projects.GetProject)
					r.Patch("/", rt.projects.UpdateProject)
					r.Delete("/", rt.projects.DeleteProject)
					r.Get("/templates", rt.projects.SelectedTemplates)
					r.Put("/templates/{templateID}", rt.projects.SelectTemplate)
					r.Delete("/templates/{templateID}", rt.projects.DeselectTemplate)
					r.Get("/recommendation", rt.projects.RecommendedTemplate)
				})
			})

			r.Route("/templates", func(r chi.Router) {
				r.Post("/", rt.templates.CreateTemplate)
				r.Get("/", rt.templates.ListTemplates)
				r.Get("/mine", rt.templates.ListMine)
				r.Get("/private/{name}", rt.templates.GetPrivate)
				r.Delete("/private/{name}", rt.templates.DeletePrivate)
				r.Post("/private/{name}/share", rt.templates.SharePrivate)
				r.Get("/{templateID}", rt.templates.GetTemplate)
				r.Delete("/{templateID}", rt.templates.DeleteTemplate)
				r.Post("/{templateID}/star", rt.templates.StarTemplate)
			})

			r.Route("/sections", func(r chi.Router) {
				r.Get("/", rt.sections.ListSections)
				r.Post("/", rt.sections.CreateSection)
				r.Get("/lookup", rt.sections.LookupSection)
				r.Get("/{sectionID}", rt.sections.GetSection)
				r.Get("/{sectionID}/next", rt.sections.NextSection)
				r.Get("/{sectionID}/questions", rt.sections.ListQuestions)
				r.Post("/{sectionID}/questions", rt.sections.AddQuestion)
			})

			r.Route("/questions/{questionID}", func(r chi.Router) {
				r.Get("/options", rt.sections.ListOptions)
				r.Post("/options", rt.sections.AddOption)
				r.Get("/next", rt.sections.NextQuestions)
				r.Post("/links", rt.sections.LinkOption)
				r.Delete("/links", rt.sections.UnlinkOption)
			})
		})
	})

	return router
}

func (rt *Router) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, map[string]any{"status": "healthy"})
}

// readinessCheck pings every dependency and reports each result.
func (rt *Router) readinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(rt.opts.Checks))
	for name, check := range rt.opts.Checks {
		if err := check(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeStatus(w, status, map[string]any{"status": state, "checks": results})
}

func writeStatus(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/saasplatform/internal/api/handlers"
	"github.com/nikhilbhutani/saasplatform/internal/api/middleware"
	"github.com/nikhilbhutani/saasplatform/internal/auth"
	"github.com/nikhilbhutani/saasplatform/internal/automation"
	"github.com/nikhilbhutani/saasplatform/internal/metrics"
	"github.com/nikhilbhutani/saasplatform/internal/project"
	"github.com/nikhilbhutani/saasplatform/internal/tenant"
	"github.com/nikhilbhutani/saasplatform/internal/user"
)

// Deps are the services the HTTP surface is built on. JWT may be nil to
// run without authentication; DB and Cache may be nil to skip their
// readiness checks. The internal routes are mounted only when
// InternalSecret is set.
type Deps struct {
	DB          handlers.Pinger
	Cache       handlers.Pinger
	Resolver    *tenant.Resolver
	JWT         *auth.JWTMiddleware
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string

	Tenants     *tenant.Service
	Usage       handlers.UsageReporter
	Projects    *project.Service
	Tasks       *project.TaskService
	Automations *automation.Service
	Users       *user.Service

	InternalSecret string
}

type Router struct {
	mux  *chi.Mux
	deps Deps
}

func NewRouter(deps Deps) *Router {
	return &Router{mux: chi.NewRouter(), deps: deps}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux
	d := rt.deps

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.CORSOrigins))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Limit)
	}
	r.Use(metrics.Middleware)
	r.Use(d.Resolver.Middleware)

	// Health endpoints (no tenant, no auth)
	health := handlers.NewHealthHandler(d.DB, d.Cache)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Get("/api/health", health.Healthz)
	r.Handle("/metrics", metrics.Handler())

	tenantH := handlers.NewTenantHandler(d.Tenants, d.Usage)
	r.Post("/api/tenants", tenantH.Register)
	r.Get("/api/tenants/validate-subdomain", tenantH.ValidateSubdomain)

	userH := handlers.NewUserHandler(d.Users)

	if d.InternalSecret != "" {
		r.Route("/api/internal", func(r chi.Router) {
			r.Use(auth.RequireInternalSecret(d.InternalSecret))
			r.Post("/users/from-cognito", userH.Provision)
			r.Put("/tenants/{id}/status", tenantH.SetStatus)
		})
	}

	r.Group(func(r chi.Router) {
		if d.JWT != nil {
			r.Use(d.JWT.Authenticate)
		}

		r.Get("/api/tenants/current", tenantH.Current)
		r.Get("/api/tenants/current/usage", tenantH.Usage)
		r.Get("/api/auth/me", userH.Me)

		r.Route("/api/tenants/{tenantId}/users", func(r chi.Router) {
			manage := auth.RequirePermission(auth.PermUsersManage)
			r.With(manage).Post("/invite", userH.Invite)
			r.With(auth.RequirePermission(auth.PermUsersRead)).Get("/", userH.List)
			r.With(manage).Delete("/{userId}", userH.Remove)
		})

		projectH := handlers.NewProjectHandler(d.Projects, d.Tasks)
		read := auth.RequirePermission(auth.PermProjectsRead)
		write := auth.RequirePermission(auth.PermProjectsWrite)

		r.Route("/api/projects", func(r chi.Router) {
			r.With(write).Post("/", projectH.Create)
			r.With(read).Get("/", projectH.List)
			r.With(read).Get("/count", projectH.Count)
			r.With(read).Get("/{id}", projectH.Get)
			r.With(write).Put("/{id}", projectH.Update)
			r.With(write).Delete("/{id}", projectH.Delete)
			r.With(read).Get("/{id}/tasks", projectH.ListTasks)
			r.With(write).Post("/{id}/tasks", projectH.CreateTask)
		})

		r.Route("/api/tasks", func(r chi.Router) {
			r.With(write).Post("/", projectH.CreateTaskFromBody)
			r.With(read).Get("/", projectH.ListAllTasks)
			r.With(read).Get("/count", projectH.CountTasks)
			r.With(read).Get("/progress/average", projectH.AverageProgress)
			r.With(read).Get("/{id}", projectH.GetTask)
			r.With(write).Put("/{id}", projectH.UpdateTask)
			r.With(write).Delete("/{id}", projectH.DeleteTask)
		})

		autoH := handlers.NewAutomationHandler(d.Automations)
		autoRead := auth.RequirePermission(auth.PermAutomationsRead)
		autoWrite := auth.RequirePermission(auth.PermAutomationsWrite)

		r.Route("/api/automations", func(r chi.Router) {
			r.With(autoWrite).Post("/", autoH.Create)
			r.With(autoRead).Get("/", autoH.List)
			r.With(autoRead).Get("/by-event-type", autoH.ByEventType)
			r.With(autoRead).Get("/top-executed", autoH.TopExecuted)
			r.With(autoRead).Get("/count", autoH.Count)
			r.With(autoRead).Get("/stats", autoH.Stats)
			r.With(autoRead).Get("/logs", autoH.RecentLogs)
			r.With(autoRead).Get("/logs/failed", autoH.FailedLogs)
			r.With(autoRead).Get("/logs/date-range", autoH.LogsByDateRange)
			r.With(autoRead).Get("/{id}", autoH.Get)
			r.With(autoRead).Get("/{id}/logs", autoH.RuleLogs)
			r.With(autoWrite).Put("/{id}", autoH.Update)
			r.With(autoWrite).Patch("/{id}/toggle", autoH.Toggle)
			r.With(autoWrite).Delete("/{id}", autoH.Delete)
		})
	})

	return r
}

package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/retail-backoffice/internal/auth"
	"github.com/frahmantamala/retail-backoffice/internal/catalog"
	"github.com/frahmantamala/retail-backoffice/internal/permission"
	"github.com/frahmantamala/retail-backoffice/internal/transport/middleware"
	"github.com/frahmantamala/retail-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/retail-backoffice/internal/user"
	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
)

// Handlers groups everything the router mounts. Nil handlers leave their routes unregistered.
type Handlers struct {
	Auth       *auth.Handler
	RBAC       *auth.RBACAuthorization
	User       *user.Handler
	Catalog    *catalog.Handler
	Permission *permission.Handler
}

type Options struct {
	DB             *sql.DB
	Driver         string
	AllowedOrigins []string
	OpenAPI        []byte
	Logger         *slog.Logger
}

func RegisterAllRoutes(router *chi.Mux, opts Options, h Handlers) {
	healthHandler := NewHealthHandler(opts.DB, opts.Driver)

	// Apply global middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.TraceIDHeader},
		ExposedHeaders:   []string{middleware.TraceIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))

	// Serve the OpenAPI document at root (outside API prefix)
	if len(opts.OpenAPI) > 0 {
		router.Get(swagger.DocPath, swagger.DocHandler(opts.OpenAPI))
		router.Handle("/swagger/*", swagger.Handler())
	}

	// Mount API under /api/v1 to match the OpenAPI server url
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		// Reference catalog for the permission form, no auth required
		if h.Catalog != nil {
			r.Get("/module-groups", h.Catalog.GetModuleGroups)
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
			}

			if h.Permission == nil || h.RBAC == nil {
				return
			}

			pr.Route("/employee-permissions", func(er chi.Router) {
				er.Group(func(vr chi.Router) {
					vr.Use(h.RBAC.RequireViewEmployeePermissions())
					vr.Get("/", h.Permission.GetPermissions)            // GET /employee-permissions?employee_id=
					vr.Get("/matrix", h.Permission.GetPermissionMatrix) // GET /employee-permissions/matrix?employee_id=
				})

				er.Group(func(mr chi.Router) {
					mr.Use(h.RBAC.RequireManageEmployeePermissions())
					mr.Put("/{employee_id}", h.Permission.ReplacePermissions) // PUT /employee-permissions/:employee_id
				})
			})
		})
	})
}

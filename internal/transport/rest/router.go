package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/teacher-contracts/api"
	"github.com/frahmantamala/teacher-contracts/internal/auth"
	"github.com/frahmantamala/teacher-contracts/internal/contract"
	"github.com/frahmantamala/teacher-contracts/internal/notification"
	"github.com/frahmantamala/teacher-contracts/internal/report"
	"github.com/frahmantamala/teacher-contracts/internal/template"
	"github.com/frahmantamala/teacher-contracts/internal/transport/middleware"
	"github.com/frahmantamala/teacher-contracts/internal/transport/swagger"
	"github.com/frahmantamala/teacher-contracts/internal/user"
)

const (
	APIPrefix = "/api/v1"
	specPath  = "/openapi.yml"
)

// Handlers groups everything the router mounts. Nil members are skipped.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Template     *template.Handler
	Contract     *contract.Handler
	Notification *notification.Handler
	Report       *report.Handler
}

type Options struct {
	AllowedOrigins   string
	HealthComponents map[string]Pinger
	// ValidateRequests checks API requests against the embedded document.
	ValidateRequests bool
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, opts Options, logger *slog.Logger) error {
	healthHandler := NewHealthHandler(db, opts.HealthComponents)
	roles := auth.NewRoleAuthorization(logger)

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	router.Handle("/swagger/*", swagger.Handler(specPath))

	// The websocket handshake carries its access token as ?token=.
	if h.Notification != nil {
		router.Get("/ws/notifications", h.Notification.ServeWS)
	}

	var validator *middleware.RequestValidator
	if opts.ValidateRequests {
		v, err := middleware.NewRequestValidator(api.OpenAPI, APIPrefix, logger)
		if err != nil {
			return err
		}
		validator = v
	}

	router.Route(APIPrefix, func(r chi.Router) {
		if validator != nil {
			r.Use(validator.Middleware)
		}

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth == nil {
			return
		}

		r.Route("/auth", func(ar chi.Router) {
			ar.Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			if h.User != nil {
				pr.Get("/users/me", h.User.GetCurrentUser)
				pr.With(roles.RequireHRAdmin()).Get("/users", h.User.ListUsers)
				pr.Get("/departments", h.User.ListDepartments)
				pr.Get("/departments/{id}", h.User.GetDepartment)
			}

			if h.Template != nil {
				pr.Route("/templates", func(tr chi.Router) {
					tr.Get("/", h.Template.ListTemplates)
					tr.Get("/applicable", h.Template.ListApplicable)
					tr.Get("/{id}", h.Template.GetTemplate)
					tr.Post("/{id}/validate", h.Template.ValidateData)

					tr.Group(func(hr chi.Router) {
						hr.Use(roles.RequireHRAdmin())
						hr.Post("/", h.Template.CreateTemplate)
						hr.Put("/{id}", h.Template.UpdateTemplate)
						hr.Delete("/{id}", h.Template.DeactivateTemplate)
					})
				})
			}

			if h.Contract != nil {
				pr.Get("/users/{id}/contracts", h.Contract.ListTeacherContracts)

				pr.Route("/contracts", func(cr chi.Router) {
					cr.Post("/", h.Contract.CreateContract)
					cr.Get("/", h.Contract.ListContracts)
					cr.Get("/mine", h.Contract.ListMine)
					cr.Get("/pending", h.Contract.ListPending)
					cr.Get("/{id}", h.Contract.GetContract)
					cr.Put("/{id}", h.Contract.UpdateDraft)
					cr.Patch("/{id}/status", h.Contract.UpdateStatus)

					cr.Post("/{id}/submit", h.Contract.Transition(contract.ActionSubmit))
					cr.Post("/{id}/approve", h.Contract.Transition(contract.ActionApprove))
					cr.Post("/{id}/reject", h.Contract.Transition(contract.ActionReject))
					cr.Post("/{id}/archive", h.Contract.Transition(contract.ActionArchive))
					cr.Post("/{id}/terminate", h.Contract.Transition(contract.ActionTerminate))
				})
			}

			if h.Notification != nil {
				pr.Route("/notifications", func(nr chi.Router) {
					nr.Get("/", h.Notification.ListNotifications)
					nr.Get("/unread-count", h.Notification.UnreadCount)
					nr.Post("/read-all", h.Notification.MarkAllAsRead)
					nr.Patch("/{id}/read", h.Notification.MarkAsRead)
				})
			}

			if h.Report != nil {
				pr.Get("/reports/dashboard", h.Report.GetDashboard)
			}
		})
	})

	return nil
}

// Package server wires repositories, services and handlers into the HTTP API.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authhandler "github.com/hcdash/hcdash-backend/internal/auth/handler"
	"github.com/hcdash/hcdash-backend/internal/auth/jwt"
	"github.com/hcdash/hcdash-backend/internal/auth/middleware"
	authservice "github.com/hcdash/hcdash-backend/internal/auth/service"
	companyhandler "github.com/hcdash/hcdash-backend/internal/company/handler"
	companyrepo "github.com/hcdash/hcdash-backend/internal/company/repository"
	companyservice "github.com/hcdash/hcdash-backend/internal/company/service"
	dashboardhandler "github.com/hcdash/hcdash-backend/internal/dashboard/handler"
	dashboardservice "github.com/hcdash/hcdash-backend/internal/dashboard/service"
	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
	statshandler "github.com/hcdash/hcdash-backend/internal/stats/handler"
	statsrepo "github.com/hcdash/hcdash-backend/internal/stats/repository"
	statsservice "github.com/hcdash/hcdash-backend/internal/stats/service"
	uploadhandler "github.com/hcdash/hcdash-backend/internal/upload/handler"
	uploadservice "github.com/hcdash/hcdash-backend/internal/upload/service"
	"github.com/hcdash/hcdash-backend/internal/user/events"
	userhandler "github.com/hcdash/hcdash-backend/internal/user/handler"
	userrepo "github.com/hcdash/hcdash-backend/internal/user/repository"
	userservice "github.com/hcdash/hcdash-backend/internal/user/service"
	"github.com/hcdash/hcdash-backend/pkg/config"
	"github.com/hcdash/hcdash-backend/pkg/database"
	"github.com/hcdash/hcdash-backend/pkg/httputil"
	"github.com/hcdash/hcdash-backend/pkg/i18n"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/permissions"
)

// HealthReporter reports the state of an external dependency
type HealthReporter interface {
	Health() map[string]string
}

// Server holds the wired application
type Server struct {
	config *config.Config
	db     *database.DB
	broker HealthReporter
	logger *logger.Logger

	users         *userservice.UserService
	authenticator *middleware.Authenticator

	auth      *authhandler.AuthHandler
	companies *companyhandler.CompanyHandler
	userAPI   *userhandler.UserHandler
	stats     *statshandler.StatsHandler
	uploads   *uploadhandler.UploadHandler
	dashboard *dashboardhandler.DashboardHandler
}

// New builds every component on top of db and publisher. broker may be nil
// when no message broker is configured.
func New(cfg *config.Config, db *database.DB, publisher messaging.EventPublisher, broker HealthReporter, log *logger.Logger) *Server {
	registry := statsdomain.DefaultRegistry()

	companyRepo := companyrepo.NewCompanyRepository(db)
	userRepo := userrepo.NewUserRepository(db)
	statsRepo := statsrepo.NewStatsRepository(db)

	jwtManager := jwt.NewManager(&cfg.JWT)

	companySvc := companyservice.NewCompanyService(companyRepo, publisher, log)
	userSvc := userservice.NewUserService(userRepo, companyRepo, events.NewUserEventPublisher(publisher, log), log)
	authSvc := authservice.NewAuthService(userRepo, jwtManager, log)
	statsSvc := statsservice.NewStatsService(registry, statsRepo, publisher, log)
	uploadSvc := uploadservice.NewUploadService(registry, statsRepo, companySvc, publisher, &cfg.Upload, log)
	dashboardSvc := dashboardservice.NewDashboardService(registry, statsRepo, log)

	return &Server{
		config:        cfg,
		db:            db,
		broker:        broker,
		logger:        log,
		users:         userSvc,
		authenticator: middleware.NewAuthenticator(jwtManager, cfg.JWT.CookieName, log),
		auth:          authhandler.NewAuthHandler(authSvc, cfg, log),
		companies:     companyhandler.NewCompanyHandler(companySvc, log),
		userAPI:       userhandler.NewUserHandler(userSvc, log),
		stats:         statshandler.NewStatsHandler(statsSvc, log),
		uploads:       uploadhandler.NewUploadHandler(uploadSvc, &cfg.Upload, log),
		dashboard:     dashboardhandler.NewDashboardHandler(dashboardSvc, log),
	}
}

// Bootstrap seeds the first super admin when configured and the user table is empty
func (s *Server) Bootstrap(ctx context.Context) error {
	return s.users.EnsureBootstrapAdmin(ctx, &s.config.Bootstrap)
}

// Router returns the HTTP handler for the whole API
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(s.logger))
	r.Use(httputil.Recoverer(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware)
	r.Use(s.authenticator.Session)

	r.Get("/health", s.health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.auth.Login)
			r.Post("/logout", s.auth.Logout)
			r.Get("/me", s.auth.Me)
		})

		r.Group(s.protectedRoutes)
	})

	return r
}

func (s *Server) protectedRoutes(r chi.Router) {
	r.Use(middleware.RequireSession)

	r.Route("/companies", func(r chi.Router) {
		r.With(middleware.RequirePermission(permissions.CompaniesRead)).Get("/", s.companies.List)
		r.With(middleware.RequirePermission(permissions.CompaniesRead)).Get("/{id}", s.companies.Get)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(permissions.CompaniesWrite))
			r.Post("/", s.companies.Create)
			r.Put("/{id}", s.companies.Update)
			r.Delete("/{id}", s.companies.Delete)
		})
	})

	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(permissions.UsersRead)).Get("/", s.userAPI.List)
		r.With(middleware.RequirePermission(permissions.UsersRead)).Get("/{id}", s.userAPI.Get)
		r.With(middleware.RequirePermission(permissions.UsersWrite)).Post("/", s.userAPI.Create)
		r.With(middleware.RequirePermission(permissions.UsersWrite)).Put("/{id}", s.userAPI.Update)
		r.With(middleware.RequirePermission(permissions.UsersDelete)).Delete("/{id}", s.userAPI.Delete)
	})

	r.Route("/stats", func(r chi.Router) {
		r.With(middleware.RequirePermission(permissions.StatsRead)).Get("/", s.stats.Metrics)
		r.With(middleware.RequirePermission(permissions.StatsRead)).Get("/{metric}", s.stats.List)
		r.With(middleware.RequirePermission(permissions.StatsWrite)).Post("/{metric}", s.stats.Upsert)
		r.With(middleware.RequirePermission(permissions.StatsDelete)).Delete("/{metric}/{id}", s.stats.Delete)
	})

	r.Route("/division-stats", func(r chi.Router) {
		r.With(middleware.RequirePermission(permissions.StatsRead)).Get("/", s.stats.ListDivisions)
		r.With(middleware.RequirePermission(permissions.StatsWrite)).Post("/", s.stats.UpsertDivision)
		r.With(middleware.RequirePermission(permissions.StatsDelete)).Delete("/{id}", s.stats.DeleteDivision)
	})

	r.Route("/data-center/demography", func(r chi.Router) {
		r.With(middleware.RequirePermission(permissions.StatsRead)).Get("/", s.stats.GetDemography)
		r.With(middleware.RequirePermission(permissions.StatsWrite)).Post("/", s.stats.SaveDemography)
	})

	r.Route("/uploads/{metric}", func(r chi.Router) {
		r.Use(middleware.RequirePermission(permissions.UploadsWrite))
		r.Post("/", s.uploads.Upload)
		r.Get("/template", s.uploads.Template)
	})

	r.Route("/dashboard", func(r chi.Router) {
		r.Use(middleware.RequirePermission(permissions.StatsRead))
		r.Get("/summary", s.dashboard.Summary)
		r.Get("/trend/{metric}", s.dashboard.Trend)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":   "healthy",
		"service":  "hcdash-api",
		"database": s.db.Health(r.Context()),
	}
	if s.broker != nil {
		body["rabbitmq"] = s.broker.Health()
	}
	httputil.JSON(w, http.StatusOK, body)
}

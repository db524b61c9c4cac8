package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/strivetech/saiplatform/internal/app"
	iauth "github.com/strivetech/saiplatform/internal/auth"
	"github.com/strivetech/saiplatform/internal/cache"
	"github.com/strivetech/saiplatform/internal/handlers"
	"github.com/strivetech/saiplatform/internal/middleware"
	"github.com/strivetech/saiplatform/internal/monitoring"
	"github.com/strivetech/saiplatform/internal/permissions"
	"github.com/strivetech/saiplatform/internal/services"
	"github.com/strivetech/saiplatform/pkg/mail"
)

// Dependencies are the long-lived collaborators the router wires into handlers.
// Views, RateStore and Health are optional.
type Dependencies struct {
	DB        *gorm.DB
	Config    *app.Config
	Verifier  iauth.Verifier
	Mailer    mail.Mailer
	Views     *cache.ViewCache
	RateStore middleware.RateStore
	Health    *monitoring.HealthManager
}

// Router is the HTTP entry point. It also owns background work started by
// request handling, which Wait drains during shutdown.
type Router struct {
	*gin.Engine
	organizations *services.OrganizationService
}

// Wait blocks until asynchronous work started by handlers has finished.
func (r *Router) Wait() {
	if r != nil && r.organizations != nil {
		r.organizations.Wait()
	}
}

type routeHandlers struct {
	checker       *permissions.Checker
	health        *handlers.HealthHandler
	me            *handlers.MeHandler
	organizations *handlers.OrganizationHandler
	members       *handlers.MemberHandler
	dashboard     *handlers.DashboardHandler
	forms         *handlers.FormHandler
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(deps Dependencies) (*Router, error) {
	switch {
	case deps.DB == nil:
		return nil, errors.New("database handle must be provided")
	case deps.Config == nil:
		return nil, errors.New("config must be provided")
	case deps.Verifier == nil:
		return nil, errors.New("token verifier must be provided")
	case deps.Mailer == nil:
		return nil, errors.New("mailer must be provided")
	}
	cfg := deps.Config

	orgService, h, err := buildHandlers(deps)
	if err != nil {
		return nil, err
	}
	identities, err := services.NewIdentityService(deps.DB)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	registerHealthRoutes(r, cfg, h.health)
	registerMetricsRoute(r, cfg)

	public := r.Group("/api")
	registerFormRoutes(public, h.forms, middleware.RateLimit(deps.RateStore, cfg.Forms.RateLimit, cfg.Forms.RateWindow))

	protected := r.Group("/api")
	protected.Use(middleware.Auth(deps.Verifier, identities))
	protected.Use(middleware.ActiveOrganization())

	protected.GET("/me", h.me.Get)
	registerOrganizationRoutes(protected, h)
	registerDashboardRoutes(protected, h.dashboard)

	r.NoRoute(middleware.NotFoundHandler)

	return &Router{Engine: r, organizations: orgService}, nil
}

func buildHandlers(deps Dependencies) (*services.OrganizationService, *routeHandlers, error) {
	cfg := deps.Config

	checker, err := permissions.NewChecker(deps.DB)
	if err != nil {
		return nil, nil, err
	}
	activity, err := services.NewActivityService(deps.DB)
	if err != nil {
		return nil, nil, err
	}
	notifier, err := services.NewMailInviteNotifier(deps.Mailer, cfg.Server.PublicURL)
	if err != nil {
		return nil, nil, err
	}
	orgService, err := services.NewOrganizationService(deps.DB, checker, activity, deps.Views, notifier)
	if err != nil {
		return nil, nil, err
	}
	queries, err := services.NewOrganizationQueries(deps.DB)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := services.NewActiveOrganizationResolver(deps.DB, queries)
	if err != nil {
		return nil, nil, err
	}
	dashboardQueries, err := services.NewDashboardQueries(deps.DB, cfg.Dashboard.RecentActivityLimit)
	if err != nil {
		return nil, nil, err
	}
	dashboardService, err := services.NewDashboardService(dashboardQueries, resolver, deps.Views)
	if err != nil {
		return nil, nil, err
	}
	formService, err := services.NewFormService(deps.Mailer, cfg.Forms.FormSettings())
	if err != nil {
		return nil, nil, fmt.Errorf("forms: %w", err)
	}

	h := &routeHandlers{
		checker: checker,
		health:  handlers.NewHealthHandler(deps.Health),
	}
	if h.me, err = handlers.NewMeHandler(queries, resolver); err != nil {
		return nil, nil, err
	}
	if h.organizations, err = handlers.NewOrganizationHandler(orgService, queries); err != nil {
		return nil, nil, err
	}
	if h.members, err = handlers.NewMemberHandler(orgService); err != nil {
		return nil, nil, err
	}
	if h.dashboard, err = handlers.NewDashboardHandler(dashboardService); err != nil {
		return nil, nil, err
	}
	if h.forms, err = handlers.NewFormHandler(formService); err != nil {
		return nil, nil, err
	}
	return orgService, h, nil
}

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, handler *handlers.HealthHandler) {
	if !cfg.Monitoring.Health.Enabled {
		return
	}
	r.GET("/health", handler.Health)
	r.GET("/health/live", handler.Live)
	r.GET("/health/ready", handler.Ready)
}

func registerMetricsRoute(r *gin.Engine, cfg *app.Config) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
	if endpoint == "" {
		endpoint = "/metrics"
	}
	r.GET(endpoint, gin.WrapH(promhttp.Handler()))
}

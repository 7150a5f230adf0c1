// Package leads provides the lead funnel bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"leadfunnel_backend/internal/events"
	apphttp "leadfunnel_backend/internal/http"
	"leadfunnel_backend/internal/leads/funnel"
	"leadfunnel_backend/internal/leads/handler"
	"leadfunnel_backend/internal/leads/metrics"
	"leadfunnel_backend/internal/leads/store"
	"leadfunnel_backend/platform/config"
	"leadfunnel_backend/platform/logger"
	"leadfunnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	admin   *handler.AdminHandler
	service *funnel.Service
	records store.Store
}

// NewModule creates and initializes the leads module with all its dependencies.
// pool may be nil when no database is configured; the funnel then runs on the
// in-memory store alone and sessions report synced=false.
func NewModule(
	pool *pgxpool.Pool,
	sessions funnel.SessionStore,
	settings funnel.SettingsProvider,
	bus events.Bus,
	val *validator.Validator,
	cfg config.FunnelConfig,
	log *logger.Logger,
) *Module {
	cache := store.NewMemory()

	var records store.Store
	if pool != nil {
		records = store.NewPostgres(pool)
	}

	engine := metrics.NewEngine(cfg.GetMinimumAdBudget(), cfg.GetManagementFeeFloor())
	svc := funnel.NewService(records, cache, sessions, engine, settings, bus, log, cfg.GetVideoTickInterval())

	// The admin dashboard reads whichever store is authoritative.
	adminStore := records
	if adminStore == nil {
		adminStore = cache
	}

	return &Module{
		handler: handler.New(svc, val),
		admin:   handler.NewAdmin(adminStore),
		service: svc,
		records: adminStore,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the funnel service for external use.
func (m *Module) Service() *funnel.Service {
	return m.service
}

// RegisterRoutes mounts funnel routes publicly and dashboard routes behind
// the admin middleware.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/funnel"))
	m.admin.RegisterRoutes(ctx.Admin.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

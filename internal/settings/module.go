package settings

import (
	apphttp "leadfunnel_backend/internal/http"
	"leadfunnel_backend/platform/config"
	"leadfunnel_backend/platform/logger"
	"leadfunnel_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the settings bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule creates the settings module. With a nil pool the settings live in
// memory only and the CPQL target effectively stays at the configured default.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg config.FunnelConfig, log *logger.Logger) *Module {
	var repo Repository
	if pool != nil {
		repo = NewPostgresRepository(pool)
	} else {
		repo = NewMemoryRepository()
	}
	svc := NewService(repo, cfg.GetDefaultCpqlTarget(), log)
	return &Module{
		handler: NewHandler(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "settings"
}

// Service returns the settings service, which also acts as the funnel's
// CPQL target provider.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the public content read and the admin management routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1)
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/settings"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

package auth

import (
	apphttp "leadfunnel_backend/internal/http"
	"leadfunnel_backend/platform/config"
	"leadfunnel_backend/platform/logger"
	"leadfunnel_backend/platform/validator"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(cfg config.AdminConfig, val *validator.Validator, log *logger.Logger) *Module {
	return &Module{handler: NewHandler(NewService(cfg, log), val)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// RegisterRoutes mounts the login route under the stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	if ctx.AuthRateLimiter != nil {
		group.Use(ctx.AuthRateLimiter.RateLimit())
	}
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

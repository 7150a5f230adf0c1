package site

import (
	apphttp "leadfunnel_backend/internal/http"
	"leadfunnel_backend/platform/config"
)

// Module is the site endpoints module implementing http.Module.
type Module struct {
	handler *Handler
}

func NewModule(cfg config.SiteConfig, content ContentProvider) *Module {
	return &Module{handler: NewHandler(cfg, content)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "site"
}

// RegisterRoutes mounts the crawler endpoints at the engine root.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Engine)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

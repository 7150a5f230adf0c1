package handler

import (
	"errors"
	"net/http"

	"leadfunnel_backend/internal/leads/store"
	"leadfunnel_backend/internal/leads/transport"
	"leadfunnel_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler serves the lead dashboard endpoints. Routes are mounted behind
// the admin auth middleware.
type AdminHandler struct {
	records store.Store
}

func NewAdmin(records store.Store) *AdminHandler {
	return &AdminHandler{records: records}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.DELETE("/:id", h.Delete)
	rg.DELETE("", h.DeleteAll)
}

func (h *AdminHandler) List(c *gin.Context) {
	leads, err := h.records.List(c.Request.Context())
	if err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "record store unavailable", nil)
		return
	}
	httpkit.OK(c, gin.H{"leads": transport.ToLeadResponses(leads)})
}

func (h *AdminHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}
	lead, err := h.records.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "record store unavailable", nil)
		return
	}
	httpkit.OK(c, transport.ToLeadResponse(lead))
}

func (h *AdminHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}
	err = h.records.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		httpkit.Error(c, http.StatusNotFound, "lead not found", nil)
		return
	}
	if err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "record store unavailable", nil)
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

func (h *AdminHandler) DeleteAll(c *gin.Context) {
	if c.Query("confirm") != "true" {
		httpkit.Error(c, http.StatusBadRequest, "confirm=true required to delete all leads", nil)
		return
	}
	if err := h.records.DeleteAll(c.Request.Context()); err != nil {
		httpkit.Error(c, http.StatusServiceUnavailable, "record store unavailable", nil)
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

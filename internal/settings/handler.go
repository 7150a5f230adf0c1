package settings

import (
	"net/http"

	"leadfunnel_backend/platform/httpkit"
	"leadfunnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler serves the settings endpoints. Content reads are public so the
// landing page can render stored copy; everything else is admin-only.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterPublicRoutes mounts the unauthenticated reads. The calculator
// needs the current target before any lead exists, so it is public.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/content", h.GetContent)
	rg.GET("/settings", h.GetCpqlTarget)
}

// RegisterAdminRoutes mounts the admin settings management routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/cpql-target", h.GetCpqlTarget)
	rg.PUT("/cpql-target", h.SetCpqlTarget)
	rg.PUT("/content/:key", h.PutContent)
	rg.DELETE("/content/:key", h.DeleteContent)
}

func (h *Handler) GetContent(c *gin.Context) {
	content, err := h.svc.Content(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"content": content})
}

func (h *Handler) GetCpqlTarget(c *gin.Context) {
	httpkit.OK(c, gin.H{"cpqlTarget": h.svc.CpqlTarget(c.Request.Context())})
}

type setCpqlTargetRequest struct {
	CpqlTarget float64 `json:"cpqlTarget" validate:"required,gt=0"`
}

func (h *Handler) SetCpqlTarget(c *gin.Context) {
	var req setCpqlTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if err := h.svc.SetCpqlTarget(c.Request.Context(), req.CpqlTarget); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"cpqlTarget": req.CpqlTarget})
}

type putContentRequest struct {
	Value string `json:"value" validate:"max=20000"`
}

func (h *Handler) PutContent(c *gin.Context) {
	var req putContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	if err := h.svc.PutContent(c.Request.Context(), c.Param("key"), req.Value); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"key": c.Param("key")})
}

func (h *Handler) DeleteContent(c *gin.Context) {
	if err := h.svc.DeleteContent(c.Request.Context(), c.Param("key")); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"deleted": true})
}

// Package handler exposes the funnel and admin HTTP endpoints for leads.
package handler

import (
	"net/http"

	"leadfunnel_backend/internal/leads/funnel"
	"leadfunnel_backend/internal/leads/transport"
	"leadfunnel_backend/platform/httpkit"
	"leadfunnel_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler serves the public funnel endpoints.
type Handler struct {
	svc *funnel.Service
	val *validator.Validator
}

func New(svc *funnel.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the funnel routes. All routes are public; everything
// is keyed by the opaque session id.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/session", h.OpenSession)
	rg.GET("/session/:id", h.GetSession)
	rg.POST("/session/:id/contact", h.SubmitContact)
	rg.POST("/session/:id/calculator", h.SubmitCalculator)
	rg.POST("/session/:id/qualification", h.SubmitQualification)
	rg.POST("/session/:id/video", h.TrackVideo)
	rg.POST("/session/:id/callback", h.RequestCallback)
}

func (h *Handler) OpenSession(c *gin.Context) {
	sess, err := h.svc.OpenSession(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToSessionResponse(sess))
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(sess))
}

func (h *Handler) SubmitContact(c *gin.Context) {
	var req transport.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	sess, err := h.svc.SubmitContact(c.Request.Context(), c.Param("id"), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(sess))
}

func (h *Handler) SubmitCalculator(c *gin.Context) {
	var req transport.CalculatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	res, err := h.svc.SubmitCalculator(c.Request.Context(), c.Param("id"), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToCalculatorResponse(res))
}

func (h *Handler) SubmitQualification(c *gin.Context) {
	var req transport.QualificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	res, err := h.svc.SubmitQualification(c.Request.Context(), c.Param("id"), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQualificationResponse(res))
}

func (h *Handler) TrackVideo(c *gin.Context) {
	var req transport.VideoProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	sess, err := h.svc.TrackVideo(c.Request.Context(), c.Param("id"), req.ToInput())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(sess))
}

func (h *Handler) RequestCallback(c *gin.Context) {
	var req transport.CallbackRequest
	// The body is optional: an empty callback request falls back to the
	// session's stored email.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return
		}
	}

	err := h.svc.RequestCallback(c.Request.Context(), c.Param("id"), req.Email)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"requested": true})
}

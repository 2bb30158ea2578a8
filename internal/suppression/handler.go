package suppression

import (
	"net/http"

	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

type suppressRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Reason string `json:"reason" validate:"required"`
}

// Handler exposes the suppression list over HTTP.
type Handler struct {
	svc      *Service
	validate *validator.Validator
}

func NewHandler(svc *Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/suppression", h.List)
	rg.POST("/suppression", h.Suppress)
}

func (h *Handler) List(c *gin.Context) {
	entries, err := h.svc.List(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, entries)
}

func (h *Handler) Suppress(c *gin.Context) {
	var req suppressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	if httpkit.HandleError(c, h.svc.Suppress(c.Request.Context(), req.Email, req.Reason)) {
		return
	}
	httpkit.Created(c, gin.H{"email": req.Email, "status": "suppressed"})
}

package handler

import (
	"errors"
	"net/http"

	"outreach_backend/internal/auth/service"
	"outreach_backend/internal/auth/transport"
	"outreach_backend/platform/httpkit"
	"outreach_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc      *service.Service
	validate *validator.Validator
}

func New(svc *service.Service, validate *validator.Validator) *Handler {
	return &Handler{svc: svc, validate: validate}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sign-in", h.SignIn)
}

func (h *Handler) SignIn(c *gin.Context) {
	var req transport.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	accessToken, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpkit.Error(c, http.StatusUnauthorized, err.Error(), nil)
			return
		}
		httpkit.Error(c, http.StatusInternalServerError, "sign in failed", nil)
		return
	}

	httpkit.OK(c, transport.AuthResponse{AccessToken: accessToken})
}

func (h *Handler) GetMe(c *gin.Context) {
	operatorID, ok := httpkit.GetOperatorID(c)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	op, err := h.svc.GetMe(c.Request.Context(), operatorID)
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, "operator not found", nil)
		return
	}

	httpkit.OK(c, transport.ProfileResponse{
		ID:        op.ID.String(),
		Email:     op.Email,
		Name:      op.Name,
		CreatedAt: op.CreatedAt,
	})
}

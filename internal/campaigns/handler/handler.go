package handler

import (
	"context"
	"net/http"

	"outreach_backend/internal/campaigns/service"
	"outreach_backend/internal/campaigns/transport"
	"outreach_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/campaigns/ingest", h.Ingest)
	rg.GET("/campaigns", h.List)
	rg.GET("/campaigns/:id", h.Get)
	rg.GET("/campaigns/:id/progress", h.Progress)
	rg.GET("/campaigns/:id/attempts", h.Attempts)
	rg.POST("/campaigns/:id/pause", h.Pause)
	rg.POST("/campaigns/:id/resume", h.Resume)
	rg.POST("/campaigns/:id/cancel", h.Cancel)

	rg.GET("/duplicates", h.PendingDuplicates)
	rg.POST("/duplicates/:leadId/approve", h.ApproveDuplicate)
	rg.POST("/duplicates/approve-all", h.ApproveAllDuplicates)
}

func (h *Handler) Ingest(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil || len(payload) == 0 {
		httpkit.Error(c, http.StatusBadRequest, "empty request body", nil)
		return
	}

	summary, err := h.svc.IngestBatch(c.Request.Context(), payload)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, summary)
}

func (h *Handler) List(c *gin.Context) {
	campaigns, err := h.svc.ListCampaigns(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, campaigns)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.svc.GetCampaign(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, campaign)
}

func (h *Handler) Progress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	progress, err := h.svc.Progress(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, progress)
}

func (h *Handler) Attempts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	attempts, err := h.svc.ListAttempts(c.Request.Context(), id, c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, attempts)
}

func (h *Handler) Pause(c *gin.Context) {
	h.control(c, h.svc.Pause, "paused")
}

func (h *Handler) Resume(c *gin.Context) {
	h.control(c, h.svc.Resume, "active")
}

func (h *Handler) Cancel(c *gin.Context) {
	h.control(c, h.svc.Cancel, "finished")
}

func (h *Handler) PendingDuplicates(c *gin.Context) {
	pending := h.svc.PendingDuplicates()
	out := make([]transport.DuplicateResponse, 0, len(pending))
	for _, dup := range pending {
		out = append(out, transport.DuplicateResponse{
			LeadID:               dup.Lead.ID.String(),
			Company:              dup.Lead.Company,
			Email:                dup.Lead.Email,
			CampaignID:           dup.Lead.CampaignID.String(),
			LastSentAt:           dup.LastSentAt,
			PreviousCampaignID:   dup.CampaignID.String(),
			PreviousCampaignName: dup.CampaignName,
		})
	}
	httpkit.OK(c, out)
}

func (h *Handler) ApproveDuplicate(c *gin.Context) {
	leadID, ok := parseID(c, "leadId")
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.ApproveDuplicate(c.Request.Context(), leadID)) {
		return
	}
	httpkit.OK(c, transport.StatusResponse{Status: "approved"})
}

func (h *Handler) ApproveAllDuplicates(c *gin.Context) {
	approved, err := h.svc.ApproveAllDuplicates(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ApproveAllResponse{Approved: approved})
}

func (h *Handler) control(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error, status string) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if httpkit.HandleError(c, fn(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, transport.StatusResponse{Status: status})
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid id", nil)
		return uuid.Nil, false
	}
	return id, true
}

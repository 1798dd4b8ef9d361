package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/service"
)

// CampaignHandler expone el CRUD de campañas.
type CampaignHandler struct {
	logger      *zap.Logger
	campaignSvc *service.CampaignService
}

func NewCampaignHandler(logger *zap.Logger, campaignSvc *service.CampaignService) *CampaignHandler {
	return &CampaignHandler{logger: logger, campaignSvc: campaignSvc}
}

// Create maneja POST /campaigns.
func (h *CampaignHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		Title         string          `json:"title" binding:"required,max=200"`
		Description   string          `json:"description" binding:"max=10000"`
		Category      string          `json:"category" binding:"max=60"`
		ImageURL      string          `json:"image_url" binding:"omitempty,url"`
		WalletAddress string          `json:"wallet_address" binding:"max=128"`
		Goal          decimal.Decimal `json:"goal"`
		Deadline      time.Time       `json:"deadline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, h.logger, "invalid create campaign request", err)
		return
	}

	campaign, err := h.campaignSvc.Create(c.Request.Context(), actor, service.CreateCampaignInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		WalletAddress: req.WalletAddress,
		Goal:          req.Goal,
		Deadline:      req.Deadline,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create campaign failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"campaign": campaign})
}

// List maneja GET /campaigns.
func (h *CampaignHandler) List(c *gin.Context) {
	var q struct {
		Status    string `form:"status" binding:"omitempty,oneof=active closed"`
		Category  string `form:"category"`
		CreatorID string `form:"creator_id"`
		Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
		Offset    int    `form:"offset" binding:"omitempty,min=0"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid list campaigns query", err)
		return
	}

	campaigns, err := h.campaignSvc.List(c.Request.Context(), domain.CampaignFilter{
		Status:    q.Status,
		Category:  q.Category,
		CreatorID: q.CreatorID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
	if err != nil {
		respondServiceError(c, h.logger, "list campaigns failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// Get maneja GET /campaigns/:id.
func (h *CampaignHandler) Get(c *gin.Context) {
	campaign, err := h.campaignSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get campaign failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign, "progress": campaign.Progress()})
}

// Update maneja PUT /campaigns/:id. Solo se tocan los campos presentes.
func (h *CampaignHandler) Update(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		Title         *string    `json:"title" binding:"omitempty,min=1,max=200"`
		Description   *string    `json:"description" binding:"omitempty,max=10000"`
		Category      *string    `json:"category" binding:"omitempty,max=60"`
		ImageURL      *string    `json:"image_url" binding:"omitempty,url"`
		WalletAddress *string    `json:"wallet_address" binding:"omitempty,max=128"`
		Deadline      *time.Time `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, h.logger, "invalid update campaign request", err)
		return
	}

	campaign, err := h.campaignSvc.Update(c.Request.Context(), actor, c.Param("id"), service.UpdateCampaignInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		ImageURL:      req.ImageURL,
		WalletAddress: req.WalletAddress,
		Deadline:      req.Deadline,
	})
	if err != nil {
		respondServiceError(c, h.logger, "update campaign failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// Close maneja POST /campaigns/:id/close.
func (h *CampaignHandler) Close(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	campaign, err := h.campaignSvc.Close(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "close campaign failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": campaign})
}

// Delete maneja DELETE /campaigns/:id.
func (h *CampaignHandler) Delete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.campaignSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondServiceError(c, h.logger, "delete campaign failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

// ContributionHandler expone aportes y transacciones on-chain registradas.
type ContributionHandler struct {
	logger          *zap.Logger
	contributionSvc *service.ContributionService
}

func NewContributionHandler(logger *zap.Logger, contributionSvc *service.ContributionService) *ContributionHandler {
	return &ContributionHandler{logger: logger, contributionSvc: contributionSvc}
}

type listQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Contribute maneja POST /campaigns/:id/contributions.
func (h *ContributionHandler) Contribute(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		Amount  decimal.Decimal `json:"amount"`
		TxHash  string          `json:"tx_hash" binding:"max=130"`
		Message string          `json:"message" binding:"max=2000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, h.logger, "invalid contribution request", err)
		return
	}

	res, err := h.contributionSvc.Contribute(c.Request.Context(), actor, service.ContributeInput{
		CampaignID: c.Param("id"),
		Amount:     req.Amount,
		TxHash:     req.TxHash,
		Message:    req.Message,
	})
	if err != nil {
		respondServiceError(c, h.logger, "contribute failed", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListByCampaign maneja GET /campaigns/:id/contributions.
func (h *ContributionHandler) ListByCampaign(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid list contributions query", err)
		return
	}
	items, err := h.contributionSvc.ListByCampaign(c.Request.Context(), c.Param("id"), q.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "list campaign contributions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contributions": items})
}

// ListMine maneja GET /users/me/contributions.
func (h *ContributionHandler) ListMine(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid list contributions query", err)
		return
	}
	items, err := h.contributionSvc.ListByUser(c.Request.Context(), actor.UserID, q.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "list user contributions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contributions": items})
}

// RecordTransaction maneja POST /transactions.
func (h *ContributionHandler) RecordTransaction(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		CampaignID string          `json:"campaign_id"`
		TxHash     string          `json:"tx_hash" binding:"required,max=130"`
		Amount     decimal.Decimal `json:"amount"`
		Kind       string          `json:"kind" binding:"omitempty,oneof=contribution withdrawal"`
		Status     string          `json:"status" binding:"omitempty,oneof=pending confirmed failed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, h.logger, "invalid transaction request", err)
		return
	}

	tx, err := h.contributionSvc.RecordTransaction(c.Request.Context(), actor, service.RecordTransactionInput{
		CampaignID: req.CampaignID,
		TxHash:     req.TxHash,
		Amount:     req.Amount,
		Kind:       req.Kind,
		Status:     req.Status,
	})
	if err != nil {
		respondServiceError(c, h.logger, "record transaction failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx})
}

// ListMyTransactions maneja GET /users/me/transactions.
func (h *ContributionHandler) ListMyTransactions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid list transactions query", err)
		return
	}
	items, err := h.contributionSvc.ListTransactions(c.Request.Context(), actor.UserID, q.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "list transactions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/service"
)

// PredictionHandler expone las predicciones del usuario autenticado.
type PredictionHandler struct {
	logger        *zap.Logger
	predictionSvc *service.PredictionService
}

func NewPredictionHandler(logger *zap.Logger, predictionSvc *service.PredictionService) *PredictionHandler {
	return &PredictionHandler{logger: logger, predictionSvc: predictionSvc}
}

type predictionQuery struct {
	Symbol   string `form:"symbol" binding:"omitempty,ticker"`
	Verified *bool  `form:"verified"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q predictionQuery) filter() domain.PredictionFilter {
	return domain.PredictionFilter{Symbol: q.Symbol, Verified: q.Verified, Limit: q.Limit}
}

// List maneja GET /predictions.
func (h *PredictionHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q predictionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid list predictions query", err)
		return
	}
	filter := q.filter()
	filter.UserID = actor.UserID

	items, err := h.predictionSvc.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, h.logger, "list predictions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": items})
}

// Get maneja GET /predictions/:id. Las ajenas se reportan como inexistentes salvo para admin.
func (h *PredictionHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	p, err := h.predictionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get prediction failed", err)
		return
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		respondServiceError(c, h.logger, "get prediction failed", service.ErrPredictionNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": p})
}

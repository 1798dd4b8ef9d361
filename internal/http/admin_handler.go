package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

// AdminHandler agrupa los endpoints del panel de administracion.
type AdminHandler struct {
	logger          *zap.Logger
	dashboardSvc    *service.DashboardService
	predictionSvc   *service.PredictionService
	verificationSvc *service.VerificationService
}

func NewAdminHandler(
	logger *zap.Logger,
	dashboardSvc *service.DashboardService,
	predictionSvc *service.PredictionService,
	verificationSvc *service.VerificationService,
) *AdminHandler {
	return &AdminHandler{
		logger:          logger,
		dashboardSvc:    dashboardSvc,
		predictionSvc:   predictionSvc,
		verificationSvc: verificationSvc,
	}
}

// Dashboard maneja GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	view, err := h.dashboardSvc.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "dashboard failed", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListPredictions maneja GET /admin/predictions?verified=&symbol=&limit=.
func (h *AdminHandler) ListPredictions(c *gin.Context) {
	var q predictionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid admin predictions query", err)
		return
	}
	items, err := h.predictionSvc.List(c.Request.Context(), q.filter())
	if err != nil {
		respondServiceError(c, h.logger, "list predictions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": items})
}

// VerifyPredictions maneja POST /admin/predictions/verify.
func (h *AdminHandler) VerifyPredictions(c *gin.Context) {
	summary, err := h.verificationSvc.Run(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "verification run failed", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

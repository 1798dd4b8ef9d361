package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

var (
	notFoundErrors = []error{
		service.ErrCampaignNotFound,
		service.ErrSessionNotFound,
		service.ErrPredictionNotFound,
		service.ErrUserNotFound,
	}
	badRequestErrors = []error{
		service.ErrInvalidAmount,
		service.ErrInvalidCampaign,
		service.ErrDeadlineInPast,
		service.ErrInvalidTransaction,
		service.ErrEmptyMessage,
		service.ErrInvalidSymbol,
		service.ErrInvalidEmail,
		service.ErrWeakPassword,
	}
	conflictErrors = []error{
		service.ErrCampaignClosed,
		service.ErrCampaignHasFunds,
		service.ErrDuplicateTxHash,
		service.ErrEmailTaken,
		service.ErrVerificationRunning,
	}
)

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondServiceError mapea errores de servicio a status HTTP. Lo desconocido
// se loguea y sale como 500 con mensaje generico.
func respondServiceError(c *gin.Context, logger *zap.Logger, msg string, err error) {
	switch {
	case isAny(err, notFoundErrors):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case isAny(err, badRequestErrors):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
	case isAny(err, conflictErrors):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, service.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	default:
		logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// actorFrom arma el Actor del servicio desde los claims del request.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok || claims.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, Role: claims.Role}, true
}

package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/service"
)

// ChatHandler mantiene dependencias para el chat del asesor.
type ChatHandler struct {
	logger     *zap.Logger
	advisorSvc *service.AdvisorService
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(logger *zap.Logger, advisorSvc *service.AdvisorService) *ChatHandler {
	return &ChatHandler{logger: logger, advisorSvc: advisorSvc}
}

// PostMessage maneja POST /chat. Un fallo del LLM no es error: vuelve 200 con la disculpa.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req struct {
		Message   string `json:"message" binding:"required"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, h.logger, "invalid chat request", err)
		return
	}

	reply, err := h.advisorSvc.Chat(c.Request.Context(), service.ChatInput{
		UserID:    actor.UserID,
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		respondServiceError(c, h.logger, "chat failed", err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// ListSessions maneja GET /chat/sessions.
func (h *ChatHandler) ListSessions(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondInvalid(c, h.logger, "invalid list sessions query", err)
		return
	}
	sessions, err := h.advisorSvc.ListSessions(c.Request.Context(), actor.UserID, q.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "list sessions failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetSession maneja GET /chat/sessions/:id.
func (h *ChatHandler) GetSession(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	session, err := h.advisorSvc.GetSession(c.Request.Context(), actor.UserID, c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "get session failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession maneja DELETE /chat/sessions/:id.
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	if err := h.advisorSvc.DeleteSession(c.Request.Context(), actor.UserID, c.Param("id")); err != nil {
		respondServiceError(c, h.logger, "delete session failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

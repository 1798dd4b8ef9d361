package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/llm"
	"crowdfund-advisor/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrEmptyMessage    = errors.New("message is required")
)

// ApologyReply se devuelve cuando el LLM falla; el turno se guarda igual.
const ApologyReply = "I'm sorry, I couldn't generate an analysis right now. Please try again later."

const (
	sessionTitleRunes = 60
	maxMessageRunes   = 4000
)

// AdvisorService atiende el chat del asesor: sesiones, deteccion de simbolos y respuestas.
type AdvisorService struct {
	logger      *zap.Logger
	llmClient   llm.LLMClient
	predictions *PredictionService
	sessions    repository.ChatSessionRepository
	limiter     RateLimiter
	now         func() time.Time
}

func NewAdvisorService(
	logger *zap.Logger,
	llmClient llm.LLMClient,
	predictions *PredictionService,
	sessions repository.ChatSessionRepository,
	limiter RateLimiter,
) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = NewRateLimiter(time.Minute, 20)
	}
	return &AdvisorService{
		logger:      logger,
		llmClient:   llmClient,
		predictions: predictions,
		sessions:    sessions,
		limiter:     limiter,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type ChatInput struct {
	UserID    string
	SessionID string
	Message   string
}

type ChatReply struct {
	SessionID  string                  `json:"session_id"`
	Category   string                  `json:"category"`
	Reply      string                  `json:"reply"`
	Symbol     string                  `json:"symbol,omitempty"`
	Prediction *domain.StockPrediction `json:"prediction,omitempty"`
}

// Chat procesa un turno. Si el mensaje menciona un simbolo genera una prediccion;
// si no, responde como chat general con los ultimos mensajes como contexto.
func (s *AdvisorService) Chat(ctx context.Context, in ChatInput) (ChatReply, error) {
	message := truncateRunes(strings.TrimSpace(in.Message), maxMessageRunes)
	if message == "" {
		return ChatReply{}, ErrEmptyMessage
	}
	if !s.limiter.Allow(in.UserID) {
		return ChatReply{}, ErrRateLimited
	}

	session, isNew, err := s.loadOrStartSession(ctx, in.UserID, in.SessionID, message)
	if err != nil {
		return ChatReply{}, err
	}

	out := ChatReply{SessionID: session.ID, Category: domain.ChatCategoryGeneral}
	if symbol := ExtractSymbol(message); symbol != "" {
		out.Symbol = symbol
		out.Category = domain.ChatCategoryStock
		res, err := s.predictions.Generate(ctx, GeneratePredictionInput{
			UserID:    in.UserID,
			SessionID: session.ID,
			Symbol:    symbol,
			Question:  message,
		})
		if err != nil {
			s.logger.Warn("prediction generation failed", zap.Error(err), zap.String("symbol", symbol), zap.String("session_id", session.ID))
			out.Reply = ApologyReply
		} else {
			out.Reply = res.Reply
			out.Prediction = &res.Prediction
		}
	} else {
		out.Reply = s.generalReply(ctx, session.Messages, message)
	}

	now := s.now()
	turn := []domain.ChatMessage{
		{Role: domain.ChatRoleUser, Content: message, Timestamp: now},
		{Role: domain.ChatRoleAssistant, Content: out.Reply, Timestamp: now},
	}

	if isNew {
		session.Category = out.Category
		session.Messages = turn
		session.CreatedAt = now
		session.UpdatedAt = now
		if err := s.sessions.Create(ctx, session); err != nil {
			return ChatReply{}, fmt.Errorf("create session: %w", err)
		}
		return out, nil
	}

	if err := s.sessions.AppendMessages(ctx, session.ID, out.Category, turn, now); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ChatReply{}, ErrSessionNotFound
		}
		return ChatReply{}, fmt.Errorf("append messages: %w", err)
	}
	if session.Category == domain.ChatCategoryStock {
		out.Category = domain.ChatCategoryStock
	}
	return out, nil
}

func (s *AdvisorService) loadOrStartSession(ctx context.Context, userID, sessionID, firstMessage string) (domain.ChatSession, bool, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return domain.ChatSession{
			ID:     uuid.NewString(),
			UserID: userID,
			Title:  truncateRunes(firstMessage, sessionTitleRunes),
		}, true, nil
	}
	session, err := s.GetSession(ctx, userID, sessionID)
	if err != nil {
		return domain.ChatSession{}, false, err
	}
	return session, false, nil
}

func (s *AdvisorService) generalReply(ctx context.Context, history []domain.ChatMessage, message string) string {
	reply, err := s.llmClient.Generate(ctx, buildGeneralPrompt(history, message))
	if err != nil {
		s.logger.Warn("general chat generation failed", zap.Error(err))
		return ApologyReply
	}
	reply = cleanLLMText(reply)
	if reply == "" {
		return ApologyReply
	}
	return reply
}

// GetSession devuelve la sesion solo si pertenece al usuario.
func (s *AdvisorService) GetSession(ctx context.Context, userID, sessionID string) (domain.ChatSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ChatSession{}, ErrSessionNotFound
		}
		return domain.ChatSession{}, err
	}
	if session.UserID != userID {
		return domain.ChatSession{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *AdvisorService) ListSessions(ctx context.Context, userID string, limit int) ([]domain.ChatSessionSummary, error) {
	return s.sessions.ListByUser(ctx, userID, limit)
}

func (s *AdvisorService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	if err := s.sessions.DeleteByOwner(ctx, sessionID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSessionNotFound
		}
		return err
	}
	return nil
}

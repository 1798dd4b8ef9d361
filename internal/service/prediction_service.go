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
	"crowdfund-advisor/internal/market"
	"crowdfund-advisor/internal/repository"
)

var (
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrInvalidSymbol      = errors.New("invalid symbol")
)

// PredictionService genera, persiste y consulta predicciones de acciones.
type PredictionService struct {
	logger      *zap.Logger
	llmClient   llm.LLMClient
	quotes      market.QuoteProvider
	synthetic   market.QuoteProvider
	predictions repository.PredictionRepository
	now         func() time.Time
}

func NewPredictionService(
	logger *zap.Logger,
	llmClient llm.LLMClient,
	quotes market.QuoteProvider,
	predictions repository.PredictionRepository,
) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		logger:      logger,
		llmClient:   llmClient,
		quotes:      quotes,
		synthetic:   market.NewSyntheticProvider(uint64(time.Now().UnixNano())),
		predictions: predictions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

type GeneratePredictionInput struct {
	UserID    string
	SessionID string
	Symbol    string
	Question  string
}

// PredictionResult lleva la prediccion guardada y el texto que se le muestra al usuario.
type PredictionResult struct {
	Prediction domain.StockPrediction
	Reply      string
}

// Generate consulta el precio, pide el analisis al LLM y guarda la prediccion.
// Un error del LLM se devuelve sin persistir nada.
func (s *PredictionService) Generate(ctx context.Context, in GeneratePredictionInput) (PredictionResult, error) {
	symbol := market.NormalizeSymbol(in.Symbol)
	if symbol == "" {
		return PredictionResult{}, ErrInvalidSymbol
	}

	quote := s.currentQuote(ctx, symbol)
	prompt := buildStockPrompt(symbol, quote.Price, in.Question)

	reply, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("llm generate: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		return PredictionResult{}, fmt.Errorf("llm generate: %w", llm.ErrEmptyResponse)
	}

	analysis := ParsePredictionReply(reply, quote.Price)
	prediction := domain.StockPrediction{
		ID:                 uuid.NewString(),
		UserID:             in.UserID,
		SessionID:          in.SessionID,
		Symbol:             symbol,
		InitialPrice:       quote.Price,
		PredictedPrice:     analysis.PriceTarget,
		PredictedDirection: analysis.Direction,
		Confidence:         analysis.Confidence,
		Rationale:          analysis.Rationale,
		TechnicalFactors:   analysis.TechnicalFactors,
		FundamentalFactors: analysis.FundamentalFactors,
		SentimentFactors:   analysis.SentimentFactors,
		CreatedAt:          s.now(),
	}
	if err := s.predictions.Create(ctx, prediction); err != nil {
		return PredictionResult{}, fmt.Errorf("persist prediction: %w", err)
	}

	return PredictionResult{Prediction: prediction, Reply: cleanLLMText(reply)}, nil
}

func (s *PredictionService) currentQuote(ctx context.Context, symbol string) market.Quote {
	if s.quotes != nil {
		q, err := s.quotes.Quote(ctx, symbol)
		if err == nil && q.Price > 0 {
			return q
		}
		s.logger.Warn("market quote unavailable, using synthetic price", zap.String("symbol", symbol), zap.Error(err))
	}
	q, _ := s.synthetic.Quote(ctx, symbol)
	return q
}

func (s *PredictionService) Get(ctx context.Context, id string) (domain.StockPrediction, error) {
	p, err := s.predictions.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StockPrediction{}, ErrPredictionNotFound
		}
		return domain.StockPrediction{}, err
	}
	return p, nil
}

func (s *PredictionService) List(ctx context.Context, filter domain.PredictionFilter) ([]domain.StockPrediction, error) {
	filter.Symbol = market.NormalizeSymbol(filter.Symbol)
	return s.predictions.List(ctx, filter)
}

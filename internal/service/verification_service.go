package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/market"
	"crowdfund-advisor/internal/repository"
)

var ErrVerificationRunning = errors.New("verification already running")

const (
	neutralBand         = 0.005
	directionWeight     = 0.3
	priceWeight         = 0.7
	syntheticDriftPct   = 0.05
	defaultVerifyMinAge = 24 * time.Hour
	verifyBatchLimit    = 500
	verifyLockKey       = "verify:lock"
	verifyLockTTL       = 10 * time.Minute
	// una corrida nunca sobrevive al lock que la protege
	verifyRunTimeout    = verifyLockTTL - time.Minute
)

// solo borra el lock si sigue siendo nuestro
const releaseLockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type runLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// VerificationSummary resume una corrida de verificacion.
type VerificationSummary struct {
	Pending    int       `json:"pending"`
	Verified   int       `json:"verified"`
	Skipped    int       `json:"skipped"`
	Failed     int       `json:"failed"`
	Symbols    []string  `json:"symbols"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// VerificationService compara predicciones vencidas contra el precio de mercado.
type VerificationService struct {
	logger      *zap.Logger
	predictions repository.PredictionRepository
	quotes      market.QuoteProvider
	synthetic   *market.SyntheticProvider
	locker      runLocker
	minAge      time.Duration
	mu          sync.Mutex
	now         func() time.Time
}

// NewVerificationService: quotes nil significa que no hay API de mercado y se sintetizan precios.
func NewVerificationService(
	logger *zap.Logger,
	predictions repository.PredictionRepository,
	quotes market.QuoteProvider,
	redisClient *redis.Client,
	minAge time.Duration,
) *VerificationService {
	var locker runLocker
	if redisClient != nil {
		locker = redisClient
	}
	return newVerificationService(logger, predictions, quotes, locker, minAge)
}

func newVerificationService(
	logger *zap.Logger,
	predictions repository.PredictionRepository,
	quotes market.QuoteProvider,
	locker runLocker,
	minAge time.Duration,
) *VerificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minAge <= 0 {
		minAge = defaultVerifyMinAge
	}
	return &VerificationService{
		logger:      logger,
		predictions: predictions,
		quotes:      quotes,
		synthetic:   market.NewSyntheticProvider(uint64(time.Now().UnixNano())),
		locker:      locker,
		minAge:      minAge,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Run verifica todas las predicciones pendientes. Solo una corrida a la vez por proceso
// y, con Redis, por cluster.
func (s *VerificationService) Run(ctx context.Context) (VerificationSummary, error) {
	if !s.mu.TryLock() {
		return VerificationSummary{}, ErrVerificationRunning
	}
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, verifyRunTimeout)
	defer cancel()

	release, err := s.acquireLock(ctx)
	if err != nil {
		return VerificationSummary{}, err
	}
	defer release()

	summary := VerificationSummary{StartedAt: s.now(), Symbols: []string{}}
	pending, err := s.predictions.ListPending(ctx, summary.StartedAt.Add(-s.minAge), verifyBatchLimit)
	if err != nil {
		return VerificationSummary{}, fmt.Errorf("list pending predictions: %w", err)
	}
	summary.Pending = len(pending)

	bySymbol := make(map[string][]domain.StockPrediction)
	for _, p := range pending {
		bySymbol[p.Symbol] = append(bySymbol[p.Symbol], p)
	}
	for symbol := range bySymbol {
		summary.Symbols = append(summary.Symbols, symbol)
	}
	sort.Strings(summary.Symbols)

	for _, symbol := range summary.Symbols {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		group := bySymbol[symbol]

		var marketPrice float64
		if s.quotes != nil {
			q, err := s.quotes.Quote(ctx, symbol)
			if err != nil || q.Price <= 0 {
				s.logger.Warn("verification quote failed", zap.String("symbol", symbol), zap.Error(err))
				summary.Failed += len(group)
				continue
			}
			marketPrice = q.Price
		}

		for _, p := range group {
			actual := marketPrice
			if s.quotes == nil {
				actual = s.synthetic.Drift(p.InitialPrice, syntheticDriftPct)
			}
			outcome := EvaluatePrediction(p, actual, s.now())
			saved, err := s.predictions.SaveOutcome(ctx, p.ID, outcome)
			switch {
			case err != nil:
				s.logger.Error("save prediction outcome failed", zap.String("prediction_id", p.ID), zap.Error(err))
				summary.Failed++
			case !saved:
				summary.Skipped++
			default:
				summary.Verified++
			}
		}
	}

	summary.FinishedAt = s.now()
	s.logger.Info("verification run finished",
		zap.Int("pending", summary.Pending),
		zap.Int("verified", summary.Verified),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Strings("symbols", summary.Symbols),
	)
	return summary, nil
}

func (s *VerificationService) acquireLock(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	ok, err := s.locker.SetNX(ctx, verifyLockKey, token, verifyLockTTL).Result()
	if err != nil {
		// sin Redis seguimos: el UPDATE condicional evita pisar resultados
		s.logger.Warn("verification lock unavailable", zap.Error(err))
		return func() {}, nil
	}
	if !ok {
		return nil, ErrVerificationRunning
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := s.locker.Eval(releaseCtx, releaseLockScript, []string{verifyLockKey}, token).Int()
		if err != nil {
			s.logger.Warn("verification lock release failed", zap.Error(err))
			return
		}
		if n == 0 {
			s.logger.Warn("verification lock expired before release", zap.Duration("ttl", verifyLockTTL))
		}
	}, nil
}

// ActualDirection clasifica el movimiento con una banda neutral de ±0.5%.
func ActualDirection(initial, actual float64) string {
	if initial <= 0 {
		return domain.DirectionNeutral
	}
	change := (actual - initial) / initial
	switch {
	case change > neutralBand:
		return domain.DirectionUp
	case change < -neutralBand:
		return domain.DirectionDown
	default:
		return domain.DirectionNeutral
	}
}

// Accuracy = 0.3 * acierto de direccion + 0.7 * cercania del precio, en [0, 1].
func Accuracy(predictedDirection, actualDirection string, predictedPrice, actualPrice float64) float64 {
	var directionScore float64
	if predictedDirection == actualDirection {
		directionScore = 1
	}
	var priceScore float64
	if actualPrice > 0 {
		priceScore = math.Max(0, 1-math.Abs(actualPrice-predictedPrice)/actualPrice)
	}
	return math.Round((directionWeight*directionScore+priceWeight*priceScore)*10000) / 10000
}

// EvaluatePrediction arma el resultado de una prediccion frente al precio observado.
func EvaluatePrediction(p domain.StockPrediction, actualPrice float64, at time.Time) domain.PredictionOutcome {
	direction := ActualDirection(p.InitialPrice, actualPrice)
	return domain.PredictionOutcome{
		ActualPrice:     actualPrice,
		ActualDirection: direction,
		Accuracy:        Accuracy(p.PredictedDirection, direction, p.PredictedPrice, actualPrice),
		VerifiedAt:      at,
	}
}

package market

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CachedProvider guarda cotizaciones en Redis durante ttl. Redis caido no bloquea la consulta.
type CachedProvider struct {
	next   QuoteProvider
	client redisKV
	ttl    time.Duration
	prefix string
	logger *zap.Logger
}

func NewCachedProvider(next QuoteProvider, client *redis.Client, ttl time.Duration, logger *zap.Logger) QuoteProvider {
	if client == nil {
		return next
	}
	return newCachedProvider(next, client, ttl, logger)
}

func newCachedProvider(next QuoteProvider, client redisKV, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedProvider{next: next, client: client, ttl: ttl, prefix: "quote:", logger: logger}
}

func (p *CachedProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	key := p.prefix + symbol

	if raw, err := p.client.Get(ctx, key).Result(); err == nil {
		var q Quote
		if json.Unmarshal([]byte(raw), &q) == nil && q.Price > 0 {
			return q, nil
		}
	} else if err != redis.Nil {
		p.logger.Warn("quote cache read failed", zap.Error(err), zap.String("symbol", symbol))
	}

	q, err := p.next.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if payload, err := json.Marshal(q); err == nil {
		if err := p.client.Set(ctx, key, payload, p.ttl).Err(); err != nil {
			p.logger.Warn("quote cache write failed", zap.Error(err), zap.String("symbol", symbol))
		}
	}
	return q, nil
}

package market

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrQuoteNotFound indica que el proveedor no conoce el simbolo.
var ErrQuoteNotFound = errors.New("quote not found")

// Quote es el precio observado de un simbolo en un instante.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// QuoteProvider obtiene el precio actual de un simbolo.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// NormalizeSymbol limpia y pasa a mayusculas un ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(symbol), "$"))
}

// FallbackProvider intenta primary y, si falla, usa fallback.
type FallbackProvider struct {
	primary  QuoteProvider
	fallback QuoteProvider
}

func NewFallbackProvider(primary, fallback QuoteProvider) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback}
}

func (p *FallbackProvider) Quote(ctx context.Context, symbol string) (Quote, error) {
	if p.primary != nil {
		q, err := p.primary.Quote(ctx, symbol)
		if err == nil {
			return q, nil
		}
		if p.fallback == nil {
			return Quote{}, err
		}
	}
	return p.fallback.Quote(ctx, symbol)
}

package market

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

// YahooClient usa finance-go y no requiere API key.
type YahooClient struct {
	get func(symbol string) (*finance.Quote, error)
}

func NewYahooClient() *YahooClient {
	return &YahooClient{get: quote.Get}
}

func (c *YahooClient) Quote(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	symbol = NormalizeSymbol(symbol)

	q, err := c.get(symbol)
	if err != nil {
		return Quote{}, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
	}
	if q == nil || q.RegularMarketPrice <= 0 {
		return Quote{}, fmt.Errorf("%w: %s", ErrQuoteNotFound, symbol)
	}
	return Quote{
		Symbol:    symbol,
		Price:     q.RegularMarketPrice,
		Source:    "yahoo",
		FetchedAt: time.Now().UTC(),
	}, nil
}

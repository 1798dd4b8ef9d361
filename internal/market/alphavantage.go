package market

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// AlphaVantageClient consulta GLOBAL_QUOTE de Alpha Vantage.
type AlphaVantageClient struct {
	client *resty.Client
	apiKey string
}

func NewAlphaVantageClient(baseURL, apiKey string) *AlphaVantageClient {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(15 * time.Second)

	return &AlphaVantageClient{client: client, apiKey: apiKey}
}

type globalQuoteResponse struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
	Information string            `json:"Information"`
}

func (c *AlphaVantageClient) Quote(ctx context.Context, symbol string) (Quote, error) {
	if c.apiKey == "" {
		return Quote{}, fmt.Errorf("alpha vantage api key not configured")
	}
	symbol = NormalizeSymbol(symbol)

	var parsed globalQuoteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function": "GLOBAL_QUOTE",
			"symbol":   symbol,
			"apikey":   c.apiKey,
		}).
		ForceContentType("application/json").
		SetResult(&parsed).
		Get("/query")
	if err != nil {
		return Quote{}, fmt.Errorf("fetch quote for %s: %w", symbol, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Quote{}, fmt.Errorf("alpha vantage error %d: %s", resp.StatusCode(), resp.String())
	}
	// Los limites de cuota llegan con 200 y un campo Note/Information.
	if parsed.Note != "" || parsed.Information != "" {
		return Quote{}, fmt.Errorf("alpha vantage throttled: %s%s", parsed.Note, parsed.Information)
	}
	raw, ok := parsed.GlobalQuote["05. price"]
	if !ok || raw == "" {
		return Quote{}, fmt.Errorf("%w: %s", ErrQuoteNotFound, symbol)
	}
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return Quote{}, fmt.Errorf("invalid price %q for %s", raw, symbol)
	}

	return Quote{
		Symbol:    symbol,
		Price:     price,
		Source:    "alphavantage",
		FetchedAt: time.Now().UTC(),
	}, nil
}

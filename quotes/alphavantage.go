package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

// AlphaVantage fetches quotes from the Alpha Vantage query API.
type AlphaVantage struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

var _ Provider = (*AlphaVantage)(nil)

func NewAlphaVantage(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *AlphaVantage {
	return &AlphaVantage{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Lookup returns the latest price for symbol. The company name comes from a
// symbol search and falls back to the symbol itself.
func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	var gq globalQuoteResponse
	if err := a.query(ctx, "GLOBAL_QUOTE", symbol, &gq); err != nil {
		return Quote{}, err
	}
	if gq.Note != "" || gq.Information != "" {
		return Quote{}, fmt.Errorf("alpha vantage refused %s: %s%s", symbol, gq.Note, gq.Information)
	}
	if gq.GlobalQuote.Price == "" {
		return Quote{}, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	price, err := decimal.NewFromString(gq.GlobalQuote.Price)
	if err != nil {
		return Quote{}, fmt.Errorf("parse price %q: %w", gq.GlobalQuote.Price, err)
	}
	if !price.IsPositive() {
		return Quote{}, fmt.Errorf("%s: non-positive price %s: %w", symbol, price, ErrNotFound)
	}

	return Quote{
		Symbol: symbol,
		Name:   a.companyName(ctx, symbol),
		Price:  price,
	}, nil
}

func (a *AlphaVantage) companyName(ctx context.Context, symbol string) string {
	var sr symbolSearchResponse
	if err := a.query(ctx, "SYMBOL_SEARCH", symbol, &sr); err != nil {
		a.logger.Debug("Symbol search failed", zap.String("symbol", symbol), zap.Error(err))
		return symbol
	}
	for _, m := range sr.BestMatches {
		if NormalizeSymbol(m.Symbol) == symbol && m.Name != "" {
			return m.Name
		}
	}
	return symbol
}

func (a *AlphaVantage) query(ctx context.Context, function, symbol string, out any) error {
	params := url.Values{}
	params.Set("function", function)
	params.Set("apikey", a.apiKey)
	if function == "SYMBOL_SEARCH" {
		params.Set("keywords", symbol)
	} else {
		params.Set("symbol", symbol)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", function, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %s", function, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", function, err)
	}
	return nil
}

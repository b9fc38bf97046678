package quotes

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a symbol has no current quote.
var ErrNotFound = errors.New("quote not found")

// Quote is a point-in-time name/price pair for a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Provider looks up current quotes.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

// NormalizeSymbol trims and upper-cases a ticker as typed into a form.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

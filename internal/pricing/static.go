package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/pkg/utils"
)

// StaticSource serves prices from a fixed in-memory table. Useful for
// tests and offline operation.
type StaticSource struct {
	prices map[string]decimal.Decimal
}

// NewStaticSource creates a static source from a symbol→price table.
// Keys are normalized.
func NewStaticSource(prices map[string]float64) *StaticSource {
	table := make(map[string]decimal.Decimal, len(prices))
	for sym, price := range prices {
		table[utils.NormalizeSymbol(sym)] = decimal.NewFromFloat(price)
	}
	return &StaticSource{prices: table}
}

// Name returns "static".
func (s *StaticSource) Name() string { return "static" }

// GetPrice returns the table price for the symbol, ignoring the date.
func (s *StaticSource) GetPrice(_ context.Context, symbol, _ string) (decimal.Decimal, error) {
	price, ok := s.prices[utils.NormalizeSymbol(symbol)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no static price for %s", ErrPriceUnavailable, symbol)
	}
	return price, nil
}

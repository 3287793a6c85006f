package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/okanewa/tradewallet/internal/pricing"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// HoldingValue is one priced position.
type HoldingValue struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Quote    pricing.Quote   `json:"quote"`
	Value    decimal.Decimal `json:"value_usd"`
}

// Valuation is a full mark-to-market snapshot of the wallet.
type Valuation struct {
	AsOf          string          `json:"as_of,omitempty"`
	CashUSD       decimal.Decimal `json:"cash_usd"`
	Holdings      []HoldingValue  `json:"holdings"`
	HoldingsValue decimal.Decimal `json:"holdings_value_usd"`
	TotalValue    decimal.Decimal `json:"total_value_usd"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// Valuate prices every positive holding concurrently and totals the
// portfolio. Quotes never fail, so the only error is a cancelled context.
func (e *Executor) Valuate(ctx context.Context, asOf string) (*Valuation, error) {
	state := e.wallet.State()

	symbols := make([]string, 0, len(state.Holdings))
	for sym, qty := range state.Holdings {
		if qty.IsPositive() {
			symbols = append(symbols, sym)
		}
	}
	sort.Strings(symbols)

	values := make([]HoldingValue, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		i, sym := i, sym
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			qty := state.Holdings[sym]
			quote := e.oracle.GetQuote(gctx, sym, asOf)
			values[i] = HoldingValue{
				Symbol:   sym,
				Quantity: qty,
				Quote:    quote,
				Value:    qty.Mul(quote.Price),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	holdingsValue := decimal.Zero
	for _, hv := range values {
		holdingsValue = holdingsValue.Add(hv.Value)
	}

	return &Valuation{
		AsOf:          asOf,
		CashUSD:       state.CashUSD,
		Holdings:      values,
		HoldingsValue: holdingsValue,
		TotalValue:    state.CashUSD.Add(holdingsValue),
		LastUpdated:   state.LastUpdated,
	}, nil
}

// String renders the valuation for terminal output.
func (v *Valuation) String() string {
	var b strings.Builder
	b.WriteString("💰 Portfolio Valuation\n")
	if v.AsOf != "" {
		fmt.Fprintf(&b, "As of: %s\n", v.AsOf)
	}
	fmt.Fprintf(&b, "Cash: %s\n", utils.FormatUSD(v.CashUSD))
	if len(v.Holdings) > 0 {
		b.WriteString("\nHoldings:\n")
		for _, hv := range v.Holdings {
			fmt.Fprintf(&b, "  • %s: %s @ $%s = %s (%s)\n",
				hv.Symbol, utils.FormatQuantity(hv.Symbol, hv.Quantity),
				hv.Quote.Price.StringFixed(2), utils.FormatUSD(hv.Value), hv.Quote.Origin)
		}
	}
	fmt.Fprintf(&b, "\nHoldings value: %s\n", utils.FormatUSD(v.HoldingsValue))
	fmt.Fprintf(&b, "Total value:    %s\n", utils.FormatUSD(v.TotalValue))
	return b.String()
}

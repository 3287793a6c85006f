// Package pricing resolves unit prices for symbols as of a trading date.
//
// A live Source is consulted first; lookup failures fall back to a static
// table of last-known reference prices, then to a fixed default, so that
// execution logic always has a usable price. This trades correctness for
// availability — acceptable in a simulation, and the Quote's Origin lets
// callers that need stricter behavior reject non-live prices.
package pricing

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/pkg/utils"
)

// ErrPriceUnavailable is returned by a Source when it cannot produce a
// price for the symbol.
var ErrPriceUnavailable = errors.New("price unavailable")

// Source is a single price provider. Implementations should return
// ErrPriceUnavailable (possibly wrapped) when the symbol cannot be priced.
type Source interface {
	// Name returns the human-readable name of this price source.
	Name() string

	// GetPrice returns the unit price for the normalized symbol as of the
	// given date ("2006-01-02"; empty means latest).
	GetPrice(ctx context.Context, symbol, asOf string) (decimal.Decimal, error)
}

// Origin records which lookup step produced a quote.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
	OriginDefault  Origin = "default"
)

// Quote is a resolved unit price.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Origin Origin          `json:"origin"`
	AsOf   string          `json:"as_of,omitempty"`
}

// DefaultFallbackPrices holds last-known reference prices used when the
// live source fails.
var DefaultFallbackPrices = map[string]decimal.Decimal{
	"BTC":  decimal.NewFromInt(45000),
	"ETH":  decimal.NewFromInt(3000),
	"SOL":  decimal.NewFromInt(100),
	"NVDA": decimal.NewFromInt(500),
	"TSLA": decimal.NewFromInt(250),
	"AAPL": decimal.NewFromInt(150),
}

// DefaultPrice is the fixed unit price for entirely unknown symbols.
var DefaultPrice = decimal.NewFromInt(100)

// Oracle chains a live source, a fallback table, and a fixed default.
type Oracle struct {
	source   Source // may be nil: fallback-table-only operation
	fallback map[string]decimal.Decimal
	def      decimal.Decimal
	log      *slog.Logger
}

// OracleOptions configures an Oracle. Zero-value fields use defaults.
type OracleOptions struct {
	FallbackPrices map[string]float64 // normalized per-symbol reference prices
	DefaultPrice   float64
	Logger         *slog.Logger
}

// NewOracle creates an Oracle over the given source. A nil source skips
// the live lookup and serves the fallback table directly.
func NewOracle(source Source, opts *OracleOptions) *Oracle {
	if opts == nil {
		opts = &OracleOptions{}
	}

	fallback := make(map[string]decimal.Decimal)
	if len(opts.FallbackPrices) > 0 {
		for sym, price := range opts.FallbackPrices {
			fallback[utils.NormalizeSymbol(sym)] = decimal.NewFromFloat(price)
		}
	} else {
		for sym, price := range DefaultFallbackPrices {
			fallback[sym] = price
		}
	}

	def := DefaultPrice
	if opts.DefaultPrice > 0 {
		def = decimal.NewFromFloat(opts.DefaultPrice)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Oracle{
		source:   source,
		fallback: fallback,
		def:      def,
		log:      logger,
	}
}

// GetQuote resolves a unit price for the symbol. It never fails; the
// returned Origin tells the caller which step answered.
func (o *Oracle) GetQuote(ctx context.Context, symbol, asOf string) Quote {
	sym := utils.NormalizeSymbol(symbol)

	if o.source != nil {
		price, err := o.source.GetPrice(ctx, sym, asOf)
		if err == nil && price.IsPositive() {
			return Quote{Symbol: sym, Price: price, Origin: OriginLive, AsOf: asOf}
		}
		if err != nil {
			o.log.Warn("live price lookup failed",
				"source", o.source.Name(), "symbol", sym, "err", err)
		}
	}

	if price, ok := o.fallback[sym]; ok {
		return Quote{Symbol: sym, Price: price, Origin: OriginFallback, AsOf: asOf}
	}

	o.log.Warn("no fallback price for symbol, using default",
		"symbol", sym, "price", o.def)
	return Quote{Symbol: sym, Price: o.def, Origin: OriginDefault, AsOf: asOf}
}

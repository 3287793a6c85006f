// Package executor turns free-form trade directives into validated wallet
// mutations, pricing each order through the oracle.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/okanewa/tradewallet/internal/decision"
	"github.com/okanewa/tradewallet/internal/pricing"
	"github.com/okanewa/tradewallet/internal/wallet"
	"github.com/okanewa/tradewallet/pkg/models"
)

// Executor executes and previews trade directives against a wallet.
type Executor struct {
	wallet *wallet.Wallet
	oracle *pricing.Oracle
	log    *slog.Logger
}

// New creates an executor. A nil logger falls back to slog.Default.
func New(w *wallet.Wallet, oracle *pricing.Oracle, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{wallet: w, oracle: oracle, log: logger}
}

// Wallet returns the wallet the executor operates on.
func (e *Executor) Wallet() *wallet.Wallet { return e.wallet }

// Oracle returns the price oracle the executor consults.
func (e *Executor) Oracle() *pricing.Oracle { return e.oracle }

// Execute parses directiveText and applies the resulting order to the
// wallet at the asOf date's price. HOLD succeeds without touching the
// ledger. The returned message is user-facing.
func (e *Executor) Execute(ctx context.Context, directiveText, asOf string) (bool, string) {
	d := decision.Parse(directiveText)

	if d.Action == models.Hold {
		return true, "HOLD - No action taken"
	}
	if !d.Executable() {
		return false, fmt.Sprintf("Invalid trade format: %s. Expected format: '%s X.XX SYMBOL'",
			directiveText, d.Action)
	}

	quote := e.oracle.GetQuote(ctx, d.Symbol, asOf)

	var ok bool
	var msg string
	switch d.Action {
	case models.Buy:
		ok, msg = e.wallet.ExecuteBuy(d.Symbol, d.Quantity, quote.Price)
	case models.Sell:
		ok, msg = e.wallet.ExecuteSell(d.Symbol, d.Quantity, quote.Price)
	default:
		return false, fmt.Sprintf("Unknown action: %s", d.Action)
	}

	if !ok {
		e.log.Warn("trade rejected",
			"action", d.Action, "symbol", d.Symbol, "quantity", d.Quantity, "reason", msg)
		return false, msg
	}

	e.log.Info("trade executed",
		"action", d.Action, "symbol", d.Symbol, "quantity", d.Quantity,
		"price", quote.Price, "price_origin", quote.Origin)
	return true, fmt.Sprintf("%s at $%s per unit", msg, quote.Price.StringFixed(2))
}

// Simulate previews what Execute would do without mutating the wallet.
func (e *Executor) Simulate(ctx context.Context, directiveText, asOf string) string {
	d := decision.Parse(directiveText)

	if d.Action == models.Hold {
		return "📊 HOLD - Maintaining current position"
	}
	if !d.Executable() {
		return fmt.Sprintf("❌ Invalid trade format: %s", directiveText)
	}

	quote := e.oracle.GetQuote(ctx, d.Symbol, asOf)
	totalValue := d.Quantity.Mul(quote.Price)

	var allowed bool
	var reason string
	switch d.Action {
	case models.Buy:
		allowed, reason = e.wallet.CanBuy(d.Symbol, d.Quantity, quote.Price)
	case models.Sell:
		allowed, reason = e.wallet.CanSell(d.Symbol, d.Quantity)
	default:
		return fmt.Sprintf("❌ Unknown action: %s", d.Action)
	}

	status := "✅"
	if !allowed {
		status = "❌"
	}
	return fmt.Sprintf("%s %s %s %s at $%s = $%s\n%s",
		status, d.Action, d.Quantity.StringFixed(6), d.Symbol,
		quote.Price.StringFixed(2), totalValue.StringFixed(2), reason)
}

// Package wallet implements the portfolio ledger: cash plus per-symbol
// holdings, validated buy/sell mutations, and durable persistence through
// an injected Store.
//
// Mutations are write-ahead: the next state is persisted before it is
// committed in memory, so a failed write leaves the ledger unchanged and
// is reported as a failed operation. Exactly one process must own a given
// persisted document; the ledger does not guard against a second writer.
package wallet

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/pkg/models"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// DefaultInitialCash is the starter cash balance in USD.
var DefaultInitialCash = decimal.NewFromInt(50000)

// DefaultInitialHoldings is the fixed starter allocation.
func DefaultInitialHoldings() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"BTC":  decimal.NewFromFloat(0.1),
		"ETH":  decimal.NewFromFloat(1.0),
		"SOL":  decimal.NewFromFloat(10.0),
		"NVDA": decimal.NewFromFloat(5.0),
	}
}

// Wallet is the authoritative ledger for one simulated trading session.
type Wallet struct {
	mu    sync.RWMutex
	state models.WalletState
	store Store
	log   *slog.Logger
	now   func() time.Time
}

// Options configures a new Wallet. Zero-value fields use defaults.
type Options struct {
	InitialCash     decimal.Decimal
	InitialHoldings map[string]decimal.Decimal
	Logger          *slog.Logger
}

// New creates a wallet bound to the given store. A previously persisted
// record overrides the initial allocation; otherwise the wallet starts
// from the configured (or default) cash and holdings.
func New(store Store, opts *Options) *Wallet {
	if opts == nil {
		opts = &Options{}
	}

	cash := opts.InitialCash
	if cash.IsZero() && opts.InitialHoldings == nil {
		cash = DefaultInitialCash
	}
	holdings := opts.InitialHoldings
	if holdings == nil {
		holdings = DefaultInitialHoldings()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w := &Wallet{
		state: newState(cash, holdings, time.Now()),
		store: store,
		log:   logger,
		now:   time.Now,
	}

	if stored, err := store.Load(); err == nil {
		w.state = normalizeState(*stored)
	} else if !errors.Is(err, ErrNoState) {
		logger.Warn("could not load wallet state, starting fresh", "err", err)
	}

	return w
}

// newState builds a state with normalized holding keys.
func newState(cash decimal.Decimal, holdings map[string]decimal.Decimal, ts time.Time) models.WalletState {
	state := models.WalletState{
		CashUSD:     cash,
		Holdings:    make(map[string]decimal.Decimal, len(holdings)),
		LastUpdated: ts,
	}
	for sym, qty := range holdings {
		key := utils.NormalizeSymbol(sym)
		state.Holdings[key] = state.Holdings[key].Add(qty)
	}
	return state
}

// normalizeState re-keys a loaded state through symbol normalization.
func normalizeState(state models.WalletState) models.WalletState {
	return newState(state.CashUSD, state.Holdings, state.LastUpdated)
}

// --- Reads ---

// Cash returns the current cash balance.
func (w *Wallet) Cash() decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.CashUSD
}

// HoldingAmount returns the quantity held for the symbol, zero when the
// symbol is absent.
func (w *Wallet) HoldingAmount(symbol string) decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Holding(utils.NormalizeSymbol(symbol))
}

// State returns a snapshot copy of the ledger.
func (w *Wallet) State() models.WalletState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Clone()
}

// --- Validation ---

// CanBuy reports whether a buy of quantity units at unitPrice can be
// executed. The reason string is always populated.
func (w *Wallet) CanBuy(symbol string, quantity, unitPrice decimal.Decimal) (bool, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.canBuyLocked(quantity, unitPrice)
}

func (w *Wallet) canBuyLocked(quantity, unitPrice decimal.Decimal) (bool, string) {
	totalCost := quantity.Mul(unitPrice)
	if totalCost.GreaterThan(w.state.CashUSD) {
		return false, fmt.Sprintf("Insufficient funds. Need $%s, have $%s",
			totalCost.StringFixed(2), w.state.CashUSD.StringFixed(2))
	}
	if !quantity.IsPositive() {
		return false, "Quantity must be positive"
	}
	return true, "Order can be executed"
}

// CanSell reports whether a sell of quantity units can be executed.
func (w *Wallet) CanSell(symbol string, quantity decimal.Decimal) (bool, string) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.canSellLocked(utils.NormalizeSymbol(symbol), quantity)
}

func (w *Wallet) canSellLocked(symbol string, quantity decimal.Decimal) (bool, string) {
	held := w.state.Holding(symbol)
	if quantity.GreaterThan(held) {
		return false, fmt.Sprintf("Insufficient %s. Need %s, have %s",
			symbol, quantity.StringFixed(6), held.StringFixed(6))
	}
	if !quantity.IsPositive() {
		return false, "Quantity must be positive"
	}
	return true, "Order can be executed"
}

// --- Mutations ---

// ExecuteBuy re-validates and applies a buy: cash decreases by
// quantity×unitPrice, the holding increases by quantity. The new state is
// persisted before it takes effect.
func (w *Wallet) ExecuteBuy(symbol string, quantity, unitPrice decimal.Decimal) (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ok, reason := w.canBuyLocked(quantity, unitPrice); !ok {
		return false, reason
	}

	sym := utils.NormalizeSymbol(symbol)
	totalCost := quantity.Mul(unitPrice)

	next := w.state.Clone()
	next.CashUSD = next.CashUSD.Sub(totalCost)
	next.Holdings[sym] = next.Holdings[sym].Add(quantity)
	next.LastUpdated = w.now()

	if ok, msg := w.commit(next); !ok {
		return false, msg
	}

	return true, fmt.Sprintf("Successfully bought %s %s for $%s",
		quantity.StringFixed(6), sym, totalCost.StringFixed(2))
}

// ExecuteSell is the mirror of ExecuteBuy: cash increases by the proceeds,
// the holding decreases by quantity.
func (w *Wallet) ExecuteSell(symbol string, quantity, unitPrice decimal.Decimal) (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	sym := utils.NormalizeSymbol(symbol)
	if ok, reason := w.canSellLocked(sym, quantity); !ok {
		return false, reason
	}

	proceeds := quantity.Mul(unitPrice)

	next := w.state.Clone()
	next.CashUSD = next.CashUSD.Add(proceeds)
	next.Holdings[sym] = next.Holdings[sym].Sub(quantity)
	next.LastUpdated = w.now()

	if ok, msg := w.commit(next); !ok {
		return false, msg
	}

	return true, fmt.Sprintf("Successfully sold %s %s for $%s",
		quantity.StringFixed(6), sym, proceeds.StringFixed(2))
}

// AddCash credits cash to the wallet, bypassing buy/sell validation.
func (w *Wallet) AddCash(amount decimal.Decimal) (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !amount.IsPositive() {
		return false, "Amount must be positive"
	}

	next := w.state.Clone()
	next.CashUSD = next.CashUSD.Add(amount)
	next.LastUpdated = w.now()

	if ok, msg := w.commit(next); !ok {
		return false, msg
	}
	return true, fmt.Sprintf("Added %s to wallet", utils.FormatUSD(amount))
}

// AddHolding credits quantity of the symbol to the wallet, bypassing
// buy/sell validation.
func (w *Wallet) AddHolding(symbol string, quantity decimal.Decimal) (bool, string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !quantity.IsPositive() {
		return false, "Amount must be positive"
	}

	sym := utils.NormalizeSymbol(symbol)
	next := w.state.Clone()
	next.Holdings[sym] = next.Holdings[sym].Add(quantity)
	next.LastUpdated = w.now()

	if ok, msg := w.commit(next); !ok {
		return false, msg
	}
	return true, fmt.Sprintf("Added %s %s to wallet", quantity.StringFixed(6), sym)
}

// Reset replaces the entire ledger with a fresh initial state and
// persists it. Nil holdings means the default starter allocation.
func (w *Wallet) Reset(initialCash decimal.Decimal, initialHoldings map[string]decimal.Decimal) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if initialHoldings == nil {
		initialHoldings = DefaultInitialHoldings()
	}
	next := newState(initialCash, initialHoldings, w.now())

	if err := w.store.Save(&next); err != nil {
		w.log.Error("wallet reset not persisted", "err", err)
		return fmt.Errorf("persist wallet state: %w", err)
	}
	w.state = next
	return nil
}

// commit persists next and, only on success, makes it the current state.
// Caller must hold the write lock.
func (w *Wallet) commit(next models.WalletState) (bool, string) {
	if err := w.store.Save(&next); err != nil {
		w.log.Error("wallet mutation aborted, persistence failed", "err", err)
		return false, fmt.Sprintf("Trade aborted: could not persist wallet state: %v", err)
	}
	w.state = next
	return true, ""
}

// --- Presentation ---

// Summary returns a formatted portfolio overview. Holdings with zero
// quantity are omitted; symbols are listed in sorted order.
func (w *Wallet) Summary() string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var b strings.Builder
	b.WriteString("💰 **Current Portfolio:**\n")
	fmt.Fprintf(&b, "Cash (USD): %s\n\n", utils.FormatUSD(w.state.CashUSD))
	b.WriteString("**Holdings:**\n")

	for _, sym := range w.sortedSymbolsLocked() {
		qty := w.state.Holdings[sym]
		if qty.IsPositive() {
			fmt.Fprintf(&b, "• %s: %s\n", sym, utils.FormatQuantity(sym, qty))
		}
	}
	return b.String()
}

// AgentContext returns the wallet context block handed to the upstream
// decision model when it analyzes the given symbol. The required output
// format section is what the decision parser understands.
func (w *Wallet) AgentContext(symbol string) string {
	sym := utils.NormalizeSymbol(symbol)
	held := w.HoldingAmount(sym)
	cash := w.Cash()

	kind := "(shares)"
	if utils.IsCrypto(sym) {
		kind = "(cryptocurrency)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 **WALLET CONTEXT FOR %s:**\n\n", sym)
	fmt.Fprintf(&b, "💰 **Available Cash:** %s\n\n", utils.FormatUSD(cash))
	fmt.Fprintf(&b, "🏦 **Current Holdings:**\n• %s: %s %s\n\n", sym, held.StringFixed(6), kind)
	fmt.Fprintf(&b, "📈 **Portfolio Summary:**\n%s\n", w.Summary())
	fmt.Fprintf(&b, "💡 **Decision Guidelines:**\n")
	fmt.Fprintf(&b, "- You have %s available for purchases\n", utils.FormatUSD(cash))
	b.WriteString("- Consider position sizing based on portfolio allocation\n")
	b.WriteString("- Factor in risk management when determining buy/sell quantities\n")
	fmt.Fprintf(&b, "- Current %s position: %s\n\n", sym, held.StringFixed(6))
	b.WriteString("🎯 **Required Output Format:**\n")
	b.WriteString("Your final decision must include specific quantities:\n")
	fmt.Fprintf(&b, "- For BUY: \"BUY X.XXX %s\" (specify exact amount)\n", sym)
	fmt.Fprintf(&b, "- For SELL: \"SELL X.XXX %s\" (specify exact amount)\n", sym)
	b.WriteString("- For HOLD: \"HOLD\" (maintain current position)\n")
	return b.String()
}

// sortedSymbolsLocked returns holding symbols in sorted order. Caller must
// hold at least the read lock.
func (w *Wallet) sortedSymbolsLocked() []string {
	symbols := make([]string, 0, len(w.state.Holdings))
	for sym := range w.state.Holdings {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

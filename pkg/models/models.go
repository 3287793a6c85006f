// Package models defines the shared domain types for TradeWallet:
// trade decisions and the persisted wallet document.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Action is the trading action carried by a decision.
type Action string

const (
	Buy     Action = "BUY"
	Sell    Action = "SELL"
	Hold    Action = "HOLD"
	Unknown Action = "UNKNOWN"
)

// Decision is a trade directive extracted from free-form decision text.
// Quantity is zero and Symbol is empty when the text carried an action but
// no usable quantity/symbol ("intent recognized but unparseable").
type Decision struct {
	Action   Action
	Quantity decimal.Decimal
	Symbol   string
}

// Executable reports whether the decision carries everything needed to
// price and apply a trade: a BUY or SELL action, a symbol, and a positive
// quantity.
func (d Decision) Executable() bool {
	if d.Action != Buy && d.Action != Sell {
		return false
	}
	return d.Symbol != "" && d.Quantity.IsPositive()
}

// WalletState is the persisted portfolio document. Holdings keys are
// normalized symbols; a symbol absent from the map holds quantity zero.
type WalletState struct {
	CashUSD     decimal.Decimal            `json:"cash_usd"`
	Holdings    map[string]decimal.Decimal `json:"crypto_holdings"`
	LastUpdated time.Time                  `json:"last_updated"`
}

// Holding returns the quantity held for the (already normalized) symbol.
func (s WalletState) Holding(symbol string) decimal.Decimal {
	return s.Holdings[symbol]
}

// Clone returns a deep copy of the state.
func (s WalletState) Clone() WalletState {
	out := s
	out.Holdings = make(map[string]decimal.Decimal, len(s.Holdings))
	for sym, qty := range s.Holdings {
		out.Holdings[sym] = qty
	}
	return out
}

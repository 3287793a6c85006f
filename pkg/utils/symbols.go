// Package utils provides common helpers for TradeWallet: symbol
// normalization and display formatting.
package utils

import (
	"strings"
)

// Known cryptocurrency symbols. Anything else is treated as an equity.
var cryptoSymbols = map[string]bool{
	"BTC":   true,
	"ETH":   true,
	"SOL":   true,
	"ADA":   true,
	"AVAX":  true,
	"DOT":   true,
	"MATIC": true,
	"LINK":  true,
	"UNI":   true,
	"AAVE":  true,
}

// NormalizeSymbol maps equivalent spellings of an asset to one canonical
// key: trimmed, uppercased, "$" prefix removed, and the "-USD"/"-USDT"
// quote-pair suffixes stripped. "btc", "BTC-USD" and "BTC-USDT" all
// normalize to "BTC". The function is idempotent.
func NormalizeSymbol(symbol string) string {
	s := strings.TrimSpace(strings.ToUpper(symbol))
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "-USDT")
	s = strings.TrimSuffix(s, "-USD")
	return s
}

// IsCrypto reports whether the symbol names a known cryptocurrency.
func IsCrypto(symbol string) bool {
	return cryptoSymbols[NormalizeSymbol(symbol)]
}

// ToYahooSymbol converts a symbol to Yahoo Finance format: crypto symbols
// become USD quote pairs (BTC → BTC-USD), equities pass through unchanged.
func ToYahooSymbol(symbol string) string {
	s := NormalizeSymbol(symbol)
	if cryptoSymbols[s] {
		return s + "-USD"
	}
	return s
}

package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD formats an amount as a US dollar string with thousands
// separators, e.g. 50000 → "$50,000.00".
func FormatUSD(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	intPart := fixed[:len(fixed)-3]
	decPart := fixed[len(fixed)-3:]

	formatted := groupThousands(intPart) + decPart
	if negative {
		return "-$" + formatted
	}
	return "$" + formatted
}

// FormatQuantity renders an asset quantity the way the portfolio summary
// shows it: six decimals for crypto, two decimals plus "shares" for
// equities.
func FormatQuantity(symbol string, qty decimal.Decimal) string {
	if IsCrypto(symbol) {
		return qty.StringFixed(6)
	}
	return qty.StringFixed(2) + " shares"
}

// groupThousands inserts a comma every three digits, right to left.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

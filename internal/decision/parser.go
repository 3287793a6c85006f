// Package decision extracts structured trade directives from free-form
// text, typically LLM-generated prose with a decision buried in it.
package decision

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/pkg/models"
	"github.com/okanewa/tradewallet/pkg/utils"
)

// Textual patterns tried in order over the normalized text. The third one
// tolerates arbitrary prose between the action and the quantity/symbol.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(BUY|SELL)\s+(\d+\.?\d*)\s+([A-Z-]+)`),  // BUY 0.05 BTC
	regexp.MustCompile(`(BUY|SELL)\s+([A-Z-]+)\s+(\d+\.?\d*)`),  // BUY BTC 0.05
	regexp.MustCompile(`(BUY|SELL).*?(\d+\.?\d*)\s+([A-Z-]+)`),  // BUY ... 0.05 BTC
}

var numberRe = regexp.MustCompile(`^\d+\.?\d*$`)

// Parse extracts (action, quantity, symbol) from a decision text. It never
// fails: unparseable input degrades to HOLD, and a recognized BUY/SELL
// whose quantity or symbol cannot be extracted returns the bare action so
// callers can report the expected input shape.
//
// Text containing HOLD resolves to HOLD before any BUY/SELL pattern is
// tried, even when a well-formed trade instruction is also present.
// Upstream prompts rely on this precedence; do not reorder.
func Parse(text string) models.Decision {
	text = strings.ToUpper(strings.TrimSpace(text))

	if strings.Contains(text, "HOLD") {
		return models.Decision{Action: models.Hold}
	}

	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		// Figure out which captured group is the quantity.
		qtyStr, symStr := m[2], m[3]
		if !numberRe.MatchString(qtyStr) {
			qtyStr, symStr = m[3], m[2]
		}

		qty, err := decimal.NewFromString(qtyStr)
		if err != nil {
			continue
		}

		return models.Decision{
			Action:   models.Action(m[1]),
			Quantity: qty,
			Symbol:   utils.NormalizeSymbol(symStr),
		}
	}

	// No full pattern matched; recognize bare intent.
	if strings.Contains(text, "BUY") {
		return models.Decision{Action: models.Buy}
	}
	if strings.Contains(text, "SELL") {
		return models.Decision{Action: models.Sell}
	}

	// Default-safe: unparseable input never triggers a trade.
	return models.Decision{Action: models.Hold}
}

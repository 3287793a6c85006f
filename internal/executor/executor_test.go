package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/okanewa/tradewallet/internal/pricing"
	"github.com/okanewa/tradewallet/internal/wallet"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	w := wallet.New(wallet.NewMemStore(), nil)
	oracle := pricing.NewOracle(pricing.NewStaticSource(map[string]float64{
		"BTC": 45000,
		"ETH": 3000,
	}), nil)
	return New(w, oracle, nil)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExecuteBuy(t *testing.T) {
	e := newTestExecutor(t)

	ok, msg := e.Execute(context.Background(), "BUY 0.01 BTC", "")
	if !ok {
		t.Fatalf("execute: %s", msg)
	}
	want := "Successfully bought 0.010000 BTC for $450.00 at $45000.00 per unit"
	if msg != want {
		t.Errorf("message:\n got %q\nwant %q", msg, want)
	}
	if !e.Wallet().Cash().Equal(d("49550")) {
		t.Errorf("cash: got %s, want 49550", e.Wallet().Cash())
	}
	if !e.Wallet().HoldingAmount("BTC").Equal(d("0.11")) {
		t.Errorf("BTC: got %s, want 0.11", e.Wallet().HoldingAmount("BTC"))
	}
}

func TestExecuteSell(t *testing.T) {
	e := newTestExecutor(t)

	ok, msg := e.Execute(context.Background(), "SELL 0.5 ETH", "")
	if !ok {
		t.Fatalf("execute: %s", msg)
	}
	if !strings.Contains(msg, "Successfully sold 0.500000 ETH for $1500.00 at $3000.00 per unit") {
		t.Errorf("message: %q", msg)
	}
	if !e.Wallet().Cash().Equal(d("51500")) {
		t.Errorf("cash: got %s, want 51500", e.Wallet().Cash())
	}
}

func TestExecuteHold(t *testing.T) {
	e := newTestExecutor(t)
	before := e.Wallet().State()

	ok, msg := e.Execute(context.Background(), "After careful analysis I recommend HOLD for now", "")
	if !ok || msg != "HOLD - No action taken" {
		t.Fatalf("got %v %q", ok, msg)
	}
	after := e.Wallet().State()
	if !after.CashUSD.Equal(before.CashUSD) {
		t.Error("HOLD must not touch the ledger")
	}
}

func TestExecuteInvalidFormat(t *testing.T) {
	e := newTestExecutor(t)

	tests := []struct {
		directive string
		want      string
	}{
		{"BUY some BTC when it dips", "Invalid trade format: BUY some BTC when it dips. Expected format: 'BUY X.XX SYMBOL'"},
		{"SELL", "Invalid trade format: SELL. Expected format: 'SELL X.XX SYMBOL'"},
	}
	for _, tt := range tests {
		ok, msg := e.Execute(context.Background(), tt.directive, "")
		if ok {
			t.Errorf("%q: should not execute", tt.directive)
		}
		if msg != tt.want {
			t.Errorf("%q:\n got %q\nwant %q", tt.directive, msg, tt.want)
		}
	}
}

func TestExecuteInsufficientFunds(t *testing.T) {
	e := newTestExecutor(t)

	ok, msg := e.Execute(context.Background(), "BUY 10 BTC", "")
	if ok {
		t.Fatal("buy beyond cash should fail")
	}
	if !strings.Contains(msg, "Insufficient funds. Need $450000.00, have $50000.00") {
		t.Errorf("message: %q", msg)
	}
	if !e.Wallet().Cash().Equal(d("50000")) {
		t.Error("failed trade must leave the ledger unchanged")
	}
}

func TestExecuteUsesFallbackPrice(t *testing.T) {
	w := wallet.New(wallet.NewMemStore(), nil)
	e := New(w, pricing.NewOracle(nil, nil), nil)

	ok, msg := e.Execute(context.Background(), "SELL 2 NVDA", "")
	if !ok {
		t.Fatalf("execute: %s", msg)
	}
	// NVDA is not live-priced; the built-in fallback of $500 applies.
	if !strings.Contains(msg, "at $500.00 per unit") {
		t.Errorf("message: %q", msg)
	}
}

func TestSimulate(t *testing.T) {
	e := newTestExecutor(t)

	tests := []struct {
		name      string
		directive string
		want      []string
	}{
		{
			"hold", "HOLD",
			[]string{"📊 HOLD - Maintaining current position"},
		},
		{
			"invalid", "BUY the dip",
			[]string{"❌ Invalid trade format: BUY the dip"},
		},
		{
			"affordable buy", "BUY 0.01 BTC",
			[]string{"✅ BUY 0.010000 BTC at $45000.00 = $450.00", "Order can be executed"},
		},
		{
			"unaffordable buy", "BUY 10 BTC",
			[]string{"❌ BUY 10.000000 BTC at $45000.00 = $450000.00", "Insufficient funds"},
		},
		{
			"oversell", "SELL 5 ETH",
			[]string{"❌ SELL 5.000000 ETH at $3000.00 = $15000.00", "Insufficient ETH"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Simulate(context.Background(), tt.directive, "")
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("missing %q in:\n%s", want, got)
				}
			}
		})
	}
}

func TestSimulateDoesNotMutate(t *testing.T) {
	e := newTestExecutor(t)

	e.Simulate(context.Background(), "BUY 0.01 BTC", "")
	if !e.Wallet().Cash().Equal(d("50000")) {
		t.Error("simulate must not touch the ledger")
	}
	if !e.Wallet().HoldingAmount("BTC").Equal(d("0.1")) {
		t.Error("simulate must not touch holdings")
	}
}

func TestValuate(t *testing.T) {
	w := wallet.New(wallet.NewMemStore(), &wallet.Options{
		InitialCash: d("1000"),
		InitialHoldings: map[string]decimal.Decimal{
			"BTC": d("0.1"),
			"ETH": d("2"),
		},
	})
	oracle := pricing.NewOracle(pricing.NewStaticSource(map[string]float64{
		"BTC": 50000,
		"ETH": 2500,
	}), nil)
	e := New(w, oracle, nil)

	v, err := e.Valuate(context.Background(), "2024-05-10")
	if err != nil {
		t.Fatal(err)
	}

	if !v.CashUSD.Equal(d("1000")) {
		t.Errorf("cash: got %s, want 1000", v.CashUSD)
	}
	// 0.1×50000 + 2×2500 = 10000
	if !v.HoldingsValue.Equal(d("10000")) {
		t.Errorf("holdings value: got %s, want 10000", v.HoldingsValue)
	}
	if !v.TotalValue.Equal(d("11000")) {
		t.Errorf("total: got %s, want 11000", v.TotalValue)
	}

	if len(v.Holdings) != 2 {
		t.Fatalf("holdings: got %d entries, want 2", len(v.Holdings))
	}
	// Sorted by symbol.
	if v.Holdings[0].Symbol != "BTC" || v.Holdings[1].Symbol != "ETH" {
		t.Errorf("order: got %s, %s", v.Holdings[0].Symbol, v.Holdings[1].Symbol)
	}
	if v.Holdings[0].Quote.Origin != pricing.OriginLive {
		t.Errorf("BTC origin: got %s, want live", v.Holdings[0].Quote.Origin)
	}
}

func TestValuateSkipsZeroPositions(t *testing.T) {
	w := wallet.New(wallet.NewMemStore(), &wallet.Options{
		InitialCash: d("500"),
		InitialHoldings: map[string]decimal.Decimal{
			"BTC": d("0"),
			"ETH": d("1"),
		},
	})
	e := New(w, pricing.NewOracle(nil, nil), nil)

	v, err := e.Valuate(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.Holdings) != 1 || v.Holdings[0].Symbol != "ETH" {
		t.Errorf("holdings: got %+v, want only ETH", v.Holdings)
	}
}

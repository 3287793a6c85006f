package wallet

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"

	"github.com/okanewa/tradewallet/pkg/models"
)

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "wallet_state.json")

	_, err := store.Load()
	if !errors.Is(err, ErrNoState) {
		t.Fatalf("err: got %v, want ErrNoState", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "wallet_state.json")

	in := models.WalletState{
		CashUSD: d("49550"),
		Holdings: map[string]decimal.Decimal{
			"BTC": d("0.11"),
			"ETH": d("1"),
		},
		LastUpdated: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Save(&in); err != nil {
		t.Fatal(err)
	}

	out, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !out.CashUSD.Equal(in.CashUSD) {
		t.Errorf("cash: got %s, want %s", out.CashUSD, in.CashUSD)
	}
	if !out.Holdings["BTC"].Equal(d("0.11")) {
		t.Errorf("BTC: got %s, want 0.11", out.Holdings["BTC"])
	}
	if !out.LastUpdated.Equal(in.LastUpdated) {
		t.Errorf("last updated: got %s, want %s", out.LastUpdated, in.LastUpdated)
	}
}

func TestFileStoreDocumentLayout(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewFileStore(fsys, "wallet_state.json")

	in := models.WalletState{
		CashUSD:  d("50000"),
		Holdings: map[string]decimal.Decimal{"BTC": d("0.1")},
	}
	if err := store.Save(&in); err != nil {
		t.Fatal(err)
	}

	data, err := afero.ReadFile(fsys, "wallet_state.json")
	if err != nil {
		t.Fatal(err)
	}
	doc := string(data)
	for _, key := range []string{`"cash_usd"`, `"crypto_holdings"`, `"last_updated"`} {
		if !strings.Contains(doc, key) {
			t.Errorf("document missing key %s:\n%s", key, doc)
		}
	}
}

func TestFileStoreLoadNilHoldings(t *testing.T) {
	fsys := afero.NewMemMapFs()
	raw := `{"cash_usd":"100","last_updated":"2024-05-10T00:00:00Z"}`
	if err := afero.WriteFile(fsys, "wallet_state.json", []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(fsys, "wallet_state.json")
	state, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.Holdings == nil {
		t.Fatal("holdings map must never be nil after load")
	}
}

func TestFileStoreBackupRestore(t *testing.T) {
	fsys := afero.NewMemMapFs()
	store := NewFileStore(fsys, "wallet_state.json")

	in := models.WalletState{
		CashUSD:  d("49550"),
		Holdings: map[string]decimal.Decimal{"BTC": d("0.11")},
	}
	if err := store.Save(&in); err != nil {
		t.Fatal(err)
	}
	if err := store.Backup("backup.json"); err != nil {
		t.Fatal(err)
	}

	// Backup is a byte-for-byte copy.
	orig, _ := afero.ReadFile(fsys, "wallet_state.json")
	copied, _ := afero.ReadFile(fsys, "backup.json")
	if string(orig) != string(copied) {
		t.Error("backup differs from the live document")
	}

	// Wreck the live state, then restore.
	wrecked := models.WalletState{CashUSD: decimal.Zero, Holdings: map[string]decimal.Decimal{}}
	if err := store.Save(&wrecked); err != nil {
		t.Fatal(err)
	}

	state, err := store.Restore("backup.json")
	if err != nil {
		t.Fatal(err)
	}
	if !state.CashUSD.Equal(d("49550")) {
		t.Errorf("restored cash: got %s, want 49550", state.CashUSD)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.Holdings["BTC"].Equal(d("0.11")) {
		t.Errorf("restored BTC: got %s, want 0.11", reloaded.Holdings["BTC"])
	}
}

func TestFileStoreBackupMissingState(t *testing.T) {
	store := NewFileStore(afero.NewMemMapFs(), "wallet_state.json")

	if err := store.Backup("backup.json"); !errors.Is(err, ErrNoState) {
		t.Errorf("err: got %v, want ErrNoState", err)
	}
}

func TestFileStoreRestoreRejectsGarbage(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "bad.json", []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(fsys, "wallet_state.json")
	if _, err := store.Restore("bad.json"); err == nil {
		t.Fatal("restore must reject a file that is not a wallet document")
	}
}

func TestMemStoreRoundTrip(t *testing.T) {
	store := NewMemStore()

	if _, err := store.Load(); !errors.Is(err, ErrNoState) {
		t.Fatalf("empty load: got %v, want ErrNoState", err)
	}

	in := models.WalletState{
		CashUSD:  d("100"),
		Holdings: map[string]decimal.Decimal{"ETH": d("2")},
	}
	if err := store.Save(&in); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's copy must not leak into the store.
	in.Holdings["ETH"] = d("999")

	out, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !out.Holdings["ETH"].Equal(d("2")) {
		t.Errorf("ETH: got %s, want isolated copy 2", out.Holdings["ETH"])
	}
}

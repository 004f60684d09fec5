package portfolio

import (
	"testing"

	"github.com/Krzykoz/Savings-Tracker/date"
)

func btcBuy(d string, amount float64) Event {
	return Event{Type: Buy, Asset: NewAsset("BTC", "Bitcoin", Crypto), Amount: Q(amount), Date: date.MustParse(d)}
}

func btcSell(d string, amount float64) Event {
	return Event{Type: Sell, Asset: NewAsset("BTC", "Bitcoin", Crypto), Amount: Q(amount), Date: date.MustParse(d)}
}

func TestLedgerAddRejectsNegativeHoldings(t *testing.T) {
	l := NewLedger()
	if _, err := l.Add(btcBuy("2025-01-01", 1)); err != nil {
		t.Fatalf("Add buy: %v", err)
	}
	if _, err := l.Add(btcSell("2025-01-02", 2)); err == nil {
		t.Fatalf("expected an oversized sell to be rejected")
	}
	if l.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 (rejected sell must not mutate the ledger)", l.Count())
	}
}

func TestLedgerAddManyIsAtomic(t *testing.T) {
	l := NewLedger()
	batch := []Event{btcBuy("2025-01-01", 1), btcSell("2025-01-02", 5)}
	if _, err := l.AddMany(batch); err == nil {
		t.Fatalf("expected a batch containing an invalid sell to be rejected as a whole")
	}
	if l.Count() != 0 {
		t.Fatalf("Count() = %d, want 0 (failed batch must leave the ledger untouched)", l.Count())
	}
}

func TestLedgerRemoveToTrashRejectsIfItStrandsASell(t *testing.T) {
	l := NewLedger()
	buy, err := l.Add(btcBuy("2025-01-01", 1))
	if err != nil {
		t.Fatalf("Add buy: %v", err)
	}
	if _, err := l.Add(btcSell("2025-01-02", 1)); err != nil {
		t.Fatalf("Add sell: %v", err)
	}
	if err := l.RemoveToTrash(buy.ID); err == nil {
		t.Fatalf("expected removing the buy to be rejected, since the sell would then go negative")
	}
}

func TestLedgerUndoLastRemoval(t *testing.T) {
	l := NewLedger()
	buy, err := l.Add(btcBuy("2025-01-01", 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := l.RemoveToTrash(buy.ID); err != nil {
		t.Fatalf("RemoveToTrash: %v", err)
	}
	if l.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", l.Count())
	}
	restored, err := l.UndoLastRemoval()
	if err != nil {
		t.Fatalf("UndoLastRemoval: %v", err)
	}
	if restored.ID != buy.ID {
		t.Fatalf("restored id %v, want %v", restored.ID, buy.ID)
	}
	if l.Count() != 1 {
		t.Fatalf("Count() = %d after undo, want 1", l.Count())
	}
}

func TestLedgerImportFromJSONRegeneratesIDs(t *testing.T) {
	l := NewLedger()
	original := btcBuy("2025-01-01", 1)
	n, err := l.ImportFromJSON([]Event{original})
	if err != nil {
		t.Fatalf("ImportFromJSON: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported %d events, want 1", n)
	}
	got := l.All()[0]
	if got.ID == original.ID {
		t.Fatalf("ImportFromJSON must regenerate ids, got the same id %v", got.ID)
	}
}

func TestLedgerSortedTieBreaksByID(t *testing.T) {
	l := NewLedger()
	if _, err := l.Add(btcBuy("2025-01-01", 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := l.Add(btcBuy("2025-01-01", 2)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	out := l.Sorted(DateAsc)
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2", len(out))
	}
	// Equal dates fall back to ascending id order.
	if out[0].ID.String() > out[1].ID.String() {
		t.Fatalf("same-date events not ordered by id: %s before %s", out[0].ID, out[1].ID)
	}
	// Calling Sorted twice over unchanged state must produce the same order.
	again := l.Sorted(DateAsc)
	for i := range out {
		if out[i].ID != again[i].ID {
			t.Fatalf("Sorted is not deterministic across repeated calls")
		}
	}
}

func TestLedgerSellExactlyEqualToHoldingsSucceeds(t *testing.T) {
	l := NewLedger()
	if _, err := l.Add(btcBuy("2025-01-01", 1)); err != nil {
		t.Fatalf("Add buy: %v", err)
	}
	if _, err := l.Add(btcSell("2025-01-02", 1)); err != nil {
		t.Fatalf("selling exactly the held amount should succeed: %v", err)
	}
}

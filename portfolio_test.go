package portfolio

import (
	"encoding/json"
	"testing"

	"github.com/Krzykoz/Savings-Tracker/date"
)

func TestPortfolioMarshalUnmarshalPreservesIDs(t *testing.T) {
	p := NewPortfolio()
	ev, err := p.Ledger().Add(btcBuy("2025-01-01", 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	p.Cache().Set("BTC", "USD", date.MustParse("2025-01-01"), 42000)
	p.Settings().SetAPIKey("alphavantage", "k")

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	reloaded := NewPortfolio()
	if err := json.Unmarshal(data, reloaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	got := reloaded.Ledger().All()
	if len(got) != 1 || got[0].ID != ev.ID {
		t.Fatalf("round-trip did not preserve event id: got %+v, want id %v", got, ev.ID)
	}
	if price, ok := reloaded.Cache().Get("BTC", "USD", date.MustParse("2025-01-01")); !ok || price != 42000 {
		t.Fatalf("cache did not round-trip: got (%v, %v)", price, ok)
	}
	if reloaded.Settings().APIKey("alphavantage") != "k" {
		t.Fatalf("settings did not round-trip")
	}
	if reloaded.Dirty() {
		t.Fatalf("dirty flag must never survive a round-trip")
	}
}

func TestPortfolioImportEventsFromJSONRegeneratesIDs(t *testing.T) {
	p := NewPortfolio()
	ev, err := p.Ledger().Add(btcBuy("2025-01-01", 1))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	exported, err := p.ExportEventsToJSON()
	if err != nil {
		t.Fatalf("ExportEventsToJSON: %v", err)
	}

	fresh := NewPortfolio()
	n, err := fresh.ImportEventsFromJSON(exported)
	if err != nil {
		t.Fatalf("ImportEventsFromJSON: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported %d events, want 1", n)
	}
	if !fresh.Dirty() {
		t.Fatalf("a successful import should mark the portfolio dirty")
	}
	got := fresh.Ledger().All()[0]
	if got.ID == ev.ID {
		t.Fatalf("import should regenerate ids, got the original id %v", ev.ID)
	}
	if !got.Amount.Equal(ev.Amount) || got.Asset != ev.Asset || got.Date != ev.Date {
		t.Fatalf("imported event fields do not match the exported event: got %+v, want fields of %+v", got, ev)
	}
}

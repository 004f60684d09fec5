package portfolio

import (
	"testing"

	"github.com/Krzykoz/Savings-Tracker/date"
)

func TestExportParseEventsCSVRoundTrip(t *testing.T) {
	events := []Event{
		newEvent(Buy, NewAsset("BTC", "Bitcoin", Crypto), Q(1.5), date.MustParse("2025-01-01"), "first buy"),
		newEvent(Sell, NewAsset("ETH", "Ether", Crypto), Q(2), date.MustParse("2025-02-01"), ""),
	}

	csv, err := ExportEventsToCSV(events)
	if err != nil {
		t.Fatalf("ExportEventsToCSV: %v", err)
	}

	parsed, err := ParseEventsFromCSV(csv)
	if err != nil {
		t.Fatalf("ParseEventsFromCSV: %v", err)
	}
	if len(parsed) != len(events) {
		t.Fatalf("got %d events, want %d", len(parsed), len(events))
	}
	for i, want := range events {
		got := parsed[i]
		if got.Type != want.Type || got.Asset != want.Asset || !got.Amount.Equal(want.Amount) || got.Date != want.Date || got.Notes != want.Notes {
			t.Fatalf("event %d = %+v, want fields of %+v", i, got, want)
		}
		// The id column round-trips for readability but is ignored on
		// import: a fresh id is always assigned.
		if got.ID == want.ID {
			t.Fatalf("event %d id = %v, want a freshly generated id distinct from the export's", i, got.ID)
		}
	}
}

func TestParseEventsFromCSVIgnoresIDColumn(t *testing.T) {
	csv := "id,type,symbol,name,asset_type,amount,date,notes\nsome-garbage-id,Buy,BTC,Bitcoin,Crypto,1,2025-01-01,\n"
	events, err := ParseEventsFromCSV([]byte(csv))
	if err != nil {
		t.Fatalf("ParseEventsFromCSV: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].ID.String() == "some-garbage-id" {
		t.Fatalf("expected the id column's value to be ignored, not parsed as a uuid")
	}
}

func TestParseEventsFromCSVRejectsWrongHeader(t *testing.T) {
	_, err := ParseEventsFromCSV([]byte("a,b,c\n1,2,3\n"))
	if err == nil {
		t.Fatalf("expected a mismatched header to be rejected")
	}
}

func TestParseEventsFromCSVEmptyInput(t *testing.T) {
	events, err := ParseEventsFromCSV(nil)
	if err != nil {
		t.Fatalf("ParseEventsFromCSV(nil): %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events from empty input, want 0", len(events))
	}
}

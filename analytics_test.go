package portfolio

import (
	"context"
	"testing"

	"github.com/Krzykoz/Savings-Tracker/date"
)

func TestGetPortfolioSummaryAverageCost(t *testing.T) {
	events := []Event{
		btcBuy("2025-01-01", 1),  // cost 10000 @ price 10000
		btcBuy("2025-02-01", 1),  // cost 20000 @ price 20000
		btcSell("2025-03-01", 1), // proceeds 30000 @ price 30000
	}

	summary, err := GetPortfolioSummary(context.Background(), events, datedPrices{
		"2025-01-01": 10000,
		"2025-02-01": 20000,
		"2025-03-01": 30000,
		"today":      40000,
	}, "USD", date.MustParse("2025-04-01"))
	if err != nil {
		t.Fatalf("GetPortfolioSummary: %v", err)
	}

	if len(summary.Holdings) != 1 {
		t.Fatalf("got %d holdings, want 1 (1 BTC still held)", len(summary.Holdings))
	}
	h := summary.Holdings[0]
	if !h.Quantity.Equal(Q(1)) {
		t.Fatalf("Quantity = %v, want 1", h.Quantity)
	}
	// costBasisPerUnit = totalInvested / unitsBought = (10000+20000) / 2 = 15000
	if !h.CostBasisPerUnit.Equal(M(15000, "USD")) {
		t.Fatalf("CostBasisPerUnit = %v, want 15000 USD", h.CostBasisPerUnit)
	}
	// currentValue = 1 * 40000 = 40000; gainLoss = 40000 + 30000 - 30000 = 40000
	if !h.GainLoss.Equal(M(40000, "USD")) {
		t.Fatalf("GainLoss = %v, want 40000 USD", h.GainLoss)
	}
}

// datedPrices resolves a price by the event/as-of date string, letting a
// single test exercise buy-time, sell-time and current pricing distinctly.
type datedPrices map[string]float64

func (d datedPrices) PriceOf(_ context.Context, _ Asset, _ string, on date.Date) (float64, error) {
	if p, ok := d[on.String()]; ok {
		return p, nil
	}
	return d["today"], nil
}

func TestGetPortfolioSummaryClosedPositionExcludedFromHoldings(t *testing.T) {
	events := []Event{
		btcBuy("2025-01-01", 1),
		btcSell("2025-01-02", 1),
	}
	summary, err := GetPortfolioSummary(context.Background(), events, datedPrices{
		"2025-01-01": 10000,
		"2025-01-02": 12000,
		"today":      15000,
	}, "USD", date.MustParse("2025-02-01"))
	if err != nil {
		t.Fatalf("GetPortfolioSummary: %v", err)
	}
	if len(summary.Holdings) != 0 {
		t.Fatalf("a fully closed position should not appear in Holdings, got %d", len(summary.Holdings))
	}
	if !summary.TotalReturned.Equal(M(12000, "USD")) {
		t.Fatalf("TotalReturned = %v, want 12000 USD", summary.TotalReturned)
	}
}

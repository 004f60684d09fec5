package pricecache

import (
	"testing"
	"time"

	"github.com/Krzykoz/Savings-Tracker/date"
)

func d(y int, m, day int) date.Date { return date.New(y, time.Month(m), day) }

func TestGetSetRoundTrip(t *testing.T) {
	c := New()
	if _, ok := c.Get("btc", "usd", d(2024, 1, 1)); ok {
		t.Fatalf("Get on empty cache found a value")
	}
	c.Set("btc", "usd", d(2024, 1, 1), 40000)
	c.Set("BTC", "USD", d(2025, 1, 1), 60000)

	price, ok := c.Get("BTC", "usd", d(2024, 1, 1))
	if !ok || price != 40000 {
		t.Fatalf("Get(2024-01-01) = %v, %v want 40000, true", price, ok)
	}

	// overwrite on date collision
	c.Set("BTC", "USD", d(2024, 1, 1), 41000)
	price, ok = c.Get("BTC", "USD", d(2024, 1, 1))
	if !ok || price != 41000 {
		t.Fatalf("overwrite failed: Get = %v, %v want 41000, true", price, ok)
	}
}

func TestRangeIsContiguousAndOrdered(t *testing.T) {
	c := New()
	c.Set("ETH", "USD", d(2024, 3, 3), 3)
	c.Set("ETH", "USD", d(2024, 1, 1), 1)
	c.Set("ETH", "USD", d(2024, 2, 2), 2)

	pts := c.Range("ETH", "USD", d(2024, 1, 1), d(2024, 2, 2))
	if len(pts) != 2 {
		t.Fatalf("Range returned %d points, want 2", len(pts))
	}
	if pts[0].Price != 1 || pts[1].Price != 2 {
		t.Fatalf("Range out of order: %+v", pts)
	}
}

func TestTodayFreshness(t *testing.T) {
	c := New()
	today := d(2024, 6, 1)
	if c.IsTodayFresh("AAPL", "USD", today) {
		t.Fatalf("fresh before any mark")
	}
	c.MarkUpdatedToday("AAPL", "USD", today)
	if !c.IsTodayFresh("AAPL", "USD", today) {
		t.Fatalf("not fresh after mark")
	}
	if c.IsTodayFresh("AAPL", "USD", today.Add(1)) {
		t.Fatalf("fresh on a different day")
	}
}

func TestPruneBefore(t *testing.T) {
	c := New()
	c.Set("XAU", "USD", d(2024, 1, 1), 1900)
	c.Set("XAU", "USD", d(2024, 6, 1), 2000)
	c.MarkUpdatedToday("XAU", "USD", d(2024, 6, 1))

	removed := c.PruneBefore(d(2024, 3, 1))
	if removed != 1 {
		t.Fatalf("PruneBefore removed %d, want 1", removed)
	}
	if _, ok := c.Get("XAU", "USD", d(2024, 1, 1)); ok {
		t.Fatalf("pruned point still present")
	}
	if _, ok := c.LastUpdated[newKey("XAU", "USD")]; !ok {
		t.Fatalf("PruneBefore must not touch LastUpdated")
	}
}

// Package pricecache implements the engine's price cache: a persistent,
// per-(symbol, currency) ordered series of price points with O(log n)
// lookup, embedded inside the encrypted portfolio container so historical
// prices are fetched once and the application works fully offline
// thereafter.
//
// The series-with-binary-search shape is ported from
// github.com/etnz/portfolio/date.History, generalized here from a single
// generic value series to the (entries, lastUpdated) pair the engine's
// price cache needs.
package pricecache

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// Point is a single (date, price) sample. Price is always >= 0.
type Point struct {
	Date  date.Date `json:"date"`
	Price float64   `json:"price"`
}

// Key identifies one (symbol, currency) series in the cache. Both fields
// are uppercased before use.
type Key struct {
	Symbol   string
	Currency string
}

func newKey(symbol, currency string) Key {
	return Key{Symbol: strings.ToUpper(symbol), Currency: strings.ToUpper(currency)}
}

// MarshalText renders a Key as "SYMBOL|CURRENCY" so it can be used as a
// JSON object key via encoding/json's encoding.TextMarshaler support —
// encoding/json cannot marshal a struct-keyed map directly.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.Symbol + "|" + k.Currency), nil
}

// UnmarshalText parses the "SYMBOL|CURRENCY" form MarshalText produces.
func (k *Key) UnmarshalText(text []byte) error {
	symbol, currency, ok := strings.Cut(string(text), "|")
	if !ok {
		return fmt.Errorf("pricecache: malformed key %q", text)
	}
	k.Symbol, k.Currency = symbol, currency
	return nil
}

// Cache holds every (symbol, currency) price series known to the portfolio,
// plus freshness markers for "today" refresh tracking.
type Cache struct {
	Entries     map[Key][]Point   `json:"entries"`
	LastUpdated map[Key]date.Date `json:"lastUpdated"`

	dirty bool
}

// New returns an empty cache ready to use.
func New() *Cache {
	return &Cache{Entries: make(map[Key][]Point), LastUpdated: make(map[Key]date.Date)}
}

type chronological []Point

func (s chronological) Len() int           { return len(s) }
func (s chronological) Less(i, j int) bool { return s[i].Date.Before(s[j].Date) }
func (s chronological) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

func search(entries []Point, on date.Date) (idx int, found bool) {
	i, found := slices.BinarySearchFunc(entries, on, func(p Point, d date.Date) int {
		switch {
		case p.Date.Before(d):
			return -1
		case p.Date.After(d):
			return 1
		default:
			return 0
		}
	})
	return i, found
}

// Get returns the price for (symbol, currency, date), or false if absent.
// O(log n) via binary search, per the cache-ordering invariant that
// entries are always kept strictly increasing by date.
func (c *Cache) Get(symbol, currency string, on date.Date) (float64, bool) {
	entries := c.Entries[newKey(symbol, currency)]
	i, found := search(entries, on)
	if !found {
		return 0, false
	}
	return entries[i].Price, true
}

// Set performs a sorted insert, overwriting on a date collision, and
// updates nothing else — LastUpdated is only touched by MarkUpdatedToday,
// mirroring the engine's separation between "what we know" and "when we
// last asked a provider about today".
func (c *Cache) Set(symbol, currency string, on date.Date, price float64) {
	key := newKey(symbol, currency)
	entries := c.Entries[key]
	i, found := search(entries, on)
	if found {
		entries[i].Price = price
		c.Entries[key] = entries
		c.dirty = true
		return
	}
	entries = append(entries, Point{Date: on, Price: price})
	sort.Stable(chronological(entries))
	c.Entries[key] = entries
	c.dirty = true
}

// SetRange inserts every point of a historical range fetch in one call.
func (c *Cache) SetRange(symbol, currency string, points []Point) {
	for _, p := range points {
		c.Set(symbol, currency, p.Date, p.Price)
	}
}

// Range returns the contiguous subsequence of cached points within
// [from, to], found via two binary searches.
func (c *Cache) Range(symbol, currency string, from, to date.Date) []Point {
	entries := c.Entries[newKey(symbol, currency)]
	if len(entries) == 0 {
		return nil
	}
	start, _ := search(entries, from)
	end, foundEnd := search(entries, to)
	if foundEnd {
		end++
	}
	if start >= end {
		return nil
	}
	out := make([]Point, end-start)
	copy(out, entries[start:end])
	return out
}

// IsTodayFresh reports whether the (symbol, currency) pair was already
// refreshed today.
func (c *Cache) IsTodayFresh(symbol, currency string, today date.Date) bool {
	d, ok := c.LastUpdated[newKey(symbol, currency)]
	return ok && d == today
}

// MarkUpdatedToday records that today's price for (symbol, currency) has
// just been refreshed, so a subsequent lookup this session trusts the
// cache instead of calling a provider again.
func (c *Cache) MarkUpdatedToday(symbol, currency string, today date.Date) {
	c.LastUpdated[newKey(symbol, currency)] = today
	c.dirty = true
}

// Dirty reports whether Set, SetRange, or MarkUpdatedToday has written to
// the cache since the last ClearDirty call.
func (c *Cache) Dirty() bool { return c.dirty }

// ClearDirty resets the dirty flag, called once a write has been propagated
// to the owning portfolio's own dirty flag.
func (c *Cache) ClearDirty() { c.dirty = false }

// PruneBefore drops every point strictly before cutoff across every
// series, returning the number of points removed. It never touches
// LastUpdated.
func (c *Cache) PruneBefore(cutoff date.Date) int {
	removed := 0
	for key, entries := range c.Entries {
		i, _ := search(entries, cutoff) // first index with Date >= cutoff
		removed += i
		kept := entries[i:]
		if len(kept) == 0 {
			delete(c.Entries, key)
		} else {
			c.Entries[key] = kept
		}
	}
	return removed
}

// Clear removes every cached price point and freshness marker.
func (c *Cache) Clear() {
	c.Entries = make(map[Key][]Point)
	c.LastUpdated = make(map[Key]date.Date)
}

// TotalEntries returns the total number of cached price points across all
// (symbol, currency) pairs.
func (c *Cache) TotalEntries() int {
	n := 0
	for _, entries := range c.Entries {
		n += len(entries)
	}
	return n
}

// PairCount returns the number of distinct (symbol, currency) pairs
// currently cached.
func (c *Cache) PairCount() int { return len(c.Entries) }

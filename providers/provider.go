// Package providers implements the price-provider adapters and the
// per-asset-kind registry the resolver consults on a cache miss.
//
// The registration order table and the provider contract are ported from
// the Rust reference's providers/registry.rs and providers/traits.rs; the
// concrete HTTP client shape (timeout, JSON decode, disk response cache)
// is ported from github.com/etnz/portfolio's httputil.go (jwget, diskCache)
// and from linchengweiii-portfolios-service's provider_yahoo.go /
// provider_alphavantage.go.
package providers

import (
	"context"
	"sort"
	"time"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// Timeout bounds every provider call, per the engine's concurrency model:
// a timeout is treated as a Network failure equivalent to any other
// transport error.
const Timeout = 30 * time.Second

// Point is a single historical (date, price) sample returned by a range
// fetch.
type Point struct {
	Date  date.Date
	Price float64
}

// AssetKind mirrors the root package's AssetKind without importing it, to
// keep this package dependency-free of the domain package (the resolver
// maps the domain's kinds onto these).
type AssetKind int

const (
	Crypto AssetKind = iota
	Fiat
	Metal
	Stock
)

// Provider is a single external market-data source. Implementations must
// be safe to reuse across many calls; none of the concrete adapters here
// carry mutable state beyond an HTTP client and its response cache.
type Provider interface {
	// Name is the stable identifier used in fallback logs and Api errors.
	Name() string
	// SupportedKinds lists the asset kinds this provider can serve.
	SupportedKinds() []AssetKind
	// Ready reports whether the provider's preconditions are currently met
	// (e.g. an API key is configured). The registry only offers ready
	// providers.
	Ready() bool
	// CurrentPrice fetches today's price for symbol in currency.
	CurrentPrice(ctx context.Context, symbol, currency string) (float64, error)
	// HistoricalPrice fetches the price for symbol in currency on a past date.
	HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error)
	// PriceRange fetches every available point between from and to inclusive.
	PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]Point, error)
}

func supports(p Provider, kind AssetKind) bool {
	for _, k := range p.SupportedKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// sortPoints orders a range response chronologically; providers whose APIs
// return unordered maps (Frankfurter's time-series, metals.dev's keyed
// series) rely on this before handing points back to the resolver.
func sortPoints(points []Point) {
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
}

package resolver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/url"
	"strings"
	"testing"

	portfolio "github.com/Krzykoz/Savings-Tracker"
	"github.com/Krzykoz/Savings-Tracker/date"
	"github.com/Krzykoz/Savings-Tracker/pricecache"
	"github.com/Krzykoz/Savings-Tracker/providers"
)

type stubProvider struct {
	name  string
	kinds []providers.AssetKind
	ready bool
	usd   map[string]float64
}

func (p *stubProvider) Name() string                         { return p.name }
func (p *stubProvider) SupportedKinds() []providers.AssetKind { return p.kinds }
func (p *stubProvider) Ready() bool                           { return p.ready }

func (p *stubProvider) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	return p.HistoricalPrice(ctx, symbol, currency, date.Today())
}

// HistoricalPrice quotes symbols in USD only; for any other currency it
// answers just the USD->currency rate, looked up under the currency's code.
func (p *stubProvider) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	if currency != "USD" {
		if rate, ok := p.usd[currency]; ok && symbol == "USD" {
			return rate, nil
		}
		return 0, context.DeadlineExceeded
	}
	price, ok := p.usd[symbol]
	if !ok {
		return 0, context.DeadlineExceeded
	}
	return price, nil
}

func (p *stubProvider) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]providers.Point, error) {
	price, err := p.HistoricalPrice(ctx, symbol, currency, from)
	if err != nil {
		return nil, err
	}
	points := make([]providers.Point, 0)
	for d := from; !d.After(to); d = d.Add(1) {
		points = append(points, providers.Point{Date: d, Price: price})
	}
	return points, nil
}

func silentLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestFiatSelfQuoteIsOne(t *testing.T) {
	r := New(pricecache.New(), providers.NewRegistryFrom(nil), silentLogger())
	price, err := r.PriceOf(context.Background(), portfolio.NewAsset("USD", "US Dollar", portfolio.Fiat), "USD", date.Today())
	if err != nil || price != 1 {
		t.Fatalf("PriceOf(USD,USD) = %v, %v want 1, nil", price, err)
	}
}

func TestCacheHitSkipsProviders(t *testing.T) {
	cache := pricecache.New()
	today := date.Today()
	cache.Set("BTC", "USD", today, 50000)
	r := New(cache, providers.NewRegistryFrom(nil), silentLogger())

	price, err := r.PriceOf(context.Background(), portfolio.NewAsset("BTC", "Bitcoin", portfolio.Crypto), "USD", today)
	if err != nil || price != 50000 {
		t.Fatalf("PriceOf = %v, %v want 50000, nil", price, err)
	}
}

func TestConversionFallback(t *testing.T) {
	today := date.Today()
	crypto := &stubProvider{name: "crypto", kinds: []providers.AssetKind{providers.Crypto}, ready: true, usd: map[string]float64{"BTC": 50000}}
	fiat := &stubProvider{name: "fiat", kinds: []providers.AssetKind{providers.Fiat}, ready: true, usd: map[string]float64{"USD": 1, "EUR": 0.9}}
	r := New(pricecache.New(), providers.NewRegistryFrom([]providers.Provider{crypto, fiat}), silentLogger())

	// BTC has no direct EUR quote from the stub, but USD->EUR is available
	// via the Fiat provider, exercising the conversion fallback.
	price, err := r.PriceOf(context.Background(), portfolio.NewAsset("BTC", "Bitcoin", portfolio.Crypto), "EUR", today)
	if err != nil {
		t.Fatalf("PriceOf returned error: %v", err)
	}
	if price != 50000*0.9 {
		t.Fatalf("PriceOf(BTC,EUR) = %v, want %v", price, 50000*0.9)
	}
}

// TestProviderFallbackOrderAndCaching mirrors the stock-provider fallback
// scenario: p1 always fails, p2 answers, and the fallback result is cached
// so a second lookup never needs to consult either provider again.
func TestProviderFallbackOrderAndCaching(t *testing.T) {
	p1 := &stubProvider{name: "p1", kinds: []providers.AssetKind{providers.Stock}, ready: true, usd: map[string]float64{}}
	p2 := &stubProvider{name: "p2", kinds: []providers.AssetKind{providers.Stock}, ready: true, usd: map[string]float64{"AAPL": 190}}
	cache := pricecache.New()
	r := New(cache, providers.NewRegistryFrom([]providers.Provider{p1, p2}), silentLogger())
	on := date.MustParse("2024-05-01")
	asset := portfolio.NewAsset("AAPL", "Apple", portfolio.Stock)

	price, err := r.PriceOf(context.Background(), asset, "USD", on)
	if err != nil {
		t.Fatalf("PriceOf: %v", err)
	}
	if price != 190 {
		t.Fatalf("PriceOf = %v, want 190 (p2's value, since p1 has no AAPL quote)", price)
	}

	if _, ok := cache.Get("AAPL", "USD", on); !ok {
		t.Fatalf("expected the fallback result to be cached")
	}

	// A second call is served from the cache; neither provider is consulted.
	// p2 loses its quote, so only the cache can still answer 190.
	p2.usd = map[string]float64{}
	if price, err := r.PriceOf(context.Background(), asset, "USD", on); err != nil {
		t.Fatalf("PriceOf (cached): %v", err)
	} else if price != 190 {
		t.Fatalf("PriceOf (cached) = %v, want 190", price)
	}
}

func TestNoProviderFails(t *testing.T) {
	r := New(pricecache.New(), providers.NewRegistryFrom(nil), silentLogger())
	_, err := r.PriceOf(context.Background(), portfolio.NewAsset("AAPL", "Apple", portfolio.Stock), "USD", date.Today())
	if err == nil {
		t.Fatalf("expected an error")
	}
	ce, ok := err.(*portfolio.CoreError)
	if !ok || ce.Kind != portfolio.NoProvider {
		t.Fatalf("got %v (%T), want NoProvider CoreError", err, err)
	}
	if !strings.Contains(ce.Error(), "stock") {
		t.Fatalf("Error() = %q, want it to name the asset kind (stock)", ce.Error())
	}
}

// failingProvider always fails with err, for exercising how PriceOf
// classifies a provider's failure into the Network/Api taxonomy.
type failingProvider struct {
	name string
	kind providers.AssetKind
	err  error
}

func (p *failingProvider) Name() string                         { return p.name }
func (p *failingProvider) SupportedKinds() []providers.AssetKind { return []providers.AssetKind{p.kind} }
func (p *failingProvider) Ready() bool                           { return true }
func (p *failingProvider) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	return 0, p.err
}
func (p *failingProvider) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	return 0, p.err
}
func (p *failingProvider) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]providers.Point, error) {
	return nil, p.err
}

func TestProviderApiErrorIsClassifiedAndSanitized(t *testing.T) {
	p := &failingProvider{name: "metals.dev", kind: providers.Metal, err: errors.New("metals.dev: no quote for gold (apikey=abc123)")}
	r := New(pricecache.New(), providers.NewRegistryFrom([]providers.Provider{p}), silentLogger())

	_, err := r.PriceOf(context.Background(), portfolio.NewAsset("XAU", "Gold", portfolio.Metal), "USD", date.Today())
	ce, ok := err.(*portfolio.CoreError)
	if !ok || ce.Kind != portfolio.Api {
		t.Fatalf("got %v (%T), want an Api CoreError", err, err)
	}
	if ce.Provider != "metals.dev" {
		t.Fatalf("Provider = %q, want %q", ce.Provider, "metals.dev")
	}
	if strings.Contains(ce.Error(), "abc123") {
		t.Fatalf("Error() = %q, want the apikey value redacted", ce.Error())
	}
}

func TestProviderTransportErrorIsClassifiedAsNetworkAndRedacted(t *testing.T) {
	transportErr := &url.Error{
		Op:  "Get",
		URL: "https://api.metals.dev/v1/latest?api_key=super-secret-value&currency=USD",
		Err: errors.New("dial tcp: connection refused"),
	}
	p := &failingProvider{name: "metals.dev", kind: providers.Metal, err: transportErr}
	r := New(pricecache.New(), providers.NewRegistryFrom([]providers.Provider{p}), silentLogger())

	_, err := r.PriceOf(context.Background(), portfolio.NewAsset("XAU", "Gold", portfolio.Metal), "USD", date.Today())
	ce, ok := err.(*portfolio.CoreError)
	if !ok || ce.Kind != portfolio.Network {
		t.Fatalf("got %v (%T), want a Network CoreError", err, err)
	}
	if strings.Contains(ce.Detail, "super-secret-value") {
		t.Fatalf("Detail = %q, leaked the api_key query parameter", ce.Detail)
	}
	if !strings.Contains(ce.Detail, "api_key=<redacted>") {
		t.Fatalf("Detail = %q, want the api_key parameter replaced with a redacted marker", ce.Detail)
	}
}

func TestFetchMarksCacheDirty(t *testing.T) {
	cache := pricecache.New()
	p := &stubProvider{name: "p", kinds: []providers.AssetKind{providers.Crypto}, ready: true, usd: map[string]float64{"BTC": 123}}
	r := New(cache, providers.NewRegistryFrom([]providers.Provider{p}), silentLogger())

	if cache.Dirty() {
		t.Fatalf("a fresh cache should not start dirty")
	}
	if _, err := r.PriceOf(context.Background(), portfolio.NewAsset("BTC", "Bitcoin", portfolio.Crypto), "USD", date.Today()); err != nil {
		t.Fatalf("PriceOf: %v", err)
	}
	if !cache.Dirty() {
		t.Fatalf("a provider fetch that wrote to the cache should leave it dirty")
	}
}

// countingProvider counts how many times it was asked for a price, so a
// test can assert whether RefreshPrices actually goes back to the provider
// or is satisfied by an already-cached value.
type countingProvider struct {
	name  string
	kind  providers.AssetKind
	price float64
	calls int
}

func (p *countingProvider) Name() string                         { return p.name }
func (p *countingProvider) SupportedKinds() []providers.AssetKind { return []providers.AssetKind{p.kind} }
func (p *countingProvider) Ready() bool                           { return true }
func (p *countingProvider) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	p.calls++
	return p.price, nil
}
func (p *countingProvider) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	p.calls++
	return p.price, nil
}
func (p *countingProvider) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]providers.Point, error) {
	return nil, errors.New("not used in this test")
}

func TestRefreshPricesBypassesCacheForToday(t *testing.T) {
	today := date.Today()
	cache := pricecache.New()
	cache.Set("BTC", "USD", today, 100) // stale from an earlier session
	cache.ClearDirty()

	p := &countingProvider{name: "p", kind: providers.Crypto, price: 200}
	r := New(cache, providers.NewRegistryFrom([]providers.Provider{p}), silentLogger())

	asset := portfolio.NewAsset("BTC", "Bitcoin", portfolio.Crypto)
	if err := r.RefreshPrices(context.Background(), []portfolio.Asset{asset}, "USD"); err != nil {
		t.Fatalf("RefreshPrices: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider was called %d times, want exactly 1 (refresh must not be short-circuited by the cache)", p.calls)
	}
	price, ok := cache.Get("BTC", "USD", today)
	if !ok || price != 200 {
		t.Fatalf("cache.Get after refresh = (%v, %v), want (200, true)", price, ok)
	}
	if !cache.Dirty() {
		t.Fatalf("RefreshPrices should leave the cache marked dirty")
	}

	// PriceOf afterward is now a cache hit and makes no further provider call.
	if _, err := r.PriceOf(context.Background(), asset, "USD", today); err != nil {
		t.Fatalf("PriceOf: %v", err)
	}
	if p.calls != 1 {
		t.Fatalf("provider was called %d times after the refresh, want still 1", p.calls)
	}
}

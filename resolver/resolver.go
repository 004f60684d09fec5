// Package resolver implements the cache-first, provider-fallback,
// currency-conversion-fallback price resolution pipeline, ported from
// original_source's services/price_service.rs and services/currency_service.rs.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"

	portfolio "github.com/Krzykoz/Savings-Tracker"
	"github.com/Krzykoz/Savings-Tracker/date"
	"github.com/Krzykoz/Savings-Tracker/pricecache"
	"github.com/Krzykoz/Savings-Tracker/providers"
)

// nativeBase is the currency every non-Fiat provider in this module quotes
// in (CoinCap, metals.dev, YahooFinance and AlphaVantage all return USD, or
// a stock's native listing currency which we treat as USD for the
// conversion fallback, matching the Rust reference's default).
const nativeBase = "USD"

// Resolver resolves asset prices against a shared cache, falling back to
// registered providers and, as a last resort, to a same-day currency
// conversion through nativeBase.
type Resolver struct {
	Cache    *pricecache.Cache
	Registry *providers.Registry
	Logger   *log.Logger
}

func New(cache *pricecache.Cache, registry *providers.Registry, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	return &Resolver{Cache: cache, Registry: registry, Logger: logger}
}

func assetKindFor(k portfolio.AssetKind) providers.AssetKind {
	switch k {
	case portfolio.Crypto:
		return providers.Crypto
	case portfolio.Fiat:
		return providers.Fiat
	case portfolio.Metal:
		return providers.Metal
	case portfolio.Stock:
		return providers.Stock
	default:
		panic(fmt.Sprintf("resolver: unhandled asset kind %v", k))
	}
}

// PriceOf resolves asset's price on date in currency, following the
// cache-first / provider-fallback / conversion-fallback algorithm.
func (r *Resolver) PriceOf(ctx context.Context, asset portfolio.Asset, currency string, on date.Date) (float64, error) {
	if asset.Kind == portfolio.Fiat && asset.Symbol == currency {
		return 1, nil
	}
	if price, ok := r.Cache.Get(asset.Symbol, currency, on); ok {
		return price, nil
	}
	return r.fetch(ctx, asset, currency, on)
}

// fetch resolves asset's price via provider fallback and, failing that,
// currency conversion, bypassing any cache read — the cache is still
// written through on success. Used directly by PriceOf on a cache miss and
// by RefreshPrices, which must re-consult providers for today regardless of
// what is already cached.
func (r *Resolver) fetch(ctx context.Context, asset portfolio.Asset, currency string, on date.Date) (float64, error) {
	kind := assetKindFor(asset.Kind)
	candidates := r.Registry.For(kind)
	if len(candidates) == 0 {
		return 0, &portfolio.CoreError{Kind: portfolio.NoProvider, Symbol: asset.Symbol, Currency: currency, Detail: asset.Kind.String()}
	}

	today := date.Today()
	var lastErr error
	for _, p := range candidates {
		price, err := fetchOn(ctx, p, asset.Symbol, currency, on, today)
		if err != nil {
			lastErr = classifyProviderError(p.Name(), err)
			r.Logger.Printf("resolver: provider %s failed for %s/%s on %s: %v", p.Name(), asset.Symbol, currency, on, lastErr)
			continue
		}
		r.Cache.Set(asset.Symbol, currency, on, price)
		if on == today {
			r.Cache.MarkUpdatedToday(asset.Symbol, currency, today)
		}
		return price, nil
	}

	if asset.Kind != portfolio.Fiat {
		if price, err := r.convertThroughBase(ctx, asset, currency, on, today); err == nil {
			return price, nil
		}
	}

	if lastErr != nil {
		return 0, lastErr
	}
	return 0, &portfolio.CoreError{Kind: portfolio.PriceNotAvailable, Symbol: asset.Symbol, Currency: currency, Date: on.String()}
}

// classifyProviderError sorts a provider's raw error into the engine's
// taxonomy: a *url.Error means the transport itself failed (DNS, dial,
// timeout, TLS) before the provider ever answered, which is a Network
// failure; anything else means the provider was reached and spoke back with
// a failure of its own, which is an Api failure. Both paths sanitize the
// message, since a transport error's message embeds the request URL
// (and therefore any api_key=/apikey= query parameter) verbatim.
func classifyProviderError(provider string, err error) error {
	var netErr *url.Error
	if errors.As(err, &netErr) {
		return portfolio.NetworkError(err)
	}
	return portfolio.ApiError(provider, err)
}

// convertThroughBase fetches the asset's native-currency price (cached
// under nativeBase) and multiplies by the FX rate from nativeBase to
// currency, both independently cacheable.
func (r *Resolver) convertThroughBase(ctx context.Context, asset portfolio.Asset, currency string, on, today date.Date) (float64, error) {
	if currency == nativeBase {
		return 0, errors.New("resolver: conversion fallback only applies when currency differs from the native base")
	}
	native, err := r.PriceOf(ctx, asset, nativeBase, on)
	if err != nil {
		return 0, err
	}
	rate, err := r.PriceOf(ctx, portfolio.NewAsset(nativeBase, nativeBase, portfolio.Fiat), currency, on)
	if err != nil {
		return 0, err
	}
	price := native * rate
	r.Cache.Set(asset.Symbol, currency, on, price)
	if on == today {
		r.Cache.MarkUpdatedToday(asset.Symbol, currency, today)
	}
	return price, nil
}

func fetchOn(ctx context.Context, p providers.Provider, symbol, currency string, on, today date.Date) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, providers.Timeout)
	defer cancel()
	if on == today {
		return p.CurrentPrice(ctx, symbol, currency)
	}
	return p.HistoricalPrice(ctx, symbol, currency, on)
}

// PriceRange returns every cached or fetchable (date, price) point between
// from and to inclusive, filling cache gaps from the first provider that
// answers.
func (r *Resolver) PriceRange(ctx context.Context, asset portfolio.Asset, currency string, from, to date.Date) ([]pricecache.Point, error) {
	// Best-effort freshness check: a cached range that already spans the
	// requested endpoints is assumed complete rather than re-verified
	// point-by-point, since providers are only ever asked to fill gaps,
	// never to overwrite already-cached dates.
	if cached := r.Cache.Range(asset.Symbol, currency, from, to); len(cached) > 0 {
		if cached[0].Date == from && cached[len(cached)-1].Date == to {
			return cached, nil
		}
	}

	kind := assetKindFor(asset.Kind)
	var lastErr error
	for _, p := range r.Registry.For(kind) {
		ctx, cancel := context.WithTimeout(ctx, providers.Timeout)
		points, err := p.PriceRange(ctx, asset.Symbol, currency, from, to)
		cancel()
		if err != nil {
			lastErr = classifyProviderError(p.Name(), err)
			continue
		}
		for _, pt := range points {
			if _, ok := r.Cache.Get(asset.Symbol, currency, pt.Date); ok {
				continue
			}
			r.Cache.Set(asset.Symbol, currency, pt.Date, pt.Price)
		}
		return r.Cache.Range(asset.Symbol, currency, from, to), nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, &portfolio.CoreError{Kind: portfolio.NoProvider, Symbol: asset.Symbol, Currency: currency, Detail: asset.Kind.String()}
}

// RefreshPrices unconditionally re-fetches today's price for every asset in
// holdings, per the today-refresh policy: historical dates are never
// re-fetched once present, but today's quote is always considered stale
// until refreshed again — so this bypasses the cache read PriceOf would
// otherwise short-circuit on, via fetch directly.
func (r *Resolver) RefreshPrices(ctx context.Context, holdings []portfolio.Asset, currency string) error {
	today := date.Today()
	var firstErr error
	for _, asset := range holdings {
		if asset.Kind == portfolio.Fiat && asset.Symbol == currency {
			continue
		}
		if _, err := r.fetch(ctx, asset, currency, today); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Package engine wires the domain ledger, the price cache, the provider
// registry, the resolver, and the encrypted container behind one struct:
// the single entry point a host application holds onto for the lifetime
// of one open portfolio, mirroring the teacher's top-level Ledger as sole
// entry point and original_source's lib.rs SavingsTracker facade.
package engine

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"

	portfolio "github.com/Krzykoz/Savings-Tracker"
	"github.com/Krzykoz/Savings-Tracker/container"
	"github.com/Krzykoz/Savings-Tracker/date"
	"github.com/Krzykoz/Savings-Tracker/pricecache"
	"github.com/Krzykoz/Savings-Tracker/providers"
	"github.com/Krzykoz/Savings-Tracker/resolver"
)

// Engine owns one Portfolio plus the resolver wired over its cache. Not
// safe for concurrent use: callers serialize access themselves, the same
// contract etnz-portfolio's Ledger documents rather than enforces.
type Engine struct {
	portfolio *portfolio.Portfolio
	resolver  *resolver.Resolver
	Logger    *log.Logger
}

func registryFor(s *portfolio.Settings) *providers.Registry {
	return providers.NewRegistry(providers.Config{
		MetalsDevAPIKey:    s.APIKey("metals_dev"),
		AlphaVantageAPIKey: s.APIKey("alphavantage"),
	})
}

// New returns an Engine over a fresh, empty portfolio.
func New() *Engine {
	logger := log.Default()
	p := portfolio.NewPortfolio()
	r := resolver.New(p.Cache(), registryFor(p.Settings()), logger)
	return &Engine{portfolio: p, resolver: r, Logger: logger}
}

// Open decrypts data with password and rebuilds an Engine over the
// recovered portfolio, rebuilding the provider registry from its
// restored settings' API keys.
func Open(data []byte, password string) (*Engine, error) {
	plaintext, err := container.Open(data, password)
	if err != nil {
		return nil, err
	}
	p := portfolio.NewPortfolio()
	if err := json.Unmarshal(plaintext, p); err != nil {
		return nil, portfolio.NewError(portfolio.Deserialization, err.Error())
	}
	logger := log.Default()
	r := resolver.New(p.Cache(), registryFor(p.Settings()), logger)
	return &Engine{portfolio: p, resolver: r, Logger: logger}, nil
}

// Save serializes and encrypts the current portfolio under password,
// clearing the dirty flag on success.
func (e *Engine) Save(password string) ([]byte, error) {
	plaintext, err := json.Marshal(e.portfolio)
	if err != nil {
		return nil, portfolio.NewError(portfolio.Serialization, err.Error())
	}
	data, err := container.Save(plaintext, password)
	if err != nil {
		return nil, err
	}
	e.portfolio.ClearDirty()
	return data, nil
}

// ChangePassword re-encrypts a saved container under newPassword without
// opening it as an Engine, for hosts that only hold the file bytes.
func ChangePassword(data []byte, oldPassword, newPassword string) ([]byte, error) {
	return container.ChangePassword(data, oldPassword, newPassword)
}

// ChangePassword verifies oldPassword against the container data was
// originally opened from, then re-encrypts under newPassword the engine's
// current in-memory portfolio rather than the stale bytes on disk, so any
// mutation made since Open is carried into the new container instead of
// silently dropped.
func (e *Engine) ChangePassword(data []byte, oldPassword, newPassword string) ([]byte, error) {
	if _, err := container.Open(data, oldPassword); err != nil {
		return nil, err
	}
	return e.Save(newPassword)
}

func (e *Engine) Ledger() *portfolio.Ledger     { return e.portfolio.Ledger() }
func (e *Engine) Cache() *pricecache.Cache      { return e.portfolio.Cache() }
func (e *Engine) Settings() *portfolio.Settings { return e.portfolio.Settings() }
func (e *Engine) Dirty() bool                   { return e.portfolio.Dirty() }

// SetAPIKey stores provider's API key and rebuilds the registry so the
// change takes effect on the next price lookup, per the registry's
// rebuilt-whenever-a-key-changes contract.
func (e *Engine) SetAPIKey(provider, key string) {
	e.portfolio.Settings().SetAPIKey(provider, key)
	e.portfolio.MarkDirty()
	e.resolver.Registry = registryFor(e.portfolio.Settings())
}

// SetDefaultCurrency validates and updates the portfolio's display
// currency.
func (e *Engine) SetDefaultCurrency(currency string) error {
	if err := e.portfolio.Settings().SetDefaultCurrency(currency); err != nil {
		return err
	}
	e.portfolio.MarkDirty()
	return nil
}

// AddEvent validates and appends a buy or sell, marking the portfolio
// dirty on success.
func (e *Engine) AddEvent(t portfolio.EventType, asset portfolio.Asset, amount portfolio.Quantity, on date.Date, notes string) (portfolio.Event, error) {
	ev, err := e.portfolio.Ledger().Add(portfolio.Event{Type: t, Asset: asset, Amount: amount, Date: on, Notes: notes})
	if err != nil {
		return portfolio.Event{}, err
	}
	e.portfolio.MarkDirty()
	return ev, nil
}

// RemoveEvent soft-deletes an event by id.
func (e *Engine) RemoveEvent(id uuid.UUID) error {
	if err := e.portfolio.Ledger().RemoveToTrash(id); err != nil {
		return err
	}
	e.portfolio.MarkDirty()
	return nil
}

// UpdateEvent replaces an existing event's asset/amount/date/notes,
// preserving its id.
func (e *Engine) UpdateEvent(id uuid.UUID, asset portfolio.Asset, amount portfolio.Quantity, on date.Date, notes string) (portfolio.Event, error) {
	ev, err := e.portfolio.Ledger().Update(id, asset, amount, on, notes)
	if err != nil {
		return portfolio.Event{}, err
	}
	e.portfolio.MarkDirty()
	return ev, nil
}

// UndoLastRemoval restores the most recently trashed event.
func (e *Engine) UndoLastRemoval() (portfolio.Event, error) {
	ev, err := e.portfolio.Ledger().UndoLastRemoval()
	if err != nil {
		return portfolio.Event{}, err
	}
	e.portfolio.MarkDirty()
	return ev, nil
}

// propagateCacheDirty carries a write the resolver made to the shared price
// cache over to the portfolio's own dirty flag. The resolver writes through
// the cache on every successful provider fetch or currency conversion
// (resolver.go's PriceOf/RefreshPrices), but has no reference to the
// portfolio to mark it dirty itself, so every engine entry point that calls
// into the resolver checks this afterward.
func (e *Engine) propagateCacheDirty() {
	if e.portfolio.Cache().Dirty() {
		e.portfolio.Cache().ClearDirty()
		e.portfolio.MarkDirty()
	}
}

// RefreshPrices unconditionally re-fetches today's price for every
// currently held asset in currency, bypassing any cached value for today.
func (e *Engine) RefreshPrices(ctx context.Context, currency string) error {
	on := date.Today()
	holdings := holdingIdentitiesWithAsset(e.portfolio.Ledger().All(), on)
	err := e.resolver.RefreshPrices(ctx, holdings, currency)
	e.propagateCacheDirty()
	return err
}

// PriceOf resolves a single asset's price, cache-first with provider and
// conversion fallback.
func (e *Engine) PriceOf(ctx context.Context, asset portfolio.Asset, currency string, on date.Date) (float64, error) {
	price, err := e.resolver.PriceOf(ctx, asset, currency, on)
	e.propagateCacheDirty()
	return price, err
}

// Summary computes cost-basis and valuation analytics in currency as of
// on.
func (e *Engine) Summary(ctx context.Context, currency string, on date.Date) (*portfolio.PortfolioSummary, error) {
	summary, err := portfolio.GetPortfolioSummary(ctx, e.portfolio.Ledger().All(), e.resolver, currency, on)
	e.propagateCacheDirty()
	return summary, err
}

// PortfolioChart values the whole portfolio day by day over [from, to].
func (e *Engine) PortfolioChart(ctx context.Context, currency string, from, to date.Date) ([]portfolio.ChartDataPoint, error) {
	points, err := portfolio.PortfolioChart(ctx, e.portfolio.Ledger().All(), e.resolver, currency, from, to)
	e.propagateCacheDirty()
	return points, err
}

// AssetChart values a single symbol's holdings day by day over [from, to].
func (e *Engine) AssetChart(ctx context.Context, currency, symbol string, from, to date.Date) ([]portfolio.ChartDataPoint, error) {
	points, err := portfolio.AssetChart(ctx, e.portfolio.Ledger().All(), e.resolver, currency, symbol, from, to)
	e.propagateCacheDirty()
	return points, err
}

// ExportEventsToJSON / ExportEventsToCSV / ImportEventsFromJSON /
// ImportEventsFromCSV delegate to the domain core's import/export
// operations, marking the portfolio dirty on a successful import.

func (e *Engine) ExportEventsToJSON() ([]byte, error) { return e.portfolio.ExportEventsToJSON() }

func (e *Engine) ExportEventsToCSV() ([]byte, error) {
	return portfolio.ExportEventsToCSV(e.portfolio.Ledger().All())
}

func (e *Engine) ImportEventsFromJSON(data []byte) (int, error) {
	return e.portfolio.ImportEventsFromJSON(data)
}

func (e *Engine) ImportEventsFromCSV(data []byte) (int, error) {
	events, err := portfolio.ParseEventsFromCSV(data)
	if err != nil {
		return 0, err
	}
	n, err := e.portfolio.Ledger().ImportFromJSON(events)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.portfolio.MarkDirty()
	}
	return n, nil
}

func holdingIdentitiesWithAsset(events []portfolio.Event, on date.Date) []portfolio.Asset {
	seen := make(map[portfolio.Identity]bool)
	balance := make(map[portfolio.Identity]portfolio.Quantity)
	var out []portfolio.Asset
	for _, e := range events {
		if e.Date.After(on) {
			continue
		}
		id := e.Asset.Identity()
		if !seen[id] {
			seen[id] = true
			out = append(out, e.Asset)
		}
		if e.Type == portfolio.Sell {
			balance[id] = balance[id].Sub(e.Amount)
		} else {
			balance[id] = balance[id].Add(e.Amount)
		}
	}
	held := out[:0]
	for _, a := range out {
		if balance[a.Identity()].GreaterThan(portfolio.Q(1e-10)) {
			held = append(held, a)
		}
	}
	return held
}

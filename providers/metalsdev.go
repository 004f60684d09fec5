package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// metalNames maps the symbols this provider recognizes to the metal name
// metals.dev keys its JSON responses by. Unrecognized symbols are not
// served by this provider.
var metalNames = map[string]string{
	"XAU": "gold",
	"XAG": "silver",
	"XPT": "platinum",
	"XPD": "palladium",
}

// MetalsDev is the sole Metal provider, gated on an API key configured in
// Settings; the registry omits it entirely when no key is present.
//
// Like CoinCap, it always quotes in USD — cross-currency conversion to the
// portfolio's target currency happens one layer up, via the resolver's
// Frankfurter-backed conversion fallback.
type MetalsDev struct {
	apiKey string
	client *http.Client
}

func NewMetalsDev(apiKey string) *MetalsDev {
	return &MetalsDev{apiKey: apiKey, client: dailyClient()}
}

func (p *MetalsDev) Name() string               { return "metals.dev" }
func (p *MetalsDev) SupportedKinds() []AssetKind { return []AssetKind{Metal} }
func (p *MetalsDev) Ready() bool                 { return p.apiKey != "" }

func (p *MetalsDev) metalName(symbol string) (string, error) {
	name, ok := metalNames[strings.ToUpper(symbol)]
	if !ok {
		return "", fmt.Errorf("metals.dev: unsupported symbol %s", symbol)
	}
	return name, nil
}

func (p *MetalsDev) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	name, err := p.metalName(symbol)
	if err != nil {
		return 0, err
	}
	addr := fmt.Sprintf("https://api.metals.dev/v1/latest?api_key=%s&currency=USD&unit=toz", p.apiKey)
	var out struct {
		Metals map[string]json.Number `json:"metals"`
	}
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, err
	}
	value, ok := out.Metals[name]
	if !ok {
		return 0, fmt.Errorf("metals.dev: no quote for %s", name)
	}
	price, err := value.Float64()
	if err != nil {
		return 0, fmt.Errorf("metals.dev: invalid price for %s: %w", name, err)
	}
	return price, nil
}

func (p *MetalsDev) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	name, err := p.metalName(symbol)
	if err != nil {
		return 0, err
	}
	addr := fmt.Sprintf("https://api.metals.dev/v1/timeseries?api_key=%s&currency=USD&unit=toz&start_date=%s&end_date=%s",
		p.apiKey, on, on)
	price, ok, err := p.fetchSeries(ctx, addr, name)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("metals.dev: no historical price for %s on %s", symbol, on)
	}
	return price, nil
}

func (p *MetalsDev) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]Point, error) {
	name, err := p.metalName(symbol)
	if err != nil {
		return nil, err
	}
	addr := fmt.Sprintf("https://api.metals.dev/v1/timeseries?api_key=%s&currency=USD&unit=toz&start_date=%s&end_date=%s",
		p.apiKey, from, to)
	var out struct {
		Rates map[string]map[string]json.Number `json:"rates"`
	}
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(out.Rates))
	for day, metals := range out.Rates {
		value, ok := metals[name]
		if !ok {
			continue
		}
		price, err := value.Float64()
		if err != nil {
			continue
		}
		parsed, err := date.Parse(day)
		if err != nil {
			continue
		}
		points = append(points, Point{Date: parsed, Price: price})
	}
	sortPoints(points)
	return points, nil
}

// fetchSeries issues a single-day timeseries request and extracts name's
// quote, used by HistoricalPrice since metals.dev has no single-day
// historical endpoint distinct from its range endpoint.
func (p *MetalsDev) fetchSeries(ctx context.Context, addr, name string) (float64, bool, error) {
	var out struct {
		Rates map[string]map[string]json.Number `json:"rates"`
	}
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, false, err
	}
	for _, metals := range out.Rates {
		if value, ok := metals[name]; ok {
			price, err := value.Float64()
			if err != nil {
				return 0, false, fmt.Errorf("metals.dev: invalid price for %s: %w", name, err)
			}
			return price, true, nil
		}
	}
	return 0, false, nil
}

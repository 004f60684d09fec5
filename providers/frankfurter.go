package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// Frankfurter is the sole Fiat provider. It requires no API key, matching
// the Rust reference's unconditional registration for AssetType::Fiat.
//
// Unlike the other providers, symbol here names the *base* currency and
// currency names the *target* currency: Frankfurter is a currency-pair
// exchange-rate service, not an asset-price service, so a "fiat asset" is
// always quoted against another fiat currency.
type Frankfurter struct {
	client *http.Client
}

func NewFrankfurter() *Frankfurter {
	return &Frankfurter{client: dailyClient()}
}

func (p *Frankfurter) Name() string               { return "frankfurter" }
func (p *Frankfurter) SupportedKinds() []AssetKind { return []AssetKind{Fiat} }
func (p *Frankfurter) Ready() bool                 { return true }

type frankfurterLatestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func (p *Frankfurter) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	base, target := strings.ToUpper(symbol), strings.ToUpper(currency)
	if base == target {
		return 1, nil
	}
	addr := fmt.Sprintf("https://api.frankfurter.dev/v1/latest?base=%s&symbols=%s", base, target)
	var out frankfurterLatestResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, err
	}
	rate, ok := out.Rates[target]
	if !ok {
		return 0, fmt.Errorf("frankfurter: no rate %s->%s", base, target)
	}
	return rate, nil
}

func (p *Frankfurter) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	base, target := strings.ToUpper(symbol), strings.ToUpper(currency)
	if base == target {
		return 1, nil
	}
	addr := fmt.Sprintf("https://api.frankfurter.dev/v1/%s?base=%s&symbols=%s", on, base, target)
	var out frankfurterLatestResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, err
	}
	rate, ok := out.Rates[target]
	if !ok {
		return 0, fmt.Errorf("frankfurter: no rate %s->%s on %s", base, target, on)
	}
	return rate, nil
}

type frankfurterTimeSeriesResponse struct {
	Rates map[string]map[string]float64 `json:"rates"`
}

func (p *Frankfurter) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]Point, error) {
	base, target := strings.ToUpper(symbol), strings.ToUpper(currency)
	if base == target {
		points := make([]Point, 0)
		for d := from; !d.After(to); d = d.Add(1) {
			points = append(points, Point{Date: d, Price: 1})
		}
		return points, nil
	}
	addr := fmt.Sprintf("https://api.frankfurter.dev/v1/%s..%s?base=%s&symbols=%s", from, to, base, target)
	var out frankfurterTimeSeriesResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(out.Rates))
	for day, rates := range out.Rates {
		rate, ok := rates[target]
		if !ok {
			continue
		}
		parsed, err := date.Parse(day)
		if err != nil {
			continue
		}
		points = append(points, Point{Date: parsed, Price: rate})
	}
	sortPoints(points)
	return points, nil
}

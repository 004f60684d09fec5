package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// YahooFinance is the native-only Stock provider, registered
// ahead of AlphaVantage since it needs no API key. It is omitted on wasm
// builds (see NewRegistry), mirroring the Rust reference's
// #[cfg(not(target_arch = "wasm32"))] gate on its yahoo_finance_api-backed
// adapter — that crate depends on native reqwest/tokio.
//
// It talks to Yahoo's unofficial v8 chart endpoint rather than a Rust-style
// dedicated client crate; the response shape is ported from
// linchengweiii-portfolios-service's provider_yahoo.go.
type YahooFinance struct {
	client *http.Client
}

func NewYahooFinance() *YahooFinance { return &YahooFinance{client: dailyClient()} }

func (p *YahooFinance) Name() string               { return "yahoofinance" }
func (p *YahooFinance) SupportedKinds() []AssetKind { return []AssetKind{Stock} }
func (p *YahooFinance) Ready() bool                 { return true }

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (p *YahooFinance) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	addr := fmt.Sprintf("https://query2.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=1d",
		strings.ToUpper(symbol))
	var out yahooChartResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, err
	}
	if len(out.Chart.Result) == 0 {
		return 0, fmt.Errorf("yahoofinance: no result for %s", symbol)
	}
	price := out.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, fmt.Errorf("yahoofinance: no quote for %s", symbol)
	}
	return price, nil
}

func (p *YahooFinance) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	// Widen the window by a few days to ride over weekends/holidays, then
	// pick the closest trading day, as the Rust reference does.
	points, err := p.PriceRange(ctx, symbol, currency, on.Add(-3), on.Add(3))
	if err != nil {
		return 0, err
	}
	best, found := 0.0, false
	bestDist := -1
	for _, pt := range points {
		dist := dayDistance(pt.Date, on)
		if !found || dist < bestDist {
			best, bestDist, found = pt.Price, dist, true
		}
	}
	if !found {
		return 0, fmt.Errorf("yahoofinance: no historical price for %s on %s", symbol, on)
	}
	return best, nil
}

func (p *YahooFinance) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]Point, error) {
	addr := fmt.Sprintf("https://query2.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		strings.ToUpper(symbol), millis(from)/1000, millis(to.Add(1))/1000)
	var out yahooChartResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return nil, err
	}
	if len(out.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoofinance: no result for %s", symbol)
	}
	result := out.Chart.Result[0]
	var closes []float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	points := make([]Point, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] <= 0 {
			continue
		}
		y, m, day := time.Unix(ts, 0).UTC().Date()
		d := date.New(y, m, day)
		if d.Before(from) || d.After(to) {
			continue
		}
		points = append(points, Point{Date: d, Price: closes[i]})
	}
	return points, nil
}

// dayDistance returns the absolute number of calendar days between a and b.
func dayDistance(a, b date.Date) int {
	n := 0
	for a.Before(b) {
		a, n = a.Add(1), n+1
	}
	for b.Before(a) {
		b, n = b.Add(1), n+1
	}
	return n
}

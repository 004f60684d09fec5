package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// AlphaVantage is the second Stock provider, tried after YahooFinance on
// native builds and alone on wasm (AlphaVantage's plain HTTPS calls have
// no native-only dependency). It is gated on an API key, and its free tier
// is scarce (25 requests/day across every endpoint), so the resolver
// should only fall back to it on a cache miss that YahooFinance couldn't
// fill.
type AlphaVantage struct {
	apiKey string
	client *http.Client
}

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

func NewAlphaVantage(apiKey string) *AlphaVantage {
	return &AlphaVantage{apiKey: apiKey, client: dailyClient()}
}

func (p *AlphaVantage) Name() string               { return "alphavantage" }
func (p *AlphaVantage) SupportedKinds() []AssetKind { return []AssetKind{Stock} }
func (p *AlphaVantage) Ready() bool                 { return p.apiKey != "" }

type alphaVantageQuoteResponse struct {
	GlobalQuote struct {
		Price string `json:"05. price"`
	} `json:"Global Quote"`
}

func (p *AlphaVantage) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	addr := fmt.Sprintf("%s?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		alphaVantageBaseURL, strings.ToUpper(symbol), p.apiKey)
	var out alphaVantageQuoteResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, err
	}
	if out.GlobalQuote.Price == "" {
		return 0, fmt.Errorf("alphavantage: no quote for %s; daily limit may be exceeded", symbol)
	}
	price, err := strconv.ParseFloat(out.GlobalQuote.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("alphavantage: invalid price for %s: %w", symbol, err)
	}
	return price, nil
}

func (p *AlphaVantage) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	series, err := p.fetchDailySeries(ctx, symbol)
	if err != nil {
		return 0, err
	}
	daily, ok := series[on.String()]
	if !ok {
		return 0, fmt.Errorf("alphavantage: no historical price for %s on %s", symbol, on)
	}
	price, err := strconv.ParseFloat(daily.Close, 64)
	if err != nil {
		return 0, fmt.Errorf("alphavantage: invalid price for %s on %s: %w", symbol, on, err)
	}
	return price, nil
}

func (p *AlphaVantage) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]Point, error) {
	series, err := p.fetchDailySeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(series))
	for day, daily := range series {
		parsed, err := date.Parse(day)
		if err != nil {
			continue
		}
		if parsed.Before(from) || parsed.After(to) {
			continue
		}
		price, err := strconv.ParseFloat(daily.Close, 64)
		if err != nil {
			continue
		}
		points = append(points, Point{Date: parsed, Price: price})
	}
	sortPoints(points)
	return points, nil
}

type alphaVantageDaily struct {
	Close string `json:"4. close"`
}

type alphaVantageSeriesResponse struct {
	TimeSeries map[string]alphaVantageDaily `json:"Time Series (Daily)"`
}

// fetchDailySeries fetches the last ~100 trading days of closes, the
// "compact" output size, matching the Rust reference's strategy of caching
// aggressively against a 25-request daily quota.
func (p *AlphaVantage) fetchDailySeries(ctx context.Context, symbol string) (map[string]alphaVantageDaily, error) {
	addr := fmt.Sprintf("%s?function=TIME_SERIES_DAILY&symbol=%s&outputsize=compact&apikey=%s",
		alphaVantageBaseURL, strings.ToUpper(symbol), p.apiKey)
	var out alphaVantageSeriesResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return nil, err
	}
	if out.TimeSeries == nil {
		return nil, fmt.Errorf("alphavantage: no time series for %s; daily limit may be exceeded", symbol)
	}
	return out.TimeSeries, nil
}

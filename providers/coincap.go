package providers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// CoinCap is the sole Crypto provider. No API key is required, matching
// the Rust reference's unconditional registration of CoinCap for
// AssetType::Crypto.
//
// CoinCap always quotes in USD; cross-currency conversion to any other
// target currency is the resolver's job (see resolver's conversion
// fallback), exactly as the Rust reference's currency_service calls
// get_current_price with currency fixed to "USD" for non-fiat assets.
type CoinCap struct {
	client *http.Client
}

func NewCoinCap() *CoinCap { return &CoinCap{client: dailyClient()} }

func (p *CoinCap) Name() string               { return "coincap" }
func (p *CoinCap) SupportedKinds() []AssetKind { return []AssetKind{Crypto} }
func (p *CoinCap) Ready() bool                 { return true }

type coinCapAssetResponse struct {
	Data struct {
		PriceUsd string `json:"priceUsd"`
	} `json:"data"`
}

func (p *CoinCap) CurrentPrice(ctx context.Context, symbol, currency string) (float64, error) {
	var out coinCapAssetResponse
	addr := fmt.Sprintf("https://api.coincap.io/v2/assets/%s", strings.ToLower(symbol))
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return 0, err
	}
	price, err := strconv.ParseFloat(out.Data.PriceUsd, 64)
	if err != nil {
		return 0, fmt.Errorf("coincap: invalid price for %s: %w", symbol, err)
	}
	return price, nil
}

func (p *CoinCap) HistoricalPrice(ctx context.Context, symbol, currency string, on date.Date) (float64, error) {
	points, err := p.PriceRange(ctx, symbol, currency, on, on)
	if err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("coincap: no historical price for %s on %s", symbol, on)
	}
	return points[len(points)-1].Price, nil
}

type coinCapHistoryResponse struct {
	Data []struct {
		PriceUsd string `json:"priceUsd"`
		Time     int64  `json:"time"`
	} `json:"data"`
}

func (p *CoinCap) PriceRange(ctx context.Context, symbol, currency string, from, to date.Date) ([]Point, error) {
	addr := fmt.Sprintf("https://api.coincap.io/v2/assets/%s/history?interval=d1&start=%d&end=%d",
		strings.ToLower(symbol), millis(from), millis(to.Add(1))-1)
	var out coinCapHistoryResponse
	if err := getJSON(ctx, p.client, addr, &out); err != nil {
		return nil, err
	}
	points := make([]Point, 0, len(out.Data))
	for _, d := range out.Data {
		price, err := strconv.ParseFloat(d.PriceUsd, 64)
		if err != nil {
			continue
		}
		points = append(points, Point{Date: date.New(time.UnixMilli(d.Time).UTC().Date()), Price: price})
	}
	return points, nil
}

func millis(d date.Date) int64 {
	y, m, day := d.Year(), d.Month(), d.Day()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).UnixMilli()
}

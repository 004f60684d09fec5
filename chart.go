package portfolio

import (
	"context"
	"strings"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// maxChartSpanDays bounds how wide a single chart request may be, since
// PortfolioChart walks the range day by day.
const maxChartSpanDays = 3650

// ChartEvent is one buy or sell that happened on a ChartDataPoint's date.
type ChartEvent struct {
	Type                   EventType
	Symbol                 string
	Amount                 Quantity
	ValueInDefaultCurrency Money
}

func (e ChartEvent) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("type", e.Type)
	w.Append("symbol", e.Symbol)
	w.Append("amount", e.Amount)
	w.Append("valueInDefaultCurrency", e.ValueInDefaultCurrency)
	return w.MarshalJSON()
}

// ChartDataPoint is one day of a chart: the portfolio's (or one asset's)
// value that day, plus whatever events happened on it.
type ChartDataPoint struct {
	Date           date.Date
	PortfolioValue Money
	Events         []ChartEvent
}

func (p ChartDataPoint) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("date", p.Date)
	w.Append("portfolioValue", p.PortfolioValue)
	w.Append("events", p.Events)
	return w.MarshalJSON()
}

func validateChartRange(from, to date.Date) error {
	if to.Before(from) {
		return newErr(ValidationError, "chart range end "+to.String()+" is before start "+from.String())
	}
	if spanDays(from, to) > maxChartSpanDays {
		return newErr(ValidationError, "chart range exceeds the maximum span of 3650 days")
	}
	return nil
}

func spanDays(from, to date.Date) int {
	n := 0
	for d := from; d.Before(to); d = d.Add(1) {
		n++
	}
	return n
}

func assetIndex(events []Event) map[Identity]Asset {
	idx := make(map[Identity]Asset, len(events))
	for _, e := range events {
		idx[e.Asset.Identity()] = e.Asset
	}
	return idx
}

// PortfolioChart values every holding on every day in [from, to], carrying
// forward the last successfully resolved price whenever prices cannot
// resolve a day (a weekend or a provider gap), so a chart never breaks on
// a single missing quote.
func PortfolioChart(ctx context.Context, events []Event, prices PriceSource, currency string, from, to date.Date) ([]ChartDataPoint, error) {
	if err := validateChartRange(from, to); err != nil {
		return nil, err
	}

	assets := assetIndex(events)
	lastPrice := make(map[Identity]Money)
	points := make([]ChartDataPoint, 0, spanDays(from, to)+1)

	walk(events, from, to, func(d date.Date, holdings map[Identity]Quantity, today []Event) {
		value := M(0, currency)
		for id, qty := range holdings {
			asset := assets[id]
			pq, ok := lastPrice[id]
			if price, err := prices.PriceOf(ctx, asset, currency, d); err == nil {
				pq = M(price, currency)
				lastPrice[id] = pq
				ok = true
			}
			if !ok {
				continue
			}
			value = value.Add(pq.Mul(qty))
		}

		todayEvents := make([]ChartEvent, 0, len(today))
		for _, e := range today {
			val := M(0, currency)
			if price, err := prices.PriceOf(ctx, e.Asset, currency, d); err == nil {
				val = M(price, currency).Mul(e.Amount)
			}
			todayEvents = append(todayEvents, ChartEvent{Type: e.Type, Symbol: e.Asset.Symbol, Amount: e.Amount, ValueInDefaultCurrency: val})
		}

		points = append(points, ChartDataPoint{Date: d, PortfolioValue: value, Events: todayEvents})
	})

	return points, nil
}

// AssetChart restricts the chart to a single symbol's own holdings and
// events, failing fast if the symbol never appears in events.
func AssetChart(ctx context.Context, events []Event, prices PriceSource, currency, symbol string, from, to date.Date) ([]ChartDataPoint, error) {
	if err := validateChartRange(from, to); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	filtered := make([]Event, 0)
	for _, e := range events {
		if e.Asset.Symbol == symbol {
			filtered = append(filtered, e)
		}
	}
	if len(filtered) == 0 {
		return nil, newErr(ValidationError, "asset "+symbol+" does not appear in the ledger")
	}

	return PortfolioChart(ctx, filtered, prices, currency, from, to)
}

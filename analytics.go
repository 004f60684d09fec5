package portfolio

import (
	"context"
	"sort"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// PriceSource resolves an asset's price on a given date in a given
// currency. *resolver.Resolver satisfies this interface structurally;
// analytics declares its own copy rather than importing resolver, since
// resolver already imports this package.
type PriceSource interface {
	PriceOf(ctx context.Context, asset Asset, currency string, on date.Date) (float64, error)
}

// HoldingSummary is one asset's contribution to a PortfolioSummary.
type HoldingSummary struct {
	Asset            Asset
	Quantity         Quantity
	CurrentPrice     Money
	CurrentValue     Money
	CostBasisPerUnit Money
	GainLoss         Money
	ReturnPct        Percent
	AllocationPct    Percent
}

func (h HoldingSummary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("asset", h.Asset)
	w.Append("quantity", h.Quantity)
	w.Append("currentPrice", h.CurrentPrice)
	w.Append("currentValue", h.CurrentValue)
	w.Append("costBasisPerUnit", h.CostBasisPerUnit)
	w.Append("gainLoss", h.GainLoss)
	w.Append("returnPct", h.ReturnPct)
	w.Append("allocationPct", h.AllocationPct)
	return w.MarshalJSON()
}

// PortfolioSummary is the aggregate cost-basis/valuation report computed by
// GetPortfolioSummary.
type PortfolioSummary struct {
	Currency       string
	TotalInvested  Money
	TotalReturned  Money
	TotalValue     Money
	TotalGainLoss  Money
	TotalReturnPct Percent
	Holdings       []HoldingSummary
}

func (s PortfolioSummary) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("currency", s.Currency)
	w.Append("totalInvested", s.TotalInvested)
	w.Append("totalReturned", s.TotalReturned)
	w.Append("totalValue", s.TotalValue)
	w.Append("totalGainLoss", s.TotalGainLoss)
	w.Append("totalReturnPct", s.TotalReturnPct)
	w.Append("holdings", s.Holdings)
	return w.MarshalJSON()
}

// assetLedger is one identity's running cost-basis tally, accumulated by
// walking every event up to and including "on". The cost basis model is
// average-cost across every buy ever recorded for the asset, not FIFO:
// sells draw down quantity only, never revalue the remaining units' basis.
type assetLedger struct {
	asset         Asset
	unitsBought   Quantity
	unitsSold     Quantity
	totalInvested Money
	totalReturned Money
}

// GetPortfolioSummary computes average-cost-basis and current valuation
// across every asset that ever appeared in events, pricing each buy and
// sell at the price on its own event date and every open position at its
// price on "on", all converted into currency via prices.
//
// Formulas (per asset, then summed):
//
//	costBasisPerUnit = totalInvested / unitsBought
//	gainLoss         = currentValue + totalReturned - totalInvested
//	returnPct        = 100 * gainLoss / totalInvested
//	allocationPct    = 100 * currentValue / totalValue
func GetPortfolioSummary(ctx context.Context, events []Event, prices PriceSource, currency string, on date.Date) (*PortfolioSummary, error) {
	zero := M(0, currency)

	ledgers := make(map[Identity]*assetLedger)
	order := make([]Identity, 0)

	for _, e := range events {
		if e.Date.After(on) {
			continue
		}
		id := e.Asset.Identity()
		al, ok := ledgers[id]
		if !ok {
			al = &assetLedger{asset: e.Asset, unitsBought: Q(0), unitsSold: Q(0), totalInvested: zero, totalReturned: zero}
			ledgers[id] = al
			order = append(order, id)
		}
		price, err := prices.PriceOf(ctx, e.Asset, currency, e.Date)
		if err != nil {
			return nil, err
		}
		cost := M(price, currency).Mul(e.Amount)
		switch e.Type {
		case Buy:
			al.unitsBought = al.unitsBought.Add(e.Amount)
			al.totalInvested = al.totalInvested.Add(cost)
		case Sell:
			al.unitsSold = al.unitsSold.Add(e.Amount)
			al.totalReturned = al.totalReturned.Add(cost)
		}
	}

	summary := &PortfolioSummary{Currency: currency, TotalInvested: zero, TotalReturned: zero, TotalValue: zero}
	holdings := make([]HoldingSummary, 0, len(order))

	for _, id := range order {
		al := ledgers[id]
		summary.TotalInvested = summary.TotalInvested.Add(al.totalInvested)
		summary.TotalReturned = summary.TotalReturned.Add(al.totalReturned)

		quantity := al.unitsBought.Sub(al.unitsSold)
		if !absQ(quantity).GreaterThan(epsilon) {
			continue
		}

		price, err := prices.PriceOf(ctx, al.asset, currency, on)
		if err != nil {
			return nil, err
		}
		currentPrice := M(price, currency)
		currentValue := currentPrice.Mul(quantity)
		summary.TotalValue = summary.TotalValue.Add(currentValue)

		h := HoldingSummary{
			Asset:            al.asset,
			Quantity:         quantity,
			CurrentPrice:     currentPrice,
			CurrentValue:     currentValue,
			GainLoss:         currentValue.Add(al.totalReturned).Sub(al.totalInvested),
			CostBasisPerUnit: zero,
		}
		if al.unitsBought.IsPositive() {
			h.CostBasisPerUnit = al.totalInvested.Div(al.unitsBought)
		}
		if al.totalInvested.IsPositive() {
			h.ReturnPct = Percent(h.GainLoss.DivPrice(al.totalInvested).Float64() * 100)
		}
		holdings = append(holdings, h)
	}

	summary.TotalGainLoss = summary.TotalValue.Add(summary.TotalReturned).Sub(summary.TotalInvested)
	if summary.TotalInvested.IsPositive() {
		summary.TotalReturnPct = Percent(summary.TotalGainLoss.DivPrice(summary.TotalInvested).Float64() * 100)
	}

	for i := range holdings {
		if summary.TotalValue.IsPositive() {
			holdings[i].AllocationPct = Percent(holdings[i].CurrentValue.DivPrice(summary.TotalValue).Float64() * 100)
		}
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if !holdings[i].AllocationPct.Equal(holdings[j].AllocationPct) {
			return holdings[i].AllocationPct > holdings[j].AllocationPct
		}
		return holdings[i].Asset.Symbol < holdings[j].Asset.Symbol
	})
	summary.Holdings = holdings

	return summary, nil
}

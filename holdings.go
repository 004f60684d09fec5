package portfolio

import "github.com/Krzykoz/Savings-Tracker/date"

// epsilon is the residual-holdings threshold below which a position is
// treated as fully closed, absorbing decimal rounding noise accumulated
// across many buys and sells of the same asset.
var epsilon = Q(1e-10)

func absQ(q Quantity) Quantity {
	if q.IsNegative() {
		return Q(0).Sub(q)
	}
	return q
}

// holdingsAt folds every event with date <= on into a per-asset amount map,
// dropping any asset whose net amount is within epsilon of zero.
func holdingsAt(events []Event, on date.Date) map[Identity]Quantity {
	totals := make(map[Identity]Quantity)
	for _, e := range events {
		if e.Date.After(on) {
			continue
		}
		id := e.Asset.Identity()
		current, ok := totals[id]
		if !ok {
			current = Q(0)
		}
		switch e.Type {
		case Buy:
			totals[id] = current.Add(e.Amount)
		case Sell:
			totals[id] = current.Sub(e.Amount)
		}
	}
	for id, amount := range totals {
		if !absQ(amount).GreaterThan(epsilon) {
			delete(totals, id)
		}
	}
	return totals
}

// walk performs the incremental sweep chart generation relies on: events
// are partitioned by date once, a running holdings map is threaded through
// every day in [from, to], and visit is invoked once per day with that
// day's snapshot and that day's events (possibly empty). This achieves
// O(days + events) rather than re-folding the whole ledger per day.
func walk(events []Event, from, to date.Date, visit func(d date.Date, holdings map[Identity]Quantity, today []Event)) {
	byDate := make(map[date.Date][]Event)
	for _, e := range events {
		if e.Date.Before(from) {
			continue
		}
		byDate[e.Date] = append(byDate[e.Date], e)
	}

	running := holdingsAt(events, from.Add(-1))
	for d := from; !d.After(to); d = d.Add(1) {
		today := byDate[d]
		for _, e := range today {
			id := e.Asset.Identity()
			current, ok := running[id]
			if !ok {
				current = Q(0)
			}
			switch e.Type {
			case Buy:
				current = current.Add(e.Amount)
			case Sell:
				current = current.Sub(e.Amount)
			}
			if !absQ(current).GreaterThan(epsilon) {
				delete(running, id)
			} else {
				running[id] = current
			}
		}
		snapshot := make(map[Identity]Quantity, len(running))
		for k, v := range running {
			snapshot[k] = v
		}
		visit(d, snapshot, today)
	}
}

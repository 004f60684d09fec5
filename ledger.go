package portfolio

import (
	"iter"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// Ledger is the authoritative event list plus a single-level undo trash,
// ported from the teacher's Ledger shape (transactions + stable sort by
// date) but rebuilt around this engine's much simpler Event{Buy,Sell}
// model and its sell-consistency invariant in place of the teacher's
// multi-transaction-type security bookkeeping.
type Ledger struct {
	events []Event
	trash  []Event // newest-trashed-last
	nextSeq int
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// consistencyCheck sweeps every distinct asset's events, sorted by date
// ascending and stable by insertion order, and fails on the first date a
// running balance would go negative — the sell-consistency invariant.
func consistencyCheck(events []Event) *CoreError {
	byAsset := make(map[Identity][]Event)
	for _, e := range events {
		byAsset[e.Asset.Identity()] = append(byAsset[e.Asset.Identity()], e)
	}
	for id, es := range byAsset {
		sort.SliceStable(es, func(i, j int) bool {
			if es[i].Date != es[j].Date {
				return es[i].Date.Before(es[j].Date)
			}
			return es[i].seq < es[j].seq
		})
		balance := Q(0)
		for _, e := range es {
			switch e.Type {
			case Buy:
				balance = balance.Add(e.Amount)
			case Sell:
				balance = balance.Sub(e.Amount)
			}
			if balance.IsNegative() && absQ(balance).GreaterThan(epsilon) {
				return newErr(ValidationError, "holdings of "+id.Symbol+" would go negative on "+e.Date.String())
			}
		}
	}
	return nil
}

// propose returns the events that would exist after applying mutate to a
// defensive copy of the current event list, for the compute-then-commit
// pattern every atomic mutation uses.
func (l *Ledger) propose(mutate func(proposed []Event) []Event) []Event {
	proposed := make([]Event, len(l.events))
	copy(proposed, l.events)
	return mutate(proposed)
}

func (l *Ledger) commit(proposed []Event) {
	l.events = proposed
}

// Add validates and appends a single event, rejecting it without mutating
// the ledger if the proposed state would violate sell-consistency.
func (l *Ledger) Add(e Event) (Event, error) {
	if err := e.validate(); err != nil {
		return Event{}, err
	}
	e.ID = uuid.New()
	e.seq = l.nextSeq
	proposed := l.propose(func(p []Event) []Event { return append(p, e) })
	if err := consistencyCheck(proposed); err != nil {
		return Event{}, err
	}
	l.nextSeq++
	l.commit(proposed)
	return e, nil
}

// addVerbatim appends e keeping its existing id (rather than generating a
// fresh one), used only when restoring a ledger from persisted bytes where
// ids must survive the round-trip.
func (l *Ledger) addVerbatim(e Event) (Event, error) {
	if err := e.validate(); err != nil {
		return Event{}, err
	}
	e.seq = l.nextSeq
	proposed := l.propose(func(p []Event) []Event { return append(p, e) })
	if err := consistencyCheck(proposed); err != nil {
		return Event{}, err
	}
	l.nextSeq++
	l.commit(proposed)
	return e, nil
}

// AddMany validates and appends every event as a single atomic operation:
// any invalid event rolls back the whole batch, leaving the ledger
// untouched.
func (l *Ledger) AddMany(events []Event) (int, error) {
	for i := range events {
		if err := events[i].validate(); err != nil {
			return 0, err
		}
	}
	stamped := make([]Event, len(events))
	copy(stamped, events)
	seq := l.nextSeq
	for i := range stamped {
		stamped[i].ID = uuid.New()
		stamped[i].seq = seq
		seq++
	}
	proposed := l.propose(func(p []Event) []Event { return append(p, stamped...) })
	if err := consistencyCheck(proposed); err != nil {
		return 0, err
	}
	l.nextSeq = seq
	l.commit(proposed)
	return len(stamped), nil
}

func (l *Ledger) indexOf(id uuid.UUID) int {
	for i, e := range l.events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// RemoveToTrash soft-deletes an event, appending it to the trash list for a
// single-level undo, after checking that removing it does not itself
// violate sell-consistency (removing a buy can strand a later sell).
func (l *Ledger) RemoveToTrash(id uuid.UUID) error {
	i := l.indexOf(id)
	if i < 0 {
		return newErr(EventNotFound, id.String())
	}
	removed := l.events[i]
	proposed := l.propose(func(p []Event) []Event {
		return append(append([]Event{}, p[:i]...), p[i+1:]...)
	})
	if err := consistencyCheck(proposed); err != nil {
		return err
	}
	l.commit(proposed)
	l.trash = append(l.trash, removed)
	return nil
}

// RemoveMany soft-deletes every id as a single atomic operation.
func (l *Ledger) RemoveMany(ids []uuid.UUID) (int, error) {
	indices := make(map[int]bool, len(ids))
	for _, id := range ids {
		i := l.indexOf(id)
		if i < 0 {
			return 0, newErr(EventNotFound, id.String())
		}
		indices[i] = true
	}
	var removed, kept []Event
	for i, e := range l.events {
		if indices[i] {
			removed = append(removed, e)
		} else {
			kept = append(kept, e)
		}
	}
	if err := consistencyCheck(kept); err != nil {
		return 0, err
	}
	l.commit(kept)
	l.trash = append(l.trash, removed...)
	return len(removed), nil
}

// UndoLastRemoval re-inserts the most recently trashed event and re-checks
// consistency against the ledger's current state, which may have evolved
// since the event was trashed.
func (l *Ledger) UndoLastRemoval() (Event, error) {
	if len(l.trash) == 0 {
		return Event{}, newErr(EventNotFound, "trash is empty")
	}
	last := l.trash[len(l.trash)-1]
	proposed := l.propose(func(p []Event) []Event { return append(p, last) })
	if err := consistencyCheck(proposed); err != nil {
		return Event{}, err
	}
	l.commit(proposed)
	l.trash = l.trash[:len(l.trash)-1]
	return last, nil
}

// ClearTrash permanently discards every soft-deleted event, past the point
// of undo.
func (l *Ledger) ClearTrash() int {
	n := len(l.trash)
	l.trash = nil
	return n
}

// Update replaces an existing event's asset/amount/date/notes, preserving
// its id, and re-validates the proposed ledger atomically.
func (l *Ledger) Update(id uuid.UUID, asset Asset, amount Quantity, on date.Date, notes string) (Event, error) {
	i := l.indexOf(id)
	if i < 0 {
		return Event{}, newErr(EventNotFound, id.String())
	}
	updated := l.events[i]
	updated.Asset, updated.Amount, updated.Date, updated.Notes = asset, amount, on, notes
	if err := updated.validate(); err != nil {
		return Event{}, err
	}
	proposed := l.propose(func(p []Event) []Event {
		next := make([]Event, len(p))
		copy(next, p)
		next[i] = updated
		return next
	})
	if err := consistencyCheck(proposed); err != nil {
		return Event{}, err
	}
	l.commit(proposed)
	return updated, nil
}

// All returns every event, newest first by date with ties broken by
// newest-insertion-first.
func (l *Ledger) All() []Event {
	out := make([]Event, len(l.events))
	copy(out, l.events)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].seq > out[j].seq
	})
	return out
}

// filtered applies every predicate (OR-combined, matching the teacher's
// Transactions(filters...) contract) over All()'s order.
func filtered(events []Event, predicates ...func(Event) bool) []Event {
	if len(predicates) == 0 {
		return events
	}
	var out []Event
	for _, e := range events {
		for _, p := range predicates {
			if p(e) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// ByAsset returns every event for a single asset identity, newest first.
func (l *Ledger) ByAsset(id Identity) []Event {
	return filtered(l.All(), func(e Event) bool { return e.Asset.Identity() == id })
}

// ByType returns every event of a single type, newest first.
func (l *Ledger) ByType(t EventType) []Event {
	return filtered(l.All(), func(e Event) bool { return e.Type == t })
}

// ByAssetKind returns every event whose asset is of kind, newest first.
func (l *Ledger) ByAssetKind(kind AssetKind) []Event {
	return filtered(l.All(), func(e Event) bool { return e.Asset.Kind == kind })
}

// InRange returns every event with from <= date <= to, newest first.
func (l *Ledger) InRange(from, to date.Date) []Event {
	return filtered(l.All(), func(e Event) bool { return !e.Date.Before(from) && !e.Date.After(to) })
}

// Search returns every event whose symbol, asset name, or notes contains
// query case-insensitively, newest first.
func (l *Ledger) Search(query string) []Event {
	q := strings.ToLower(query)
	return filtered(l.All(), func(e Event) bool {
		return strings.Contains(strings.ToLower(e.Asset.Symbol), q) ||
			strings.Contains(strings.ToLower(e.Asset.Name), q) ||
			strings.Contains(strings.ToLower(e.Notes), q)
	})
}

// Sorted materialises All() under a different order, stable by id so
// repeated calls with the same events are deterministic.
func (l *Ledger) Sorted(order SortOrder) []Event {
	out := l.All()
	primary := func(a, b Event) int {
		switch order {
		case DateDesc:
			if a.Date != b.Date {
				if a.Date.After(b.Date) {
					return -1
				}
				return 1
			}
		case DateAsc:
			if a.Date != b.Date {
				if a.Date.Before(b.Date) {
					return -1
				}
				return 1
			}
		case AmountDesc:
			if !a.Amount.Equal(b.Amount) {
				if a.Amount.GreaterThan(b.Amount) {
					return -1
				}
				return 1
			}
		case AmountAsc:
			if !a.Amount.Equal(b.Amount) {
				if a.Amount.LessThan(b.Amount) {
					return -1
				}
				return 1
			}
		case AssetAsc:
			if a.Asset.Symbol != b.Asset.Symbol {
				return strings.Compare(a.Asset.Symbol, b.Asset.Symbol)
			}
		case AssetDesc:
			if a.Asset.Symbol != b.Asset.Symbol {
				return strings.Compare(b.Asset.Symbol, a.Asset.Symbol)
			}
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	}
	sort.SliceStable(out, func(i, j int) bool { return primary(out[i], out[j]) < 0 })
	return out
}

// ImportFromJSON assigns every incoming event a fresh id and adds them as
// a single atomic batch, returning the count imported.
func (l *Ledger) ImportFromJSON(events []Event) (int, error) {
	fresh := make([]Event, len(events))
	for i, e := range events {
		e.ID = uuid.Nil
		fresh[i] = e
	}
	return l.AddMany(fresh)
}

// Count returns the number of live (non-trashed) events.
func (l *Ledger) Count() int { return len(l.events) }

// EarliestDate returns the date of the oldest live event.
func (l *Ledger) EarliestDate() (date.Date, bool) {
	if len(l.events) == 0 {
		return date.Date{}, false
	}
	earliest := l.events[0].Date
	for _, e := range l.events[1:] {
		if e.Date.Before(earliest) {
			earliest = e.Date
		}
	}
	return earliest, true
}

// LatestDate returns the date of the newest live event.
func (l *Ledger) LatestDate() (date.Date, bool) {
	if len(l.events) == 0 {
		return date.Date{}, false
	}
	latest := l.events[0].Date
	for _, e := range l.events[1:] {
		if e.Date.After(latest) {
			latest = e.Date
		}
	}
	return latest, true
}

// AgeDays returns today minus the earliest event's date, or 0 if empty.
func (l *Ledger) AgeDays(today date.Date) int {
	earliest, ok := l.EarliestDate()
	if !ok {
		return 0
	}
	days := 0
	for d := earliest; d.Before(today); d = d.Add(1) {
		days++
	}
	return days
}

// Events returns an iterator over every live event in storage order,
// matching the teacher's iter.Seq2-based Transactions accessor.
func (l *Ledger) Events() iter.Seq2[int, Event] {
	return func(yield func(int, Event) bool) {
		for i, e := range l.events {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Trash returns every soft-deleted event, newest-trashed-last.
func (l *Ledger) Trash() []Event {
	out := make([]Event, len(l.trash))
	copy(out, l.trash)
	return out
}

package portfolio

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// EventType is the kind of ledger event: an acquisition or a disposal.
type EventType int

const (
	Buy EventType = iota
	Sell
)

func (t EventType) String() string {
	if t == Sell {
		return "sell"
	}
	return "buy"
}

// ParseEventType parses "buy"/"sell" (case-insensitive).
func ParseEventType(s string) (EventType, bool) {
	switch strings.ToLower(s) {
	case "buy":
		return Buy, true
	case "sell":
		return Sell, true
	default:
		return 0, false
	}
}

func (t EventType) MarshalJSON() ([]byte, error) { return marshalString(t.String()) }

func (t *EventType) UnmarshalJSON(b []byte) error {
	s, err := unmarshalString(b)
	if err != nil {
		return err
	}
	v, ok := ParseEventType(s)
	if !ok {
		return &validationError{msg: "unknown event type " + s}
	}
	*t = v
	return nil
}

// SortOrder names the orderings Ledger.Sorted can materialize a listing in.
type SortOrder int

const (
	DateDesc SortOrder = iota
	DateAsc
	AmountDesc
	AmountAsc
	AssetAsc
	AssetDesc
)

// Event is a single Buy or Sell of an Asset on a date. Events do not store
// a price: prices are resolved on demand from the cache/providers, keyed by
// asset and date, so that historical events always reprice against
// whatever the resolver currently knows.
type Event struct {
	ID     uuid.UUID
	Type   EventType
	Asset  Asset
	Amount Quantity
	Date   date.Date
	Notes  string

	// seq preserves insertion order for tie-breaking in stable sorts; it is
	// not part of the persisted identity of an event.
	seq int
}

// newEvent creates an Event with a freshly generated identifier.
func newEvent(t EventType, asset Asset, amount Quantity, on date.Date, notes string) Event {
	return Event{ID: uuid.New(), Type: t, Asset: asset, Amount: amount, Date: on, Notes: notes}
}

// validate checks the amount/date shape of an event on its own, independent
// of ledger state. Sell-consistency is checked separately by the ledger,
// since it requires the rest of the ledger to evaluate.
func (e Event) validate() error {
	if !e.Amount.IsPositive() {
		return newErr(ValidationError, "event amount must be positive")
	}
	if e.Date.After(date.Today()) {
		return newErr(ValidationError, "event date "+e.Date.String()+" is in the future")
	}
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", e.ID.String())
	w.Append("type", e.Type)
	w.Append("asset", e.Asset)
	w.Append("amount", e.Amount)
	w.Append("date", e.Date)
	if e.Notes != "" {
		w.Append("notes", e.Notes)
	} else {
		w.Append("notes", nil)
	}
	return w.MarshalJSON()
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID     string     `json:"id"`
		Type   EventType  `json:"type"`
		Asset  Asset      `json:"asset"`
		Amount Quantity   `json:"amount"`
		Date   date.Date  `json:"date"`
		Notes  *string    `json:"notes"`
	}
	if err := unmarshalJSON(b, &raw); err != nil {
		return err
	}
	id, err := uuid.Parse(raw.ID)
	if err != nil {
		id = uuid.New()
	}
	*e = Event{ID: id, Type: raw.Type, Asset: raw.Asset, Amount: raw.Amount, Date: raw.Date}
	if raw.Notes != nil {
		e.Notes = *raw.Notes
	}
	return nil
}

package portfolio

import (
	"encoding/json"

	"github.com/Krzykoz/Savings-Tracker/pricecache"
)

// Portfolio is the persisted aggregate root: the ledger, its price cache,
// and settings, plus a non-persisted dirty flag cleared on save, load, and
// change-password. The facade (Engine) exclusively owns one Portfolio for
// its lifetime.
type Portfolio struct {
	ledger   *Ledger
	cache    *pricecache.Cache
	settings Settings
	dirty    bool
}

// NewPortfolio returns an empty portfolio with default settings.
func NewPortfolio() *Portfolio {
	return &Portfolio{ledger: NewLedger(), cache: pricecache.New(), settings: NewSettings()}
}

func (p *Portfolio) Ledger() *Ledger       { return p.ledger }
func (p *Portfolio) Cache() *pricecache.Cache { return p.cache }
func (p *Portfolio) Settings() *Settings   { return &p.settings }
func (p *Portfolio) Dirty() bool           { return p.dirty }
func (p *Portfolio) MarkDirty()            { p.dirty = true }
func (p *Portfolio) ClearDirty()           { p.dirty = false }

// portfolioDoc is the on-disk shape: events and trash flattened out of the
// ledger's private fields, since encoding/json cannot see unexported
// struct fields directly.
type portfolioDoc struct {
	Events   []Event           `json:"events"`
	Trash    []Event           `json:"trash"`
	Cache    *pricecache.Cache `json:"cache"`
	Settings Settings          `json:"settings"`
}

// MarshalJSON serializes the persisted fields only; dirty never survives a
// round-trip.
func (p *Portfolio) MarshalJSON() ([]byte, error) {
	doc := portfolioDoc{
		Events:   p.ledger.All(),
		Trash:    p.ledger.Trash(),
		Cache:    p.cache,
		Settings: p.settings,
	}
	return json.Marshal(doc)
}

// UnmarshalJSON rebuilds a Portfolio from its persisted fields. Events are
// stored newest first and are replayed oldest first through addVerbatim,
// which keeps their ids, so the restored ledger satisfies every invariant
// a freshly-built one would (seq assignment, consistency).
func (p *Portfolio) UnmarshalJSON(b []byte) error {
	var doc portfolioDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return wrapErr(Deserialization, "failed to deserialize portfolio", err)
	}
	ledger := NewLedger()
	for i := len(doc.Events) - 1; i >= 0; i-- {
		e := doc.Events[i]
		if _, err := ledger.addVerbatim(e); err != nil {
			return wrapErr(Deserialization, "failed to restore ledger", err)
		}
	}
	ledger.trash = doc.Trash

	cache := doc.Cache
	if cache == nil {
		cache = pricecache.New()
	}

	settings := doc.Settings
	if settings.DefaultCurrency == "" {
		settings = NewSettings()
	}
	if settings.APIKeys == nil {
		settings.APIKeys = make(map[string]string)
	}

	*p = Portfolio{ledger: ledger, cache: cache, settings: settings}
	return nil
}

// ExportEventsToJSON serializes every live event (not trash, not cache,
// not settings) for the portable JSON export operation.
func (p *Portfolio) ExportEventsToJSON() ([]byte, error) {
	events := p.ledger.All()
	b, err := json.Marshal(events)
	if err != nil {
		return nil, wrapErr(Serialization, "failed to export events", err)
	}
	return b, nil
}

// ImportEventsFromJSON parses a JSON event array and imports it atomically
// through the ledger, regenerating ids.
func (p *Portfolio) ImportEventsFromJSON(data []byte) (int, error) {
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return 0, wrapErr(Deserialization, "failed to parse import payload", err)
	}
	n, err := p.ledger.ImportFromJSON(events)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.MarkDirty()
	}
	return n, nil
}

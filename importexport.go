package portfolio

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Krzykoz/Savings-Tracker/date"
)

// csvHeader is the column layout of an exported events CSV, day-precision
// dates and symbol/name/kind spelled out rather than nested, so the file
// opens cleanly in a spreadsheet. id is exported for round-trip readability
// but ignored on import, which always regenerates ids.
var csvHeader = []string{"id", "type", "symbol", "name", "asset_type", "amount", "date", "notes"}

// ExportEventsToCSV renders every live event as CSV with a header row, in
// the same newest-first order All() returns.
func ExportEventsToCSV(events []Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, wrapErr(Serialization, "failed to write csv header", err)
	}
	for _, e := range events {
		row := []string{
			e.ID.String(),
			e.Type.String(),
			e.Asset.Symbol,
			e.Asset.Name,
			e.Asset.Kind.String(),
			e.Amount.String(),
			e.Date.String(),
			e.Notes,
		}
		if err := w.Write(row); err != nil {
			return nil, wrapErr(Serialization, "failed to write csv row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, wrapErr(Serialization, "failed to flush csv", err)
	}
	return buf.Bytes(), nil
}

// ParseEventsFromCSV parses the layout ExportEventsToCSV produces back into
// Events with fresh ids, ready for Ledger.ImportFromJSON-style atomic
// import via Ledger.AddMany.
func ParseEventsFromCSV(data []byte) ([]Event, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(csvHeader)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, wrapErr(Deserialization, "failed to parse csv", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if !equalHeader(rows[0], csvHeader) {
		return nil, newErr(Deserialization, "csv header does not match the expected column layout")
	}

	events := make([]Event, 0, len(rows)-1)
	for _, row := range rows[1:] {
		e, err := parseEventRow(row)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func equalHeader(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// parseEventRow reads one data row, ignoring the leading id column: a fresh
// id is always assigned by newEvent, matching ParseEventsFromCSV's contract
// of regenerating ids on import.
func parseEventRow(row []string) (Event, error) {
	t, ok := ParseEventType(row[1])
	if !ok {
		return Event{}, newErr(Deserialization, "unknown event type "+row[1])
	}
	kind, ok := ParseAssetKind(row[4])
	if !ok {
		return Event{}, newErr(Deserialization, "unknown asset type "+row[4])
	}
	amount, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return Event{}, wrapErr(Deserialization, "invalid amount "+row[5], err)
	}
	on, err := date.Parse(row[6])
	if err != nil {
		return Event{}, wrapErr(Deserialization, "invalid date "+row[6], err)
	}
	asset := NewAsset(row[2], row[3], kind)
	return newEvent(t, asset, Q(amount), on, row[7]), nil
}

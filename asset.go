package portfolio

import "strings"

// AssetKind is the category of a tracked asset. It determines which price
// provider the resolver consults for it.
type AssetKind int

const (
	Crypto AssetKind = iota
	Fiat
	Metal
	Stock
)

func (k AssetKind) String() string {
	switch k {
	case Crypto:
		return "crypto"
	case Fiat:
		return "fiat"
	case Metal:
		return "metal"
	case Stock:
		return "stock"
	default:
		return "unknown"
	}
}

// ParseAssetKind parses the lowercase names produced by AssetKind.String.
func ParseAssetKind(s string) (AssetKind, bool) {
	switch strings.ToLower(s) {
	case "crypto":
		return Crypto, true
	case "fiat":
		return Fiat, true
	case "metal":
		return Metal, true
	case "stock":
		return Stock, true
	default:
		return 0, false
	}
}

func (k AssetKind) MarshalJSON() ([]byte, error) { return marshalString(k.String()) }

func (k *AssetKind) UnmarshalJSON(b []byte) error {
	s, err := unmarshalString(b)
	if err != nil {
		return err
	}
	kind, ok := ParseAssetKind(s)
	if !ok {
		return &validationError{msg: "unknown asset kind " + s}
	}
	*k = kind
	return nil
}

// Asset identifies a tracked holding: a cryptocurrency, a fiat currency, a
// precious metal, or a listed equity.
//
// Identity (equality, and therefore map-key behavior) is the pair
// (uppercased Symbol, Kind); Name is descriptive only and never
// participates in comparisons.
type Asset struct {
	Symbol string
	Name   string
	Kind   AssetKind
}

// NewAsset normalizes symbol to uppercase and returns the Asset.
func NewAsset(symbol, name string, kind AssetKind) Asset {
	return Asset{Symbol: strings.ToUpper(symbol), Name: name, Kind: kind}
}

// Identity is the (symbol, kind) pair used as holdings/cache map keys.
type Identity struct {
	Symbol string
	Kind   AssetKind
}

// Identity returns the map key this asset is indexed by.
func (a Asset) Identity() Identity { return Identity{Symbol: a.Symbol, Kind: a.Kind} }

func (a Asset) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("symbol", a.Symbol)
	w.Append("name", a.Name)
	w.Append("asset_type", a.Kind)
	return w.MarshalJSON()
}

func (a *Asset) UnmarshalJSON(b []byte) error {
	var raw struct {
		Symbol string    `json:"symbol"`
		Name   string    `json:"name"`
		Kind   AssetKind `json:"asset_type"`
	}
	if err := unmarshalJSON(b, &raw); err != nil {
		return err
	}
	*a = NewAsset(raw.Symbol, raw.Name, raw.Kind)
	return nil
}

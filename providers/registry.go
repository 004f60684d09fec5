package providers

import "runtime"

// Registry holds every configured provider and answers "who can serve
// this asset kind, in fallback order" queries.
//
// Rebuilt from scratch whenever an API key changes (see NewRegistry),
// rather than mutated in place, matching the Rust reference's
// PriceProviderRegistry::new_with_defaults contract: providers whose
// preconditions depend on a key are only present when that key is set.
type Registry struct {
	providers []Provider
}

// Config carries the API keys the registry's gated providers need.
// Unknown keys are accepted by the caller (the Settings model stores them
// verbatim) but have no effect here if no provider recognizes them.
type Config struct {
	// MetalsDevAPIKey gates the metals.dev provider (kind Metal).
	MetalsDevAPIKey string
	// AlphaVantageAPIKey gates the Alpha Vantage provider (kind Stock).
	AlphaVantageAPIKey string
}

// NewRegistry builds the provider list in the exact order spec'd for each
// asset kind:
//
//	Crypto: CoinCap
//	Fiat:   Frankfurter
//	Metal:  metals.dev (only if a key is configured)
//	Stock:  YahooFinance, then AlphaVantage (native); AlphaVantage alone on wasm
//
// The wasm-vs-native stock list split mirrors the Rust reference's
// #[cfg(not(target_arch = "wasm32"))] gate on its Yahoo adapter, which
// relies on connectors unavailable in a browser target.
func NewRegistry(cfg Config) *Registry {
	var list []Provider
	list = append(list, NewCoinCap())
	list = append(list, NewFrankfurter())
	if cfg.MetalsDevAPIKey != "" {
		list = append(list, NewMetalsDev(cfg.MetalsDevAPIKey))
	}
	if runtime.GOARCH != "wasm" {
		list = append(list, NewYahooFinance())
	}
	if cfg.AlphaVantageAPIKey != "" {
		list = append(list, NewAlphaVantage(cfg.AlphaVantageAPIKey))
	}
	return &Registry{providers: list}
}

// NewRegistryFrom builds a Registry from an explicit provider list,
// bypassing the fixed default adapter set. Intended for callers that wire
// their own provider set (tests, alternative deployments).
func NewRegistryFrom(list []Provider) *Registry { return &Registry{providers: list} }

// For returns every ready provider that supports kind, in registration
// order — the order the resolver must try them in.
func (r *Registry) For(kind AssetKind) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.Ready() && supports(p, kind) {
			out = append(out, p)
		}
	}
	return out
}

// HasProviderFor reports whether at least one ready provider exists for kind.
func (r *Registry) HasProviderFor(kind AssetKind) bool { return len(r.For(kind)) > 0 }

// Names returns the names of every ready provider for kind, in order.
func (r *Registry) Names(kind AssetKind) []string {
	providers := r.For(kind)
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	return names
}

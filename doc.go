// Package portfolio implements the domain core of a local-first personal
// savings tracker: a ledger of buy/sell events across crypto,
// fiat, precious-metal and equity holdings, a price cache that lets the
// tracker work offline once prices have been seen once, cost-basis and
// valuation analytics, and day-by-day chart generation.
//
// The ledger enforces one invariant above all others: a sell can never
// take any asset's running balance negative. Every mutation computes its
// proposed next state, checks that invariant across the whole ledger, and
// only then commits or rejects — see Ledger.Add and friends.
//
// Prices are never stored on an Event; they are resolved on demand against
// a PriceSource (the resolver package's Resolver, kept as a narrow local
// interface here to avoid an import cycle), so historical valuations
// always reflect whatever the cache or a provider currently knows rather
// than a number frozen at entry time.
//
// Persistence, encryption and provider wiring live in the container,
// resolver, providers and pricecache subpackages; this package owns the
// ledger, holdings, analytics and chart logic that sits on top of them.
package portfolio

// Package engine implements the order sync engine.
//
// The engine keeps the order cache consistent across two independent
// update channels:
//   - periodic conditional polling of GET /orders
//   - an optional push channel delivering targeted order events
//
// Overlapping fetches are resolved with a fetch epoch: starting a fetch
// supersedes and cancels any fetch still in flight, and a superseded
// fetch's result is discarded without touching the cache, the freshness
// token, or the notification surface.
package engine

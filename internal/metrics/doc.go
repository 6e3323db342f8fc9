// Package metrics provides Prometheus metrics for the sync engine.
//
// Key metrics:
//   - Fetch outcomes (ok, not modified, error, superseded) and latency
//   - Push event counts by message type
//   - Reconnect attempts and current connection state
//   - Order cache size
package metrics

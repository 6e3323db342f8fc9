// Package connection implements the push-channel Connection Manager.
//
// The Connection Manager:
//   - Maintains at most one WebSocket connection to the order feed
//   - Applies bounded reconnection with a fixed delay between attempts
//   - Forwards inbound payloads to a caller-supplied handler
//   - Reports its lifecycle through a State enum
//
// The channel is optional: the engine runs polling-only when no
// manager is wired in.
package connection

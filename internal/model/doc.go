// Package model defines shared data types used across the order sync engine.
//
// Conventions:
//   - Money: float64 as reported by the server (the engine never does arithmetic on it)
//   - Timestamps: time.Time parsed from RFC 3339
//   - IDs: server-assigned strings, opaque to the engine
package model

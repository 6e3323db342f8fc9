// Package api provides a client for the cafe REST API.
//
// Features:
//   - Conditional order retrieval via If-Modified-Since / Last-Modified
//   - Automatic retry with exponential backoff for 5xx and 429 responses
//   - Context-based timeout and cancellation
package api

// Package dispatch turns push-channel payloads into cache operations.
//
// Each payload is a JSON envelope with a "type" field. Recognized
// types mutate the order cache; unknown types and malformed payloads
// are logged and dropped so one bad message never stops the pipeline.
package dispatch

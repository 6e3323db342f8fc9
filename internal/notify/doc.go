// Package notify delivers one-shot user-facing notifications.
//
// Notifications are transient: they carry no persistent state and do
// not require acknowledgment. The sink never blocks an emitter; under
// backpressure the oldest undelivered notification is dropped.
package notify

// Package dispatch implements the bounded, retrying, flushable work pool
// that executes event-submission tasks for the Nimbus client SDK.
//
// It knows nothing about HTTP, serialization, or event semantics: callers
// hand it a Task and get back a handle that can be canceled or polled for
// completion. Retries, backoff, admission control, and the flush barrier
// live entirely in this package.
package dispatch

// Package event defines the event envelope recorded by the ledger write path.
//
// Events are immutable facts emitted by accepted decisions. Storage assigns the
// per-campaign sequence number when the event is appended.
package event

package entity

import "errors"

// Ledger gateway errors. The gateway maps transport and ledger responses into
// these so callers can decide between retrying and rejecting.
var (
	// ErrLedgerRejected means the ledger evaluated the call and refused it,
	// typically because the submitted preimage does not hash to the stored
	// commitment or the window has closed. Not retryable.
	ErrLedgerRejected = errors.New("ledger rejected the call")

	// ErrLedgerReplay means the ledger saw an index it has already consumed.
	ErrLedgerReplay = errors.New("ledger index already consumed")

	// ErrLedgerUnavailable means the call never got a verdict, due to a
	// transport failure or a ledger-side outage. Retryable.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

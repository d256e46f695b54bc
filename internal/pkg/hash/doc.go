// Package hash provides helpers for keyed hashing and verifying secrets.
//
// The HMAC-SHA256 implementation is used both for at-rest token hashing and
// for signing payloads submitted to the external commitment ledger: store or
// send only the hash, then verify input by recomputing it.
package hash

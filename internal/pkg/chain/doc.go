// Package chain implements the hash-chain commitment codec behind one-time
// codes.
//
// A raw chain value is the Keccak-256 digest of the identity material joined
// with a monotonic index. Publishing the digest of a raw value (its
// commitment) ahead of time lets a verifier check the value later without the
// value ever being disclosed in advance, and revealing value N discloses
// nothing about value N+1 without the shared secret.
//
// Everything in this package is a pure function: no I/O, no clock, no state.
// Generation and verification both go through the same derivations so the two
// sides of a comparison are always computed identically.
package chain

package chain

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashSize is the byte length of a chain hash.
const HashSize = 32

// ErrInvalidHashHex indicates a hex string does not encode a 32-byte hash.
var ErrInvalidHashHex = errors.New("chain: value is not a 0x-prefixed 32-byte hex hash")

// Hash is a Keccak-256 digest.
type Hash [HashSize]byte

// Hex returns the 0x-prefixed lowercase hex encoding of the hash.
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether the hash is all zero bytes.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHex decodes a 0x-prefixed 32-byte hex string into a Hash.
func ParseHex(s string) (Hash, error) {
	var h Hash

	if !strings.HasPrefix(s, "0x") {
		return h, ErrInvalidHashHex
	}

	raw, err := hex.DecodeString(s[2:])
	if err != nil || len(raw) != HashSize {
		return h, ErrInvalidHashHex
	}

	copy(h[:], raw)

	return h, nil
}

// Keccak256 hashes arbitrary bytes with the legacy Keccak-256 function, the
// same digest the commitment ledger computes on its side.
func Keccak256(data []byte) Hash {
	var h Hash

	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	copy(h[:], d.Sum(nil))

	return h
}

// DeriveRaw computes the raw chain value for an identity at the given index.
//
// The material is joined as username:provider:secret:index. The exact joining
// order is part of the protocol: verifier and generator must agree on it.
func DeriveRaw(username, providerID, secret string, index uint64) Hash {
	return Keccak256(fmt.Appendf(nil, "%s:%s:%s:%d", username, providerID, secret, index))
}

// Commitment computes the publishable commitment of a raw chain value.
func Commitment(raw Hash) Hash {
	return Keccak256(raw[:])
}

// BindingKey derives the opaque ledger key for a (user, auth provider) pair.
//
// The key is recomputed on every use and never persisted, so the ledger learns
// nothing about the underlying identifiers.
func BindingKey(userID, servicePublicKey, providerID string) Hash {
	return Keccak256(fmt.Appendf(nil, "%s:%s:%s", userID, servicePublicKey, providerID))
}

// NumericCode truncates a raw chain value to a numeric one-time code of the
// given number of digits, zero-padded on the left.
//
// digits must be within [1, 10]; anything else is a programmer error and
// panics rather than producing a weaker code silently.
func NumericCode(raw Hash, digits int) string {
	if digits < 1 || digits > 10 {
		panic(fmt.Sprintf("chain: numeric code digits must be within [1,10], got %d", digits))
	}

	num := uint64(binary.BigEndian.Uint32(raw[:4]))

	mod := uint64(1)
	for range digits {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, num%mod)
}

package entity

import (
	"time"

	"github.com/vkng1104/otpchain/internal/pkg/chain"
)

// AuthProviderHandle identifies a validated authentication provider binding
// for a user. It is returned by the external auth collaborator and is the
// second half of the ledger identity binding.
type AuthProviderHandle struct {
	ID       string
	UserID   string
	Provider string
}

// CredentialInput is what callers present to prove control of an
// authentication provider before a chain operation runs.
type CredentialInput struct {
	UserID     string
	Provider   string
	ProviderID string
	DeviceID   string
}

// SensitiveIdentity carries the secret material of a user needed to derive
// chain values and sign ledger payloads. It is read from the external user
// collaborator on demand and never stored by this service.
type SensitiveIdentity struct {
	Username  string
	SecretKey string
	PublicKey string
}

// Window is the interval during which a registered commitment may be
// redeemed. Times are epoch seconds, mirroring what the ledger records.
type Window struct {
	Start int64
	End   int64
}

// PendingOtp is the cache entry staged at generation time so verification can
// reconstruct the chain preimage without re-deriving it from secret material.
//
// The cache is a hint, not a correctness boundary: the authoritative
// "already used" signal is the index counter, so entries are expired by TTL
// rather than deleted on read.
type PendingOtp struct {
	RawValue       chain.Hash
	AuthProviderID string
	NextCommitment chain.Hash
}

// RegistrationPayload is the signed payload submitted when binding an
// identity to the ledger for the first time.
type RegistrationPayload struct {
	Username   string `json:"username"`
	Service    string `json:"service"`
	Commitment string `json:"commitment_value"`
}

// VerifyPayload is the signed payload submitted with a verification attempt.
//
// Code is the raw chain preimage, NextCommitment the commitment the ledger
// should store for the following index once this one is consumed.
type VerifyPayload struct {
	Username       string `json:"username"`
	Service        string `json:"service"`
	Code           string `json:"otp"`
	NextCommitment string `json:"new_commitment_value"`
}

// Receipt is the ledger's acknowledgement of an accepted call.
type Receipt struct {
	Ref      string
	LogURL   string
	Accepted time.Time
}

// OtpDetails is the ledger-side view of one identity binding.
type OtpDetails struct {
	AuthProviderID string
	Commitment     chain.Hash
	Index          uint64
	Window         Window
}

package entity

import (
	"time"

	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

// AccountBalance is one currency account of a user. Amounts are integer
// minor units (cents for USD, dong for VND).
type AccountBalance struct {
	ID        int64
	OwnerID   string
	Currency  Currency
	Balance   int64
	Status    AccountStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TransactionHistory is one movement on one account. Amount is signed from
// the owner's point of view; BalanceAfter always equals BalanceBefore plus
// Amount.
type TransactionHistory struct {
	ID            int64
	OwnerID       string
	Currency      Currency
	Type          TransactionType
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	ReferenceID   string
	Description   string
	CreatedAt     time.Time
}

// NewAccount is the input for opening an account.
type NewAccount struct {
	ID             int64
	OwnerID        string
	Currency       Currency
	InitialBalance int64
	Status         AccountStatus
	HistoryID      int64
}

// TransferSpec describes one atomic two-account movement. History row ids
// are generated by the caller so the whole write is one round trip. Each
// history row carries its own reference; when left empty the store fills in
// the counterpart account's id so the two rows point at each other.
type TransferSpec struct {
	SenderID             string
	RecipientID          string
	Currency             Currency
	Amount               int64
	Type                 TransactionType
	SenderReferenceID    string
	RecipientReferenceID string
	Description          string
	SenderHistoryID      int64
	RecipientHistoryID   int64
}

// TransferResult reports the post-transfer balances.
type TransferResult struct {
	SenderBalance    int64
	RecipientBalance int64
}

// HistoryFilter narrows transaction listings.
type HistoryFilter struct {
	OwnerID  string
	Currency Currency
	Type     TransactionType
	Page     int32
	Size     int32
}

// PendingPayment is the cache entry staged between payment initiation and
// OTP confirmation. Amount and currency are fixed at initiation; only the
// status field changes afterwards.
type PendingPayment struct {
	TransactionID   string
	UserID          string
	Username        string
	CounterpartID   string
	CounterpartName string
	Currency        Currency
	Amount          int64
	Status          PaymentStatus
	Metadata        valueobject.JSONMap
	CreatedAt       time.Time
}

// SettlementReceipt is the durable record written to object storage when a
// payment settles, pairing the internal movement with the ledger receipt.
type SettlementReceipt struct {
	TransactionID   string              `json:"transaction_id"`
	UserID          string              `json:"user_id"`
	CounterpartID   string              `json:"counterpart_id"`
	CounterpartName string              `json:"counterpart_name"`
	Currency        string              `json:"currency"`
	Amount          int64               `json:"amount"`
	LedgerRef       string              `json:"ledger_ref"`
	LedgerLogURL    string              `json:"ledger_log_url,omitempty"`
	Metadata        valueobject.JSONMap `json:"metadata,omitempty"`
	SettledAt       time.Time           `json:"settled_at"`
}

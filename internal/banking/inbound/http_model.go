package inbound

import (
	"time"

	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

type AccountCreateRequest struct {
	Currency       string `json:"currency"`
	InitialBalance int64  `json:"initial_balance,omitempty"`
}

type AccountResponse struct {
	AccountID int64  `json:"account_id"`
	Currency  string `json:"currency"`
	Balance   int64  `json:"balance"`
	Status    string `json:"status"`
}

type AccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

type TransactionResponse struct {
	ID            int64     `json:"id"`
	Currency      string    `json:"currency"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore int64     `json:"balance_before"`
	BalanceAfter  int64     `json:"balance_after"`
	ReferenceID   string    `json:"reference_id,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type TransactionsResponse struct {
	Items []TransactionResponse `json:"items"`
	Total int64                 `json:"total"`
}

type TransferRequest struct {
	RecipientID string `json:"recipient_id"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
}

type TransferResponse struct {
	SenderBalance    int64 `json:"sender_balance"`
	RecipientBalance int64 `json:"recipient_balance"`
}

func (TransferResponse) Message() string {
	return "Transfer completed."
}

type PaymentInitiateRequest struct {
	CounterpartID   string              `json:"counterpart_id"`
	CounterpartName string              `json:"counterpart_name"`
	Currency        string              `json:"currency"`
	Amount          int64               `json:"amount"`
	IdempotencyKey  string              `json:"idempotency_key,omitempty"`
	Metadata        valueobject.JSONMap `json:"metadata,omitempty"`
}

type PaymentInitiateResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	ExpiresAt     int64  `json:"expires_at"`
}

func (PaymentInitiateResponse) Message() string {
	return "Payment initiated. Confirm with a one-time code before it expires."
}

type PaymentVerifyRequest struct {
	TransactionID string              `json:"transaction_id"`
	Code          string              `json:"code"`
	Metadata      valueobject.JSONMap `json:"metadata"`
}

type PaymentVerifyResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Balance       int64  `json:"balance"`
	LedgerRef     string `json:"ledger_ref"`
	ReceiptKey    string `json:"receipt_key"`
}

func (PaymentVerifyResponse) Message() string {
	return "Payment settled."
}

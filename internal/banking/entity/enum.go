package entity

import "strings"

type AccountStatus int16

const (
	// AccountStatusUnknown is mean status is not known / not set.
	AccountStatusUnknown AccountStatus = 0

	// AccountStatusActive mean the account can send and receive funds.
	AccountStatusActive AccountStatus = 1

	// AccountStatusFrozen mean the account is blocked from moving funds.
	AccountStatusFrozen AccountStatus = 2

	// AccountStatusClosed mean the account was closed and keeps history only.
	AccountStatusClosed AccountStatus = 3
)

func (as AccountStatus) String() string {
	switch as {
	case AccountStatusActive:
		return "Active"
	case AccountStatusFrozen:
		return "Frozen"
	case AccountStatusClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

func (as AccountStatus) IsUnknown() bool {
	switch as {
	case AccountStatusActive, AccountStatusFrozen, AccountStatusClosed:
		return false
	default:
		return true
	}
}

type Currency int16

const (
	CurrencyUnknown Currency = 0
	CurrencyUSD     Currency = 1
	CurrencyVND     Currency = 2
	CurrencyEUR     Currency = 3
)

func (c Currency) String() string {
	switch c {
	case CurrencyUSD:
		return "USD"
	case CurrencyVND:
		return "VND"
	case CurrencyEUR:
		return "EUR"
	default:
		return "Unknown"
	}
}

func (c Currency) IsUnknown() bool {
	switch c {
	case CurrencyUSD, CurrencyVND, CurrencyEUR:
		return false
	default:
		return true
	}
}

func CurrencyFromString(str string) Currency {
	switch strings.ToUpper(str) {
	case "USD":
		return CurrencyUSD
	case "VND":
		return CurrencyVND
	case "EUR":
		return CurrencyEUR
	default:
		return CurrencyUnknown
	}
}

type TransactionType int16

const (
	TransactionTypeUnknown         TransactionType = 0
	TransactionTypeDeposit         TransactionType = 1
	TransactionTypeWithdrawal      TransactionType = 2
	TransactionTypeTransfer        TransactionType = 3
	TransactionTypeExternalPayment TransactionType = 4
)

func (tt TransactionType) String() string {
	switch tt {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeWithdrawal:
		return "Withdrawal"
	case TransactionTypeTransfer:
		return "Transfer"
	case TransactionTypeExternalPayment:
		return "ExternalPayment"
	default:
		return "Unknown"
	}
}

type PaymentStatus int16

const (
	PaymentStatusUnknown PaymentStatus = 0
	PaymentStatusPending PaymentStatus = 1
	PaymentStatusSettled PaymentStatus = 2
	PaymentStatusFailed  PaymentStatus = 3
)

func (ps PaymentStatus) String() string {
	switch ps {
	case PaymentStatusPending:
		return "Pending"
	case PaymentStatusSettled:
		return "Settled"
	case PaymentStatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

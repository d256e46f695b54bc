package entity

import "errors"

var (
	// ErrInsufficientFunds means the sender balance cannot cover the amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAccountNotActive means one of the accounts is frozen or closed.
	ErrAccountNotActive = errors.New("account not active")
)

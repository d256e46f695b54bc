package inbound

import (
	"context"

	"github.com/vkng1104/otpchain/internal/banking/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/router"
)

type uc interface {
	AccountCreate(ctx context.Context, in usecase.AccountCreateInput) (*usecase.AccountCreateOutput, error)
	Balance(ctx context.Context, in usecase.BalanceInput) (*usecase.BalanceOutput, error)
	Accounts(ctx context.Context) (*usecase.AccountsOutput, error)
	Transactions(ctx context.Context, in usecase.TransactionsInput) (*usecase.TransactionsOutput, error)

	Transfer(ctx context.Context, in usecase.TransferInput) (*usecase.TransferOutput, error)
	PaymentInitiate(ctx context.Context, in usecase.PaymentInitiateInput) (*usecase.PaymentInitiateOutput, error)
	PaymentVerify(ctx context.Context, in usecase.PaymentVerifyInput) (*usecase.PaymentVerifyOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Accounts (need authenticated)
	r.POST("/api/v1/banking/accounts", end.AccountCreate)
	r.GET("/api/v1/banking/accounts", end.Accounts)
	r.GET("/api/v1/banking/accounts/:currency/balance", end.Balance)
	r.GET("/api/v1/banking/transactions", end.Transactions)

	// Money movement (need authenticated)
	r.POST("/api/v1/banking/transfer", end.Transfer)
	r.POST("/api/v1/banking/payments", end.PaymentInitiate)
	r.POST("/api/v1/banking/payments/verify", end.PaymentVerify)
}

package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/vkng1104/otpchain/internal/banking"
	bankingusecase "github.com/vkng1104/otpchain/internal/banking/usecase"
	"github.com/vkng1104/otpchain/internal/otp"
	otpusecase "github.com/vkng1104/otpchain/internal/otp/usecase"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

// otpVerifier lets the banking module redeem codes through the otp module
// without importing it.
type otpVerifier struct {
	uc *otpusecase.Usecase
}

func (v otpVerifier) VerifyPayment(ctx context.Context, userID, code string, metadata valueobject.JSONMap) (*bankingusecase.OtpReceipt, error) {
	out, err := v.uc.VerifyFor(ctx, userID, code, metadata)
	if err != nil {
		return nil, err
	}

	return &bankingusecase.OtpReceipt{LedgerRef: out.LedgerRef, LogURL: out.LogURL}, nil
}

func (a *App) initModules() {
	otpUC, err := otp.New(otp.Dependency{
		DBConn:       a.dbConn,
		CacheConn:    a.cacheConn,
		Router:       a.router,
		Ledger:       a.ledger,
		AuthProvider: a.identity,
		Identity:     a.identity,
		Config:       a.config,
		Instrument:   a.ins,
		UID:          a.uid,
		Clock:        a.clock,
		Validator:    a.validator,
	})
	if err != nil {
		slog.Error("failed to init module otp", "error", err)
		os.Exit(1)
	}

	if err := banking.New(banking.Dependency{
		DBConn:      a.dbConn,
		CacheConn:   a.cacheConn,
		Router:      a.router,
		Messaging:   a.messaging,
		Storage:     a.storage,
		OtpVerifier: otpVerifier{uc: otpUC},
		Idempotency: a.idemp,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		OID:         a.oid,
		Clock:       a.clock,
		Validator:   a.validator,
		Goroutine:   a.goroutine,
	}); err != nil {
		slog.Error("failed to init module banking", "error", err)
		os.Exit(1)
	}
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

type PaymentVerifyInput struct {
	TransactionID string `validate:"required"`
	Code          string `validate:"required,numeric"`
	Metadata      valueobject.JSONMap
}

type PaymentVerifyOutput struct {
	TransactionID string
	Status        entity.PaymentStatus
	Balance       int64
	LedgerRef     string
	ReceiptKey    string
}

// PaymentVerify confirms a staged payment with a one-time code and settles
// it. The code is redeemed with the payment details folded into the signed
// payload, so the ledger receipt attests to this exact amount and
// counterpart. Funds then move to the settlement account in one atomic
// write, the receipt is archived, and the staged entry flips to settled.
func (s *Usecase) PaymentVerify(ctx context.Context, in PaymentVerifyInput) (*PaymentVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "PaymentVerify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	payment, err := s.repoCache.GetPendingPayment(ctx, clm.UserID, in.TransactionID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("transaction not found or expired", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read pending payment", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	switch payment.Status {
	case entity.PaymentStatusPending:
	case entity.PaymentStatusSettled:
		return nil, goerror.NewBusiness("payment already settled", goerror.CodeConflict)
	default:
		return nil, goerror.NewBusiness("payment is not confirmable", goerror.CodeConflict)
	}

	// Re-check the balance here so a code is never redeemed on a payment
	// that cannot settle anymore.
	account, err := s.repoDB.GetAccount(ctx, clm.UserID, payment.Currency)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get account", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if account.Status != entity.AccountStatusActive {
		return nil, goerror.NewBusiness("account is not active", goerror.CodeForbidden)
	}
	if account.Balance < payment.Amount {
		return nil, goerror.NewBusiness("insufficient funds", goerror.CodeInvalidInput)
	}

	meta := valueobject.JSONMap{}
	for k, v := range payment.Metadata {
		meta[k] = v
	}
	for k, v := range in.Metadata {
		meta[k] = v
	}
	meta["transaction_id"] = payment.TransactionID
	meta["counterpart_id"] = payment.CounterpartID
	meta["currency"] = payment.Currency.String()
	meta["amount"] = payment.Amount

	otpReceipt, err := s.otp.VerifyPayment(ctx, clm.UserID, in.Code, meta)
	if err != nil {
		return nil, err
	}

	receiptKey := s.receipts.Key(payment.TransactionID)

	result, err := s.repoDB.Transfer(ctx, entity.TransferSpec{
		SenderID:             clm.UserID,
		RecipientID:          s.settlementOwnerID,
		Currency:             payment.Currency,
		Amount:               payment.Amount,
		Type:                 entity.TransactionTypeExternalPayment,
		SenderReferenceID:    payment.TransactionID,
		RecipientReferenceID: payment.TransactionID,
		Description:          "payment to " + payment.CounterpartName,
		SenderHistoryID:      s.uid.Generate(),
		RecipientHistoryID:   s.uid.Generate(),
	})
	if err != nil {
		// The staged entry stays pending so the user can retry with a fresh
		// code once the obstacle clears; the TTL expires it otherwise.
		return nil, s.mapTransferError(ctx, clm.UserID, err)
	}

	if err := s.repoCache.UpdatePaymentStatus(ctx, clm.UserID, payment.TransactionID, entity.PaymentStatusSettled); err != nil {
		slog.ErrorContext(ctx, "failed to mark payment settled", "user_id", clm.UserID, "error", err)
	}

	receipt := entity.SettlementReceipt{
		TransactionID:   payment.TransactionID,
		UserID:          clm.UserID,
		CounterpartID:   payment.CounterpartID,
		CounterpartName: payment.CounterpartName,
		Currency:        payment.Currency.String(),
		Amount:          payment.Amount,
		LedgerRef:       otpReceipt.LedgerRef,
		LedgerLogURL:    otpReceipt.LogURL,
		Metadata:        payment.Metadata,
		SettledAt:       s.clock.Now(),
	}
	event := PaymentSettledEvent{
		TransactionID:   payment.TransactionID,
		UserID:          clm.UserID,
		CounterpartID:   payment.CounterpartID,
		CounterpartName: payment.CounterpartName,
		Currency:        payment.Currency.String(),
		Amount:          payment.Amount,
		LedgerRef:       otpReceipt.LedgerRef,
		ReceiptKey:      receiptKey,
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		if _, err := s.receipts.Put(ctx, receipt); err != nil {
			return err
		}
		return s.repoMessaging.PublishPaymentSettled(ctx, event)
	})

	return &PaymentVerifyOutput{
		TransactionID: payment.TransactionID,
		Status:        entity.PaymentStatusSettled,
		Balance:       result.SenderBalance,
		LedgerRef:     otpReceipt.LedgerRef,
		ReceiptKey:    receiptKey,
	}, nil
}

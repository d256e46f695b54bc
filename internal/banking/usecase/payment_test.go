package usecase

import (
	"testing"
	"time"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

func (f *fixture) initiatePayment(t *testing.T, in PaymentInitiateInput) *PaymentInitiateOutput {
	t.Helper()

	out, err := f.uc.PaymentInitiate(authedCtx(testUserID), in)
	if err != nil {
		t.Fatalf("failed to initiate payment: %v", err)
	}
	return out
}

func TestPaymentInitiate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)

		// Act
		out, err := fx.uc.PaymentInitiate(authedCtx(testUserID), PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
			Metadata:        valueobject.JSONMap{"order_id": "ord_19"},
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Status != entity.PaymentStatusPending {
			t.Fatalf("expected pending status, got %v", out.Status)
		}
		if out.ExpiresAt != fx.now.Add(2*time.Minute).Unix() {
			t.Fatalf("unexpected expiry %d", out.ExpiresAt)
		}

		staged, ok := fx.cache.payments[paymentKey(testUserID, out.TransactionID)]
		if !ok {
			t.Fatal("expected payment staged in cache")
		}
		if staged.CounterpartID != testMerchantID || staged.Amount != 450 {
			t.Fatalf("unexpected staged payment %+v", staged)
		}
		if ttl := fx.cache.ttls[paymentKey(testUserID, out.TransactionID)]; ttl != 2*time.Minute {
			t.Fatalf("expected ttl 2m, got %v", ttl)
		}

		// No funds move on initiation.
		if fx.db.accounts[accountKey(testUserID, entity.CurrencyUSD)].Balance != 10_000 {
			t.Fatal("expected balance untouched")
		}
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 100, entity.AccountStatusActive)

		// Act
		_, err := fx.uc.PaymentInitiate(authedCtx(testUserID), PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("FrozenAccount", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusFrozen)

		// Act
		_, err := fx.uc.PaymentInitiate(authedCtx(testUserID), PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("NoAccount", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.PaymentInitiate(authedCtx(testUserID), PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeNotFound)
	})

	t.Run("IdempotentRetryConflicts", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)

		in := PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
			IdempotencyKey:  "client-key-1",
		}
		fx.initiatePayment(t, in)

		// Act
		_, err := fx.uc.PaymentInitiate(authedCtx(testUserID), in)

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
		if len(fx.cache.payments) != 1 {
			t.Fatalf("expected a single staged payment, got %d", len(fx.cache.payments))
		}
	})

	t.Run("FailedKeyConflicts", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		in := PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
			IdempotencyKey:  "client-key-2",
		}

		// No account, so the first attempt fails and burns the key.
		if _, err := fx.uc.PaymentInitiate(authedCtx(testUserID), in); err == nil {
			t.Fatal("expected first attempt to fail")
		}
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)

		// Act
		_, err := fx.uc.PaymentInitiate(authedCtx(testUserID), in)

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
	})
}

func TestPaymentVerify(t *testing.T) {
	initiate := func(t *testing.T, fx *fixture) *PaymentInitiateOutput {
		t.Helper()
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)
		fx.seedAccount(testSettlementID, entity.CurrencyUSD, 0, entity.AccountStatusActive)
		return fx.initiatePayment(t, PaymentInitiateInput{
			CounterpartID:   testMerchantID,
			CounterpartName: "Corner Coffee",
			Currency:        "USD",
			Amount:          450,
			Metadata:        valueobject.JSONMap{"order_id": "ord_19"},
		})
	}

	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		initiated := initiate(t, fx)

		// Act
		out, err := fx.uc.PaymentVerify(authedCtx(testUserID), PaymentVerifyInput{
			TransactionID: initiated.TransactionID,
			Code:          "482913",
			Metadata:      valueobject.JSONMap{"device": "pos_7"},
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Status != entity.PaymentStatusSettled {
			t.Fatalf("expected settled status, got %v", out.Status)
		}
		if out.Balance != 9_550 {
			t.Fatalf("expected balance 9550, got %d", out.Balance)
		}
		if out.LedgerRef != "0xreceipt" {
			t.Fatalf("unexpected ledger ref %q", out.LedgerRef)
		}

		// Code redeemed once, bound to the payment details.
		if len(fx.otp.calls) != 1 {
			t.Fatalf("expected 1 otp call, got %d", len(fx.otp.calls))
		}
		call := fx.otp.calls[0]
		if call.code != "482913" {
			t.Fatalf("unexpected code %q", call.code)
		}
		if call.metadata["transaction_id"] != initiated.TransactionID || call.metadata["counterpart_id"] != testMerchantID {
			t.Fatalf("unexpected otp metadata %+v", call.metadata)
		}

		// Staged and caller metadata travel into the signed payload.
		if call.metadata["order_id"] != "ord_19" || call.metadata["device"] != "pos_7" {
			t.Fatalf("expected staged and caller metadata folded in, got %+v", call.metadata)
		}

		// Funds moved to the settlement account.
		if len(fx.db.transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(fx.db.transfers))
		}
		spec := fx.db.transfers[0]
		if spec.RecipientID != testSettlementID || spec.Type != entity.TransactionTypeExternalPayment {
			t.Fatalf("unexpected transfer spec %+v", spec)
		}
		if spec.SenderReferenceID != initiated.TransactionID || spec.RecipientReferenceID != initiated.TransactionID {
			t.Fatalf("expected both history rows referencing %q, got %+v", initiated.TransactionID, spec)
		}

		staged := fx.cache.payments[paymentKey(testUserID, initiated.TransactionID)]
		if staged.Status != entity.PaymentStatusSettled {
			t.Fatalf("expected staged entry settled, got %v", staged.Status)
		}

		if err := fx.goroutine.Wait(); err != nil {
			t.Fatalf("expected no async error, got %v", err)
		}
		stored := fx.receipts.receipts()
		if len(stored) != 1 {
			t.Fatalf("expected 1 archived receipt, got %d", len(stored))
		}
		if stored[0].LedgerRef != "0xreceipt" || stored[0].Amount != 450 {
			t.Fatalf("unexpected receipt %+v", stored[0])
		}
		events := fx.mq.settledEvents()
		if len(events) != 1 {
			t.Fatalf("expected 1 settled event, got %d", len(events))
		}
		if events[0].ReceiptKey != out.ReceiptKey {
			t.Fatalf("expected event receipt key %q, got %q", out.ReceiptKey, events[0].ReceiptKey)
		}
	})

	t.Run("UnknownTransaction", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.PaymentVerify(authedCtx(testUserID), PaymentVerifyInput{
			TransactionID: "txn_missing",
			Code:          "482913",
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeNotFound)
		if len(fx.otp.calls) != 0 {
			t.Fatal("expected no otp call for an unknown transaction")
		}
	})

	t.Run("AlreadySettled", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		initiated := initiate(t, fx)
		in := PaymentVerifyInput{TransactionID: initiated.TransactionID, Code: "482913"}
		if _, err := fx.uc.PaymentVerify(authedCtx(testUserID), in); err != nil {
			t.Fatalf("failed to settle payment: %v", err)
		}

		// Act
		_, err := fx.uc.PaymentVerify(authedCtx(testUserID), in)

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
		if len(fx.otp.calls) != 1 {
			t.Fatal("expected no second otp call")
		}
	})

	t.Run("RejectedCode", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		initiated := initiate(t, fx)
		fx.otp.err = goerror.NewBusiness("invalid otp", goerror.CodeUnauthorized)

		// Act
		_, err := fx.uc.PaymentVerify(authedCtx(testUserID), PaymentVerifyInput{
			TransactionID: initiated.TransactionID,
			Code:          "000000",
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
		if len(fx.db.transfers) != 0 {
			t.Fatal("expected no funds moved on a rejected code")
		}
		staged := fx.cache.payments[paymentKey(testUserID, initiated.TransactionID)]
		if staged.Status != entity.PaymentStatusPending {
			t.Fatalf("expected payment still pending, got %v", staged.Status)
		}
	})

	t.Run("BalanceDroppedAfterInitiate", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		initiated := initiate(t, fx)
		fx.db.accounts[accountKey(testUserID, entity.CurrencyUSD)].Balance = 100

		// Act
		_, err := fx.uc.PaymentVerify(authedCtx(testUserID), PaymentVerifyInput{
			TransactionID: initiated.TransactionID,
			Code:          "482913",
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)

		// The code must not be redeemed on a payment that cannot settle.
		if len(fx.otp.calls) != 0 {
			t.Fatalf("expected no otp redemption, got %d", len(fx.otp.calls))
		}
		staged := fx.cache.payments[paymentKey(testUserID, initiated.TransactionID)]
		if staged.Status != entity.PaymentStatusPending {
			t.Fatalf("expected payment still pending, got %v", staged.Status)
		}
	})

	t.Run("SettlementFailureLeavesPending", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		initiated := initiate(t, fx)
		fx.db.transferErr = goerror.ErrConflict

		// Act
		_, err := fx.uc.PaymentVerify(authedCtx(testUserID), PaymentVerifyInput{
			TransactionID: initiated.TransactionID,
			Code:          "482913",
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)

		// The entry stays pending so a retry with a fresh code can settle it.
		staged := fx.cache.payments[paymentKey(testUserID, initiated.TransactionID)]
		if staged.Status != entity.PaymentStatusPending {
			t.Fatalf("expected payment still pending, got %v", staged.Status)
		}

		fx.db.transferErr = nil
		out, err := fx.uc.PaymentVerify(authedCtx(testUserID), PaymentVerifyInput{
			TransactionID: initiated.TransactionID,
			Code:          "613804",
		})
		if err != nil {
			t.Fatalf("expected retry to settle, got %v", err)
		}
		if out.Status != entity.PaymentStatusSettled {
			t.Fatalf("expected settled status, got %v", out.Status)
		}
		if len(fx.otp.calls) != 2 {
			t.Fatalf("expected a fresh redemption per attempt, got %d", len(fx.otp.calls))
		}
	})
}

package usecase

import (
	"context"
	"strconv"
	"testing"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

func TestTransfer(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)
		fx.seedAccount(testRecipientID, entity.CurrencyUSD, 500, entity.AccountStatusActive)

		// Act
		out, err := fx.uc.Transfer(authedCtx(testUserID), TransferInput{
			RecipientID: testRecipientID,
			Currency:    "USD",
			Amount:      2_500,
			Description: "rent split",
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.SenderBalance != 7_500 {
			t.Fatalf("expected sender balance 7500, got %d", out.SenderBalance)
		}
		if out.RecipientBalance != 3_000 {
			t.Fatalf("expected recipient balance 3000, got %d", out.RecipientBalance)
		}

		if len(fx.db.transfers) != 1 {
			t.Fatalf("expected 1 transfer, got %d", len(fx.db.transfers))
		}
		spec := fx.db.transfers[0]
		if spec.Type != entity.TransactionTypeTransfer {
			t.Fatalf("expected transfer type, got %v", spec.Type)
		}
		if spec.SenderHistoryID == spec.RecipientHistoryID {
			t.Fatal("expected distinct history ids for the two movements")
		}

		// The movements reference each other through the counterpart account.
		senderAcc := fx.db.accounts[accountKey(testUserID, entity.CurrencyUSD)]
		recipientAcc := fx.db.accounts[accountKey(testRecipientID, entity.CurrencyUSD)]
		if spec.SenderReferenceID != strconv.FormatInt(recipientAcc.ID, 10) {
			t.Fatalf("expected sender row referencing account %d, got %q", recipientAcc.ID, spec.SenderReferenceID)
		}
		if spec.RecipientReferenceID != strconv.FormatInt(senderAcc.ID, 10) {
			t.Fatalf("expected recipient row referencing account %d, got %q", senderAcc.ID, spec.RecipientReferenceID)
		}

		if err := fx.goroutine.Wait(); err != nil {
			t.Fatalf("expected no async error, got %v", err)
		}
		events := fx.mq.completedEvents()
		if len(events) != 1 {
			t.Fatalf("expected 1 completed event, got %d", len(events))
		}
		if events[0].SenderID != testUserID || events[0].RecipientID != testRecipientID || events[0].Amount != 2_500 {
			t.Fatalf("unexpected event %+v", events[0])
		}
	})

	t.Run("SelfTransfer", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)

		// Act
		_, err := fx.uc.Transfer(authedCtx(testUserID), TransferInput{
			RecipientID: testUserID,
			Currency:    "USD",
			Amount:      100,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})

	t.Run("InsufficientFunds", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 100, entity.AccountStatusActive)
		fx.seedAccount(testRecipientID, entity.CurrencyUSD, 0, entity.AccountStatusActive)

		// Act
		_, err := fx.uc.Transfer(authedCtx(testUserID), TransferInput{
			RecipientID: testRecipientID,
			Currency:    "USD",
			Amount:      101,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
		if fx.db.accounts[accountKey(testUserID, entity.CurrencyUSD)].Balance != 100 {
			t.Fatal("expected sender balance untouched")
		}
	})

	t.Run("RecipientHasNoAccount", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)

		// Act
		_, err := fx.uc.Transfer(authedCtx(testUserID), TransferInput{
			RecipientID: testRecipientID,
			Currency:    "USD",
			Amount:      100,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeNotFound)
	})

	t.Run("FrozenRecipient", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)
		fx.seedAccount(testRecipientID, entity.CurrencyUSD, 0, entity.AccountStatusFrozen)

		// Act
		_, err := fx.uc.Transfer(authedCtx(testUserID), TransferInput{
			RecipientID: testRecipientID,
			Currency:    "USD",
			Amount:      100,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("SerializationConflict", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 10_000, entity.AccountStatusActive)
		fx.seedAccount(testRecipientID, entity.CurrencyUSD, 0, entity.AccountStatusActive)
		fx.db.transferErr = goerror.ErrConflict

		// Act
		_, err := fx.uc.Transfer(authedCtx(testUserID), TransferInput{
			RecipientID: testRecipientID,
			Currency:    "USD",
			Amount:      100,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.Transfer(context.Background(), TransferInput{
			RecipientID: testRecipientID,
			Currency:    "USD",
			Amount:      100,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

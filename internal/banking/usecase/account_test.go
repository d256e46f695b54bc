package usecase

import (
	"testing"
	"time"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

func TestAccountCreate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		out, err := fx.uc.AccountCreate(authedCtx(testUserID), AccountCreateInput{
			Currency:       "usd",
			InitialBalance: 1_000,
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Currency != entity.CurrencyUSD {
			t.Fatalf("expected USD account, got %v", out.Currency)
		}
		if out.Balance != 1_000 {
			t.Fatalf("expected opening balance 1000, got %d", out.Balance)
		}
		if out.Status != entity.AccountStatusActive {
			t.Fatalf("expected active account, got %v", out.Status)
		}
	})

	t.Run("DuplicateCurrency", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyUSD, 0, entity.AccountStatusActive)

		// Act
		_, err := fx.uc.AccountCreate(authedCtx(testUserID), AccountCreateInput{Currency: "USD"})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
	})

	t.Run("UnsupportedCurrency", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.AccountCreate(authedCtx(testUserID), AccountCreateInput{Currency: "XAU"})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestBalance(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.seedAccount(testUserID, entity.CurrencyEUR, 7_200, entity.AccountStatusActive)

		// Act
		out, err := fx.uc.Balance(authedCtx(testUserID), BalanceInput{Currency: "EUR"})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Balance != 7_200 {
			t.Fatalf("expected balance 7200, got %d", out.Balance)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.Balance(authedCtx(testUserID), BalanceInput{Currency: "EUR"})

		// Assert
		assertBusinessCode(t, err, goerror.CodeNotFound)
	})
}

func TestAccounts(t *testing.T) {
	// Arrange
	fx := newFixture(t)
	fx.seedAccount(testUserID, entity.CurrencyUSD, 100, entity.AccountStatusActive)
	fx.seedAccount(testUserID, entity.CurrencyVND, 2_500_000, entity.AccountStatusActive)
	fx.seedAccount(testRecipientID, entity.CurrencyUSD, 999, entity.AccountStatusActive)

	// Act
	out, err := fx.uc.Accounts(authedCtx(testUserID))

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(out.Accounts))
	}
}

func TestTransactions(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.histories = []entity.TransactionHistory{
			{
				ID:            1,
				OwnerID:       testUserID,
				Currency:      entity.CurrencyUSD,
				Type:          entity.TransactionTypeTransfer,
				Amount:        -2_500,
				BalanceBefore: 10_000,
				BalanceAfter:  7_500,
				Description:   "rent split",
				CreatedAt:     time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
			},
		}

		// Act
		out, err := fx.uc.Transactions(authedCtx(testUserID), TransactionsInput{Currency: "USD"})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out.Total != 1 || len(out.Items) != 1 {
			t.Fatalf("expected 1 item, got total=%d items=%d", out.Total, len(out.Items))
		}
		if out.Items[0].Amount != -2_500 || out.Items[0].BalanceAfter != 7_500 {
			t.Fatalf("unexpected item %+v", out.Items[0])
		}
	})

	t.Run("PageSizeTooLarge", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.Transactions(authedCtx(testUserID), TransactionsInput{Size: 500})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})
}

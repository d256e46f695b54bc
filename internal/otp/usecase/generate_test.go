package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

func TestGenerate(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 3

		// Act
		out, err := fx.uc.Generate(authedCtx(testUserID), GenerateInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.Code) != 6 {
			t.Fatalf("expected 6 digit code, got %q", out.Code)
		}

		wantRaw := chain.DeriveRaw(testUsername, testProviderID, testSecret, 3)
		if out.Code != chain.NumericCode(wantRaw, 6) {
			t.Fatalf("code does not match chain value at current index")
		}

		staged, ok := fx.cache.entries[testUserID+":"+out.Code]
		if !ok {
			t.Fatalf("expected pending otp staged in cache")
		}
		if staged.RawValue != wantRaw {
			t.Fatalf("staged raw value mismatch")
		}
		if staged.NextCommitment != chain.Commitment(chain.DeriveRaw(testUsername, testProviderID, testSecret, 4)) {
			t.Fatalf("staged next commitment mismatch")
		}

		if out.StartTime != fx.now.Unix() || out.EndTime != fx.now.Add(5*time.Minute).Unix() {
			t.Fatalf("unexpected window [%d, %d]", out.StartTime, out.EndTime)
		}
		if fx.cache.ttls[testUserID+":"+out.Code] != 5*time.Minute {
			t.Fatalf("cache ttl should match window duration")
		}

		// index must not move at generation time
		if fx.db.counters[counterKey(testUserID, testProviderID)] != 3 {
			t.Fatalf("generate must not consume the index")
		}
	})

	t.Run("CustomDuration", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 0

		// Act
		out, err := fx.uc.Generate(authedCtx(testUserID), GenerateInput{
			Provider:        "password",
			ProviderID:      testProviderID,
			DurationSeconds: 60,
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.EndTime-out.StartTime != 60 {
			t.Fatalf("expected 60s window, got %ds", out.EndTime-out.StartTime)
		}
	})

	t.Run("NotRegistered", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.Generate(authedCtx(testUserID), GenerateInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeNotFound)
	})

	t.Run("LedgerWindowFailureAborts", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 0
		fx.ledger.windowErr = entity.ErrLedgerUnavailable

		// Act
		_, err := fx.uc.Generate(authedCtx(testUserID), GenerateInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeTimeout)
		if len(fx.cache.entries) != 0 {
			t.Fatalf("no code must be staged when the ledger window update fails")
		}
	})

	t.Run("InvalidCredential", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.auth.validateErr = goerror.ErrNotFound

		// Act
		_, err := fx.uc.Generate(authedCtx(testUserID), GenerateInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.Generate(context.Background(), GenerateInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
	})
}

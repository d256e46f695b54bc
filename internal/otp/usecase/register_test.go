package usecase

import (
	"testing"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

func TestRegister(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		out, err := fx.uc.Register(authedCtx(testUserID), RegisterInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.AuthProviderID != testProviderID {
			t.Fatalf("expected provider id %q, got %q", testProviderID, out.AuthProviderID)
		}

		call := fx.ledger.calls[0]
		if call.name != "register" {
			t.Fatalf("expected ledger registration, got %q", call.name)
		}
		if call.key != chain.BindingKey(testUserID, testServiceKey, testProviderID) {
			t.Fatalf("binding key mismatch")
		}

		payload := call.payload.(entity.RegistrationPayload)
		wantCommitment := chain.Commitment(chain.DeriveRaw(testUsername, testProviderID, testSecret, 0))
		if payload.Commitment != wantCommitment.Hex() {
			t.Fatalf("registration must commit to the chain value at index zero")
		}

		if _, ok := fx.db.counters[counterKey(testUserID, testProviderID)]; !ok {
			t.Fatalf("expected index counter row created")
		}
	})

	t.Run("AlreadyRegisteredOnLedger", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.ledger.registerErr = entity.ErrLedgerRejected

		// Act
		_, err := fx.uc.Register(authedCtx(testUserID), RegisterInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
		if len(fx.db.created) != 0 {
			t.Fatalf("counter must not be created when the ledger refuses")
		}
	})

	t.Run("CounterConflict", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 4

		// Act
		_, err := fx.uc.Register(authedCtx(testUserID), RegisterInput{
			Provider:   "password",
			ProviderID: testProviderID,
		})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
	})

	t.Run("MissingProvider", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)

		// Act
		_, err := fx.uc.Register(authedCtx(testUserID), RegisterInput{ProviderID: testProviderID})

		// Assert
		assertBusinessCode(t, err, goerror.CodeInvalidInput)
	})
}

func TestModeration(t *testing.T) {
	t.Run("BlacklistRequiresAdmin", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.ledger.hasRole = false

		// Act
		_, err := fx.uc.Blacklist(authedCtx(testUserID), BlacklistInput{UserID: testUserID})

		// Assert
		assertBusinessCode(t, err, goerror.CodeForbidden)
	})

	t.Run("BlacklistAllBindings", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.ledger.hasRole = true
		fx.db.counters[counterKey(testUserID, testProviderID)] = 1

		// Act
		out, err := fx.uc.Blacklist(authedCtx(testUserID), BlacklistInput{UserID: testUserID})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out.LedgerRefs) != 1 {
			t.Fatalf("expected one receipt per binding, got %d", len(out.LedgerRefs))
		}
	})

	t.Run("ResetClearsCounters", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.ledger.hasRole = true
		fx.db.counters[counterKey(testUserID, testProviderID)] = 7

		// Act
		_, err := fx.uc.Reset(authedCtx(testUserID), ResetInput{UserID: testUserID})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(fx.db.counters) != 0 {
			t.Fatalf("reset must drop local counters")
		}
		if fx.ledger.calls[len(fx.ledger.calls)-1].name != "reset" {
			t.Fatalf("expected ledger reset call")
		}
	})

	t.Run("ResetUnknownUser", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.ledger.hasRole = true

		// Act
		_, err := fx.uc.Reset(authedCtx(testUserID), ResetInput{UserID: "9c1f4f3a-0000-4a29-8e16-7a4a3c3f1a99"})

		// Assert
		assertBusinessCode(t, err, goerror.CodeNotFound)
	})
}

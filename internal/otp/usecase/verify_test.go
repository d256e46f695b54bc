package usecase

import (
	"sync"
	"testing"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

func stagePending(fx *fixture, index uint64) string {
	raw := chain.DeriveRaw(testUsername, testProviderID, testSecret, index)
	code := chain.NumericCode(raw, 6)
	fx.cache.entries[testUserID+":"+code] = entity.PendingOtp{
		RawValue:       raw,
		AuthProviderID: testProviderID,
		NextCommitment: chain.Commitment(chain.DeriveRaw(testUsername, testProviderID, testSecret, index+1)),
	}
	return code
}

func TestVerify(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 2
		code := stagePending(fx, 2)

		// Act
		out, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.LedgerRef == "" {
			t.Fatalf("expected ledger receipt ref")
		}
		if fx.db.counters[counterKey(testUserID, testProviderID)] != 3 {
			t.Fatalf("accepted verification must advance the index")
		}

		last := fx.ledger.calls[len(fx.ledger.calls)-1]
		if last.name != "verify" || last.index != 2 {
			t.Fatalf("ledger must be called with the locked index, got %+v", last)
		}
		payload := last.payload.(entity.VerifyPayload)
		if payload.Code != chain.DeriveRaw(testUsername, testProviderID, testSecret, 2).Hex() {
			t.Fatalf("payload must carry the raw chain value")
		}
		if last.sig == "" {
			t.Fatalf("payload must be signed")
		}
	})

	t.Run("UnknownCode", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 0

		// Act
		_, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: "123456"})

		// Assert
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
		if fx.db.counters[counterKey(testUserID, testProviderID)] != 0 {
			t.Fatalf("rejected verification must not advance the index")
		}
	})

	t.Run("LedgerRejectsKeepsIndex", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 5
		code := stagePending(fx, 5)
		fx.ledger.verifyErr = entity.ErrLedgerRejected

		// Act
		_, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code})

		// Assert
		assertBusinessCode(t, err, goerror.CodeUnauthorized)
		if fx.db.counters[counterKey(testUserID, testProviderID)] != 5 {
			t.Fatalf("rejected verification must not advance the index")
		}
	})

	t.Run("LedgerReplayIsConflict", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 1
		code := stagePending(fx, 1)
		fx.ledger.verifyErr = entity.ErrLedgerReplay

		// Act
		_, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
	})

	t.Run("SecondRedeemFails", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 0
		code := stagePending(fx, 0)

		if _, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code}); err != nil {
			t.Fatalf("first verification should pass: %v", err)
		}

		// The ledger now holds the next commitment, so the same preimage is
		// a replay on the second attempt.
		fx.ledger.verifyErr = entity.ErrLedgerReplay

		// Act
		_, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code})

		// Assert
		assertBusinessCode(t, err, goerror.CodeConflict)
		if fx.db.counters[counterKey(testUserID, testProviderID)] != 1 {
			t.Fatalf("index must advance exactly once")
		}
	})

	t.Run("ConcurrentRedeemsConsumeOnce", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 0
		code := stagePending(fx, 0)

		// Whichever attempt loses the row lock sees the advanced index, and
		// the ledger treats its preimage as a replay.
		fx.ledger.verifyFn = func(index uint64) error {
			if index != 0 {
				return entity.ErrLedgerReplay
			}
			return nil
		}

		// Act
		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code})
			}()
		}
		wg.Wait()

		// Assert
		var accepted, replayed int
		for _, err := range errs {
			if err == nil {
				accepted++
				continue
			}
			assertBusinessCode(t, err, goerror.CodeConflict)
			replayed++
		}
		if accepted != 1 || replayed != 1 {
			t.Fatalf("expected exactly one accepted and one replayed attempt, got %d and %d", accepted, replayed)
		}
		if got := fx.db.counters[counterKey(testUserID, testProviderID)]; got != 1 {
			t.Fatalf("index must advance exactly once, got %d", got)
		}
	})

	t.Run("MetadataChangesSignature", func(t *testing.T) {
		// Arrange
		fx := newFixture(t)
		fx.db.counters[counterKey(testUserID, testProviderID)] = 0
		code := stagePending(fx, 0)

		if _, err := fx.uc.Verify(authedCtx(testUserID), VerifyInput{Code: code}); err != nil {
			t.Fatalf("plain verification should pass: %v", err)
		}
		plainSig := fx.ledger.calls[len(fx.ledger.calls)-1].sig

		fx2 := newFixture(t)
		fx2.db.counters[counterKey(testUserID, testProviderID)] = 0
		code2 := stagePending(fx2, 0)

		// Act
		_, err := fx2.uc.VerifyFor(authedCtx(testUserID), testUserID, code2,
			valueobject.JSONMap{"amount": 1500, "currency": "USD"})

		// Assert
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		metaSig := fx2.ledger.calls[len(fx2.ledger.calls)-1].sig
		if metaSig == plainSig {
			t.Fatalf("signature must bind the context metadata")
		}
	})
}

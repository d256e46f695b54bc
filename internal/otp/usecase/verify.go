package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

type VerifyInput struct {
	Code string `validate:"required,numeric"`

	// Metadata is folded into the signed payload so the ledger receipt
	// attests to what the verification authorized, e.g. a payment amount.
	Metadata valueobject.JSONMap
}

type VerifyOutput struct {
	AuthProviderID string
	LedgerRef      string
	LogURL         string
}

// Verify redeems a staged code against the ledger. The index counter row is
// locked for the duration of the ledger call and advanced only on an
// accepted verdict, so concurrent attempts with the same code serialize and
// at most one consumes the index.
func (s *Usecase) Verify(ctx context.Context, in VerifyInput) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "Verify")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	return s.verifyForUser(ctx, clm.UserID, in)
}

// verifyForUser is the shared core used by Verify and by the payment flow,
// which authorizes on behalf of an already-authenticated user.
func (s *Usecase) verifyForUser(ctx context.Context, userID string, in VerifyInput) (*VerifyOutput, error) {
	pending, err := s.repoCache.GetPendingOtp(ctx, userID, in.Code)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending otp for code", "user_id", userID)
		return nil, goerror.NewBusiness("invalid otp", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read pending otp", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ident, err := s.sensitiveIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.authProvider.ProviderByID(ctx, pending.AuthProviderID, userID); err != nil {
		slog.WarnContext(ctx, "auth provider no longer valid", "user_id", userID, "auth_provider_id", pending.AuthProviderID)
		return nil, goerror.NewBusiness("invalid otp", goerror.CodeUnauthorized)
	}

	var out *VerifyOutput
	err = s.repoDB.WithIndexLock(ctx, userID, pending.AuthProviderID,
		func(ctx context.Context, index uint64, increment func() error) error {
			payload := entity.VerifyPayload{
				Username:       ident.Username,
				Service:        s.servicePublicKey,
				Code:           pending.RawValue.Hex(),
				NextCommitment: pending.NextCommitment.Hex(),
			}

			sig, err := s.signPayload(ident.SecretKey,
				[]string{payload.Username, payload.Service, payload.Code, payload.NextCommitment},
				in.Metadata)
			if err != nil {
				return goerror.NewServer(err)
			}

			receipt, err := s.ledger.Verify(ctx, s.bindingFor(userID, pending.AuthProviderID), index, payload, sig)
			if err != nil {
				return s.mapLedgerError(err)
			}

			if err := increment(); err != nil {
				slog.ErrorContext(ctx, "failed to advance otp index", "user_id", userID, "error", err)
				return goerror.NewServer(err)
			}

			out = &VerifyOutput{
				AuthProviderID: pending.AuthProviderID,
				LedgerRef:      receipt.Ref,
				LogURL:         receipt.LogURL,
			}
			return nil
		})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity not registered", "user_id", userID, "auth_provider_id", pending.AuthProviderID)
		return nil, goerror.NewBusiness("identity not registered", goerror.CodeNotFound)
	}
	if err != nil {
		var gerr *goerror.Error
		if errors.As(err, &gerr) {
			return nil, err
		}
		slog.ErrorContext(ctx, "failed to verify otp", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return out, nil
}

// VerifyFor authorizes an action for userID with an already-validated
// session, used internally by other modules.
func (s *Usecase) VerifyFor(ctx context.Context, userID, code string, metadata valueobject.JSONMap) (*VerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyFor")
	defer span.End()

	in := VerifyInput{Code: code, Metadata: metadata}
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	return s.verifyForUser(ctx, userID, in)
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type RegisterInput struct {
	Provider   string `validate:"required"`
	ProviderID string `validate:"required"`
	DeviceID   string
}

type RegisterOutput struct {
	AuthProviderID string
	LedgerRef      string
	LogURL         string
}

// Register binds the caller's identity to the ledger: it derives the chain
// commitment at index zero, signs the registration payload, submits it, and
// only then creates the local index counter. A binding that already exists on
// either side surfaces as a conflict.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := s.authProvider.ValidateCredential(ctx, entity.CredentialInput{
		UserID:     clm.UserID,
		Provider:   in.Provider,
		ProviderID: in.ProviderID,
		DeviceID:   in.DeviceID,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "auth provider not found", "user_id", clm.UserID, "provider", in.Provider)
		return nil, goerror.NewBusiness("invalid credential", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to validate credential", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	ident, err := s.sensitiveIdentity(ctx, clm.UserID)
	if err != nil {
		return nil, err
	}

	commitment := s.commitmentAt(ident, provider.ID, 0)
	payload := entity.RegistrationPayload{
		Username:   ident.Username,
		Service:    s.servicePublicKey,
		Commitment: commitment.Hex(),
	}

	sig, err := s.signPayload(ident.SecretKey, []string{payload.Username, payload.Service, payload.Commitment}, nil)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign registration payload", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	receipt, err := s.ledger.RegisterIdentity(ctx, s.bindingFor(clm.UserID, provider.ID), payload, sig)
	if errors.Is(err, entity.ErrLedgerRejected) {
		slog.WarnContext(ctx, "ledger refused registration", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewBusiness("identity already registered", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to register identity on ledger", "user_id", clm.UserID, "error", err)
		return nil, s.mapLedgerError(err)
	}

	if err := s.repoDB.CreateIndexCounter(ctx, s.uid.Generate(), clm.UserID, provider.ID); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			return nil, goerror.NewBusiness("identity already registered", goerror.CodeConflict)
		}
		slog.ErrorContext(ctx, "failed to create index counter", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{
		AuthProviderID: provider.ID,
		LedgerRef:      receipt.Ref,
		LogURL:         receipt.LogURL,
	}, nil
}

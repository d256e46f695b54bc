package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type GenerateInput struct {
	Provider        string `validate:"required"`
	ProviderID      string `validate:"required"`
	DeviceID        string
	DurationSeconds int64 `validate:"omitempty,min=30,max=3600"`
}

type GenerateOutput struct {
	Code      string
	StartTime int64
	EndTime   int64
	LedgerRef string
}

// Generate issues a short-lived numeric code for the caller. It derives the
// chain value at the current index, opens the redeem window on the ledger,
// and stages the preimage in the cache. The index is not consumed here; that
// happens only when the code verifies.
func (s *Usecase) Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error) {
	ctx, span := s.startSpan(ctx, "Generate")
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

	index, err := s.repoDB.GetIndex(ctx, clm.UserID, provider.ID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "identity not registered", "user_id", clm.UserID, "auth_provider_id", provider.ID)
		return nil, goerror.NewBusiness("identity not registered", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to read otp index", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	duration := time.Duration(in.DurationSeconds) * time.Second
	if duration <= 0 {
		duration = s.cfg.GetSecond("modules.otp.window_seconds")
	}

	start := s.clock.Now()
	window := entity.Window{Start: start.Unix(), End: start.Add(duration).Unix()}

	// The ledger window must be open before the code is handed out, so a
	// failed update fails the whole generation.
	receipt, err := s.ledger.UpdateWindow(ctx, s.bindingFor(clm.UserID, provider.ID), window)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update ledger window", "user_id", clm.UserID, "error", err)
		return nil, s.mapLedgerError(err)
	}

	raw := chain.DeriveRaw(ident.Username, provider.ID, ident.SecretKey, index)
	next := s.commitmentAt(ident, provider.ID, index+1)
	code := chain.NumericCode(raw, s.codeDigits)

	if err := s.repoCache.StagePendingOtp(ctx, clm.UserID, code, entity.PendingOtp{
		RawValue:       raw,
		AuthProviderID: provider.ID,
		NextCommitment: next,
	}, duration); err != nil {
		slog.ErrorContext(ctx, "failed to stage pending otp", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &GenerateOutput{
		Code:      code,
		StartTime: window.Start,
		EndTime:   window.End,
		LedgerRef: receipt.Ref,
	}, nil
}

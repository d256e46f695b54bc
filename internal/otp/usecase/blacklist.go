package usecase

import (
	"context"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type BlacklistInput struct {
	UserID string `validate:"required,uuid4"`
}

type BlacklistOutput struct {
	LedgerRefs []string
}

// Blacklist suspends every binding of the target user on the ledger. Only
// callers holding the admin role on the ledger may do this.
func (s *Usecase) Blacklist(ctx context.Context, in BlacklistInput) (*BlacklistOutput, error) {
	ctx, span := s.startSpan(ctx, "Blacklist")
	defer span.End()

	return s.moderate(ctx, in, s.ledger.Blacklist)
}

// Unblacklist lifts a prior suspension on every binding of the target user.
func (s *Usecase) Unblacklist(ctx context.Context, in BlacklistInput) (*BlacklistOutput, error) {
	ctx, span := s.startSpan(ctx, "Unblacklist")
	defer span.End()

	return s.moderate(ctx, in, s.ledger.Unblacklist)
}

func (s *Usecase) moderate(
	ctx context.Context,
	in BlacklistInput,
	action func(ctx context.Context, key chain.Hash) (*entity.Receipt, error),
) (*BlacklistOutput, error) {
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.requireAdmin(ctx, clm); err != nil {
		return nil, err
	}

	providers, err := s.authProvider.ProvidersByUser(ctx, in.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list auth providers", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if len(providers) == 0 {
		return nil, goerror.NewBusiness("user has no identity bindings", goerror.CodeNotFound)
	}

	refs := make([]string, 0, len(providers))
	for _, provider := range providers {
		receipt, err := action(ctx, s.bindingFor(in.UserID, provider.ID))
		if err != nil {
			slog.ErrorContext(ctx, "failed to moderate binding",
				"user_id", in.UserID, "auth_provider_id", provider.ID, "error", err)
			return nil, s.mapLedgerError(err)
		}
		refs = append(refs, receipt.Ref)
	}

	return &BlacklistOutput{LedgerRefs: refs}, nil
}

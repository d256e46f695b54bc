package usecase

import (
	"context"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/pkg/chain"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type ResetInput struct {
	UserID string `validate:"required,uuid4"`
}

type ResetOutput struct {
	LedgerRef string
}

// Reset wipes every binding of the target user, on the ledger and locally,
// so a later registration starts a fresh chain at index zero. Admin only.
func (s *Usecase) Reset(ctx context.Context, in ResetInput) (*ResetOutput, error) {
	ctx, span := s.startSpan(ctx, "Reset")
	defer span.End()

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

	keys := make([]chain.Hash, 0, len(providers))
	for _, provider := range providers {
		keys = append(keys, s.bindingFor(in.UserID, provider.ID))
	}

	receipt, err := s.ledger.ResetIdentities(ctx, keys)
	if err != nil {
		slog.ErrorContext(ctx, "failed to reset identities on ledger", "user_id", in.UserID, "error", err)
		return nil, s.mapLedgerError(err)
	}

	// Ledger wipe succeeded, counters must go too or the next registration
	// would collide with stale rows.
	if err := s.repoDB.DeleteCountersByUser(ctx, in.UserID); err != nil {
		slog.ErrorContext(ctx, "failed to delete index counters", "user_id", in.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ResetOutput{LedgerRef: receipt.Ref}, nil
}

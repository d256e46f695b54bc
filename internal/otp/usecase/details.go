package usecase

import (
	"context"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type DetailsOutput struct {
	Bindings []entity.OtpDetails
}

// Details lists the ledger state of every binding the caller owns. Bindings
// the ledger does not know about yet are skipped rather than failing the
// whole listing.
func (s *Usecase) Details(ctx context.Context) (*DetailsOutput, error) {
	ctx, span := s.startSpan(ctx, "Details")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	providers, err := s.authProvider.ProvidersByUser(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list auth providers", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	bindings := make([]entity.OtpDetails, 0, len(providers))
	for _, provider := range providers {
		details, err := s.ledger.GetDetails(ctx, s.bindingFor(clm.UserID, provider.ID))
		if err != nil {
			slog.WarnContext(ctx, "skipping binding without ledger details",
				"user_id", clm.UserID, "auth_provider_id", provider.ID, "error", err)
			continue
		}

		details.AuthProviderID = provider.ID
		bindings = append(bindings, *details)
	}

	return &DetailsOutput{Bindings: bindings}, nil
}

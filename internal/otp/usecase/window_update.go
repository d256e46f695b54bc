package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/otp/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type WindowUpdateInput struct {
	AuthProviderID string `validate:"required"`
	StartTime      int64  `validate:"required,min=0"`
	EndTime        int64  `validate:"required,gtfield=StartTime"`
}

type WindowUpdateOutput struct {
	StartTime int64
	EndTime   int64
	LedgerRef string
}

// WindowUpdate moves the redeem window of one binding without issuing a
// code. Closing the window (end in the past) invalidates whatever code is
// still staged, since the ledger checks the window at redeem time.
func (s *Usecase) WindowUpdate(ctx context.Context, in WindowUpdateInput) (*WindowUpdateOutput, error) {
	ctx, span := s.startSpan(ctx, "WindowUpdate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.authProvider.ProviderByID(ctx, in.AuthProviderID, clm.UserID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("auth provider not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to load auth provider", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	window := entity.Window{Start: in.StartTime, End: in.EndTime}
	receipt, err := s.ledger.UpdateWindow(ctx, s.bindingFor(clm.UserID, in.AuthProviderID), window)
	if err != nil {
		slog.ErrorContext(ctx, "failed to update ledger window", "user_id", clm.UserID, "error", err)
		return nil, s.mapLedgerError(err)
	}

	return &WindowUpdateOutput{
		StartTime: window.Start,
		EndTime:   window.End,
		LedgerRef: receipt.Ref,
	}, nil
}

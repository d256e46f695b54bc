package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type TransferInput struct {
	RecipientID string `validate:"required,uuid4"`
	Currency    string `validate:"required,currency"`
	Amount      int64  `validate:"required,gt=0"`
	Description string `validate:"max=255"`
}

type TransferOutput struct {
	SenderBalance    int64
	RecipientBalance int64
}

// Transfer moves funds from the caller to the recipient in one atomic
// write. Both movements commit together or not at all.
func (s *Usecase) Transfer(ctx context.Context, in TransferInput) (*TransferOutput, error) {
	ctx, span := s.startSpan(ctx, "Transfer")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.RecipientID == clm.UserID {
		return nil, goerror.NewBusiness("cannot transfer to yourself", goerror.CodeInvalidInput)
	}

	result, err := s.repoDB.Transfer(ctx, entity.TransferSpec{
		SenderID:           clm.UserID,
		RecipientID:        in.RecipientID,
		Currency:           entity.CurrencyFromString(in.Currency),
		Amount:             in.Amount,
		Type:               entity.TransactionTypeTransfer,
		Description:        in.Description,
		SenderHistoryID:    s.uid.Generate(),
		RecipientHistoryID: s.uid.Generate(),
	})
	if err != nil {
		return nil, s.mapTransferError(ctx, clm.UserID, err)
	}

	event := TransferCompletedEvent{
		SenderID:    clm.UserID,
		RecipientID: in.RecipientID,
		Currency:    in.Currency,
		Amount:      in.Amount,
	}
	s.goroutine.Go(ctx, func(ctx context.Context) error {
		return s.repoMessaging.PublishTransferCompleted(ctx, event)
	})

	return &TransferOutput{
		SenderBalance:    result.SenderBalance,
		RecipientBalance: result.RecipientBalance,
	}, nil
}

func (s *Usecase) mapTransferError(ctx context.Context, userID string, err error) error {
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		return goerror.NewBusiness("account not found", goerror.CodeNotFound)
	case errors.Is(err, entity.ErrInsufficientFunds):
		return goerror.NewBusiness("insufficient funds", goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrAccountNotActive):
		return goerror.NewBusiness("account is not active", goerror.CodeForbidden)
	case errors.Is(err, goerror.ErrConflict):
		return goerror.NewBusiness("transfer conflicted, retry", goerror.CodeConflict)
	default:
		slog.ErrorContext(ctx, "failed to transfer", "user_id", userID, "error", err)
		return goerror.NewServer(err)
	}
}

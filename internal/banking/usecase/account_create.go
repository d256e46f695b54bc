package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type AccountCreateInput struct {
	Currency       string `validate:"required,currency"`
	InitialBalance int64  `validate:"min=0"`
}

type AccountCreateOutput struct {
	AccountID int64
	Currency  entity.Currency
	Balance   int64
	Status    entity.AccountStatus
}

// AccountCreate opens one account for the caller in the given currency,
// active immediately, with an optional opening balance.
func (s *Usecase) AccountCreate(ctx context.Context, in AccountCreateInput) (*AccountCreateOutput, error) {
	ctx, span := s.startSpan(ctx, "AccountCreate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	currency := entity.CurrencyFromString(in.Currency)

	account, err := s.repoDB.CreateAccount(ctx, entity.NewAccount{
		ID:             s.uid.Generate(),
		OwnerID:        clm.UserID,
		Currency:       currency,
		InitialBalance: in.InitialBalance,
		Status:         entity.AccountStatusActive,
		HistoryID:      s.uid.Generate(),
	})
	if errors.Is(err, goerror.ErrConflict) {
		return nil, goerror.NewBusiness("account already exists for this currency", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to create account", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AccountCreateOutput{
		AccountID: account.ID,
		Currency:  account.Currency,
		Balance:   account.Balance,
		Status:    account.Status,
	}, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/lo"
	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type BalanceInput struct {
	Currency string `validate:"required,currency"`
}

type BalanceOutput struct {
	AccountID int64
	Currency  entity.Currency
	Balance   int64
	Status    entity.AccountStatus
}

// Balance returns the caller's account in one currency.
func (s *Usecase) Balance(ctx context.Context, in BalanceInput) (*BalanceOutput, error) {
	ctx, span := s.startSpan(ctx, "Balance")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	account, err := s.repoDB.GetAccount(ctx, clm.UserID, entity.CurrencyFromString(in.Currency))
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get account", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &BalanceOutput{
		AccountID: account.ID,
		Currency:  account.Currency,
		Balance:   account.Balance,
		Status:    account.Status,
	}, nil
}

type AccountsOutput struct {
	Accounts []BalanceOutput
}

// Accounts lists every account of the caller.
func (s *Usecase) Accounts(ctx context.Context) (*AccountsOutput, error) {
	ctx, span := s.startSpan(ctx, "Accounts")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := s.repoDB.ListAccounts(ctx, clm.UserID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list accounts", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &AccountsOutput{
		Accounts: lo.Map(accounts, func(account entity.AccountBalance, _ int) BalanceOutput {
			return BalanceOutput{
				AccountID: account.ID,
				Currency:  account.Currency,
				Balance:   account.Balance,
				Status:    account.Status,
			}
		}),
	}, nil
}

package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
	"github.com/vkng1104/otpchain/internal/pkg/idempotency"
	"github.com/vkng1104/otpchain/internal/pkg/valueobject"
)

type PaymentInitiateInput struct {
	CounterpartID   string `validate:"required"`
	CounterpartName string `validate:"required,max=100"`
	Currency        string `validate:"required,currency"`
	Amount          int64  `validate:"required,gt=0"`
	IdempotencyKey  string `validate:"omitempty,max=64"`
	Metadata        valueobject.JSONMap
}

type PaymentInitiateOutput struct {
	TransactionID string
	Status        entity.PaymentStatus
	ExpiresAt     int64
}

// PaymentInitiate stages a payment and returns its transaction id. The
// caller must confirm with a one-time code before the staged entry expires;
// until then no funds move. An idempotency key makes client retries return
// the conflict instead of staging twice.
func (s *Usecase) PaymentInitiate(ctx context.Context, in PaymentInitiateInput) (*PaymentInitiateOutput, error) {
	ctx, span := s.startSpan(ctx, "PaymentInitiate")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	var out *PaymentInitiateOutput
	initiate := func(ctx context.Context) error {
		out, err = s.initiate(ctx, clm.UserID, clm.UserEmail, in)
		return err
	}

	if in.IdempotencyKey == "" {
		if err := initiate(ctx); err != nil {
			return nil, err
		}
		return out, nil
	}

	ttl := s.cfg.GetSecond("modules.banking.payment_ttl_seconds")
	err = s.idemp.Exec(ctx, "payment:initiate:"+clm.UserID+":"+in.IdempotencyKey, initiate,
		idempotency.WithStateTTL(ttl))
	switch {
	case errors.Is(err, idempotency.ErrAlreadyInProgress),
		errors.Is(err, idempotency.ErrAlreadyCompleted):
		return nil, goerror.NewBusiness("payment already initiated", goerror.CodeConflict)
	case errors.Is(err, idempotency.ErrAlreadyFailed):
		return nil, goerror.NewBusiness("payment previously failed, use a new idempotency key", goerror.CodeConflict)
	case err != nil:
		return nil, err
	}

	return out, nil
}

func (s *Usecase) initiate(ctx context.Context, userID, username string, in PaymentInitiateInput) (*PaymentInitiateOutput, error) {
	currency := entity.CurrencyFromString(in.Currency)

	account, err := s.repoDB.GetAccount(ctx, userID, currency)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, goerror.NewBusiness("account not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get account", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if account.Status != entity.AccountStatusActive {
		return nil, goerror.NewBusiness("account is not active", goerror.CodeForbidden)
	}
	if account.Balance < in.Amount {
		return nil, goerror.NewBusiness("insufficient funds", goerror.CodeInvalidInput)
	}

	ttl := s.cfg.GetSecond("modules.banking.payment_ttl_seconds")
	now := s.clock.Now()
	transactionID := "txn_" + s.oid.Generate()

	if err := s.repoCache.StagePendingPayment(ctx, entity.PendingPayment{
		TransactionID:   transactionID,
		UserID:          userID,
		Username:        username,
		CounterpartID:   in.CounterpartID,
		CounterpartName: in.CounterpartName,
		Currency:        currency,
		Amount:          in.Amount,
		Status:          entity.PaymentStatusPending,
		Metadata:        in.Metadata,
		CreatedAt:       now,
	}, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to stage pending payment", "user_id", userID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &PaymentInitiateOutput{
		TransactionID: transactionID,
		Status:        entity.PaymentStatusPending,
		ExpiresAt:     now.Add(ttl).Unix(),
	}, nil
}

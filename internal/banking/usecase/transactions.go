package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/vkng1104/otpchain/internal/banking/entity"
	"github.com/vkng1104/otpchain/internal/pkg/goerror"
)

type TransactionsInput struct {
	Currency string `validate:"omitempty,currency"`
	Type     string
	Page     int32 `validate:"min=0"`
	Size     int32 `validate:"min=0,max=100"`
}

type TransactionItem struct {
	ID            int64
	Currency      entity.Currency
	Type          entity.TransactionType
	Amount        int64
	BalanceBefore int64
	BalanceAfter  int64
	ReferenceID   string
	Description   string
	CreatedAt     time.Time
}

type TransactionsOutput struct {
	Items []TransactionItem
	Total int64
}

func transactionTypeFromString(str string) entity.TransactionType {
	switch str {
	case "deposit":
		return entity.TransactionTypeDeposit
	case "withdrawal":
		return entity.TransactionTypeWithdrawal
	case "transfer":
		return entity.TransactionTypeTransfer
	case "external_payment":
		return entity.TransactionTypeExternalPayment
	default:
		return entity.TransactionTypeUnknown
	}
}

// Transactions returns one page of the caller's movements, optionally
// narrowed by currency and type.
func (s *Usecase) Transactions(ctx context.Context, in TransactionsInput) (*TransactionsOutput, error) {
	ctx, span := s.startSpan(ctx, "Transactions")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repoDB.ListHistories(ctx, entity.HistoryFilter{
		OwnerID:  clm.UserID,
		Currency: entity.CurrencyFromString(in.Currency),
		Type:     transactionTypeFromString(in.Type),
		Page:     in.Page,
		Size:     in.Size,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list transactions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &TransactionsOutput{
		Total: total,
		Items: lo.Map(items, func(item entity.TransactionHistory, _ int) TransactionItem {
			return TransactionItem{
				ID:            item.ID,
				Currency:      item.Currency,
				Type:          item.Type,
				Amount:        item.Amount,
				BalanceBefore: item.BalanceBefore,
				BalanceAfter:  item.BalanceAfter,
				ReferenceID:   item.ReferenceID,
				Description:   item.Description,
				CreatedAt:     item.CreatedAt,
			}
		}),
	}, nil
}

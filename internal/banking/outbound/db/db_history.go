package db

import (
	"context"

	"github.com/vkng1104/otpchain/internal/banking/entity"
)

const (
	queryListHistories = `
		SELECT id, owner_id, currency, type, amount, balance_before, balance_after,
			reference_id, description, created_at
		FROM transaction_histories
		WHERE owner_id = $1
			AND ($2 = 0 OR currency = $2)
			AND ($3 = 0 OR type = $3)
		ORDER BY created_at DESC, id DESC
		LIMIT $4 OFFSET $5`

	queryCountHistories = `
		SELECT count(*)
		FROM transaction_histories
		WHERE owner_id = $1
			AND ($2 = 0 OR currency = $2)
			AND ($3 = 0 OR type = $3)`
)

// ListHistories returns one page of the owner's movements, newest first,
// with the total row count for pagination.
func (s *DB) ListHistories(ctx context.Context, filter entity.HistoryFilter) (_ []entity.TransactionHistory, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "ListHistories")
	defer func() { s.endSpan(span, err) }()

	size := filter.Size
	if size <= 0 {
		size = 20
	}
	offset := filter.Page * size

	rows, err := s.conn.Query(ctx, queryListHistories,
		filter.OwnerID, int16(filter.Currency), int16(filter.Type), size, offset)
	if err != nil {
		return nil, 0, s.mapError(err)
	}
	defer rows.Close()

	items := make([]entity.TransactionHistory, 0, size)
	for rows.Next() {
		var item entity.TransactionHistory
		var cur, typ int16
		if err = rows.Scan(
			&item.ID, &item.OwnerID, &cur, &typ, &item.Amount,
			&item.BalanceBefore, &item.BalanceAfter,
			&item.ReferenceID, &item.Description, &item.CreatedAt,
		); err != nil {
			return nil, 0, s.mapError(err)
		}
		item.Currency = entity.Currency(cur)
		item.Type = entity.TransactionType(typ)
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, s.mapError(err)
	}

	var count int64
	if err = s.conn.QueryRow(ctx, queryCountHistories,
		filter.OwnerID, int16(filter.Currency), int16(filter.Type),
	).Scan(&count); err != nil {
		return nil, 0, s.mapError(err)
	}

	return items, count, nil
}

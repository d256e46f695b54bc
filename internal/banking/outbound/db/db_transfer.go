package db

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/vkng1104/otpchain/internal/banking/entity"
)

const (
	queryLockAccount = `
		SELECT id, balance, status
		FROM account_balances
		WHERE owner_id = $1 AND currency = $2 AND deleted_at IS NULL
		FOR UPDATE`

	queryUpdateBalance = `
		UPDATE account_balances
		SET balance = $2, updated_at = now()
		WHERE id = $1`
)

type lockedAccount struct {
	id      int64
	balance int64
	status  entity.AccountStatus
}

// Transfer moves funds between two accounts atomically. Both rows are locked
// in owner-id order regardless of direction so concurrent opposing transfers
// cannot deadlock, and the transaction runs serializable so balance reads
// cannot go stale. Each side gets one history row whose balance_after equals
// balance_before plus the signed amount; the rows reference each other
// through the counterpart account id unless the caller supplies references.
func (s *DB) Transfer(ctx context.Context, in entity.TransferSpec) (_ *entity.TransferResult, err error) {
	ctx, span := s.startSpan(ctx, "Transfer")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	first, second := in.SenderID, in.RecipientID
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*lockedAccount, 2)
	for _, ownerID := range []string{first, second} {
		var acc lockedAccount
		var status int16
		if err = tx.QueryRow(ctx, queryLockAccount, ownerID, int16(in.Currency)).
			Scan(&acc.id, &acc.balance, &status); err != nil {
			return nil, s.mapError(err)
		}
		acc.status = entity.AccountStatus(status)
		locked[ownerID] = &acc
	}

	sender := locked[in.SenderID]
	recipient := locked[in.RecipientID]

	if sender.status != entity.AccountStatusActive || recipient.status != entity.AccountStatusActive {
		return nil, entity.ErrAccountNotActive
	}
	if sender.balance < in.Amount {
		return nil, entity.ErrInsufficientFunds
	}

	senderAfter := sender.balance - in.Amount
	recipientAfter := recipient.balance + in.Amount

	senderRef := in.SenderReferenceID
	if senderRef == "" {
		senderRef = strconv.FormatInt(recipient.id, 10)
	}
	recipientRef := in.RecipientReferenceID
	if recipientRef == "" {
		recipientRef = strconv.FormatInt(sender.id, 10)
	}

	if _, err = tx.Exec(ctx, queryUpdateBalance, sender.id, senderAfter); err != nil {
		return nil, s.mapError(err)
	}
	if _, err = tx.Exec(ctx, queryUpdateBalance, recipient.id, recipientAfter); err != nil {
		return nil, s.mapError(err)
	}

	if _, err = tx.Exec(ctx, queryInsertHistory,
		in.SenderHistoryID, in.SenderID, int16(in.Currency), int16(in.Type),
		-in.Amount, sender.balance, senderAfter, senderRef, in.Description,
	); err != nil {
		return nil, s.mapError(err)
	}
	if _, err = tx.Exec(ctx, queryInsertHistory,
		in.RecipientHistoryID, in.RecipientID, int16(in.Currency), int16(in.Type),
		in.Amount, recipient.balance, recipientAfter, recipientRef, in.Description,
	); err != nil {
		return nil, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return &entity.TransferResult{
		SenderBalance:    senderAfter,
		RecipientBalance: recipientAfter,
	}, nil
}

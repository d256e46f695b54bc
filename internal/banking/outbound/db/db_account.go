package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/vkng1104/otpchain/internal/banking/entity"
)

const (
	queryCreateAccount = `
		INSERT INTO account_balances (id, owner_id, currency, balance, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	queryGetAccount = `
		SELECT id, owner_id, currency, balance, status, created_at, updated_at
		FROM account_balances
		WHERE owner_id = $1 AND currency = $2 AND deleted_at IS NULL`

	queryListAccounts = `
		SELECT id, owner_id, currency, balance, status, created_at, updated_at
		FROM account_balances
		WHERE owner_id = $1 AND deleted_at IS NULL
		ORDER BY currency`

	queryInsertHistory = `
		INSERT INTO transaction_histories
			(id, owner_id, currency, type, amount, balance_before, balance_after, reference_id, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// CreateAccount opens an account, writing the opening deposit history row in
// the same transaction when the initial balance is non-zero. One live
// account per owner and currency; a duplicate maps to ErrConflict.
func (s *DB) CreateAccount(ctx context.Context, in entity.NewAccount) (_ *entity.AccountBalance, err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	account := entity.AccountBalance{
		ID:       in.ID,
		OwnerID:  in.OwnerID,
		Currency: in.Currency,
		Balance:  in.InitialBalance,
		Status:   in.Status,
	}

	if err = tx.QueryRow(ctx, queryCreateAccount,
		in.ID, in.OwnerID, int16(in.Currency), in.InitialBalance, int16(in.Status),
	).Scan(&account.CreatedAt); err != nil {
		return nil, s.mapError(err)
	}

	if in.InitialBalance > 0 {
		if _, err = tx.Exec(ctx, queryInsertHistory,
			in.HistoryID, in.OwnerID, int16(in.Currency), int16(entity.TransactionTypeDeposit),
			in.InitialBalance, 0, in.InitialBalance, "", "opening balance",
		); err != nil {
			return nil, s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, s.mapError(err)
	}

	return &account, nil
}

// GetAccount returns one account of the owner in the given currency.
func (s *DB) GetAccount(ctx context.Context, ownerID string, currency entity.Currency) (_ *entity.AccountBalance, err error) {
	ctx, span := s.startSpan(ctx, "GetAccount")
	defer func() { s.endSpan(span, err) }()

	var account entity.AccountBalance
	var cur, status int16
	if err = s.conn.QueryRow(ctx, queryGetAccount, ownerID, int16(currency)).Scan(
		&account.ID, &account.OwnerID, &cur, &account.Balance, &status,
		&account.CreatedAt, &account.UpdatedAt,
	); err != nil {
		return nil, s.mapError(err)
	}

	account.Currency = entity.Currency(cur)
	account.Status = entity.AccountStatus(status)
	return &account, nil
}

// ListAccounts returns every live account of the owner.
func (s *DB) ListAccounts(ctx context.Context, ownerID string) (_ []entity.AccountBalance, err error) {
	ctx, span := s.startSpan(ctx, "ListAccounts")
	defer func() { s.endSpan(span, err) }()

	rows, err := s.conn.Query(ctx, queryListAccounts, ownerID)
	if err != nil {
		return nil, s.mapError(err)
	}
	defer rows.Close()

	accounts := make([]entity.AccountBalance, 0)
	for rows.Next() {
		var account entity.AccountBalance
		var cur, status int16
		if err = rows.Scan(
			&account.ID, &account.OwnerID, &cur, &account.Balance, &status,
			&account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, s.mapError(err)
		}
		account.Currency = entity.Currency(cur)
		account.Status = entity.AccountStatus(status)
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, s.mapError(err)
	}

	return accounts, nil
}

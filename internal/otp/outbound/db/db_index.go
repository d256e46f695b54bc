package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
)

const (
	queryCreateIndexCounter = `
		INSERT INTO otp_index_counters (id, user_id, auth_provider_id, otp_index)
		VALUES ($1, $2, $3, 0)`

	queryGetIndex = `
		SELECT otp_index
		FROM otp_index_counters
		WHERE user_id = $1 AND auth_provider_id = $2 AND deleted_at IS NULL`

	queryGetIndexForUpdate = queryGetIndex + `
		FOR UPDATE`

	queryIncrementIndex = `
		UPDATE otp_index_counters
		SET otp_index = otp_index + 1, updated_at = now()
		WHERE user_id = $1 AND auth_provider_id = $2 AND deleted_at IS NULL`

	querySoftDeleteCounters = `
		UPDATE otp_index_counters
		SET deleted_at = now(), updated_at = now()
		WHERE user_id = $1 AND deleted_at IS NULL`
)

// CreateIndexCounter inserts the counter row for a new identity binding
// starting at index zero. A live row for the same pair maps to ErrConflict.
func (s *DB) CreateIndexCounter(ctx context.Context, id int64, userID, authProviderID string) (err error) {
	ctx, span := s.startSpan(ctx, "CreateIndexCounter")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryCreateIndexCounter, id, userID, authProviderID)
	return s.mapError(err)
}

// GetIndex reads the current index without locking. Callers that intend to
// consume the index must go through WithIndexLock instead.
func (s *DB) GetIndex(ctx context.Context, userID, authProviderID string) (_ uint64, err error) {
	ctx, span := s.startSpan(ctx, "GetIndex")
	defer func() { s.endSpan(span, err) }()

	var index uint64
	if err = s.conn.QueryRow(ctx, queryGetIndex, userID, authProviderID).Scan(&index); err != nil {
		return 0, s.mapError(err)
	}

	return index, nil
}

// WithIndexLock runs fn while holding a row lock on the identity's counter.
// fn receives the locked index and an increment callback that advances the
// counter inside the same transaction. Nothing is committed unless fn
// returns nil, so a rejected verification leaves the index untouched.
func (s *DB) WithIndexLock(
	ctx context.Context,
	userID, authProviderID string,
	fn func(ctx context.Context, index uint64, increment func() error) error,
) (err error) {
	ctx, span := s.startSpan(ctx, "WithIndexLock")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	var index uint64
	if err = tx.QueryRow(ctx, queryGetIndexForUpdate, userID, authProviderID).Scan(&index); err != nil {
		return s.mapError(err)
	}

	increment := func() error {
		tag, err := tx.Exec(ctx, queryIncrementIndex, userID, authProviderID)
		if err != nil {
			return s.mapError(err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		return nil
	}

	if err = fn(ctx, index, increment); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// DeleteCountersByUser soft-deletes every counter row of a user. Used when
// an identity is reset so a re-registration starts a fresh chain at zero.
func (s *DB) DeleteCountersByUser(ctx context.Context, userID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteCountersByUser")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, querySoftDeleteCounters, userID)
	return s.mapError(err)
}

package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
)

// SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so a repository runs the same
// statements inside or outside a unit of work.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	DB querier
}

// queryAll runs a select and collects every row into T by column name.
func queryAll[T any](ctx context.Context, db querier, what, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect "+what+" rows", err)
	}
	return out, nil
}

// queryOne runs a select expected to return one row. No row gives ErrNotFound.
func queryOne[T any](ctx context.Context, db querier, what, id, sql string, args ...any) (*T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query "+what, err)
	}
	out, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundErr(what, id)
		}
		return nil, apperrors.NewAppError(500, "failed to scan "+what, err)
	}
	return &out, nil
}

// execOne runs a statement that must touch exactly one row.
func execOne(ctx context.Context, db querier, what, id, sql string, args ...any) error {
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update "+what+" "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return notFoundErr(what, id)
	}
	return nil
}

func notFoundErr(what, id string) error {
	return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, what, id)
}

// uniqueViolation returns the violated constraint name when err is a unique violation.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// mapInsertError translates unique violations of the named constraints into domain sentinels.
// Anything else is an infrastructure failure, except serialization failures which are left
// for the transaction manager to retry.
func mapInsertError(err error, what string, sentinels map[string]error) error {
	if constraint, ok := uniqueViolation(err); ok {
		if sentinel, known := sentinels[constraint]; known {
			return fmt.Errorf("%w: %s", sentinel, what)
		}
		return fmt.Errorf("%w: %s (%s)", apperrors.ErrDuplicate, what, constraint)
	}
	if isRetryable(err) {
		return err
	}
	return apperrors.NewAppError(500, "failed to insert "+what, err)
}

// isRetryable reports serialization failures and deadlocks, which Postgres expects clients to retry.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	return false
}

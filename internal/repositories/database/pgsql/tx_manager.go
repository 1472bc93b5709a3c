package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/school_finance_core/internal/apperrors"
	portsrepo "github.com/SscSPs/school_finance_core/internal/core/ports/repositories"
	"github.com/SscSPs/school_finance_core/internal/middleware"
)

// TxManager runs units of work as serializable pgx transactions.
type TxManager struct {
	pool       *pgxpool.Pool
	maxRetries int
	baseDelay  time.Duration
}

// NewTxManager creates a transaction manager. maxRetries bounds how often a unit of work is
// re-run after a serialization failure; baseDelay seeds the jittered exponential backoff.
func NewTxManager(pool *pgxpool.Pool, maxRetries int, baseDelay time.Duration) *TxManager {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &TxManager{pool: pool, maxRetries: maxRetries, baseDelay: baseDelay}
}

var _ portsrepo.TransactionManager = (*TxManager)(nil)

// Reader returns a store that reads straight from the pool.
func (m *TxManager) Reader() portsrepo.Store {
	return newStore(m.pool)
}

// WithinTx runs fn in a serializable transaction, retrying retryable failures.
func (m *TxManager) WithinTx(ctx context.Context, fn portsrepo.TxFunc) error {
	logger := middleware.GetLoggerFromCtx(ctx)
	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoff(m.baseDelay, attempt)
			logger.Warn("Retrying unit of work", slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("cause", lastErr.Error()))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := m.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: gave up after %d attempts: %v", apperrors.ErrConcurrency, m.maxRetries+1, lastErr)
}

func (m *TxManager) runOnce(ctx context.Context, fn portsrepo.TxFunc) (err error) {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				middleware.GetLoggerFromCtx(ctx).Error("Failed to rollback transaction", slog.String("error", rbErr.Error()))
			}
		}
	}()

	if err = fn(ctx, newStore(tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		if isRetryable(err) {
			return err
		}
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// shouldRetry covers Postgres serialization failures and sequence races surfaced as ErrConcurrency.
func shouldRetry(err error) bool {
	return isRetryable(err) || errors.Is(err, apperrors.ErrConcurrency)
}

// backoff doubles base per attempt and adds up to the same amount again as jitter.
func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << (attempt - 1)
	return d + time.Duration(rand.Int63n(int64(d)))
}

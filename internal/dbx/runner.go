package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/sethvargo/go-retry"
)

// Runner executes units of repository work. Implementations decide where the
// DBTX comes from and how failures are retried; fn may run more than once and
// must not keep side effects outside the handle between attempts.
type Runner interface {
	// Do runs fn against a non-transactional handle.
	Do(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error
	// InTx runs fn inside a transaction that commits only if fn returns nil.
	InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLRunner is a Runner over *sql.DB. Transient failures are retried with
// exponential backoff up to a fixed number of times, after which the error
// is reported wrapped in common.ErrTransientStore.
type SQLRunner struct {
	db         *sql.DB
	maxRetries uint64
	base       time.Duration
}

func NewSQLRunner(db *sql.DB, maxRetries uint64, base time.Duration) *SQLRunner {
	if base <= 0 {
		base = 50 * time.Millisecond
	}
	return &SQLRunner{db: db, maxRetries: maxRetries, base: base}
}

func (r *SQLRunner) Do(ctx context.Context, fn func(ctx context.Context, db DBTX) error) error {
	return r.retry(ctx, func(ctx context.Context) error {
		return fn(ctx, r.db)
	})
}

func (r *SQLRunner) InTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	return r.retry(ctx, func(ctx context.Context) error {
		return WithTx(ctx, r.db, nil, fn)
	})
}

func (r *SQLRunner) retry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(r.maxRetries, retry.NewExponential(r.base))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if IsTransient(err) {
			return retry.RetryableError(err)
		}
		return err
	})
	if IsTransient(err) {
		return fmt.Errorf("%w: %w", common.ErrTransientStore, err)
	}
	return err
}

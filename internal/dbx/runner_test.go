package dbx

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "bad conn", err: fmt.Errorf("query: %w", driver.ErrBadConn), want: true},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "connection exception class", err: &pgconn.PgError{Code: "08006"}, want: true},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
		{name: "not found", err: common.ErrorNotFound, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestConstraintHelpers(t *testing.T) {
	wrapped := fmt.Errorf("db error: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsForeignKeyViolation(wrapped))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
}

func TestSQLRunner_RetriesTransientThenSucceeds(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRunner(db, 3, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context, db DBTX) error {
		calls++
		if calls < 3 {
			return driver.ErrBadConn
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestSQLRunner_GivesUpWithTransientStore(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRunner(db, 2, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context, db DBTX) error {
		calls++
		return &pgconn.PgError{Code: "40001"}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransientStore)
	assert.Equal(t, 3, calls, "one attempt plus two retries")
}

func TestSQLRunner_DoesNotRetryPermanentErrors(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRunner(db, 5, time.Millisecond)

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context, db DBTX) error {
		calls++
		return common.ErrorNotFound
	})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrTransientStore)
	assert.Equal(t, 1, calls)
}

func TestSQLRunner_InTxRollsBackEachAttempt(t *testing.T) {
	db := setupDB(t)
	r := NewSQLRunner(db, 1, time.Millisecond)

	attempts := 0
	err := r.InTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		attempts++
		if _, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('x')`); err != nil {
			return err
		}
		if attempts == 1 {
			return driver.ErrBadConn
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, 1, countRows(t, db), "first attempt must be rolled back")
}

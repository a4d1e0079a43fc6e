package resettokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountID = "0b7c6f1e-2a41-4d5e-9b8c-3f2d1a0e9c71"

var (
	now     = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	columns = []string{"id", "account_id", "created_at", "expires_at"}
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestPut_Upserts(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+reset_tokens\b.*ON\s+CONFLICT\s+\(account_id\)\s+DO\s+UPDATE`).
		WithArgs("fp1", accountID, now, now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Put(context.Background(), &models.ResetToken{
		ID: "fp1", AccountID: accountID, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_UnknownAccount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+reset_tokens`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	err := repo.Put(context.Background(), &models.ResetToken{ID: "fp1", AccountID: accountID})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	err = repo.Put(context.Background(), &models.ResetToken{ID: "fp1", AccountID: "abc"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAndTake(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT\s+id,\s*account_id,.*FROM\s+reset_tokens\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs("fp1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("fp1", accountID, now, now.Add(time.Hour)))
	mock.ExpectQuery(`^DELETE\s+FROM\s+reset_tokens\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\b`).
		WithArgs("fp1").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("fp1", accountID, now, now.Add(time.Hour)))
	mock.ExpectQuery(`^DELETE\s+FROM\s+reset_tokens`).
		WithArgs("fp1").
		WillReturnError(sql.ErrNoRows)

	found, err := repo.Find(context.Background(), "fp1")
	require.NoError(t, err)
	assert.Equal(t, accountID, found.AccountID)

	taken, err := repo.Take(context.Background(), "fp1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), taken.ExpiresAt)

	_, err = repo.Take(context.Background(), "fp1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+reset_tokens\s+WHERE\s+account_id\s*=\s*\$1$`).
		WithArgs(accountID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^DELETE\s+FROM\s+reset_tokens\s+WHERE\s+expires_at\s*<=\s*\$1$`).
		WithArgs(now).
		WillReturnError(errors.New("db down"))

	n, err := repo.DeleteByAccount(context.Background(), accountID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.DeleteByAccount(context.Background(), "abc")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.DeleteExpired(context.Background(), now)
	assert.ErrorContains(t, err, "db error: db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

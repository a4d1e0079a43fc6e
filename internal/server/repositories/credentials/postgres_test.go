package credentials

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

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleCredential() *models.Credential {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.Credential{
		AccountID: "a1", Algorithm: "argon2id", PolicyVersion: 2, Params: "m=65536,t=1,p=4,l=32",
		Salt: []byte("salt"), Hash: []byte("hash"), CreatedAt: now, UpdatedAt: now,
	}
}

func TestPut_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	c := sampleCredential()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+credentials\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*1,\s*\$7,\s*\$7\)$`).
		WithArgs("a1", "argon2id", 2, c.Params, c.Salt, c.Hash, c.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), c))
	assert.EqualValues(t, 1, c.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPut_Conflicts(t *testing.T) {
	for name, code := range map[string]string{"already has credential": "23505", "missing account": "23503"} {
		t.Run(name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(`INSERT\s+INTO\s+credentials`).WillReturnError(&pgconn.PgError{Code: code})

			err := repo.Put(context.Background(), sampleCredential())
			assert.ErrorIs(t, err, common.ErrConflict)
		})
	}
}

func TestGet(t *testing.T) {
	cols := []string{"account_id", "algorithm", "policy_version", "params", "salt", "hash", "version", "created_at", "updated_at"}

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		now := time.Now()
		mock.ExpectQuery(`(?s)FROM\s+credentials\s+WHERE\s+account_id\s*=\s*\$1$`).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("a1", "bcrypt", 1, "cost=12", nil, []byte("$2a$12$x"), 4, now, now))

		got, err := repo.Get(context.Background(), "a1")
		require.NoError(t, err)
		assert.Equal(t, "bcrypt", got.Algorithm)
		assert.EqualValues(t, 4, got.Version)
		assert.Nil(t, got.Salt)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(`FROM\s+credentials`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(context.Background(), "a1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(`FROM\s+credentials`).WillReturnError(errors.New("db down"))

		_, err := repo.Get(context.Background(), "a1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestRotate(t *testing.T) {
	t.Run("bumps version", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		c := sampleCredential()
		mock.ExpectQuery(`(?s)^UPDATE\s+credentials\s+SET.*version\s*=\s*version\s*\+\s*1.*WHERE\s+account_id\s*=\s*\$1\s+AND\s+version\s*=\s*\$2\s+RETURNING\s+version$`).
			WithArgs("a1", int64(3), c.Algorithm, c.PolicyVersion, c.Params, c.Salt, c.Hash, c.UpdatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))

		require.NoError(t, repo.Rotate(context.Background(), c, 3))
		assert.EqualValues(t, 4, c.Version)
	})

	t.Run("stale version", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(`UPDATE\s+credentials`).WillReturnError(sql.ErrNoRows)

		err := repo.Rotate(context.Background(), sampleCredential(), 3)
		assert.ErrorIs(t, err, common.ErrConflict)
	})
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`^DELETE\s+FROM\s+credentials\s+WHERE\s+account_id\s*=\s*\$1$`).
		WithArgs("a1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "a1"))
}

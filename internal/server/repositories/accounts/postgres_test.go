package accounts

import (
	"context"
	"database/sql"
	"database/sql/driver"
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

const (
	id1 = "0b7c6f1e-2a41-4d5e-9b8c-3f2d1a0e9c71"
	id2 = "5e3a9d22-7c14-4b6f-8a2e-1d9f0c3b7a54"
)

var columns = []string{"id", "identifier", "status", "lock_reason", "role",
	"email", "phone", "first_name", "middle_name", "last_name", "gender", "birthdate",
	"last_login_at", "created_at", "updated_at"}

func sampleAccount() *models.Account {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &models.Account{
		ID: id1, Identifier: "alice", Status: models.StatusPending, CreatedAt: now, UpdatedAt: now,
	}
}

// row returns a result row for a with an empty profile.
func row(a *models.Account, status, lockReason string) []driver.Value {
	return []driver.Value{a.ID, a.Identifier, status, lockReason, "user",
		"", "", "", "", "", "", nil, nil, a.CreatedAt, a.UpdatedAt}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+accounts\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7\)$`).
		WithArgs(a.ID, a.Identifier, "pending", "", "user", a.CreatedAt, a.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DuplicateIdentifier(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_identifier_key"})

	err := repo.Create(context.Background(), sampleAccount())
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+accounts`).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleAccount())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestGetByIdentifier_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*identifier,.*FROM\s+accounts\s+WHERE\s+identifier\s*=\s*\$1$`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(a, "active", "")...))

	got, err := repo.GetByIdentifier(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, id1, got.ID)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.Nil(t, got.Profile.Birthdate)
	assert.Nil(t, got.LastLoginAt)
}

func TestGetByID_ScansProfile(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	born := time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)
	login := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id1).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(a.ID, a.Identifier, "active", "", "superuser",
			"alice@example.com", "+37120000000", "Alice", "", "Liddell", "female", born,
			login, a.CreatedAt, a.UpdatedAt))

	got, err := repo.GetByID(context.Background(), id1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperuser, got.Role)
	assert.Equal(t, "alice@example.com", got.Profile.Email)
	assert.Equal(t, models.GenderFemale, got.Profile.Gender)
	require.NotNil(t, got.Profile.Birthdate)
	assert.True(t, got.Profile.Birthdate.Equal(born))
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(login))
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+accounts\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id2).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), id2)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

// Ids that are not UUIDs never reach the UUID column, where Postgres would
// answer with invalid_text_representation.
func TestMalformedIDsAreNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ctx := context.Background()
	at := time.Now()
	for _, id := range []string{"", "abc", "a1", "0b7c6f1e2a414d5e9b8c3f2d1a0e9c71", "{0b7c6f1e-2a41-4d5e-9b8c-3f2d1a0e9c71}"} {
		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound, id)
		_, err = repo.GetForUpdate(ctx, id)
		assert.ErrorIs(t, err, common.ErrorNotFound, id)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, id, models.StatusLocked, "", at), common.ErrorNotFound, id)
		assert.ErrorIs(t, repo.UpdateProfile(ctx, id, models.Profile{}, at), common.ErrorNotFound, id)
		assert.ErrorIs(t, repo.SetRole(ctx, id, models.RoleSuperuser, at), common.ErrorNotFound, id)
		assert.ErrorIs(t, repo.TouchLastLogin(ctx, id, at), common.ErrorNotFound, id)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	mock.ExpectQuery(`WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs(id1).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(row(a, "locked", "fraud")...))

	got, err := repo.GetForUpdate(context.Background(), id1)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLocked, got.Status)
	assert.Equal(t, "fraud", got.LockReason)
}

func TestUpdateStatus(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(`(?s)^UPDATE\s+accounts\s+SET\s+status\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1$`).
			WithArgs(id1, "locked", "fraud", at).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateStatus(context.Background(), id1, models.StatusLocked, "fraud", at))
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(`UPDATE\s+accounts`).WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.UpdateStatus(context.Background(), id1, models.StatusActive, "", at)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestUpdateProfile(t *testing.T) {
	at := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	born := time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("with birthdate", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(`(?s)^UPDATE\s+accounts\s+SET\s+email\s*=\s*\$2,.*birthdate\s*=\s*\$8,\s*updated_at\s*=\s*\$9\s+WHERE\s+id\s*=\s*\$1$`).
			WithArgs(id1, "a@example.com", "", "Alice", "", "", "female", born, at).
			WillReturnResult(sqlmock.NewResult(0, 1))
		p := models.Profile{Email: "a@example.com", FirstName: "Alice", Gender: models.GenderFemale, Birthdate: &born}
		require.NoError(t, repo.UpdateProfile(context.Background(), id1, p, at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cleared birthdate is NULL", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(`UPDATE\s+accounts\s+SET\s+email`).
			WithArgs(id1, "", "", "", "", "", "", nil, at).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateProfile(context.Background(), id1, models.Profile{}, at))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetRoleAndTouchLastLogin(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	at := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
	mock.ExpectExec(`^UPDATE\s+accounts\s+SET\s+role\s*=\s*\$2,\s*updated_at\s*=\s*\$3\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id1, "superuser", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`^UPDATE\s+accounts\s+SET\s+last_login_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(id2, at).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetRole(context.Background(), id1, models.RoleSuperuser, at))
	assert.ErrorIs(t, repo.TouchLastLogin(context.Background(), id2, at), common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAccount()
	b := &models.Account{ID: id2, Identifier: "bob", CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt}
	mock.ExpectQuery(`(?s)FROM\s+accounts\s+ORDER\s+BY\s+created_at,\s*id\s+OFFSET\s+\$1\s+LIMIT\s+\$2$`).
		WithArgs(10, 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(row(a, "active", "")...).
			AddRow(row(b, "locked", "spam")...))

	got, err := repo.List(context.Background(), 10, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[1].Identifier)
	assert.Equal(t, models.StatusLocked, got[1].Status)
}

func TestPurgeDeleted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	before := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`^DELETE\s+FROM\s+accounts\s+WHERE\s+status\s*=\s*\$1\s+AND\s+updated_at\s*<\s*\$2$`).
		WithArgs("pending_deletion", before).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeDeleted(context.Background(), before)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ dbx.Runner                    = (*Store)(nil)
	_ repomanager.RepositoryManager = (*Store)(nil)
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedAccount(t *testing.T, s *Store, id, identifier string) {
	t.Helper()
	err := s.InTx(context.Background(), func(ctx context.Context, tx dbx.DBTX) error {
		return s.Accounts(tx).Create(ctx, &models.Account{
			ID: id, Identifier: identifier, Status: models.StatusActive, CreatedAt: t0, UpdatedAt: t0,
		})
	})
	require.NoError(t, err)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	err := s.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		require.NoError(t, s.Accounts(tx).Create(ctx, &models.Account{ID: "a1", Identifier: "alice"}))
		return errors.New("boom")
	})
	require.Error(t, err)

	_, err = s.Accounts(nil).GetByID(ctx, "a1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestInTx_RollsBackOnPanic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	func() {
		defer func() { _ = recover() }()
		_ = s.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			_ = s.Accounts(tx).Create(ctx, &models.Account{ID: "a1", Identifier: "alice"})
			panic("kaput")
		})
	}()

	_, err := s.Accounts(nil).GetByIdentifier(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAccounts_DuplicateIdentifier(t *testing.T) {
	s := NewStore()
	seedAccount(t, s, "a1", "alice")

	err := s.Accounts(nil).Create(context.Background(), &models.Account{ID: "a2", Identifier: "alice"})
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)
}

func TestAccounts_ListOrdersAndPages(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Accounts(nil).Create(ctx, &models.Account{
			ID: id, Identifier: id + "-user", CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := s.Accounts(nil).List(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "a", page[0].ID)
	assert.Equal(t, "b", page[1].ID)

	empty, err := s.Accounts(nil).List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCredentials_PutAndRotate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.Credentials(nil)

	err := repo.Put(ctx, &models.Credential{AccountID: "ghost", Hash: []byte("h")})
	assert.ErrorIs(t, err, common.ErrConflict, "missing account")

	seedAccount(t, s, "a1", "alice")
	c := &models.Credential{AccountID: "a1", Algorithm: "bcrypt", Hash: []byte("h1"), CreatedAt: t0}
	require.NoError(t, repo.Put(ctx, c))
	assert.ErrorIs(t, repo.Put(ctx, c), common.ErrConflict, "second put")

	next := &models.Credential{AccountID: "a1", Algorithm: "argon2id", Hash: []byte("h2")}
	require.NoError(t, repo.Rotate(ctx, next, 1))
	assert.EqualValues(t, 2, next.Version)
	assert.ErrorIs(t, repo.Rotate(ctx, next, 1), common.ErrConflict, "stale version")

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "argon2id", got.Algorithm)
	assert.Equal(t, t0, got.CreatedAt)

	got.Hash[0] = 'X'
	again, _ := repo.Get(ctx, "a1")
	assert.Equal(t, []byte("h2"), again.Hash, "returned credential must be a copy")
}

func TestSessions_Lifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a1", "alice")
	repo := s.Sessions(nil)

	require.NoError(t, repo.Create(ctx, &models.Session{ID: "s1", Token: "secret", AccountID: "a1", IssuedAt: t0, ExpiresAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Session{ID: "s2", AccountID: "a1", IssuedAt: t0, ExpiresAt: t0.Add(time.Minute)}))
	assert.ErrorIs(t, repo.Create(ctx, &models.Session{ID: "s3", AccountID: "ghost"}), common.ErrorNotFound)

	stored, err := repo.Find(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, stored.Token, "plaintext token must not be stored")

	n, err := repo.CountActive(ctx, "a1", t0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := repo.Extend(ctx, "s2", t0.Add(2*time.Minute), t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok, "expired session cannot be extended")

	revoked, err := repo.Revoke(ctx, "s1", t0)
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = repo.Revoke(ctx, "s1", t0)
	require.NoError(t, err)
	assert.False(t, revoked)

	deleted, err := repo.DeleteExpired(ctx, t0.Add(2*time.Minute), t0.Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

func TestPurgeDeleted_Cascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a1", "alice")
	require.NoError(t, s.Sessions(nil).Create(ctx, &models.Session{ID: "s1", AccountID: "a1", ExpiresAt: t0.Add(time.Hour)}))
	require.NoError(t, s.Accounts(nil).UpdateStatus(ctx, "a1", models.StatusPendingDeletion, "", t0))

	n, err := s.Accounts(nil).PurgeDeleted(ctx, t0)
	require.NoError(t, err)
	assert.Zero(t, n, "grace window not elapsed")

	n, err = s.Accounts(nil).PurgeDeleted(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Sessions(nil).Find(ctx, "s1")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.Accounts(nil).GetByIdentifier(ctx, "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAuditLog_NewestFirst(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repo := s.AuditLog(nil)
	require.NoError(t, repo.Insert(ctx, &models.AuditEvent{ID: "1", AccountID: "a1", Operation: "create_account"}))
	require.NoError(t, repo.Insert(ctx, &models.AuditEvent{ID: "2", AccountID: "b1", Operation: "create_account"}))
	require.NoError(t, repo.Insert(ctx, &models.AuditEvent{ID: "3", AccountID: "a1", Operation: "lock_account"}))

	got, err := repo.ListByAccount(ctx, "a1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "3", got[0].ID)
}

func TestDo_CanceledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Do(ctx, func(context.Context, dbx.DBTX) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAccounts_ProfileRoleAndLastLogin(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a1", "alice")
	repo := s.Accounts(nil)

	got, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, got.Role)

	require.NoError(t, repo.UpdateProfile(ctx, "a1", models.Profile{Email: "a@example.com"}, t0.Add(time.Minute)))
	require.NoError(t, repo.SetRole(ctx, "a1", models.RoleSuperuser, t0.Add(2*time.Minute)))
	require.NoError(t, repo.TouchLastLogin(ctx, "a1", t0.Add(time.Hour)))
	assert.ErrorIs(t, repo.TouchLastLogin(ctx, "zz", t0), common.ErrorNotFound)

	got, err = repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Profile.Email)
	assert.Equal(t, models.RoleSuperuser, got.Role)
	assert.Equal(t, t0.Add(2*time.Minute), got.UpdatedAt, "last login does not move updated_at")
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, t0.Add(time.Hour), *got.LastLoginAt)
}

func TestResetTokens_OnePerAccountAndSingleUse(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a1", "alice")
	repo := s.ResetTokens(nil)

	require.NoError(t, repo.Put(ctx, &models.ResetToken{ID: "r1", Token: "secret", AccountID: "a1", ExpiresAt: t0.Add(time.Hour)}))
	require.NoError(t, repo.Put(ctx, &models.ResetToken{ID: "r2", AccountID: "a1", ExpiresAt: t0.Add(time.Hour)}))
	assert.ErrorIs(t, repo.Put(ctx, &models.ResetToken{ID: "r3", AccountID: "zz"}), common.ErrorNotFound)

	_, err := repo.Find(ctx, "r1")
	assert.ErrorIs(t, err, common.ErrorNotFound, "replaced by the newer token")

	got, err := repo.Take(ctx, "r2")
	require.NoError(t, err)
	assert.Empty(t, got.Token)
	_, err = repo.Take(ctx, "r2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestResetTokens_SweepAndPurge(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedAccount(t, s, "a1", "alice")
	seedAccount(t, s, "b1", "bob")
	repo := s.ResetTokens(nil)
	require.NoError(t, repo.Put(ctx, &models.ResetToken{ID: "r1", AccountID: "a1", ExpiresAt: t0}))
	require.NoError(t, repo.Put(ctx, &models.ResetToken{ID: "r2", AccountID: "b1", ExpiresAt: t0.Add(time.Hour)}))

	n, err := repo.DeleteExpired(ctx, t0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, s.Accounts(nil).UpdateStatus(ctx, "b1", models.StatusPendingDeletion, "", t0))
	_, err = s.Accounts(nil).PurgeDeleted(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	_, err = repo.Find(ctx, "r2")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

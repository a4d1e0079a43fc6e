// Package memory is an in-process implementation of the repositories and of
// dbx.Runner, used for local development (DSN "memory://") and tests.
//
// All access goes through the Store's Runner methods, which serialize work
// behind a single mutex. InTx snapshots the state first and restores it when
// the function fails, which gives the same all-or-nothing behaviour as a
// database transaction.
package memory

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/users/internal/server/repositories/auditlog"
	"github.com/dmitrijs2005/users/internal/server/repositories/credentials"
	"github.com/dmitrijs2005/users/internal/server/repositories/resettokens"
	"github.com/dmitrijs2005/users/internal/server/repositories/sessions"
)

type state struct {
	accounts     map[string]models.Account
	byIdentifier map[string]string
	credentials  map[string]models.Credential
	sessions     map[string]models.Session
	resetTokens  map[string]models.ResetToken
	audit        []models.AuditEvent
}

func newState() *state {
	return &state{
		accounts:     map[string]models.Account{},
		byIdentifier: map[string]string{},
		credentials:  map[string]models.Credential{},
		sessions:     map[string]models.Session{},
		resetTokens:  map[string]models.ResetToken{},
	}
}

func (s *state) clone() *state {
	c := &state{
		accounts:     make(map[string]models.Account, len(s.accounts)),
		byIdentifier: make(map[string]string, len(s.byIdentifier)),
		credentials:  make(map[string]models.Credential, len(s.credentials)),
		sessions:     make(map[string]models.Session, len(s.sessions)),
		resetTokens:  make(map[string]models.ResetToken, len(s.resetTokens)),
		audit:        append([]models.AuditEvent(nil), s.audit...),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.byIdentifier {
		c.byIdentifier[k] = v
	}
	for k, v := range s.credentials {
		c.credentials[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.resetTokens {
		c.resetTokens[k] = v
	}
	return c
}

// Store holds all data and implements both dbx.Runner and
// repomanager.RepositoryManager. The DBTX handed to callbacks is nil; the
// repositories ignore it.
type Store struct {
	mu sync.Mutex
	st *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, db dbx.DBTX) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, nil)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			s.st = snapshot
		}
	}()
	return fn(ctx, nil)
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Accounts(dbx.DBTX) accounts.Repository { return &accountRepo{s: s} }

func (s *Store) Credentials(dbx.DBTX) credentials.Repository { return &credentialRepo{s: s} }

func (s *Store) Sessions(dbx.DBTX) sessions.Repository { return &sessionRepo{s: s} }

func (s *Store) AuditLog(dbx.DBTX) auditlog.Repository { return &auditRepo{s: s} }

func (s *Store) ResetTokens(dbx.DBTX) resettokens.Repository { return &resetTokenRepo{s: s} }

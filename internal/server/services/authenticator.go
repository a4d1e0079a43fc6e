package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/audit"
	"github.com/dmitrijs2005/users/internal/server/auth"
	"github.com/dmitrijs2005/users/internal/server/config"
	"github.com/dmitrijs2005/users/internal/server/guard"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/password"
	"github.com/dmitrijs2005/users/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/users/internal/timex"
)

// AuthResult is what a successful authentication hands back to the caller.
// Session.Token is the bearer token; it is not retrievable later.
type AuthResult struct {
	Account         *models.Account
	Session         *models.Session
	AccessToken     string
	AccessExpiresAt time.Time
}

// Authenticator verifies secrets behind the rate-limit guard and turns a
// successful check into a session plus an access token.
type Authenticator struct {
	runner    dbx.Runner
	repos     repomanager.RepositoryManager
	verifier  *password.Verifier
	guard     *guard.Guard
	sessions  *SessionService
	locks     *AccountLocks
	clock     timex.Clock
	auditor   Auditor
	logger    logging.Logger
	jwtSecret []byte
	accessTTL time.Duration
	resetTTL  time.Duration
}

func NewAuthenticator(runner dbx.Runner, repos repomanager.RepositoryManager, verifier *password.Verifier,
	g *guard.Guard, sessions *SessionService, cfg *config.Config, clock timex.Clock, locks *AccountLocks,
	auditor Auditor, logger logging.Logger) *Authenticator {
	return &Authenticator{
		runner:    runner,
		repos:     repos,
		verifier:  verifier,
		guard:     g,
		sessions:  sessions,
		locks:     locks,
		clock:     clock,
		auditor:   auditor,
		logger:    logger.With("module", "authenticator"),
		jwtSecret: []byte(cfg.SecretKey),
		accessTTL: cfg.AccessTokenValidityDuration,
		resetTTL:  cfg.ResetTokenTTL,
	}
}

// load fetches the account and its credential by normalized identifier.
func (a *Authenticator) load(ctx context.Context, lookup func(ctx context.Context, db dbx.DBTX) (*models.Account, error)) (*models.Account, *models.Credential, error) {
	var acc *models.Account
	var cred *models.Credential
	err := a.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		if acc, err = lookup(ctx, db); err != nil {
			return err
		}
		cred, err = a.repos.Credentials(db).Get(ctx, acc.ID)
		if errors.Is(err, common.ErrorNotFound) {
			// pending_deletion accounts have no credential left
			return common.ErrAccountNotActive
		}
		return err
	})
	return acc, cred, err
}

func (a *Authenticator) mint(sess *models.Session) (string, time.Time, error) {
	now := a.clock.Now()
	tok, err := auth.GenerateToken(sess.AccountID, sess.ID, a.jwtSecret, now, a.accessTTL)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return tok, now.Add(a.accessTTL), nil
}

// Authenticate checks identifier and plaintext and, when they match an
// active account that is not locked out, issues a new session.
//
// Errors: common.ErrRateLimited (as *guard.LockoutError), ErrInvalidCredential,
// ErrorNotFound, ErrAccountNotActive, ErrCorruptCredential or a store error.
// Callers facing the network should not tell the first four apart.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, plaintext string, info models.ClientInfo) (*AuthResult, error) {
	res, key, err := a.authenticate(ctx, identifier, plaintext, info)

	e := event(audit.OpAuthenticate, "", info, err)
	e.Identifier = key
	if res != nil {
		e.AccountID = res.Account.ID
	}
	a.auditor.Record(ctx, e)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Authenticator) authenticate(ctx context.Context, identifier, plaintext string, info models.ClientInfo) (*AuthResult, string, error) {
	key, normErr := models.NormalizeIdentifier(identifier)
	if normErr != nil {
		key = strings.ToLower(strings.TrimSpace(identifier))
	}

	attempt, err := a.guard.Acquire(ctx, key, info.Source)
	if err != nil {
		return nil, key, err
	}
	// bookkeeping must not be lost to a canceled request
	bg := context.WithoutCancel(ctx)

	if normErr != nil {
		// cannot exist; still spend the hashing time and count the attempt
		a.verifier.DummyVerify(plaintext)
		attempt.Fail(bg)
		return nil, key, common.ErrInvalidCredential
	}

	acc, cred, err := a.load(ctx, func(ctx context.Context, db dbx.DBTX) (*models.Account, error) {
		return a.repos.Accounts(db).GetByIdentifier(ctx, key)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrAccountNotActive) {
			a.verifier.DummyVerify(plaintext)
			attempt.Fail(bg)
		} else {
			attempt.Release(bg)
		}
		return nil, key, err
	}

	ok, err := a.verifier.Verify(plaintext, cred)
	if err != nil {
		attempt.Release(bg)
		a.logger.Error(ctx, "credential record unusable", "account_id", acc.ID, "error", err)
		return nil, key, err
	}
	if !ok {
		attempt.Fail(bg)
		return nil, key, common.ErrInvalidCredential
	}
	attempt.Succeed(bg)

	if acc.Status != models.StatusActive {
		return nil, key, common.ErrAccountNotActive
	}

	if a.verifier.NeedsRehash(cred) {
		a.rehash(bg, cred, plaintext, info)
	}

	sess, err := a.sessions.Issue(ctx, acc.ID, info)
	if err != nil {
		return nil, key, err
	}
	a.touchLastLogin(bg, acc, sess.IssuedAt)

	tok, exp, err := a.mint(sess)
	if err != nil {
		return nil, key, err
	}

	return &AuthResult{Account: acc, Session: sess, AccessToken: tok, AccessExpiresAt: exp}, key, nil
}

// touchLastLogin stamps the login on the account. A failure is logged; the
// session stands.
func (a *Authenticator) touchLastLogin(ctx context.Context, acc *models.Account, at time.Time) {
	err := a.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		return a.repos.Accounts(db).TouchLastLogin(ctx, acc.ID, at)
	})
	if err != nil {
		a.logger.Warn(ctx, "last login not recorded", "account_id", acc.ID, "error", err)
		return
	}
	acc.LastLoginAt = &at
}

// rehash upgrades a credential to the current policy. Failure is logged and
// otherwise ignored; the old credential keeps working.
func (a *Authenticator) rehash(ctx context.Context, cur *models.Credential, plaintext string, info models.ClientInfo) {
	next, err := a.verifier.Hash(plaintext)
	if err == nil {
		next.AccountID = cur.AccountID
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = a.clock.Now()
		err = a.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
			return a.repos.Credentials(db).Rotate(ctx, next, cur.Version)
		})
	}

	a.auditor.Record(ctx, event(audit.OpRehashCredential, cur.AccountID, info, err))
	if err != nil {
		a.logger.Warn(ctx, "credential rehash failed", "account_id", cur.AccountID, "error", err)
		return
	}
	a.logger.Info(ctx, "credential rehashed", "account_id", cur.AccountID, "policy_version", next.PolicyVersion)
}

// Refresh extends the session behind token and mints a new access token.
func (a *Authenticator) Refresh(ctx context.Context, token string, info models.ClientInfo) (*AuthResult, error) {
	sess, err := a.sessions.Refresh(ctx, token, info)
	if err != nil {
		return nil, err
	}
	tok, exp, err := a.mint(sess)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Session: sess, AccessToken: tok, AccessExpiresAt: exp}, nil
}

// ValidateAccessToken checks an access token and the session it is bound to.
func (a *Authenticator) ValidateAccessToken(ctx context.Context, accessToken string) (*models.Session, error) {
	claims, err := auth.ParseToken(accessToken, a.jwtSecret, a.clock.Now)
	if err != nil {
		return nil, err
	}
	sess, err := a.sessions.ValidateID(ctx, claims.SessionID)
	if err != nil {
		if isSessionGone(err) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
		}
		return nil, err
	}
	if sess.AccountID != claims.AccountID {
		return nil, common.ErrInvalidToken
	}
	return sess, nil
}

// ChangePassword replaces the account's secret after checking the old one.
// Every session of the account is revoked and a fresh one is issued to the
// caller.
func (a *Authenticator) ChangePassword(ctx context.Context, accountID, oldPlaintext, newPlaintext string, info models.ClientInfo) (*AuthResult, error) {
	res, err := a.changePassword(ctx, accountID, oldPlaintext, newPlaintext, info)
	a.auditor.Record(ctx, event(audit.OpChangePassword, accountID, info, err))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Authenticator) changePassword(ctx context.Context, accountID, oldPlaintext, newPlaintext string, info models.ClientInfo) (*AuthResult, error) {
	if !models.ValidAccountID(accountID) {
		return nil, common.ErrorNotFound
	}
	if err := a.verifier.CheckStrength(newPlaintext); err != nil {
		return nil, err
	}

	acc, cred, err := a.load(ctx, func(ctx context.Context, db dbx.DBTX) (*models.Account, error) {
		return a.repos.Accounts(db).GetByID(ctx, accountID)
	})
	if err != nil {
		return nil, err
	}
	attempt, err := a.guard.Acquire(ctx, acc.Identifier, info.Source)
	if err != nil {
		return nil, err
	}

	ok, err := a.verifier.Verify(oldPlaintext, cred)
	bg := context.WithoutCancel(ctx)
	if err != nil {
		attempt.Release(bg)
		a.logger.Error(ctx, "credential record unusable", "account_id", acc.ID, "error", err)
		return nil, err
	}
	if !ok {
		attempt.Fail(bg)
		return nil, common.ErrInvalidCredential
	}
	attempt.Succeed(bg)

	next, err := a.verifier.Hash(newPlaintext)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}
	next.AccountID = acc.ID
	next.CreatedAt = cred.CreatedAt

	unlock := a.locks.Lock(acc.ID)
	err = a.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		locked, err := a.repos.Accounts(tx).GetForUpdate(ctx, acc.ID)
		if err != nil {
			return err
		}
		if locked.Status != models.StatusActive {
			return common.ErrAccountNotActive
		}
		now := a.clock.Now()
		next.UpdatedAt = now
		if err := a.repos.Credentials(tx).Rotate(ctx, next, cred.Version); err != nil {
			return err
		}
		_, err = a.repos.Sessions(tx).RevokeAll(ctx, acc.ID, now)
		return err
	})
	unlock()
	if err != nil {
		return nil, err
	}

	sess, err := a.sessions.Issue(ctx, acc.ID, info)
	if err != nil {
		return nil, err
	}
	tok, exp, err := a.mint(sess)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Account: acc, Session: sess, AccessToken: tok, AccessExpiresAt: exp}, nil
}

// IssueReset creates a password reset token for an active account,
// replacing any earlier one. The plaintext token is only in the returned
// value's Token field.
func (a *Authenticator) IssueReset(ctx context.Context, accountID string, info models.ClientInfo) (*models.ResetToken, error) {
	t, err := a.issueReset(ctx, accountID)
	a.auditor.Record(ctx, event(audit.OpIssueReset, accountID, info, err))
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (a *Authenticator) issueReset(ctx context.Context, accountID string) (*models.ResetToken, error) {
	if !models.ValidAccountID(accountID) {
		return nil, common.ErrorNotFound
	}
	token, err := common.MakeRandToken(common.SessionTokenBytes)
	if err != nil {
		return nil, err
	}

	unlock := a.locks.Lock(accountID)
	defer unlock()

	var out *models.ResetToken
	err = a.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		acc, err := a.repos.Accounts(tx).GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Status != models.StatusActive {
			return common.ErrAccountNotActive
		}
		now := a.clock.Now()
		out = &models.ResetToken{
			ID:        models.Fingerprint(token),
			Token:     token,
			AccountID: accountID,
			CreatedAt: now,
			ExpiresAt: now.Add(a.resetTTL),
		}
		return a.repos.ResetTokens(tx).Put(ctx, out)
	})
	if err != nil {
		return nil, err
	}
	a.logger.Info(ctx, "password reset issued", "account_id", accountID)
	return out, nil
}

// ApplyReset spends a reset token: the account gets newPlaintext as its
// secret and every session it had is revoked. An unknown or already spent
// token is common.ErrInvalidToken, an expired one common.ErrTokenExpired.
func (a *Authenticator) ApplyReset(ctx context.Context, token, newPlaintext string, info models.ClientInfo) error {
	accountID, err := a.applyReset(ctx, token, newPlaintext)
	a.auditor.Record(ctx, event(audit.OpApplyReset, accountID, info, err))
	return err
}

func (a *Authenticator) applyReset(ctx context.Context, token, newPlaintext string) (string, error) {
	if token == "" {
		return "", common.ErrInvalidToken
	}
	if err := a.verifier.CheckStrength(newPlaintext); err != nil {
		return "", err
	}
	id := models.Fingerprint(token)

	var pending *models.ResetToken
	err := a.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		pending, err = a.repos.ResetTokens(db).Find(ctx, id)
		return err
	})
	if errors.Is(err, common.ErrorNotFound) {
		return "", common.ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	if err := pending.Check(a.clock.Now()); err != nil {
		return pending.AccountID, err
	}

	next, err := a.verifier.Hash(newPlaintext)
	if err != nil {
		return pending.AccountID, fmt.Errorf("hash credential: %w", err)
	}

	unlock := a.locks.Lock(pending.AccountID)
	defer unlock()

	err = a.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		// spent by a concurrent reset since Find
		t, err := a.repos.ResetTokens(tx).Take(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		if err != nil {
			return err
		}
		now := a.clock.Now()
		if err := t.Check(now); err != nil {
			return err
		}

		acc, err := a.repos.Accounts(tx).GetForUpdate(ctx, t.AccountID)
		if err != nil {
			return err
		}
		if acc.Status != models.StatusActive {
			return common.ErrAccountNotActive
		}
		cur, err := a.repos.Credentials(tx).Get(ctx, acc.ID)
		if err != nil {
			return err
		}
		next.AccountID = acc.ID
		next.CreatedAt = cur.CreatedAt
		next.UpdatedAt = now
		if err := a.repos.Credentials(tx).Rotate(ctx, next, cur.Version); err != nil {
			return err
		}
		_, err = a.repos.Sessions(tx).RevokeAll(ctx, acc.ID, now)
		return err
	})
	if err != nil {
		return pending.AccountID, err
	}
	a.logger.Info(ctx, "password reset applied", "account_id", pending.AccountID)
	return pending.AccountID, nil
}

// SweepResetTokens deletes expired reset tokens.
func (a *Authenticator) SweepResetTokens(ctx context.Context) (int64, error) {
	var n int64
	err := a.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		n, err = a.repos.ResetTokens(db).DeleteExpired(ctx, a.clock.Now())
		return err
	})
	return n, err
}

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/audit"
	"github.com/dmitrijs2005/users/internal/server/config"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/users/internal/timex"
)

// SessionService issues, validates, refreshes and revokes sessions. Expiry
// is decided lazily against the injected clock; SweepExpired removes dead
// rows later.
type SessionService struct {
	runner  dbx.Runner
	repos   repomanager.RepositoryManager
	clock   timex.Clock
	locks   *AccountLocks
	auditor Auditor
	logger  logging.Logger

	ttl              time.Duration
	window           time.Duration
	maxLifetime      time.Duration
	singleSession    bool
	revokedRetention time.Duration
}

func NewSessionService(runner dbx.Runner, repos repomanager.RepositoryManager, cfg *config.Config,
	clock timex.Clock, locks *AccountLocks, auditor Auditor, logger logging.Logger) *SessionService {
	return &SessionService{
		runner:           runner,
		repos:            repos,
		clock:            clock,
		locks:            locks,
		auditor:          auditor,
		logger:           logger.With("module", "sessions"),
		ttl:              cfg.SessionTTL,
		window:           cfg.EffectiveSlidingWindow(),
		maxLifetime:      cfg.MaxSessionLifetime,
		singleSession:    cfg.SingleSession,
		revokedRetention: cfg.RevokedRetention,
	}
}

// capExpiry applies MaxSessionLifetime to a proposed expiry.
func (s *SessionService) capExpiry(issuedAt, expiresAt time.Time) time.Time {
	if s.maxLifetime <= 0 {
		return expiresAt
	}
	if hardStop := issuedAt.Add(s.maxLifetime); expiresAt.After(hardStop) {
		return hardStop
	}
	return expiresAt
}

// Issue creates a session for an active account. Under the single-session
// policy every other session of the account is revoked in the same
// transaction, which holds the account row lock.
func (s *SessionService) Issue(ctx context.Context, accountID string, info models.ClientInfo) (*models.Session, error) {
	if !models.ValidAccountID(accountID) {
		return nil, common.ErrorNotFound
	}
	token, err := common.MakeRandToken(common.SessionTokenBytes)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var sess *models.Session
	var revoked int64

	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		acc, err := s.repos.Accounts(tx).GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Status != models.StatusActive {
			return common.ErrAccountNotActive
		}

		now := s.clock.Now()
		sess = &models.Session{
			ID:         models.Fingerprint(token),
			Token:      token,
			AccountID:  accountID,
			IssuedAt:   now,
			ExpiresAt:  s.capExpiry(now, now.Add(s.ttl)),
			LastSeenAt: now,
			Source:     info.Source,
			UserAgent:  info.UserAgent,
		}

		repo := s.repos.Sessions(tx)
		revoked = 0
		if s.singleSession {
			if revoked, err = repo.RevokeAll(ctx, accountID, now); err != nil {
				return err
			}
		}
		return repo.Create(ctx, sess)
	})
	if err != nil {
		return nil, err
	}

	if revoked > 0 {
		s.logger.Info(ctx, "prior sessions revoked", "account_id", accountID, "count", revoked)
		s.auditor.Record(ctx, event(audit.OpRevokeAllSessions, accountID, info, nil))
	}
	return sess, nil
}

// Validate resolves a bearer token to its live session.
func (s *SessionService) Validate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	return s.ValidateID(ctx, models.Fingerprint(token))
}

// ValidateID is Validate for a session already known by its fingerprint.
func (s *SessionService) ValidateID(ctx context.Context, id string) (*models.Session, error) {
	var sess *models.Session
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		sess, err = s.repos.Sessions(db).Find(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := sess.Check(s.clock.Now()); err != nil {
		return nil, err
	}
	return sess, nil
}

// Refresh slides the expiry of a live session to now plus the sliding
// window, never past MaxSessionLifetime and never earlier than it was.
func (s *SessionService) Refresh(ctx context.Context, token string, info models.ClientInfo) (*models.Session, error) {
	if token == "" {
		return nil, common.ErrorNotFound
	}
	id := models.Fingerprint(token)

	var sess *models.Session
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Sessions(tx)

		cur, err := repo.Find(ctx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		if err := cur.Check(now); err != nil {
			return err
		}

		next := s.capExpiry(cur.IssuedAt, now.Add(s.window))
		if next.Before(cur.ExpiresAt) {
			next = cur.ExpiresAt
		}

		ok, err := repo.Extend(ctx, id, now, next)
		if err != nil {
			return err
		}
		if !ok {
			// revoked or expired between Find and Extend
			latest, err := repo.Find(ctx, id)
			if err != nil {
				return err
			}
			if err := latest.Check(now); err != nil {
				return err
			}
			return common.ErrSessionRevoked
		}

		cur.ExpiresAt = next
		cur.LastSeenAt = now
		sess = cur
		return nil
	})

	accountID := ""
	if sess != nil {
		accountID = sess.AccountID
		sess.Token = token
	}
	s.auditor.Record(ctx, event(audit.OpRefreshSession, accountID, info, err))
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// Revoke ends one session. Revoking an already revoked session succeeds.
func (s *SessionService) Revoke(ctx context.Context, token string, info models.ClientInfo) error {
	if token == "" {
		return common.ErrorNotFound
	}
	id := models.Fingerprint(token)

	var accountID string
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		repo := s.repos.Sessions(db)
		sess, err := repo.Find(ctx, id)
		if err != nil {
			return err
		}
		accountID = sess.AccountID
		_, err = repo.Revoke(ctx, id, s.clock.Now())
		return err
	})

	s.auditor.Record(ctx, event(audit.OpRevokeSession, accountID, info, err))
	return err
}

// RevokeAll ends every session of the account and reports how many were
// still unrevoked.
func (s *SessionService) RevokeAll(ctx context.Context, accountID string, info models.ClientInfo) (int64, error) {
	if !models.ValidAccountID(accountID) {
		s.auditor.Record(ctx, event(audit.OpRevokeAllSessions, accountID, info, common.ErrorNotFound))
		return 0, common.ErrorNotFound
	}
	unlock := s.locks.Lock(accountID)
	defer unlock()

	var n int64
	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Accounts(tx).GetForUpdate(ctx, accountID); err != nil {
			return err
		}
		var err error
		n, err = s.repos.Sessions(tx).RevokeAll(ctx, accountID, s.clock.Now())
		return err
	})

	s.auditor.Record(ctx, event(audit.OpRevokeAllSessions, accountID, info, err))
	if err != nil {
		return 0, err
	}
	return n, nil
}

// CountActive reports the number of live sessions of an account.
func (s *SessionService) CountActive(ctx context.Context, accountID string) (int, error) {
	if !models.ValidAccountID(accountID) {
		return 0, common.ErrorNotFound
	}
	var n int
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		n, err = s.repos.Sessions(db).CountActive(ctx, accountID, s.clock.Now())
		return err
	})
	return n, err
}

// SweepExpired deletes expired sessions and sessions revoked longer ago than
// the retention period.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now()

	var n int64
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		n, err = s.repos.Sessions(db).DeleteExpired(ctx, now, now.Add(-s.revokedRetention))
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug(ctx, "expired sessions swept", "count", n)
	}
	return n, nil
}

// isSessionGone reports whether err means the session cannot be used.
func isSessionGone(err error) bool {
	return errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrSessionExpired) ||
		errors.Is(err, common.ErrSessionRevoked)
}

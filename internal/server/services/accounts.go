package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/dbx"
	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/audit"
	"github.com/dmitrijs2005/users/internal/server/config"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/server/password"
	"github.com/dmitrijs2005/users/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/users/internal/timex"
	"github.com/google/uuid"
)

// List paging bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Audit trail bounds.
const (
	DefaultAuditLimit = 50
	MaxAuditLimit     = 500
)

// AccountService drives the account state machine. Every transition runs in
// a transaction that starts by locking the account row, under the
// in-process per-account lock.
type AccountService struct {
	runner        dbx.Runner
	repos         repomanager.RepositoryManager
	verifier      *password.Verifier
	clock         timex.Clock
	locks         *AccountLocks
	auditor       Auditor
	logger        logging.Logger
	deletionGrace time.Duration
}

func NewAccountService(runner dbx.Runner, repos repomanager.RepositoryManager, verifier *password.Verifier,
	cfg *config.Config, clock timex.Clock, locks *AccountLocks, auditor Auditor, logger logging.Logger) *AccountService {
	return &AccountService{
		runner:        runner,
		repos:         repos,
		verifier:      verifier,
		clock:         clock,
		locks:         locks,
		auditor:       auditor,
		logger:        logger.With("module", "accounts"),
		deletionGrace: cfg.DeletionGrace,
	}
}

// Create registers an account and its credential and activates it, all in
// one transaction. Hashing happens before the transaction starts.
func (s *AccountService) Create(ctx context.Context, identifier, plaintext string, info models.ClientInfo) (*models.Account, error) {
	acc, err := s.create(ctx, identifier, plaintext)

	e := event(audit.OpCreateAccount, "", info, err)
	if acc != nil {
		e.AccountID = acc.ID
		e.Identifier = acc.Identifier
	}
	s.auditor.Record(ctx, e)

	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *AccountService) create(ctx context.Context, identifier, plaintext string) (*models.Account, error) {
	normalized, err := models.NormalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if err := s.verifier.CheckStrength(plaintext); err != nil {
		return nil, err
	}
	cred, err := s.verifier.Hash(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash credential: %w", err)
	}

	id := uuid.NewString()
	var out *models.Account

	err = s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.clock.Now()
		acc := &models.Account{
			ID:         id,
			Identifier: normalized,
			Status:     models.StatusPending,
			Role:       models.RoleUser,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		accounts := s.repos.Accounts(tx)
		if err := accounts.Create(ctx, acc); err != nil {
			return err
		}

		c := *cred
		c.AccountID = id
		c.CreatedAt = now
		c.UpdatedAt = now
		if err := s.repos.Credentials(tx).Put(ctx, &c); err != nil {
			return err
		}

		if err := acc.Transition(models.StatusActive, now); err != nil {
			return err
		}
		if err := accounts.UpdateStatus(ctx, id, acc.Status, acc.LockReason, now); err != nil {
			return err
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account created", "account_id", out.ID)
	return out, nil
}

func (s *AccountService) Get(ctx context.Context, accountID string) (*models.Account, error) {
	if !models.ValidAccountID(accountID) {
		return nil, common.ErrorNotFound
	}
	var acc *models.Account
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		acc, err = s.repos.Accounts(db).GetByID(ctx, accountID)
		return err
	})
	return acc, err
}

// List pages through accounts ordered by creation. A non-positive limit
// means DefaultListLimit; larger limits are clamped to MaxListLimit.
func (s *AccountService) List(ctx context.Context, offset, limit int) ([]*models.Account, error) {
	if offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", common.ErrInvalidArgument)
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	var out []*models.Account
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		out, err = s.repos.Accounts(db).List(ctx, offset, limit)
		return err
	})
	return out, err
}

// Lock moves an active account to locked and revokes its sessions. Locking a
// locked account succeeds without changes.
func (s *AccountService) Lock(ctx context.Context, accountID, lockReason string, info models.ClientInfo) (*models.Account, error) {
	return s.transition(ctx, transitionRequest{
		op:         audit.OpLockAccount,
		accountID:  accountID,
		next:       models.StatusLocked,
		lockReason: lockReason,
		info:       info,
		after:      s.revokeSessions,
	})
}

// Unlock returns a locked account to active. Unlocking an active account
// succeeds without changes.
func (s *AccountService) Unlock(ctx context.Context, accountID string, info models.ClientInfo) (*models.Account, error) {
	return s.transition(ctx, transitionRequest{
		op:        audit.OpUnlockAccount,
		accountID: accountID,
		next:      models.StatusActive,
		from:      []models.AccountStatus{models.StatusLocked},
		info:      info,
	})
}

// Deactivate moves an active or locked account to deactivated and revokes
// all its sessions in the same transaction.
func (s *AccountService) Deactivate(ctx context.Context, accountID string, info models.ClientInfo) (*models.Account, error) {
	return s.transition(ctx, transitionRequest{
		op:        audit.OpDeactivateAccount,
		accountID: accountID,
		next:      models.StatusDeactivated,
		info:      info,
		after:     s.revokeSessions,
	})
}

// Delete moves a deactivated account to pending_deletion and removes its
// credential and sessions. The row itself goes away in PurgeDeleted.
func (s *AccountService) Delete(ctx context.Context, accountID string, info models.ClientInfo) (*models.Account, error) {
	return s.transition(ctx, transitionRequest{
		op:        audit.OpDeleteAccount,
		accountID: accountID,
		next:      models.StatusPendingDeletion,
		info:      info,
		after: func(ctx context.Context, tx dbx.DBTX, acc *models.Account, _ time.Time) error {
			if err := s.repos.Credentials(tx).Delete(ctx, acc.ID); err != nil {
				return err
			}
			if _, err := s.repos.ResetTokens(tx).DeleteByAccount(ctx, acc.ID); err != nil {
				return err
			}
			_, err := s.repos.Sessions(tx).DeleteAll(ctx, acc.ID)
			return err
		},
	})
}

// UpdateProfile applies u to the account's profile. Accounts pending
// deletion can no longer be edited.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, u models.ProfileUpdate, info models.ClientInfo) (*models.Account, error) {
	return s.mutate(ctx, audit.OpUpdateProfile, accountID, info,
		func(ctx context.Context, tx dbx.DBTX, acc *models.Account, now time.Time) (bool, error) {
			p, err := u.Apply(acc.Profile, now)
			if err != nil {
				return false, err
			}
			if err := s.repos.Accounts(tx).UpdateProfile(ctx, acc.ID, p, now); err != nil {
				return false, err
			}
			acc.Profile = p
			acc.UpdatedAt = now
			return true, nil
		})
}

// SetRole grants or withdraws the superuser role. Setting the current role
// succeeds without changes.
func (s *AccountService) SetRole(ctx context.Context, accountID string, role models.Role, info models.ClientInfo) (*models.Account, error) {
	if !role.Valid() {
		err := fmt.Errorf("%w: unknown role %q", common.ErrInvalidArgument, role)
		s.auditor.Record(ctx, event(audit.OpSetRole, accountID, info, err))
		return nil, err
	}
	return s.mutate(ctx, audit.OpSetRole, accountID, info,
		func(ctx context.Context, tx dbx.DBTX, acc *models.Account, now time.Time) (bool, error) {
			if acc.Role == role {
				return false, nil
			}
			if err := s.repos.Accounts(tx).SetRole(ctx, acc.ID, role, now); err != nil {
				return false, err
			}
			acc.Role = role
			acc.UpdatedAt = now
			return true, nil
		})
}

// mutate runs fn on the locked account row of a not yet deleted account and
// records the outcome under op. fn reports whether it changed anything.
func (s *AccountService) mutate(ctx context.Context, op, accountID string, info models.ClientInfo,
	fn func(ctx context.Context, tx dbx.DBTX, acc *models.Account, now time.Time) (bool, error)) (*models.Account, error) {
	if !models.ValidAccountID(accountID) {
		s.auditor.Record(ctx, event(op, accountID, info, common.ErrorNotFound))
		return nil, common.ErrorNotFound
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	var out *models.Account
	var changed bool

	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		acc, err := s.repos.Accounts(tx).GetForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.Status == models.StatusPendingDeletion {
			return common.ErrAccountNotActive
		}
		changed, err = fn(ctx, tx, acc, s.clock.Now())
		if err != nil {
			return err
		}
		out = acc
		return nil
	})

	e := event(op, accountID, info, err)
	if err == nil && !changed {
		e.Reason = "unchanged"
	}
	s.auditor.Record(ctx, e)

	if err != nil {
		return nil, err
	}
	return out, nil
}

// AuditTrail returns the newest audit events of an account first. Events
// outlive the account, so a purged account still has a trail. A
// non-positive limit means DefaultAuditLimit; larger limits are clamped to
// MaxAuditLimit.
func (s *AccountService) AuditTrail(ctx context.Context, accountID string, limit int) ([]*models.AuditEvent, error) {
	if !models.ValidAccountID(accountID) {
		return nil, common.ErrorNotFound
	}
	switch {
	case limit <= 0:
		limit = DefaultAuditLimit
	case limit > MaxAuditLimit:
		limit = MaxAuditLimit
	}

	var out []*models.AuditEvent
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		out, err = s.repos.AuditLog(db).ListByAccount(ctx, accountID, limit)
		return err
	})
	return out, err
}

// PurgeDeleted hard-deletes accounts that have been pending deletion for
// longer than the grace period.
func (s *AccountService) PurgeDeleted(ctx context.Context) (int64, error) {
	before := s.clock.Now().Add(-s.deletionGrace)

	var n int64
	err := s.runner.Do(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		n, err = s.repos.Accounts(db).PurgeDeleted(ctx, before)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "deleted accounts purged", "count", n)
		s.auditor.Record(ctx, models.AuditEvent{
			Operation: audit.OpPurgeAccounts,
			Outcome:   audit.OutcomeSuccess,
			Reason:    fmt.Sprintf("purged=%d", n),
		})
	}
	return n, nil
}

func (s *AccountService) revokeSessions(ctx context.Context, tx dbx.DBTX, acc *models.Account, now time.Time) error {
	_, err := s.repos.Sessions(tx).RevokeAll(ctx, acc.ID, now)
	return err
}

type transitionRequest struct {
	op         string
	accountID  string
	next       models.AccountStatus
	lockReason string
	// from restricts the starting statuses beyond the state machine's table.
	from []models.AccountStatus
	info models.ClientInfo
	// after runs inside the transaction once the status has been written.
	after func(ctx context.Context, tx dbx.DBTX, acc *models.Account, now time.Time) error
}

func (r transitionRequest) allowedFrom(st models.AccountStatus) bool {
	if len(r.from) == 0 {
		return true
	}
	for _, f := range r.from {
		if f == st {
			return true
		}
	}
	return false
}

func (s *AccountService) transition(ctx context.Context, r transitionRequest) (*models.Account, error) {
	if !models.ValidAccountID(r.accountID) {
		s.auditor.Record(ctx, event(r.op, r.accountID, r.info, common.ErrorNotFound))
		return nil, common.ErrorNotFound
	}

	unlock := s.locks.Lock(r.accountID)
	defer unlock()

	var out *models.Account
	var changed bool

	err := s.runner.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repos.Accounts(tx)
		acc, err := accounts.GetForUpdate(ctx, r.accountID)
		if err != nil {
			return err
		}

		changed = false
		if acc.Status == r.next {
			out = acc
			return nil
		}
		if !r.allowedFrom(acc.Status) {
			return &models.TransitionError{From: acc.Status, To: r.next}
		}

		now := s.clock.Now()
		if err := acc.Transition(r.next, now); err != nil {
			return err
		}
		if r.next == models.StatusLocked {
			acc.LockReason = r.lockReason
		}
		if err := accounts.UpdateStatus(ctx, acc.ID, acc.Status, acc.LockReason, now); err != nil {
			return err
		}
		if r.after != nil {
			if err := r.after(ctx, tx, acc, now); err != nil {
				return err
			}
		}
		out = acc
		changed = true
		return nil
	})

	e := event(r.op, r.accountID, r.info, err)
	if err == nil && !changed {
		e.Reason = "unchanged"
	}
	s.auditor.Record(ctx, e)

	if err != nil {
		return nil, err
	}
	if changed {
		s.logger.Info(ctx, "account status changed", "account_id", out.ID, "status", out.Status)
	}
	return out, nil
}

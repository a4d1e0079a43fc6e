// Package audit records security-relevant events. An Auditor writes every
// event to the structured log, counts it in Prometheus, and fans it out to
// any number of additional sinks (database table, NATS JetStream, S3
// archive). A failing sink is logged and never fails the caller.
package audit

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/logging"
	"github.com/dmitrijs2005/users/internal/server/models"
	"github.com/dmitrijs2005/users/internal/timex"
	"github.com/google/uuid"
)

// Operations.
const (
	OpCreateAccount     = "create_account"
	OpAuthenticate      = "authenticate"
	OpRefreshSession    = "refresh_session"
	OpRevokeSession     = "revoke_session"
	OpRevokeAllSessions = "revoke_all_sessions"
	OpLockAccount       = "lock_account"
	OpUnlockAccount     = "unlock_account"
	OpDeactivateAccount = "deactivate_account"
	OpDeleteAccount     = "delete_account"
	OpPurgeAccounts     = "purge_accounts"
	OpChangePassword    = "change_password"
	OpRehashCredential  = "rehash_credential"
	OpUpdateProfile     = "update_profile"
	OpSetRole           = "set_role"
	OpIssueReset        = "issue_password_reset"
	OpApplyReset        = "apply_password_reset"
)

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Sink receives audit events after they have been logged.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e models.AuditEvent) error
}

type Auditor struct {
	logger  logging.Logger
	clock   timex.Clock
	metrics *Metrics
	sinks   []Sink
}

// NewAuditor builds an Auditor. metrics may be nil.
func NewAuditor(logger logging.Logger, clock timex.Clock, metrics *Metrics, sinks ...Sink) *Auditor {
	return &Auditor{
		logger:  logger.With("module", "audit"),
		clock:   clock,
		metrics: metrics,
		sinks:   sinks,
	}
}

// Record stamps e with an id and time when missing and delivers it. Delivery
// is detached from ctx cancellation so an abandoned request still leaves its
// trail.
func (a *Auditor) Record(ctx context.Context, e models.AuditEvent) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = a.clock.Now()
	}
	ctx = context.WithoutCancel(ctx)

	args := []any{
		"event_id", e.ID,
		"account_id", e.AccountID,
		"operation", e.Operation,
		"outcome", e.Outcome,
		"timestamp", e.OccurredAt.Format(time.RFC3339Nano),
	}
	if e.Identifier != "" {
		args = append(args, "identifier", e.Identifier)
	}
	if e.Reason != "" {
		args = append(args, "reason", e.Reason)
	}
	if e.Source != "" {
		args = append(args, "source", e.Source)
	}
	if e.Outcome == OutcomeSuccess {
		a.logger.Info(ctx, "audit", args...)
	} else {
		a.logger.Warn(ctx, "audit", args...)
	}

	a.metrics.observe(e)

	for _, s := range a.sinks {
		if err := s.Publish(ctx, e); err != nil {
			a.metrics.sinkFailed(s.Name())
			a.logger.Warn(ctx, "audit sink failed", "sink", s.Name(), "event_id", e.ID, "error", err)
		}
	}
}

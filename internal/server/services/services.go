// Package services implements the account lifecycle, session management and
// authentication on top of the repositories.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/audit"
	"github.com/dmitrijs2005/users/internal/server/models"
)

// Auditor receives audit events. *audit.Auditor satisfies it.
type Auditor interface {
	Record(ctx context.Context, e models.AuditEvent)
}

var _ Auditor = (*audit.Auditor)(nil)

// reason maps an error to the short tag stored with failed audit events.
func reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrDuplicateIdentifier):
		return "duplicate_identifier"
	case errors.Is(err, common.ErrConflict):
		return "conflict"
	case errors.Is(err, common.ErrorNotFound):
		return "not_found"
	case errors.Is(err, common.ErrWeakCredential):
		return "weak_credential"
	case errors.Is(err, common.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, common.ErrInvalidCredential):
		return "invalid_credential"
	case errors.Is(err, common.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, common.ErrAccountNotActive):
		return "account_not_active"
	case errors.Is(err, common.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, common.ErrCorruptCredential):
		return "corrupt_credential"
	case errors.Is(err, common.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, common.ErrSessionRevoked):
		return "session_revoked"
	case errors.Is(err, common.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, common.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, common.ErrTransientStore):
		return "transient_store"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func outcome(err error) string {
	if err != nil {
		return audit.OutcomeFailure
	}
	return audit.OutcomeSuccess
}

func event(op, accountID string, info models.ClientInfo, err error) models.AuditEvent {
	return models.AuditEvent{
		AccountID: accountID,
		Operation: op,
		Outcome:   outcome(err),
		Reason:    reason(err),
		Source:    info.Source,
	}
}

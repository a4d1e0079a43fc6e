// Package auditlog persists audit events so they survive log rotation.
package auditlog

import (
	"context"

	"github.com/dmitrijs2005/users/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, e *models.AuditEvent) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*models.AuditEvent, error)
}

package memory

import (
	"context"

	"github.com/dmitrijs2005/users/internal/server/models"
)

type auditRepo struct {
	s *Store
}

func (r *auditRepo) Insert(_ context.Context, e *models.AuditEvent) error {
	r.s.st.audit = append(r.s.st.audit, *e)
	return nil
}

func (r *auditRepo) ListByAccount(_ context.Context, accountID string, limit int) ([]*models.AuditEvent, error) {
	var out []*models.AuditEvent
	for i := len(r.s.st.audit) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.s.st.audit[i]
		if e.AccountID == accountID {
			out = append(out, &e)
		}
	}
	return out, nil
}

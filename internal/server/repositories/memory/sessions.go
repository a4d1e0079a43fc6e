package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/models"
)

type sessionRepo struct {
	s *Store
}

func (r *sessionRepo) Create(_ context.Context, s *models.Session) error {
	st := r.s.st
	if _, ok := st.accounts[s.AccountID]; !ok {
		return common.ErrorNotFound
	}
	if _, ok := st.sessions[s.ID]; ok {
		return common.ErrConflict
	}
	stored := *s
	stored.Token = ""
	st.sessions[s.ID] = stored
	return nil
}

func (r *sessionRepo) Find(_ context.Context, id string) (*models.Session, error) {
	s, ok := r.s.st.sessions[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (r *sessionRepo) Extend(_ context.Context, id string, now, expiresAt time.Time) (bool, error) {
	s, ok := r.s.st.sessions[id]
	if !ok || s.Revoked || !s.ExpiresAt.After(now) {
		return false, nil
	}
	s.ExpiresAt = expiresAt
	s.LastSeenAt = now
	r.s.st.sessions[id] = s
	return true, nil
}

func (r *sessionRepo) Revoke(_ context.Context, id string, at time.Time) (bool, error) {
	s, ok := r.s.st.sessions[id]
	if !ok || s.Revoked {
		return false, nil
	}
	revokeSession(&s, at)
	r.s.st.sessions[id] = s
	return true, nil
}

func (r *sessionRepo) RevokeAll(_ context.Context, accountID string, at time.Time) (int64, error) {
	var n int64
	for id, s := range r.s.st.sessions {
		if s.AccountID != accountID || s.Revoked {
			continue
		}
		revokeSession(&s, at)
		r.s.st.sessions[id] = s
		n++
	}
	return n, nil
}

func (r *sessionRepo) DeleteAll(_ context.Context, accountID string) (int64, error) {
	var n int64
	for id, s := range r.s.st.sessions {
		if s.AccountID == accountID {
			delete(r.s.st.sessions, id)
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) CountActive(_ context.Context, accountID string, now time.Time) (int, error) {
	n := 0
	for _, s := range r.s.st.sessions {
		if s.AccountID == accountID && s.Check(now) == nil {
			n++
		}
	}
	return n, nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now, revokedBefore time.Time) (int64, error) {
	var n int64
	for id, s := range r.s.st.sessions {
		expired := !s.ExpiresAt.After(now)
		stale := s.Revoked && s.RevokedAt != nil && s.RevokedAt.Before(revokedBefore)
		if expired || stale {
			delete(r.s.st.sessions, id)
			n++
		}
	}
	return n, nil
}

func revokeSession(s *models.Session, at time.Time) {
	s.Revoked = true
	t := at
	s.RevokedAt = &t
}

package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/models"
)

type resetTokenRepo struct {
	s *Store
}

func (r *resetTokenRepo) Put(_ context.Context, t *models.ResetToken) error {
	st := r.s.st
	if _, ok := st.accounts[t.AccountID]; !ok {
		return common.ErrorNotFound
	}
	for id, cur := range st.resetTokens {
		if cur.AccountID == t.AccountID {
			delete(st.resetTokens, id)
		}
	}
	stored := *t
	stored.Token = ""
	st.resetTokens[t.ID] = stored
	return nil
}

func (r *resetTokenRepo) Find(_ context.Context, id string) (*models.ResetToken, error) {
	t, ok := r.s.st.resetTokens[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *resetTokenRepo) Take(ctx context.Context, id string) (*models.ResetToken, error) {
	t, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(r.s.st.resetTokens, id)
	return t, nil
}

func (r *resetTokenRepo) DeleteByAccount(_ context.Context, accountID string) (int64, error) {
	return r.deleteWhere(func(t models.ResetToken) bool { return t.AccountID == accountID }), nil
}

func (r *resetTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(t models.ResetToken) bool { return !t.ExpiresAt.After(now) }), nil
}

func (r *resetTokenRepo) deleteWhere(match func(models.ResetToken) bool) int64 {
	var n int64
	for id, t := range r.s.st.resetTokens {
		if match(t) {
			delete(r.s.st.resetTokens, id)
			n++
		}
	}
	return n
}

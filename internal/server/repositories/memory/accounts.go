package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/models"
)

type accountRepo struct {
	s *Store
}

func (r *accountRepo) Create(_ context.Context, a *models.Account) error {
	st := r.s.st
	if _, taken := st.byIdentifier[a.Identifier]; taken {
		return common.ErrDuplicateIdentifier
	}
	if _, exists := st.accounts[a.ID]; exists {
		return common.ErrConflict
	}
	stored := *a
	if stored.Role == "" {
		stored.Role = models.RoleUser
	}
	st.accounts[a.ID] = stored
	st.byIdentifier[a.Identifier] = a.ID
	return nil
}

func (r *accountRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	a, ok := r.s.st.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *accountRepo) GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	id, ok := r.s.st.byIdentifier[identifier]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *accountRepo) GetForUpdate(ctx context.Context, id string) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *accountRepo) UpdateStatus(_ context.Context, id string, status models.AccountStatus, lockReason string, at time.Time) error {
	a, ok := r.s.st.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Status = status
	a.LockReason = lockReason
	a.UpdatedAt = at
	r.s.st.accounts[id] = a
	return nil
}

func (r *accountRepo) UpdateProfile(_ context.Context, id string, p models.Profile, at time.Time) error {
	return r.update(id, func(a *models.Account) {
		a.Profile = p
		a.UpdatedAt = at
	})
}

func (r *accountRepo) SetRole(_ context.Context, id string, role models.Role, at time.Time) error {
	return r.update(id, func(a *models.Account) {
		a.Role = role
		a.UpdatedAt = at
	})
}

func (r *accountRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return r.update(id, func(a *models.Account) {
		t := at
		a.LastLoginAt = &t
	})
}

func (r *accountRepo) update(id string, fn func(a *models.Account)) error {
	a, ok := r.s.st.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&a)
	r.s.st.accounts[id] = a
	return nil
}

func (r *accountRepo) List(_ context.Context, offset, limit int) ([]*models.Account, error) {
	all := make([]*models.Account, 0, len(r.s.st.accounts))
	for _, a := range r.s.st.accounts {
		a := a
		all = append(all, &a)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *accountRepo) PurgeDeleted(_ context.Context, before time.Time) (int64, error) {
	st := r.s.st
	var n int64
	for id, a := range st.accounts {
		if a.Status != models.StatusPendingDeletion || !a.UpdatedAt.Before(before) {
			continue
		}
		delete(st.accounts, id)
		delete(st.byIdentifier, a.Identifier)
		delete(st.credentials, id)
		for tid, tok := range st.resetTokens {
			if tok.AccountID == id {
				delete(st.resetTokens, tid)
			}
		}
		for sid, sess := range st.sessions {
			if sess.AccountID == id {
				delete(st.sessions, sid)
			}
		}
		n++
	}
	return n, nil
}

package memory

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/models"
)

type credentialRepo struct {
	s *Store
}

func (r *credentialRepo) Put(_ context.Context, c *models.Credential) error {
	st := r.s.st
	if _, ok := st.accounts[c.AccountID]; !ok {
		return fmt.Errorf("%w: account %s does not exist", common.ErrConflict, c.AccountID)
	}
	if _, ok := st.credentials[c.AccountID]; ok {
		return fmt.Errorf("%w: account %s already has a credential", common.ErrConflict, c.AccountID)
	}
	c.Version = 1
	c.UpdatedAt = c.CreatedAt
	st.credentials[c.AccountID] = cloneCredential(*c)
	return nil
}

func (r *credentialRepo) Get(_ context.Context, accountID string) (*models.Credential, error) {
	c, ok := r.s.st.credentials[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c = cloneCredential(c)
	return &c, nil
}

func (r *credentialRepo) Rotate(_ context.Context, c *models.Credential, expectedVersion int64) error {
	cur, ok := r.s.st.credentials[c.AccountID]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("%w: credential version %d is stale", common.ErrConflict, expectedVersion)
	}
	next := cloneCredential(*c)
	next.Version = cur.Version + 1
	next.CreatedAt = cur.CreatedAt
	r.s.st.credentials[c.AccountID] = next
	c.Version = next.Version
	return nil
}

func (r *credentialRepo) Delete(_ context.Context, accountID string) error {
	delete(r.s.st.credentials, accountID)
	return nil
}

func cloneCredential(c models.Credential) models.Credential {
	c.Salt = append([]byte(nil), c.Salt...)
	c.Hash = append([]byte(nil), c.Hash...)
	return c
}

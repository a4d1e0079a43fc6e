// Package credentials stores the hashed secret of each account. It never
// looks accounts up by identifier and never verifies secrets.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/users/internal/server/models"
)

type Repository interface {
	// Put stores the first credential of an account. It fails with
	// common.ErrConflict if the account is missing or already has one.
	Put(ctx context.Context, c *models.Credential) error
	Get(ctx context.Context, accountID string) (*models.Credential, error)
	// Rotate replaces the credential only if its stored version still equals
	// expectedVersion, bumping the version; otherwise common.ErrConflict.
	Rotate(ctx context.Context, c *models.Credential, expectedVersion int64) error
	Delete(ctx context.Context, accountID string) error
}

// Package accounts persists account records and their lifecycle status.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/server/models"
)

// Repository implementations report common.ErrorNotFound for an id that is
// not a canonical account id without consulting storage.
type Repository interface {
	// Create inserts a new account; a taken identifier yields
	// common.ErrDuplicateIdentifier.
	Create(ctx context.Context, a *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	// GetForUpdate reads the account and locks its row until the enclosing
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*models.Account, error)
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus, lockReason string, at time.Time) error
	// UpdateProfile overwrites the descriptive fields of the account.
	UpdateProfile(ctx context.Context, id string, p models.Profile, at time.Time) error
	SetRole(ctx context.Context, id string, role models.Role, at time.Time) error
	// TouchLastLogin stamps the last successful login without moving
	// UpdatedAt.
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, offset, limit int) ([]*models.Account, error)
	// PurgeDeleted hard-deletes accounts that entered pending_deletion
	// before the given time and returns how many were removed.
	PurgeDeleted(ctx context.Context, before time.Time) (int64, error)
}

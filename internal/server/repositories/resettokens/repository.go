// Package resettokens persists single-use password reset tokens keyed by
// token fingerprint.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/server/models"
)

type Repository interface {
	// Put stores t, replacing any token the account already holds.
	Put(ctx context.Context, t *models.ResetToken) error
	// Find returns the token stored under id, or common.ErrorNotFound.
	Find(ctx context.Context, id string) (*models.ResetToken, error)
	// Take deletes the token and returns it, so a token is spent at most
	// once even under concurrent use.
	Take(ctx context.Context, id string) (*models.ResetToken, error)
	DeleteByAccount(ctx context.Context, accountID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

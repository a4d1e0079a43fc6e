// Package sessions persists authenticated sessions keyed by token
// fingerprint.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/users/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) error
	Find(ctx context.Context, id string) (*models.Session, error)
	// Extend moves expires_at forward and stamps last_seen_at, but only for
	// a session that is neither revoked nor expired at now.
	Extend(ctx context.Context, id string, now, expiresAt time.Time) (bool, error)
	// Revoke marks a session revoked; it reports false when it already was.
	Revoke(ctx context.Context, id string, at time.Time) (bool, error)
	RevokeAll(ctx context.Context, accountID string, at time.Time) (int64, error)
	DeleteAll(ctx context.Context, accountID string) (int64, error)
	CountActive(ctx context.Context, accountID string, now time.Time) (int, error)
	// DeleteExpired removes sessions expired at now and sessions revoked
	// before revokedBefore.
	DeleteExpired(ctx context.Context, now, revokedBefore time.Time) (int64, error)
}

package models

import (
	"time"

	"github.com/dmitrijs2005/users/internal/common"
)

// ResetToken lets the holder set a new password for one account without
// knowing the current one. Like sessions it is stored by fingerprint only,
// and an account holds at most one.
type ResetToken struct {
	ID        string
	Token     string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Check reports common.ErrTokenExpired once the token is past its expiry.
func (t *ResetToken) Check(now time.Time) error {
	if !now.Before(t.ExpiresAt) {
		return common.ErrTokenExpired
	}
	return nil
}

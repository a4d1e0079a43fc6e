package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
)

// Session is an authenticated session. ID is the SHA-256 fingerprint of the
// bearer token; Token itself is only populated right after issuance and is
// never persisted.
type Session struct {
	ID         string
	Token      string
	AccountID  string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	LastSeenAt time.Time
	Revoked    bool
	RevokedAt  *time.Time
	Source     string
	UserAgent  string
}

// ClientInfo describes where a request came from.
type ClientInfo struct {
	Source    string
	UserAgent string
}

// Fingerprint derives the storage key of a session token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Check reports why the session is unusable at now, or nil if it is live.
// Revocation takes precedence over expiry.
func (s *Session) Check(now time.Time) error {
	if s.Revoked {
		return common.ErrSessionRevoked
	}
	if !now.Before(s.ExpiresAt) {
		return common.ErrSessionExpired
	}
	return nil
}

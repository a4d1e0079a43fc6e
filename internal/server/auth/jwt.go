// Package auth mints and parses the short-lived access tokens handed out
// alongside a session.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims binds an access token to an account and to the session it was
// issued for.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
	SessionID string `json:"sid"`
}

// GenerateToken signs an HS256 token valid from now for validity.
func GenerateToken(accountID, sessionID string, secretKey []byte, now time.Time, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		AccountID: accountID,
		SessionID: sessionID,
	})
	return token.SignedString(secretKey)
}

// ParseToken validates the signature and expiry of tokenString against now.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// validation yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte, now func() time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid || claims.AccountID == "" || claims.SessionID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

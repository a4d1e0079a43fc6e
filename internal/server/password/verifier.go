package password

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/users/internal/common"
	"github.com/dmitrijs2005/users/internal/server/models"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// dummySecret is hashed once per Verifier to obtain a credential that unknown
// identifiers are checked against.
const dummySecret = "dummy-secret-0"

// Verifier hashes plaintexts under the current Policy and verifies them
// against stored credentials of any known policy. It is safe for concurrent
// use and holds no locks while hashing.
type Verifier struct {
	policy   Policy
	strength StrengthPolicy

	dummyOnce sync.Once
	dummy     *models.Credential
}

func NewVerifier(policy Policy, strength StrengthPolicy) *Verifier {
	return &Verifier{policy: policy, strength: strength}
}

func (v *Verifier) Policy() Policy { return v.policy }

// CheckStrength applies the plaintext policy.
func (v *Verifier) CheckStrength(plaintext string) error {
	return v.strength.Check(plaintext)
}

// Hash derives a new credential from plaintext under the current policy.
// AccountID and timestamps are left for the caller.
func (v *Verifier) Hash(plaintext string) (*models.Credential, error) {
	c := &models.Credential{
		Algorithm:     v.policy.Algorithm,
		PolicyVersion: v.policy.Version,
		Params:        v.policy.params(),
	}
	switch v.policy.Algorithm {
	case AlgorithmBcrypt:
		hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.policy.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("bcrypt: %w", err)
		}
		c.Hash = hash
	case AlgorithmArgon2id:
		p := v.policy.Argon2
		c.Salt = common.GenerateRandByteArray(int(p.SaltLength))
		c.Hash = argon2.IDKey([]byte(plaintext), c.Salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLength)
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", v.policy.Algorithm)
	}
	return c, nil
}

// Verify reports whether plaintext matches c. A record that cannot be
// interpreted yields an error wrapping common.ErrCorruptCredential, never a
// plain mismatch.
func (v *Verifier) Verify(plaintext string, c *models.Credential) (bool, error) {
	if c == nil || len(c.Hash) == 0 {
		return false, corrupt("empty hash")
	}
	switch c.Algorithm {
	case AlgorithmBcrypt:
		if _, err := bcrypt.Cost(c.Hash); err != nil {
			return false, corrupt(err.Error())
		}
		err := bcrypt.CompareHashAndPassword(c.Hash, []byte(plaintext))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, corrupt(err.Error())
		}
	case AlgorithmArgon2id:
		p, err := parseArgon2Params(c.Params)
		if err != nil {
			return false, corrupt(err.Error())
		}
		if len(c.Salt) == 0 {
			return false, corrupt("missing salt")
		}
		if len(c.Hash) != int(p.KeyLength) {
			return false, corrupt("hash length does not match params")
		}
		candidate := argon2.IDKey([]byte(plaintext), c.Salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLength)
		defer common.WipeByteArray(candidate)
		return subtle.ConstantTimeCompare(candidate, c.Hash) == 1, nil
	default:
		return false, corrupt(fmt.Sprintf("unknown algorithm %q", c.Algorithm))
	}
}

// NeedsRehash reports whether c was produced under a policy other than the
// current one.
func (v *Verifier) NeedsRehash(c *models.Credential) bool {
	return c.PolicyVersion != v.policy.Version ||
		c.Algorithm != v.policy.Algorithm ||
		c.Params != v.policy.params()
}

// DummyVerify spends roughly the same time as a real verification so that
// unknown identifiers are not distinguishable by latency.
func (v *Verifier) DummyVerify(plaintext string) {
	v.dummyOnce.Do(func() {
		c, err := v.Hash(dummySecret)
		if err == nil {
			v.dummy = c
		}
	})
	if v.dummy != nil {
		_, _ = v.Verify(plaintext, v.dummy)
	}
}

func corrupt(reason string) error {
	return fmt.Errorf("%w: %s", common.ErrCorruptCredential, reason)
}

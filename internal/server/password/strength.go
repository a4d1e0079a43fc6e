package password

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/users/internal/common"
)

// MaxSecretBytes is the longest plaintext accepted. bcrypt ignores anything
// past 72 bytes, so longer secrets are rejected instead of truncated.
const MaxSecretBytes = 72

const DefaultMinLength = 6

// StrengthPolicy is the plaintext policy applied to new secrets.
type StrengthPolicy struct {
	MinLength int
}

// Check returns common.ErrWeakCredential (wrapped with the failed rule) if
// plaintext does not satisfy the policy.
func (sp StrengthPolicy) Check(plaintext string) error {
	minLength := sp.MinLength
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	if !utf8.ValidString(plaintext) {
		return fmt.Errorf("%w: not valid UTF-8", common.ErrWeakCredential)
	}
	if utf8.RuneCountInString(plaintext) < minLength {
		return fmt.Errorf("%w: must be at least %d characters", common.ErrWeakCredential, minLength)
	}
	if len(plaintext) > MaxSecretBytes {
		return fmt.Errorf("%w: must be at most %d bytes", common.ErrWeakCredential, MaxSecretBytes)
	}
	var letter, digit bool
	for _, r := range plaintext {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return fmt.Errorf("%w: must contain a letter and a digit", common.ErrWeakCredential)
	}
	return nil
}

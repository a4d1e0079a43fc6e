// Package password hashes and verifies account secrets under versioned
// hashing policies.
//
// Policy version 1 is bcrypt, version 2 is argon2id. Credentials created
// under an older version, or with parameters that differ from the current
// policy, report NeedsRehash and are upgraded after the next successful
// login.
package password

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmBcrypt   = "bcrypt"
	AlgorithmArgon2id = "argon2id"
)

// Known policy versions.
const (
	PolicyBcrypt   = 1
	PolicyArgon2id = 2
)

const DefaultBcryptCost = 12

// Upper bounds applied when decoding stored argon2id parameters so that a
// damaged row cannot make verification allocate unbounded memory.
const (
	maxArgon2MemoryKiB = 4 * 1024 * 1024
	maxArgon2Time      = 16
	minArgon2KeyLength = 16
	maxArgon2KeyLength = 64
)

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time       uint32
	MemoryKiB  uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength uint32
}

var DefaultArgon2 = Argon2Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLength: 32, SaltLength: 16}

func (p Argon2Params) encode() string {
	return fmt.Sprintf("m=%d,t=%d,p=%d,l=%d", p.MemoryKiB, p.Time, p.Threads, p.KeyLength)
}

func parseArgon2Params(s string) (Argon2Params, error) {
	var p Argon2Params
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		key, raw, ok := strings.Cut(part, "=")
		if !ok || seen[key] {
			return p, fmt.Errorf("malformed argon2id params %q", s)
		}
		seen[key] = true
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return p, fmt.Errorf("malformed argon2id param %q: %w", part, err)
		}
		switch key {
		case "m":
			p.MemoryKiB = uint32(v)
		case "t":
			p.Time = uint32(v)
		case "p":
			if v > 255 {
				return p, fmt.Errorf("argon2id parallelism %d out of range", v)
			}
			p.Threads = uint8(v)
		case "l":
			p.KeyLength = uint32(v)
		default:
			return p, fmt.Errorf("unknown argon2id param %q", key)
		}
	}
	if len(seen) != 4 {
		return p, fmt.Errorf("incomplete argon2id params %q", s)
	}
	return p, p.validate()
}

func (p Argon2Params) validate() error {
	switch {
	case p.Time == 0 || p.Time > maxArgon2Time:
		return fmt.Errorf("argon2id time %d out of range", p.Time)
	case p.MemoryKiB < 8*uint32(p.Threads) || p.MemoryKiB > maxArgon2MemoryKiB:
		return fmt.Errorf("argon2id memory %d KiB out of range", p.MemoryKiB)
	case p.Threads == 0:
		return fmt.Errorf("argon2id parallelism must be positive")
	case p.KeyLength < minArgon2KeyLength || p.KeyLength > maxArgon2KeyLength:
		return fmt.Errorf("argon2id key length %d out of range", p.KeyLength)
	}
	return nil
}

func encodeBcryptParams(cost int) string {
	return "cost=" + strconv.Itoa(cost)
}

// Policy describes how new credentials are hashed.
type Policy struct {
	Version    int
	Algorithm  string
	BcryptCost int
	Argon2     Argon2Params
}

// NewPolicy builds the policy for a version number.
func NewPolicy(version, bcryptCost int, argon Argon2Params) (Policy, error) {
	switch version {
	case PolicyBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return Policy{}, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
		}
		return Policy{Version: version, Algorithm: AlgorithmBcrypt, BcryptCost: bcryptCost}, nil
	case PolicyArgon2id:
		if err := argon.validate(); err != nil {
			return Policy{}, err
		}
		if argon.SaltLength < 8 {
			return Policy{}, fmt.Errorf("argon2id salt length %d too short", argon.SaltLength)
		}
		return Policy{Version: version, Algorithm: AlgorithmArgon2id, Argon2: argon}, nil
	default:
		return Policy{}, fmt.Errorf("unknown hashing policy version %d", version)
	}
}

func (p Policy) params() string {
	if p.Algorithm == AlgorithmBcrypt {
		return encodeBcryptParams(p.BcryptCost)
	}
	return p.Argon2.encode()
}

package models

import "time"

// Credential is the hashed secret owned by exactly one account. Params holds
// the algorithm parameters in encoded form (e.g. "m=65536,t=1,p=4,l=32");
// Version is bumped on every rotation and guards concurrent replacement.
type Credential struct {
	AccountID     string
	Algorithm     string
	PolicyVersion int
	Params        string
	Salt          []byte
	Hash          []byte
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Package models defines server-side data models persisted in the database
// and the rules that govern their state.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/users/internal/common"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	StatusPending         AccountStatus = "pending"
	StatusActive          AccountStatus = "active"
	StatusLocked          AccountStatus = "locked"
	StatusDeactivated     AccountStatus = "deactivated"
	StatusPendingDeletion AccountStatus = "pending_deletion"
)

// Identifier length bounds, in runes, after normalization.
const (
	MinIdentifierLength = 3
	MaxIdentifierLength = 254
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusLocked, StatusDeactivated, StatusPendingDeletion:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to next is allowed.
//
//	pending     -> active
//	active      -> locked, deactivated
//	locked      -> active, deactivated
//	deactivated -> pending_deletion
//
// pending_deletion is terminal.
func (s AccountStatus) CanTransition(next AccountStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusActive
	case StatusActive:
		return next == StatusLocked || next == StatusDeactivated
	case StatusLocked:
		return next == StatusActive || next == StatusDeactivated
	case StatusDeactivated:
		return next == StatusPendingDeletion
	case StatusPendingDeletion:
		return false
	}
	return false
}

// TransitionError is returned for a status change the state machine forbids.
type TransitionError struct {
	From AccountStatus
	To   AccountStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move account from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return common.ErrInvalidTransition }

// Account is the identity record. ID never changes once assigned.
type Account struct {
	ID         string
	Identifier string
	Status     AccountStatus
	LockReason string
	Role       Role
	Profile    Profile
	// LastLoginAt is nil until the first successful login.
	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transition moves the account to next, stamping UpdatedAt with at.
func (a *Account) Transition(next AccountStatus, at time.Time) error {
	if !a.Status.CanTransition(next) {
		return &TransitionError{From: a.Status, To: next}
	}
	a.Status = next
	a.UpdatedAt = at
	if next != StatusLocked {
		a.LockReason = ""
	}
	return nil
}

// NormalizeIdentifier returns the canonical form used for uniqueness and
// lookups: trimmed, NFKC-normalized and case-folded.
func NormalizeIdentifier(raw string) (string, error) {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	s = norm.NFKC.String(cases.Fold().String(s))

	n := utf8.RuneCountInString(s)
	if n < MinIdentifierLength || n > MaxIdentifierLength {
		return "", fmt.Errorf("%w: identifier must be %d-%d characters", common.ErrInvalidArgument, MinIdentifierLength, MaxIdentifierLength)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return "", fmt.Errorf("%w: identifier must not contain spaces or control characters", common.ErrInvalidArgument)
		}
	}
	return s, nil
}
